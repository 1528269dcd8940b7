// Package archive keeps a Markdown copy of every session on disk, driven by
// session change events.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/suPer8Hu/attackforge/internal/session"
)

type Archiver struct {
	store session.Store
	dir   string
}

func New(store session.Store, dir string) *Archiver {
	return &Archiver{store: store, dir: dir}
}

func (a *Archiver) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("archive: unsafe session id %q", id)
	}
	return filepath.Join(a.dir, id+".md"), nil
}

// Handle brings the archive entry for ev.SessionID in line with the store.
func (a *Archiver) Handle(ctx context.Context, ev session.Event) error {
	p, err := a.path(ev.SessionID)
	if err != nil {
		return err
	}

	if ev.Type == session.EventDeleted {
		return remove(p)
	}

	sess, ok := a.store.Get(ctx, ev.SessionID)
	if !ok {
		// a miss is not a deletion; only EventDeleted removes the file
		return ctx.Err()
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(a.dir, ev.SessionID+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(session.RenderMarkdown(sess)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func remove(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
