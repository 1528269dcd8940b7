package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every session in one JSON document, an object keyed by
// session id. Each write loads, mutates and rewrites the whole file.
//
// Writers are serialized within one process only; two processes sharing a
// file are last-writer-wins.
type FileStore struct {
	path  string
	codec codec
	opts  options

	mu sync.RWMutex
}

func NewFileStore(path string, opts ...Option) *FileStore {
	o := buildOptions(opts)
	return &FileStore{
		path:  path,
		codec: codec{sealer: o.sealer},
		opts:  o,
	}
}

func (s *FileStore) Path() string { return s.path }

// load returns the raw document. A missing or undecodable file is an empty
// store; only read failures are reported.
func (s *FileStore) load() (map[string]json.RawMessage, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}

	records := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(b)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(b, &records); err != nil {
		s.opts.log.Warn("sessions file is not valid json, treating as empty",
			"path", s.path, "err", err)
		return map[string]json.RawMessage{}, nil
	}
	if records == nil {
		records = map[string]json.RawMessage{}
	}
	return records, nil
}

// write replaces the file atomically, creating its directory on demand.
func (s *FileStore) write(records map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Session, error) {
	s.mu.RLock()
	records, err := s.load()
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	out := make([]Session, 0, len(records))
	for id, raw := range records {
		sess, err := s.codec.decode(raw)
		if err != nil {
			s.opts.log.Warn("skipping invalid session", "session_id", id, "err", err)
			continue
		}
		out = append(out, *sess)
	}
	SortByCreatedDesc(out)
	return out, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Session, bool) {
	s.mu.RLock()
	records, err := s.load()
	s.mu.RUnlock()
	if err != nil {
		s.opts.log.Error("load sessions failed", "session_id", id, "err", err)
		return nil, false
	}

	raw, ok := records[id]
	if !ok {
		return nil, false
	}
	sess, err := s.codec.decode(raw)
	if err != nil {
		s.opts.log.Warn("invalid session record", "session_id", id, "err", err)
		return nil, false
	}
	return sess, true
}

func (s *FileStore) Save(ctx context.Context, sess *Session) bool {
	raw, err := s.codec.encode(sess)
	if err != nil {
		s.opts.log.Error("encode session failed", "session_id", sess.ID, "err", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		s.opts.log.Error("load sessions failed", "session_id", sess.ID, "err", err)
		return false
	}
	records[sess.ID] = raw
	if err := s.write(records); err != nil {
		s.opts.log.Error("save session failed", "session_id", sess.ID, "err", err)
		return false
	}
	return true
}

func (s *FileStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		s.opts.log.Error("load sessions failed", "session_id", id, "err", err)
		return false
	}
	if _, ok := records[id]; !ok {
		return false
	}
	delete(records, id)
	if err := s.write(records); err != nil {
		s.opts.log.Error("delete session failed", "session_id", id, "err", err)
		return false
	}
	return true
}
