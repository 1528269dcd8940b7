package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// Store persists sessions keyed by id. Implementations never surface
// persistence errors through Get, Save or Delete: failures are logged and
// reported as absent / false.
type Store interface {
	// List returns every valid session, newest first. Invalid records are
	// skipped. An error means the backing store itself could not be read.
	List(ctx context.Context) ([]Session, error)
	Get(ctx context.Context, id string) (*Session, bool)
	// Save inserts or replaces the whole record at s.ID.
	Save(ctx context.Context, s *Session) bool
	// Delete reports whether id existed and was removed.
	Delete(ctx context.Context, id string) bool
}

// KeySealer encrypts model api keys before they reach a backing store.
type KeySealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

type Option func(*options)

type options struct {
	log    *slog.Logger
	sealer KeySealer
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithSealer(s KeySealer) Option {
	return func(o *options) { o.sealer = s }
}

func buildOptions(opts []Option) options {
	o := options{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// codec turns sessions into stored JSON and back.
type codec struct {
	sealer KeySealer
}

func (c codec) encode(s *Session) (json.RawMessage, error) {
	out := s
	if c.sealer != nil {
		out = s.Clone()
		for _, m := range out.models() {
			sealed, err := c.sealer.Seal(m.APIKey)
			if err != nil {
				return nil, fmt.Errorf("seal api key for %s: %w", m.ID, err)
			}
			m.APIKey = sealed
		}
	}
	return json.Marshal(out)
}

func (c codec) decode(raw []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.sealer != nil {
		for _, m := range s.models() {
			plain, err := c.sealer.Open(m.APIKey)
			if err != nil {
				return nil, fmt.Errorf("open api key for %s: %w", m.ID, err)
			}
			m.APIKey = plain
		}
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
