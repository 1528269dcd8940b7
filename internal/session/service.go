package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrPersist         = errors.New("failed to persist session")
)

type EventType string

const (
	EventCreated       EventType = "session.created"
	EventUpdated       EventType = "session.updated"
	EventDeleted       EventType = "session.deleted"
	EventMessageEdited EventType = "session.message_edited"
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// Publisher receives session change events. Publishing is best effort.
type Publisher interface {
	PublishSessionEvent(ctx context.Context, ev Event) error
}

type Service struct {
	store  Store
	events Publisher
	log    *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires a store and an optional event publisher (nil disables
// events).
func NewService(store Store, events Publisher, log *slog.Logger) *Service {
	if log == nil {
		log = buildOptions(nil).log
	}
	return &Service{
		store:  store,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (s *Service) List(ctx context.Context) ([]Session, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	sess, ok := s.store.Get(ctx, id)
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Create ignores any caller-supplied id, created_at and status.
func (s *Service) Create(ctx context.Context, in *Session) (*Session, error) {
	sess := in.Clone()
	sess.ID = s.newID()
	sess.CreatedAt = s.now().Format(TimestampLayout)
	sess.Status = StatusActive

	if err := Validate(sess); err != nil {
		return nil, err
	}
	if !s.store.Save(ctx, sess) {
		return nil, ErrPersist
	}
	s.publish(ctx, EventCreated, sess.ID)
	return sess, nil
}

// Update replaces the session stored at id with in. The path id wins over
// the body; created_at of an existing record is kept.
func (s *Service) Update(ctx context.Context, id string, in *Session) (*Session, error) {
	sess := in.Clone()
	sess.ID = id
	if prev, ok := s.store.Get(ctx, id); ok {
		sess.CreatedAt = prev.CreatedAt
	} else if sess.CreatedAt == "" {
		sess.CreatedAt = s.now().Format(TimestampLayout)
	}

	if err := Validate(sess); err != nil {
		return nil, err
	}
	if !s.store.Save(ctx, sess) {
		return nil, ErrPersist
	}
	s.publish(ctx, EventUpdated, sess.ID)
	return sess, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.store.Delete(ctx, id) {
		return ErrNotFound
	}
	s.publish(ctx, EventDeleted, id)
	return nil
}

// EditMessage replaces a message's content in place. The content before the
// first edit is kept in OriginalContent.
func (s *Service) EditMessage(ctx context.Context, id, messageID, content string) (*Session, error) {
	sess, ok := s.store.Get(ctx, id)
	if !ok {
		return nil, ErrNotFound
	}

	idx := -1
	for i := range sess.Messages {
		if sess.Messages[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}

	m := &sess.Messages[idx]
	if m.OriginalContent == nil {
		orig := m.Content
		m.OriginalContent = &orig
	}
	m.Content = content
	m.IsEdited = true

	if !s.store.Save(ctx, sess) {
		return nil, ErrPersist
	}
	s.publish(ctx, EventMessageEdited, sess.ID)
	return sess, nil
}

func (s *Service) publish(ctx context.Context, t EventType, id string) {
	if s.events == nil {
		return
	}
	ev := Event{Type: t, SessionID: id, At: s.now()}
	if err := s.events.PublishSessionEvent(ctx, ev); err != nil {
		s.log.Warn("publish session event failed", "type", t, "session_id", id, "err", err)
	}
}
