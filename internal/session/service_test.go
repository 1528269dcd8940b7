package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc := NewService(newFileStore(t), pub, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC) }
	return svc, pub
}

func TestCreate_MintsIDTimestampAndStatus(t *testing.T) {
	svc, pub := newTestService(t)
	in := newTestSession("X", "1999-01-01T00:00:00Z")
	in.Status = StatusCompleted

	got, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID == "" || got.ID == "X" {
		t.Fatalf("expected a fresh id, got %q", got.ID)
	}
	if got.CreatedAt != "2025-05-01T08:30:00.000000Z" {
		t.Fatalf("unexpected created_at: %q", got.CreatedAt)
	}
	if got.Status != StatusActive {
		t.Fatalf("expected status active, got %q", got.Status)
	}
	if in.ID != "X" {
		t.Fatalf("create must not mutate its input")
	}
	stored, err := svc.Get(context.Background(), got.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Name != in.Name {
		t.Fatalf("unexpected stored session: %+v", stored)
	}
	if len(pub.events) != 1 || pub.events[0].Type != EventCreated || pub.events[0].SessionID != got.ID {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestCreate_TwiceGivesDistinctIDs(t *testing.T) {
	svc, _ := newTestService(t)
	a, err := svc.Create(context.Background(), newTestSession("X", ""))
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := svc.Create(context.Background(), newTestSession("X", ""))
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, both %q", a.ID)
	}
}

func TestUpdate_PathIDWinsAndCreatedAtIsKept(t *testing.T) {
	svc, pub := newTestService(t)
	created, err := svc.Create(context.Background(), newTestSession("", ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	body := newTestSession("other-id", "2000-01-01T00:00:00.000000Z")
	body.Status = StatusCompleted
	body.Name = "after"

	got, err := svc.Update(context.Background(), created.ID, body)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("path id must win, got %q", got.ID)
	}
	if got.CreatedAt != created.CreatedAt {
		t.Fatalf("created_at changed: %q -> %q", created.CreatedAt, got.CreatedAt)
	}
	if got.Status != StatusCompleted || got.Name != "after" {
		t.Fatalf("unexpected update result: %+v", got)
	}
	if _, err := svc.Get(context.Background(), "other-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("body id must not be used, err=%v", err)
	}
	if last := pub.events[len(pub.events)-1]; last.Type != EventUpdated {
		t.Fatalf("expected update event, got %+v", last)
	}
}

func TestUpdate_MissingStatusIsInvalid(t *testing.T) {
	svc, _ := newTestService(t)
	body := newTestSession("", "2024-01-01T00:00:00.000000Z")
	body.Status = ""
	if _, err := svc.Update(context.Background(), "s1", body); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, pub := newTestService(t)
	if err := svc.Delete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no event expected for a failed delete")
	}
}

func TestEditMessage_KeepsFirstOriginal(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.Create(context.Background(), newTestSession("", ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.EditMessage(context.Background(), created.ID, "m2", "first edit"); err != nil {
		t.Fatalf("edit 1: %v", err)
	}
	got, err := svc.EditMessage(context.Background(), created.ID, "m2", "second edit")
	if err != nil {
		t.Fatalf("edit 2: %v", err)
	}

	m := got.Messages[1]
	if m.Content != "second edit" || !m.IsEdited {
		t.Fatalf("unexpected message: %+v", m)
	}
	if m.OriginalContent == nil || *m.OriginalContent != "no" {
		t.Fatalf("original content should be the pre-edit text, got %v", m.OriginalContent)
	}
	if got.Messages[0].IsEdited {
		t.Fatalf("other messages must be untouched")
	}
}

func TestEditMessage_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.EditMessage(context.Background(), "nope", "m1", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	created, err := svc.Create(context.Background(), newTestSession("", ""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.EditMessage(context.Background(), created.ID, "m9", "x"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

type failingStore struct{ Store }

func (failingStore) Save(ctx context.Context, s *Session) bool { return false }

func TestCreate_PersistFailure(t *testing.T) {
	svc := NewService(failingStore{Store: newFileStore(t)}, nil, nil)
	if _, err := svc.Create(context.Background(), newTestSession("", "")); !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
}
