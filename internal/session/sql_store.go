package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// record is one row per session; the session itself is stored as a JSON
// snapshot so updates still replace the whole record.
type record struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Created   string    `gorm:"column:created_at;type:varchar(64);index;not null"`
	Body      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (record) TableName() string { return "redteam_sessions" }

// SQLStore keeps sessions in a relational table via gorm. Row-level upserts
// replace the whole-file rewrite, so concurrent writers to different
// sessions no longer clobber each other.
type SQLStore struct {
	db    *gorm.DB
	codec codec
	opts  options
}

func NewSQLStore(db *gorm.DB, opts ...Option) *SQLStore {
	o := buildOptions(opts)
	return &SQLStore{db: db, codec: codec{sealer: o.sealer}, opts: o}
}

// Migrate creates or updates the sessions table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&record{})
}

func (s *SQLStore) List(ctx context.Context) ([]Session, error) {
	var rows []record
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]Session, 0, len(rows))
	for _, r := range rows {
		sess, err := s.codec.decode([]byte(r.Body))
		if err != nil {
			s.opts.log.Warn("skipping invalid session", "session_id", r.ID, "err", err)
			continue
		}
		out = append(out, *sess)
	}
	SortByCreatedDesc(out)
	return out, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Session, bool) {
	var r record
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.opts.log.Error("get session failed", "session_id", id, "err", err)
		}
		return nil, false
	}
	sess, err := s.codec.decode([]byte(r.Body))
	if err != nil {
		s.opts.log.Warn("invalid session record", "session_id", id, "err", err)
		return nil, false
	}
	return sess, true
}

func (s *SQLStore) Save(ctx context.Context, sess *Session) bool {
	raw, err := s.codec.encode(sess)
	if err != nil {
		s.opts.log.Error("encode session failed", "session_id", sess.ID, "err", err)
		return false
	}
	r := record{ID: sess.ID, Created: sess.CreatedAt, Body: string(raw)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&r).Error
	if err != nil {
		s.opts.log.Error("save session failed", "session_id", sess.ID, "err", err)
		return false
	}
	return true
}

func (s *SQLStore) Delete(ctx context.Context, id string) bool {
	res := s.db.WithContext(ctx).Delete(&record{}, "id = ?", id)
	if res.Error != nil {
		s.opts.log.Error("delete session failed", "session_id", id, "err", res.Error)
		return false
	}
	return res.RowsAffected > 0
}
