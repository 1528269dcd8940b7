package session

import (
	"context"
	"time"
)

// Cache is a byte cache for encoded session records.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedStore is a read-through cache in front of another Store. Writes go to
// the inner store first and then invalidate the cached entry.
type CachedStore struct {
	inner Store
	cache Cache
	ttl   time.Duration
	codec codec
	opts  options
}

func NewCachedStore(inner Store, cache Cache, ttl time.Duration, opts ...Option) *CachedStore {
	o := buildOptions(opts)
	return &CachedStore{inner: inner, cache: cache, ttl: ttl, codec: codec{sealer: o.sealer}, opts: o}
}

func cacheKey(id string) string { return "attackforge:session:" + id }

func (s *CachedStore) List(ctx context.Context) ([]Session, error) {
	return s.inner.List(ctx)
}

func (s *CachedStore) Get(ctx context.Context, id string) (*Session, bool) {
	key := cacheKey(id)
	raw, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.opts.log.Warn("session cache get failed", "session_id", id, "err", err)
	}
	if hit {
		if sess, err := s.codec.decode(raw); err == nil {
			return sess, true
		}
		_ = s.cache.Del(ctx, key)
	}

	sess, ok := s.inner.Get(ctx, id)
	if !ok {
		return nil, false
	}
	if enc, err := s.codec.encode(sess); err == nil {
		if err := s.cache.Set(ctx, key, enc, s.ttl); err != nil {
			s.opts.log.Warn("session cache set failed", "session_id", id, "err", err)
		}
	}
	return sess, true
}

func (s *CachedStore) Save(ctx context.Context, sess *Session) bool {
	ok := s.inner.Save(ctx, sess)
	s.invalidate(ctx, sess.ID)
	return ok
}

func (s *CachedStore) Delete(ctx context.Context, id string) bool {
	ok := s.inner.Delete(ctx, id)
	s.invalidate(ctx, id)
	return ok
}

func (s *CachedStore) invalidate(ctx context.Context, id string) {
	if err := s.cache.Del(ctx, cacheKey(id)); err != nil {
		s.opts.log.Warn("session cache invalidate failed", "session_id", id, "err", err)
	}
}
