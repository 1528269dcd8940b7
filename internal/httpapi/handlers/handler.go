package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/suPer8Hu/attackforge/internal/ai"
	"github.com/suPer8Hu/attackforge/internal/metrics"
	"github.com/suPer8Hu/attackforge/internal/session"
)

// Completer is the slice of *ai.Client the handlers need.
type Completer interface {
	ChatCompletion(ctx context.Context, ep ai.Endpoint, messages []ai.ChatMessage, opts ai.Options) (*ai.ChatResponse, error)
	ChatCompletionStream(ctx context.Context, ep ai.Endpoint, messages []ai.ChatMessage, opts ai.Options) (<-chan string, <-chan error)
}

type Handler struct {
	AI       Completer
	Sessions *session.Service
	Metrics  *metrics.Metrics
	Log      *slog.Logger

	now func() time.Time
}

func NewHandler(completer Completer, sessions *session.Service, m *metrics.Metrics, log *slog.Logger) *Handler {
	return &Handler{
		AI:       completer,
		Sessions: sessions,
		Metrics:  m,
		Log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) timestamp() string {
	return h.now().Format(session.TimestampLayout)
}

func (h *Handler) sessionOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	h.Metrics.SessionOps.WithLabelValues(op, result).Inc()
}
