package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/attackforge/internal/ai"
	"github.com/suPer8Hu/attackforge/internal/common"
	"github.com/suPer8Hu/attackforge/internal/httpapi/middleware"
	"github.com/suPer8Hu/attackforge/internal/metrics"
	"github.com/suPer8Hu/attackforge/internal/session"
)

const noChoicesError = "No response choices returned from API"

type generateReq struct {
	ModelConfig session.ModelConfig `json:"model_config"`
	Messages    []ai.ChatMessage    `json:"messages" binding:"required"`
	Temperature *float64            `json:"temperature" binding:"omitempty,gte=0,lte=2"`
	MaxTokens   *int                `json:"max_tokens" binding:"omitempty,gte=1"`
}

type generateResp struct {
	Content string  `json:"content"`
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}

func generateFailed(msg string) generateResp {
	return generateResp{Content: "", Success: false, Error: &msg}
}

// buildMessages prepends the model's system prompt, if any.
func buildMessages(mc session.ModelConfig, in []ai.ChatMessage) []ai.ChatMessage {
	out := make([]ai.ChatMessage, 0, len(in)+1)
	if mc.SystemPrompt != "" {
		out = append(out, ai.ChatMessage{Role: "system", Content: mc.SystemPrompt})
	}
	return append(out, in...)
}

func endpointFor(mc session.ModelConfig) ai.Endpoint {
	return ai.Endpoint{URL: mc.APIURL, APIKey: mc.APIKey, Model: mc.Model}
}

func outcomeOf(err error) string {
	var trErr *ai.TransportError
	var upErr *ai.UpstreamError
	switch {
	case errors.As(err, &trErr):
		return metrics.OutcomeTransport
	case errors.As(err, &upErr):
		return metrics.OutcomeUpstream
	default:
		return metrics.OutcomeUnexpected
	}
}

// Generate runs one chat completion. Upstream failures are reported in the
// body with success=false; the HTTP status stays 200.
func (h *Handler) Generate(c *gin.Context) {
	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusUnprocessableEntity, 42201, err.Error())
		return
	}

	start := time.Now()
	resp, err := h.AI.ChatCompletion(c.Request.Context(), endpointFor(req.ModelConfig),
		buildMessages(req.ModelConfig, req.Messages),
		ai.Options{Temperature: req.Temperature, MaxTokens: req.MaxTokens},
	)
	h.Metrics.UpstreamLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := outcomeOf(err)
		h.Metrics.Generations.WithLabelValues(outcome).Inc()
		h.Log.Warn("generation failed",
			"model", req.ModelConfig.Model,
			"outcome", outcome,
			"request_id", middleware.RequestIDFrom(c),
			"err", err,
		)
		common.OK(c, generateFailed(err.Error()))
		return
	}
	if len(resp.Choices) == 0 {
		h.Metrics.Generations.WithLabelValues(metrics.OutcomeNoChoices).Inc()
		common.OK(c, generateFailed(noChoicesError))
		return
	}

	h.Metrics.Generations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	common.OK(c, generateResp{Content: resp.Choices[0].Message.Content, Success: true})
}

// GenerateStream is Generate over SSE. Events: chunk, ping, done, error.
func (h *Handler) GenerateStream(c *gin.Context) {
	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusUnprocessableEntity, 42201, err.Error())
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"type\":\"error\",\"message\":\"streaming not supported\"}\n\n")
		return
	}

	writeJSON := func(event string, payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"type\":\"error\",\"message\":\"json marshal failed\"}\n\n")
			flusher.Flush()
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, b)
		flusher.Flush()
	}

	ctx := c.Request.Context()
	start := time.Now()
	chunks, errs := h.AI.ChatCompletionStream(ctx, endpointFor(req.ModelConfig),
		buildMessages(req.ModelConfig, req.Messages),
		ai.Options{Temperature: req.Temperature, MaxTokens: req.MaxTokens},
	)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	var b strings.Builder
	for {
		select {
		case ch, ok := <-chunks:
			if !ok {
				// chunks closes after errs, so any error is already buffered
				h.Metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
				if err := <-errs; err != nil {
					outcome := outcomeOf(err)
					h.Metrics.Generations.WithLabelValues(outcome).Inc()
					h.Log.Warn("stream generation failed",
						"model", req.ModelConfig.Model,
						"outcome", outcome,
						"request_id", middleware.RequestIDFrom(c),
						"err", err,
					)
					writeJSON("error", gin.H{"type": "error", "message": err.Error()})
					return
				}
				if b.Len() == 0 {
					h.Metrics.Generations.WithLabelValues(metrics.OutcomeNoChoices).Inc()
					writeJSON("error", gin.H{"type": "error", "message": noChoicesError})
					return
				}
				h.Metrics.Generations.WithLabelValues(metrics.OutcomeSuccess).Inc()
				writeJSON("done", gin.H{"type": "done", "content": b.String()})
				return
			}
			b.WriteString(ch)
			writeJSON("chunk", gin.H{"type": "chunk", "delta": ch})

		case <-ticker.C:
			writeJSON("ping", gin.H{"type": "ping", "ts": time.Now().Unix()})

		case <-ctx.Done():
			return
		}
	}
}
