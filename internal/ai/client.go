package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const DefaultTimeout = 30 * time.Second

// Client issues chat completion calls against caller-supplied endpoints.
// It owns one http.Transport for the life of the process; call Close on
// shutdown.
type Client struct {
	transport *http.Transport
	http      *http.Client
	stream    *http.Client
	validate  *validator.Validate
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		transport: tr,
		http:      &http.Client{Transport: tr, Timeout: timeout},
		// no global timeout; ctx controls streaming
		stream:   &http.Client{Transport: tr},
		validate: validator.New(),
	}
}

// Close drops idle upstream connections.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

func (c *Client) newRequest(ctx context.Context, ep Endpoint, messages []ChatMessage, opts Options, stream bool) (*http.Request, error) {
	if messages == nil {
		messages = []ChatMessage{}
	}
	b, err := json.Marshal(ChatRequest{
		Model:       ep.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, &UnexpectedError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(b))
	if err != nil {
		return nil, &UnexpectedError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ep.APIKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return req, nil
}

func upstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
}

// ChatCompletion makes a single, non-retried completion call. Errors are
// always one of *TransportError, *UpstreamError or *UnexpectedError.
func (c *Client) ChatCompletion(ctx context.Context, ep Endpoint, messages []ChatMessage, opts Options) (*ChatResponse, error) {
	req, err := c.newRequest(ctx, ep, messages, opts, false)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError(resp)
	}

	var decoded ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := c.validate.Struct(&decoded); err != nil {
		return nil, &UnexpectedError{Err: fmt.Errorf("invalid response: %w", err)}
	}
	return &decoded, nil
}

// ChatCompletionStream streams assistant content chunks via SSE.
// It returns immediately with two channels; both are closed when streaming
// ends. At most one error is sent.
func (c *Client) ChatCompletionStream(ctx context.Context, ep Endpoint, messages []ChatMessage, opts Options) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		req, err := c.newRequest(ctx, ep, messages, opts, true)
		if err != nil {
			errs <- err
			return
		}

		resp, err := c.stream.Do(req)
		if err != nil {
			errs <- &TransportError{Err: err}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			errs <- upstreamError(resp)
			return
		}

		sc := bufio.NewScanner(resp.Body)
		buf := make([]byte, 0, 64*1024)
		sc.Buffer(buf, 2*1024*1024)

		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}
			var decoded streamChunk
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				errs <- &UnexpectedError{Err: fmt.Errorf("decode chunk: %w", err)}
				return
			}
			if decoded.Error != nil && decoded.Error.Message != "" {
				errs <- &UnexpectedError{Err: errors.New(decoded.Error.Message)}
				return
			}
			if len(decoded.Choices) == 0 {
				continue
			}
			if delta := decoded.Choices[0].Delta.Content; delta != "" {
				select {
				case chunks <- delta:
				case <-ctx.Done():
					errs <- &TransportError{Err: ctx.Err()}
					return
				}
			}
		}

		if err := sc.Err(); err != nil {
			errs <- &TransportError{Err: err}
		}
	}()

	return chunks, errs
}
