package ai

// Endpoint is an OpenAI-compatible chat completions URL plus credentials.
type Endpoint struct {
	URL    string
	APIKey string
	Model  string
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are optional sampling parameters; nil fields are not sent.
type Options struct {
	Temperature *float64
	MaxTokens   *int
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the non-streaming completion body. Choices must be present
// but may be empty.
type ChatResponse struct {
	ID      string       `json:"id" validate:"required"`
	Object  string       `json:"object" validate:"required"`
	Created *int64       `json:"created" validate:"required"`
	Model   string       `json:"model" validate:"required"`
	Choices []ChatChoice `json:"choices" validate:"required"`
	Usage   *Usage       `json:"usage,omitempty"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
