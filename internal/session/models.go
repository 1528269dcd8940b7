package session

type Role string

const (
	RoleRedTeamer Role = "red-teamer"
	RoleTarget    Role = "target"
	RoleJudge     Role = "judge"
	RoleUser      Role = "user"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// TimestampLayout is used for server-generated timestamps. Fixed width keeps
// string order and time order in agreement.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// ModelConfig is one LLM backend taking part in a session.
type ModelConfig struct {
	ID           string `json:"id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	APIURL       string `json:"api_url" binding:"required,url"`
	APIKey       string `json:"api_key" binding:"required"`
	Model        string `json:"model" binding:"required"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

type SessionConfig struct {
	RedTeamer ModelConfig  `json:"red_teamer"`
	Target    ModelConfig  `json:"target"`
	Judge     *ModelConfig `json:"judge,omitempty"`
}

type Message struct {
	ID              string  `json:"id" binding:"required"`
	Role            Role    `json:"role" binding:"required,oneof=red-teamer target judge user"`
	Content         string  `json:"content"`
	Timestamp       string  `json:"timestamp" binding:"required"`
	IsEdited        bool    `json:"is_edited"`
	OriginalContent *string `json:"original_content,omitempty"`
}

// Session is the persisted aggregate. ID, CreatedAt and Status are assigned
// by the server on create, so binding only checks them when present.
type Session struct {
	ID        string        `json:"id"`
	Name      string        `json:"name" binding:"required"`
	Config    SessionConfig `json:"config"`
	Messages  []Message     `json:"messages" binding:"required,dive"`
	CreatedAt string        `json:"created_at"`
	Status    Status        `json:"status" binding:"omitempty,oneof=active completed"`
}

func (s *Session) models() []*ModelConfig {
	out := []*ModelConfig{&s.Config.RedTeamer, &s.Config.Target}
	if s.Config.Judge != nil {
		out = append(out, s.Config.Judge)
	}
	return out
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	if s.Config.Judge != nil {
		j := *s.Config.Judge
		c.Config.Judge = &j
	}
	if s.Messages != nil {
		c.Messages = make([]Message, len(s.Messages))
		for i, m := range s.Messages {
			if m.OriginalContent != nil {
				oc := *m.OriginalContent
				m.OriginalContent = &oc
			}
			c.Messages[i] = m
		}
	}
	return &c
}
