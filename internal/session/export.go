package session

import (
	"errors"
	"fmt"
	"strings"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

var ErrUnsupportedFormat = errors.New("unsupported format, use 'json' or 'markdown'")

// ParseFormat is case-insensitive; an empty value means json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown":
		return FormatMarkdown, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// RenderMarkdown renders a session transcript as a Markdown document.
func RenderMarkdown(s *Session) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	fmt.Fprintf(&b, "**Created:** %s\n", s.CreatedAt)
	fmt.Fprintf(&b, "**Status:** %s\n\n", s.Status)

	b.WriteString("## Configuration\n\n")
	fmt.Fprintf(&b, "**Red Teamer:** %s\n", s.Config.RedTeamer.Name)
	fmt.Fprintf(&b, "**Target:** %s\n", s.Config.Target.Name)
	if s.Config.Judge != nil {
		fmt.Fprintf(&b, "**Judge:** %s\n", s.Config.Judge.Name)
	}
	b.WriteString("\n")

	b.WriteString("## Conversation\n\n")
	for i, m := range s.Messages {
		fmt.Fprintf(&b, "### Message %d (%s)\n", i+1, m.Role)
		fmt.Fprintf(&b, "**Time:** %s\n", m.Timestamp)
		if m.IsEdited {
			b.WriteString("**Edited:** Yes\n")
		}
		fmt.Fprintf(&b, "\n%s\n\n", m.Content)
	}

	return b.String()
}
