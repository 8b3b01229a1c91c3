package markdown

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

// Note is a markdown document with an optional YAML header.
type Note struct {
	Meta map[string]any
	Body string
}

// Parse splits content into header and body. Content without a leading
// fence is all body.
func Parse(content string) (Note, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, fence+"\n") {
		return Note{Meta: map[string]any{}, Body: content}, nil
	}
	rest := content[len(fence)+1:]
	var raw, body string
	switch {
	case rest == fence:
	case strings.HasPrefix(rest, fence+"\n"):
		body = rest[len(fence)+1:]
	default:
		idx := strings.Index(rest, "\n"+fence+"\n")
		if idx < 0 {
			if !strings.HasSuffix(rest, "\n"+fence) {
				return Note{}, fmt.Errorf("frontmatter is not closed")
			}
			idx = len(rest) - len(fence) - 1
			raw = rest[:idx]
		} else {
			raw = rest[:idx]
			body = rest[idx+len(fence)+2:]
		}
	}

	meta := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := yaml.Unmarshal([]byte(raw), &meta); err != nil {
			return Note{}, fmt.Errorf("decode frontmatter: %w", err)
		}
	}
	return Note{Meta: meta, Body: body}, nil
}

// Merge overwrites header keys with values from meta. Other keys stay.
func (n *Note) Merge(meta map[string]any) {
	if n.Meta == nil {
		n.Meta = map[string]any{}
	}
	for k, v := range meta {
		n.Meta[k] = v
	}
}

func (n Note) Render() (string, error) {
	var sb strings.Builder
	if len(n.Meta) > 0 {
		raw, err := yaml.Marshal(n.Meta)
		if err != nil {
			return "", fmt.Errorf("encode frontmatter: %w", err)
		}
		sb.WriteString(fence + "\n")
		sb.Write(raw)
		sb.WriteString(fence + "\n")
		if n.Body != "" && !strings.HasPrefix(n.Body, "\n") {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(n.Body)
	return sb.String(), nil
}
