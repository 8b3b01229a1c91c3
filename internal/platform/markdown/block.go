package markdown

import "strings"

// BlockMarkers returns the comment pair that fences a generated block.
func BlockMarkers(name string) (string, string) {
	return "<!-- routinectl:" + name + ":start -->", "<!-- routinectl:" + name + ":end -->"
}

// SetBlock replaces the generated block called name. When the body has no
// such block it is appended. Text outside the markers is never touched.
func (n *Note) SetBlock(name, generated string) {
	start, end := BlockMarkers(name)
	block := start + "\n" + generated + "\n" + end

	if i := strings.Index(n.Body, start); i >= 0 {
		if j := strings.Index(n.Body[i:], end); j >= 0 {
			j += i + len(end)
			n.Body = n.Body[:i] + block + n.Body[j:]
			return
		}
	}
	switch {
	case strings.TrimSpace(n.Body) == "":
		n.Body = block + "\n"
	case strings.HasSuffix(n.Body, "\n"):
		n.Body += "\n" + block + "\n"
	default:
		n.Body += "\n\n" + block + "\n"
	}
}
