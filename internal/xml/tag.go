package xml

import (
	"strings"
)

// ParseTag extracts the tag name and attributes from a single tag
// substring such as `<c r="A1" t="s">` or `</row>`.
func ParseTag(raw string) (Token, error) {
	t := Token{Raw: raw}
	s := strings.TrimPrefix(raw, "<")
	s = strings.TrimSuffix(s, ">")

	if strings.HasPrefix(s, "/") {
		t.Type = EndElement
		t.Name = splitName(strings.TrimSpace(s[1:]))
		return t, nil
	}

	t.Type = StartElement
	if strings.HasSuffix(s, "/") {
		t.SelfClosing = true
		s = s[:len(s)-1]
	}

	i := 0
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	t.Name = splitName(s[:i])

	for i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		start := i
		for i < len(s) && s[i] != '=' && !isSpace(s[i]) {
			i++
		}
		name := s[start:i]
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			t.Attr = append(t.Attr, Attr{Name: splitName(name)})
			continue
		}
		i++
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			t.Attr = append(t.Attr, Attr{Name: splitName(name)})
			break
		}
		quote := s[i]
		if quote != '"' && quote != '\'' {
			start = i
			for i < len(s) && !isSpace(s[i]) {
				i++
			}
			t.Attr = append(t.Attr, Attr{Name: splitName(name), Value: s[start:i]})
			continue
		}
		end := strings.IndexByte(s[i+1:], quote)
		if end < 0 {
			return Token{}, ErrUnclosedQuote
		}
		t.Attr = append(t.Attr, Attr{Name: splitName(name), Value: s[i+1 : i+1+end]})
		i += end + 2
	}
	return t, nil
}

// Namespace returns the default namespace declared on a start tag, or
// the namespace bound to the tag's own prefix.
func (t Token) Namespace() string {
	if t.Name.Space == "" {
		for _, a := range t.Attr {
			if a.Name.Space == "" && a.Name.Local == "xmlns" {
				return a.Value
			}
		}
		return ""
	}
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" && a.Name.Local == t.Name.Space {
			return a.Value
		}
	}
	return ""
}

func splitName(s string) Name {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return Name{Space: s[:i], Local: s[i+1:]}
	}
	return Name{Local: s}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
