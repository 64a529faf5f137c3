// Package xml is a small tag scanner for OOXML parts.
//
// It is not an XML parser: there is no DTD handling, no namespace
// resolution and no schema awareness. A part is treated as flat text and
// walked tag by tag, which is all the spreadsheet part readers need. The
// only structural check is that end tags balance their start tags.
package xml

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrUnclosedTag   = errors.New("xml: unclosed tag")
	ErrUnclosedQuote = errors.New("xml: unclosed attribute quote")
	ErrMismatchedTag = errors.New("xml: mismatched end tag")
	ErrUnexpectedEOF = errors.New("xml: unexpected end of document")
)

type TokenType int

const (
	StartElement TokenType = iota + 1
	EndElement
	CharData
)

type Name struct {
	Space string
	Local string
}

func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

type Attr struct {
	Name  Name
	Value string
}

// Token is a start tag, an end tag or a run of character data.
// For tags Raw holds the whole "<...>" text; for character data it holds
// the text as it appears in the part (still escaped, unless CDATA).
type Token struct {
	Type        TokenType
	Name        Name
	Attr        []Attr
	SelfClosing bool
	CDATA       bool
	Raw         string
	Offset      int
}

// Get returns the attribute value by qualified name ("r:id") or, failing
// that, by local name ("id").
func (t Token) Get(name string) (string, bool) {
	for _, a := range t.Attr {
		if a.Name.String() == name {
			return a.Value, true
		}
	}
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Value is Get without the presence flag.
func (t Token) Value(name string) string {
	v, _ := t.Get(name)
	return v
}

// Attrs returns the attributes keyed by local name. Namespace
// declarations are left out.
func (t Token) Attrs() map[string]string {
	m := make(map[string]string, len(t.Attr))
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		m[a.Name.Local] = a.Value
	}
	return m
}

// Text returns unescaped character data.
func (t Token) Text() string {
	if t.CDATA {
		return t.Raw
	}
	return Unescape(t.Raw)
}

type Decoder struct {
	data    string
	pos     int
	stack   []string
	pending *Token
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: string(data)}
}

func NewStringDecoder(data string) *Decoder {
	return &Decoder{data: data}
}

// Offset is the byte position of the next token.
func (d *Decoder) Offset() int {
	return d.pos
}

// SyntaxError is a scan failure with the text at which it happened.
type SyntaxError struct {
	Offset  int
	Snippet string
	Err     error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

const maxSnippet = 64

// Token returns the next token or io.EOF. A self-closing tag is reported
// as a StartElement with SelfClosing set followed by its EndElement.
// Other errors are *SyntaxError.
func (d *Decoder) Token() (Token, error) {
	t, err := d.token()
	if err != nil && err != io.EOF {
		snippet := d.data[d.pos:]
		if len(snippet) > maxSnippet {
			snippet = snippet[:maxSnippet]
		}
		return Token{}, &SyntaxError{Offset: d.pos, Snippet: snippet, Err: err}
	}
	return t, err
}

func (d *Decoder) token() (Token, error) {
	if d.pending != nil {
		t := *d.pending
		d.pending = nil
		return t, nil
	}

	for d.pos < len(d.data) {
		if d.data[d.pos] != '<' {
			end := strings.IndexByte(d.data[d.pos:], '<')
			if end < 0 {
				end = len(d.data) - d.pos
			}
			t := Token{Type: CharData, Raw: d.data[d.pos : d.pos+end], Offset: d.pos}
			d.pos += end
			return t, nil
		}

		rest := d.data[d.pos:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest, "-->")
			if end < 0 {
				return Token{}, ErrUnclosedTag
			}
			d.pos += end + 3
			continue
		case strings.HasPrefix(rest, "<![CDATA["):
			end := strings.Index(rest, "]]>")
			if end < 0 {
				return Token{}, ErrUnclosedTag
			}
			t := Token{Type: CharData, CDATA: true, Raw: rest[9:end], Offset: d.pos}
			d.pos += end + 3
			return t, nil
		case strings.HasPrefix(rest, "<?"):
			end := strings.Index(rest, "?>")
			if end < 0 {
				return Token{}, ErrUnclosedTag
			}
			d.pos += end + 2
			continue
		case strings.HasPrefix(rest, "<!"):
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				return Token{}, ErrUnclosedTag
			}
			d.pos += end + 1
			continue
		}

		end, err := tagEnd(rest)
		if err != nil {
			return Token{}, err
		}
		raw := rest[:end+1]
		t, err := ParseTag(raw)
		if err != nil {
			return Token{}, err
		}
		t.Offset = d.pos
		d.pos += end + 1

		switch t.Type {
		case EndElement:
			name := t.Name.String()
			if len(d.stack) == 0 || d.stack[len(d.stack)-1] != name {
				d.pos = t.Offset
				return Token{}, ErrMismatchedTag
			}
			d.stack = d.stack[:len(d.stack)-1]
		case StartElement:
			if t.SelfClosing {
				d.pending = &Token{Type: EndElement, Name: t.Name, Raw: "", Offset: d.pos}
			} else {
				d.stack = append(d.stack, t.Name.String())
			}
		}
		return t, nil
	}

	if len(d.stack) > 0 {
		return Token{}, ErrUnexpectedEOF
	}
	return Token{}, io.EOF
}

// Skip consumes tokens up to and including the end of the element whose
// start tag was returned last.
func (d *Decoder) Skip() error {
	_, err := d.InnerXML()
	return err
}

// InnerXML returns the raw content of the element whose start tag was
// returned last and consumes it together with its end tag.
func (d *Decoder) InnerXML() (string, error) {
	if d.pending != nil {
		d.pending = nil
		return "", nil
	}
	start := d.pos
	depth := 1
	for {
		t, err := d.Token()
		if err == io.EOF {
			return "", ErrUnexpectedEOF
		}
		if err != nil {
			return "", err
		}
		switch t.Type {
		case StartElement:
			depth++
		case EndElement:
			depth--
			if depth == 0 {
				return d.data[start:t.Offset], nil
			}
		}
	}
}

// tagEnd finds the '>' closing the tag at the start of s, skipping over
// quoted attribute values.
func tagEnd(s string) (int, error) {
	var quote byte
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i, nil
		}
	}
	if quote != 0 {
		return -1, ErrUnclosedQuote
	}
	return -1, ErrUnclosedTag
}
