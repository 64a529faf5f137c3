package xml

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var entities = map[string]rune{
	"amp":  '&',
	"lt":   '<',
	"gt":   '>',
	"quot": '"',
	"apos": '\'',
}

// Unescape decodes the five predefined XML entities and numeric
// character references. Unknown entities are left as they are.
func Unescape(s string) string {
	if strings.IndexByte(s, '&') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i:], ';')
		if end < 2 || end > 10 {
			b.WriteByte('&')
			i++
			continue
		}
		r, ok := entity(s[i+1 : i+end])
		if !ok {
			b.WriteByte('&')
			i++
			continue
		}
		b.WriteRune(r)
		i += end + 1
	}
	return b.String()
}

func entity(name string) (rune, bool) {
	if r, ok := entities[name]; ok {
		return r, true
	}
	if name[0] != '#' {
		return 0, false
	}
	var (
		n   uint64
		err error
	)
	if len(name) > 1 && (name[1] == 'x' || name[1] == 'X') {
		n, err = strconv.ParseUint(name[2:], 16, 32)
	} else {
		n, err = strconv.ParseUint(name[1:], 10, 32)
	}
	if err != nil || !utf8.ValidRune(rune(n)) {
		return 0, false
	}
	return rune(n), true
}

// DecodeEscapes expands the `_xHHHH_` escapes spreadsheet writers use for
// characters that XML cannot carry. Surrogate pairs written as two
// escapes are joined.
func DecodeEscapes(s string) string {
	if !strings.Contains(s, "_x") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, ok := hexEscape(s[i:])
		if !ok {
			b.WriteByte(s[i])
			i++
			continue
		}
		i += 7
		if utf16.IsSurrogate(r) {
			if r2, ok := hexEscape(s[i:]); ok {
				if joined := utf16.DecodeRune(r, r2); joined != utf8.RuneError {
					b.WriteRune(joined)
					i += 7
					continue
				}
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func hexEscape(s string) (rune, bool) {
	if len(s) < 7 || s[0] != '_' || s[1] != 'x' || s[6] != '_' {
		return 0, false
	}
	n, err := strconv.ParseUint(s[2:6], 16, 16)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}

// Text unescapes entities first and spreadsheet escapes second, which is
// the order text content is written in.
func Text(s string) string {
	return DecodeEscapes(Unescape(s))
}
