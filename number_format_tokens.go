package xlsx

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenText
	TokenDate
	TokenNumber
	// TokenFraction is a run of '?' placeholders or an explicit
	// denominator such as "16".
	TokenFraction
	// TokenGroup is a grouping parenthesis. Value is "(" or ")".
	TokenGroup
	// TokenCondition is a bracketed color or condition; it renders nothing.
	TokenCondition
	// TokenGeneral is an embedded General keyword, as in "[Red]General".
	TokenGeneral
)

type DateField int

const (
	FieldNone DateField = iota
	FieldYear
	FieldMonth
	FieldMinute
	FieldDay
	FieldHour12
	FieldHour24
	FieldSecond
	FieldEra
	FieldAmPm
	FieldElapsedHours
	FieldElapsedMinutes
	FieldElapsedSeconds
)

// FormatToken is one lexical unit of a sub-format. For date tokens Value
// holds the lower-cased letter run ("mmm", "ss.00") and Field what it
// renders.
type FormatToken struct {
	Kind  TokenKind
	Value string
	Field DateField
}

const (
	literalChars = ",$-+/():!^&'~{}<>=.%"
	numberChars  = "0#?.,E+-%"
)

var (
	monthNames = [12][3]string{
		{"J", "Jan", "January"},
		{"F", "Feb", "February"},
		{"M", "Mar", "March"},
		{"A", "Apr", "April"},
		{"M", "May", "May"},
		{"J", "Jun", "June"},
		{"J", "Jul", "July"},
		{"A", "Aug", "August"},
		{"S", "Sep", "September"},
		{"O", "Oct", "October"},
		{"N", "Nov", "November"},
		{"D", "Dec", "December"},
	}
	dayNames = [7][2]string{
		{"Sun", "Sunday"},
		{"Mon", "Monday"},
		{"Tue", "Tuesday"},
		{"Wed", "Wednesday"},
		{"Thu", "Thursday"},
		{"Fri", "Friday"},
		{"Sat", "Saturday"},
	}
)

// Tokenize splits a single sub-format into tokens. sections is the number
// of sub-formats the whole code declared: with only one, parentheses are
// plain literals instead of negative-number grouping.
func Tokenize(format string, sections int) ([]FormatToken, error) {
	var (
		tokens   []FormatToken
		hasAmPm  bool
		lastDate byte
	)
	for i := 0; i < len(format); {
		c := format[i]
		switch {
		case c == '"':
			end := strings.IndexByte(format[i+1:], '"')
			if end == -1 {
				return nil, fmt.Errorf("%w at %d in %q", ErrUnterminatedQuote, i, format)
			}
			tokens = append(tokens, FormatToken{Kind: TokenLiteral, Value: format[i+1 : i+1+end]})
			i += end + 2

		case c == '\\':
			i++
			if i == len(format) {
				break
			}
			_, size := utf8.DecodeRuneInString(format[i:])
			w := format[i : i+size]
			kind := TokenLiteral
			if w == "(" || w == ")" {
				kind = TokenGroup
			}
			tokens = append(tokens, FormatToken{Kind: kind, Value: w})
			i += size

		case c == '_':
			tokens = append(tokens, FormatToken{Kind: TokenLiteral, Value: " "})
			i = skipRune(format, i+1)

		case c == '*':
			i = skipRune(format, i+1)

		case c == '@':
			tokens = append(tokens, FormatToken{Kind: TokenText, Value: "@"})
			i++

		case hasPrefixFold(format[i:], generalFormat):
			tokens = append(tokens, FormatToken{Kind: TokenGeneral, Value: generalFormat})
			i += len(generalFormat)

		case isDateLetter(c):
			lc := lower(c)
			j := i + 1
			for j < len(format) && lower(format[j]) == lc {
				j++
			}
			if lc == 's' && j+1 < len(format) && format[j] == '.' && format[j+1] == '0' {
				j++
				for j < len(format) && format[j] == '0' {
					j++
				}
			}
			t := FormatToken{Kind: TokenDate, Value: strings.ToLower(format[i:j])}
			switch lc {
			case 'y':
				t.Field = FieldYear
			case 'm':
				t.Field = FieldMonth
				if lastDate == 'h' {
					t.Field = FieldMinute
				}
			case 'd':
				t.Field = FieldDay
			case 'h':
				t.Field = FieldHour24
			case 's':
				t.Field = FieldSecond
			case 'e':
				t.Field = FieldEra
			}
			tokens = append(tokens, t)
			lastDate = lc
			i = j

		case c == 'A' || c == 'a':
			switch {
			case hasPrefixFold(format[i:], "AM/PM"):
				tokens = append(tokens, FormatToken{Kind: TokenDate, Value: "AM/PM", Field: FieldAmPm})
				hasAmPm = true
				i += 5
			case hasPrefixFold(format[i:], "A/P"):
				tokens = append(tokens, FormatToken{Kind: TokenDate, Value: "A/P", Field: FieldAmPm})
				hasAmPm = true
				i += 3
			default:
				tokens = append(tokens, FormatToken{Kind: TokenLiteral, Value: format[i : i+1]})
				i++
			}
			lastDate = 'a'

		case c == '[':
			end := strings.IndexByte(format[i:], ']')
			if end == -1 {
				return nil, fmt.Errorf("%w at %d in %q", ErrUnterminatedBracket, i, format)
			}
			body := format[i+1 : i+end]
			i += end + 1
			t, elapsed := bracketToken(body)
			if elapsed != 0 {
				lastDate = elapsed
			}
			if t.Kind != TokenLiteral || t.Value != "" {
				tokens = append(tokens, t)
			}

		case c == '0' || c == '#' || (c == '.' && i+1 < len(format) && (format[i+1] == '0' || format[i+1] == '#')):
			j := i + 1
			for j < len(format) {
				d := format[j]
				if strings.IndexByte(numberChars, d) >= 0 {
					j++
					continue
				}
				if d == 'e' && j+1 < len(format) && (format[j+1] == '+' || format[j+1] == '-') {
					j++
					continue
				}
				break
			}
			tokens = append(tokens, FormatToken{Kind: TokenNumber, Value: format[i:j]})
			i = j

		case c == '?':
			j := i + 1
			for j < len(format) && format[j] == '?' {
				j++
			}
			tokens = append(tokens, FormatToken{Kind: TokenFraction, Value: format[i:j]})
			i = j

		case c >= '1' && c <= '9':
			j := i + 1
			for j < len(format) && format[j] >= '0' && format[j] <= '9' {
				j++
			}
			tokens = append(tokens, FormatToken{Kind: TokenFraction, Value: format[i:j]})
			i = j

		case c == '(' || c == ')':
			kind := TokenGroup
			if sections == 1 {
				kind = TokenLiteral
			}
			tokens = append(tokens, FormatToken{Kind: kind, Value: format[i : i+1]})
			i++

		case c == ' ' || strings.IndexByte(literalChars, c) >= 0:
			tokens = append(tokens, FormatToken{Kind: TokenLiteral, Value: format[i : i+1]})
			i++

		case c >= utf8.RuneSelf:
			_, size := utf8.DecodeRuneInString(format[i:])
			tokens = append(tokens, FormatToken{Kind: TokenLiteral, Value: format[i : i+size]})
			i += size

		default:
			return nil, fmt.Errorf("%w %q at %d in %q", ErrUnrecognizedCharacter, c, i, format)
		}
	}

	resolveDateFields(tokens, hasAmPm)
	return tokens, nil
}

// resolveDateFields walks the tokens backwards: an m run that precedes
// seconds is a minute, and hours become 12-hour when an AM/PM marker is
// present.
func resolveDateFields(tokens []FormatToken, hasAmPm bool) {
	var last byte
	for i := len(tokens) - 1; i >= 0; i-- {
		t := &tokens[i]
		if t.Kind != TokenDate {
			continue
		}
		switch t.Field {
		case FieldHour12, FieldHour24:
			t.Field = FieldHour24
			if hasAmPm {
				t.Field = FieldHour12
			}
			last = 'h'
		case FieldMonth:
			if last == 's' {
				t.Field = FieldMinute
			}
		case FieldMinute:
			last = 'M'
		case FieldDay:
			last = 'd'
		case FieldYear:
			last = 'y'
		case FieldSecond:
			last = 's'
		case FieldEra:
			last = 'e'
		}
	}
}

// bracketToken interprets the body of a [...] group. The second result is
// the date letter an elapsed-time token stands for, or zero.
func bracketToken(body string) (FormatToken, byte) {
	lowerBody := strings.ToLower(body)
	if len(lowerBody) > 0 && strings.Count(lowerBody, lowerBody[:1]) == len(lowerBody) {
		switch lowerBody[0] {
		case 'h':
			return FormatToken{Kind: TokenDate, Value: lowerBody, Field: FieldElapsedHours}, 'h'
		case 'm':
			return FormatToken{Kind: TokenDate, Value: lowerBody, Field: FieldElapsedMinutes}, 'm'
		case 's':
			return FormatToken{Kind: TokenDate, Value: lowerBody, Field: FieldElapsedSeconds}, 's'
		}
	}
	if strings.HasPrefix(body, "$") {
		symbol, _, _ := strings.Cut(body[1:], "-")
		return FormatToken{Kind: TokenLiteral, Value: symbol}, 0
	}
	return FormatToken{Kind: TokenCondition, Value: body}, 0
}

func evaluate(section string, v formatValue, opts FormatOptions, sections int) (string, error) {
	tokens, err := Tokenize(section, sections)
	if err != nil {
		return "", err
	}

	var (
		sb strings.Builder
		dt *DateParts
	)
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case t.Kind == TokenCondition:
		case t.Kind == TokenText, t.Kind == TokenGeneral:
			sb.WriteString(v.text())
		case t.Kind == TokenDate:
			if !v.isNum {
				return "", fmt.Errorf("%w: date token %q needs a number", ErrInvalidValue, t.Value)
			}
			if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
				return "", fmt.Errorf("%w %q for %v", ErrUnsupportedFormat, t.Value, v.num)
			}
			if v.num < 0 {
				return "", nil
			}
			if dt == nil {
				p := NewDateParts(v.num, opts.Date1904)
				dt = &p
			}
			s, err := writeDate(t, *dt)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		case startsNumber(t):
			if !v.isNum {
				return "", fmt.Errorf("%w: number token %q needs a number", ErrInvalidValue, t.Value)
			}
			end, pattern := mergeNumber(tokens, i)
			s, err := writeNumber(pattern, v.num)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
			i = end - 1
		default:
			sb.WriteString(t.Value)
		}
	}
	return sb.String(), nil
}

func startsNumber(t FormatToken) bool {
	switch t.Kind {
	case TokenNumber:
		return true
	case TokenGroup:
		return t.Value == "("
	case TokenFraction:
		return t.Value[0] == '?'
	}
	return false
}

// mergeNumber joins the numeric token at start with the placeholders,
// separators and grouping that belong to it. It returns the index after
// the last absorbed token and the joined pattern.
func mergeNumber(tokens []FormatToken, start int) (int, string) {
	first := tokens[start]
	pattern := first.Value
	j := start + 1
	for ; j < len(tokens); j++ {
		t := tokens[j]
		var next *FormatToken
		if j+1 < len(tokens) {
			next = &tokens[j+1]
		}
		if !absorbs(first, t, next) {
			break
		}
		pattern += t.Value
	}
	return j, pattern
}

func absorbs(first, t FormatToken, next *FormatToken) bool {
	nextIsFraction := next != nil && next.Kind == TokenFraction
	switch {
	case t.Kind == TokenFraction:
		return true
	case t.Kind == TokenLiteral && (nextIsFraction || (next != nil && next.Kind == TokenLiteral && next.Value == "/")):
		return true
	case first.Kind == TokenGroup:
		if (t.Kind == TokenGroup && t.Value == ")") || t.Kind == TokenNumber || (t.Kind == TokenLiteral && t.Value == " ") {
			return true
		}
	}
	if t.Kind != TokenLiteral {
		return false
	}
	switch t.Value {
	case "/", "$", "€":
		return true
	case " ":
		return nextIsFraction
	}
	return false
}

func writeDate(t FormatToken, dt DateParts) (string, error) {
	v := t.Value
	switch t.Field {
	case FieldYear:
		if len(v) <= 2 {
			return padInt(dt.Year%100, 2), nil
		}
		return padInt(dt.Year%10000, 4), nil
	case FieldEra:
		return padInt(dt.Year, 4), nil
	case FieldMonth:
		switch len(v) {
		case 1:
			return itoa(dt.Month), nil
		case 2:
			return padInt(dt.Month, 2), nil
		case 3:
			return monthNames[dt.Month-1][1], nil
		case 5:
			return monthNames[dt.Month-1][0], nil
		default:
			return monthNames[dt.Month-1][2], nil
		}
	case FieldDay:
		switch len(v) {
		case 1:
			return itoa(dt.Day), nil
		case 2:
			return padInt(dt.Day, 2), nil
		case 3:
			return dayNames[dt.Weekday][0], nil
		default:
			return dayNames[dt.Weekday][1], nil
		}
	case FieldHour12:
		return clockField(v, 1+(dt.Hour+11)%12)
	case FieldHour24:
		return clockField(v, dt.Hour)
	case FieldMinute:
		return clockField(v, dt.Minute)
	case FieldSecond:
		whole, frac, found := strings.Cut(v, ".")
		if !found {
			return clockField(v, dt.Second)
		}
		return fractionalSeconds(whole, len(frac), dt)
	case FieldAmPm:
		pm := dt.Hour >= 12
		if v == "A/P" {
			if pm {
				return "P", nil
			}
			return "A", nil
		}
		if pm {
			return "PM", nil
		}
		return "AM", nil
	case FieldElapsedHours:
		return padInt(dt.Days*24+dt.Hour, len(v)), nil
	case FieldElapsedMinutes:
		return padInt((dt.Days*24+dt.Hour)*60+dt.Minute, len(v)), nil
	case FieldElapsedSeconds:
		return padInt(((dt.Days*24+dt.Hour)*60+dt.Minute)*60+dt.Second, len(v)), nil
	}
	return "", fmt.Errorf("%w %q", ErrBadDateToken, v)
}

func clockField(v string, n int) (string, error) {
	switch len(v) {
	case 1:
		return itoa(n), nil
	case 2:
		return padInt(n, 2), nil
	}
	return "", fmt.Errorf("%w %q", ErrBadDateToken, v)
}

// fractionalSeconds renders "ss.00"-style tokens. The clock fields are
// rounded to whole seconds, so a negative remainder borrows one second.
func fractionalSeconds(whole string, digits int, dt DateParts) (string, error) {
	if len(whole) > 2 {
		return "", fmt.Errorf("%w %q", ErrBadDateToken, whole)
	}
	sec, frac := dt.Second, dt.Fraction
	if frac < 0 && sec > 0 {
		sec--
		frac++
	}
	if frac < 0 {
		frac = 0
	}
	scale := pow10(digits)
	n := int(frac*float64(scale) + 0.5)
	if n >= scale {
		n = scale - 1
	}
	s, err := clockField(whole, sec)
	if err != nil {
		return "", err
	}
	return s + "." + padInt(n, digits), nil
}

func (v formatValue) text() string {
	if v.isNum {
		return generalNumber(v.num)
	}
	return v.str
}

func isDateLetter(c byte) bool {
	switch lower(c) {
	case 'm', 'd', 'y', 'h', 's', 'e':
		return true
	}
	return false
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func skipRune(s string, i int) int {
	if i >= len(s) {
		return len(s)
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return i + size
}
