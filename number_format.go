package xlsx

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const generalFormat = "General"

// builtinNumFormats holds the format codes every document starts with.
// Ids without an entry are locale dependent and have no fixed code.
var builtinNumFormats = map[int]string{
	0:  generalFormat,
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0 ;(#,##0)",
	38: "#,##0 ;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
}

// FormatOptions are the document-wide settings a format evaluation needs.
type FormatOptions struct {
	Date1904 bool
}

// FormatTable maps number format ids to format codes. Each parsed
// document owns its own table, seeded with the built-in codes.
type FormatTable struct {
	codes map[int]string

	mu     sync.Mutex
	parsed map[string][]string
}

func NewFormatTable() *FormatTable {
	t := &FormatTable{
		codes:  make(map[int]string, len(builtinNumFormats)),
		parsed: make(map[string][]string),
	}
	for id, code := range builtinNumFormats {
		t.codes[id] = code
	}
	return t
}

// Load registers code under id, replacing any previous code.
func (t *FormatTable) Load(code string, id int) {
	t.codes[id] = code
}

func (t *FormatTable) Code(id int) (string, bool) {
	code, ok := t.codes[id]
	return code, ok
}

// IDs returns the registered ids in ascending order.
func (t *FormatTable) IDs() []int {
	ids := make([]int, 0, len(t.codes))
	for id := range t.codes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Format renders v with the code registered under id.
func (t *FormatTable) Format(id int, v any, opts FormatOptions) (string, error) {
	if id == 0 {
		return FormatGeneral(v)
	}
	code, ok := t.codes[id]
	if !ok {
		return "", fmt.Errorf("%w: format id %d", ErrUnknownFormatID, id)
	}
	return t.FormatCode(code, v, opts)
}

// FormatCode renders v with an explicit format code.
func (t *FormatTable) FormatCode(code string, v any, opts FormatOptions) (string, error) {
	if isGeneral(code) {
		return FormatGeneral(v)
	}
	sections, err := t.sections(code)
	if err != nil {
		return "", err
	}
	count, section, negative, err := chooseSection(sections, v)
	if err != nil {
		return "", err
	}
	if isGeneral(section) {
		return FormatGeneral(v)
	}

	val, ok := newFormatValue(v)
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrInvalidValue, v)
	}
	if val.empty {
		return "", nil
	}
	if negative && val.isNum {
		val.num = -val.num
	}
	return evaluate(section, val, opts, count)
}

func (t *FormatTable) sections(code string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sections, ok := t.parsed[code]; ok {
		return sections, nil
	}
	sections, err := SplitFormat(code)
	if err != nil {
		return nil, err
	}
	t.parsed[code] = sections
	return sections, nil
}

// Format renders v with a code from the built-in table (an int id) or an
// explicit format code (a string), using a throwaway table.
func Format(idOrCode any, v any, opts FormatOptions) (string, error) {
	t := NewFormatTable()
	switch f := idOrCode.(type) {
	case int:
		return t.Format(f, v, opts)
	case string:
		return t.FormatCode(f, v, opts)
	default:
		return "", fmt.Errorf("%w: format selector %T", ErrInvalidValue, idOrCode)
	}
}

// SplitFormat splits a format code into its semicolon separated
// sub-formats. Semicolons inside quotes or after an escape character do
// not split.
func SplitFormat(format string) ([]string, error) {
	var result []string
	prevIndex := 0
	for i := 0; i < len(format); i++ {
		switch format[i] {
		case ';':
			result = append(result, format[prevIndex:i])
			prevIndex = i + 1
		case '\\', '_', '*':
			i++
		case '"':
			endQuoteIndex := strings.IndexByte(format[i+1:], '"')
			if endQuoteIndex == -1 {
				return nil, fmt.Errorf("%w at %d in %q", ErrUnterminatedQuote, i, format)
			}
			i += endQuoteIndex + 1
		}
	}
	return append(result, format[prevIndex:]), nil
}

// ChooseFormat picks the sub-format that applies to v and reports how
// many sub-formats the code declared.
func ChooseFormat(format string, v any) (int, string, error) {
	sections, err := SplitFormat(format)
	if err != nil {
		return 0, "", err
	}
	count, section, _, err := chooseSection(sections, v)
	return count, section, err
}

// chooseSection also reports whether the value should be negated because
// a dedicated negative sub-format carries the sign itself.
func chooseSection(sections []string, v any) (int, string, bool, error) {
	var slots [4]string
	count := len(sections)
	switch count {
	case 1:
		slots = [4]string{sections[0], sections[0], sections[0], "@"}
	case 2:
		negative := sections[1]
		if negative == "@" {
			negative = sections[0]
		}
		slots = [4]string{sections[0], negative, sections[0], "@"}
	case 4:
		copy(slots[:], sections)
	default:
		return 0, "", false, fmt.Errorf("%w: got %d in %q", ErrFormatSections, count, strings.Join(sections, ";"))
	}

	f, ok := toFloat(v)
	if !ok {
		return count, slots[3], false, nil
	}
	switch {
	case f > 0:
		return count, slots[0], false, nil
	case f < 0:
		return count, slots[1], count == 4 || (count == 2 && sections[1] != "@"), nil
	default:
		return count, slots[2], false, nil
	}
}

func isGeneral(code string) bool {
	return code == "" || strings.EqualFold(strings.TrimSpace(code), generalFormat)
}

// formatValue is the evaluator's view of a cell value: a number or text.
type formatValue struct {
	num   float64
	str   string
	isNum bool
	empty bool
}

func newFormatValue(v any) (formatValue, bool) {
	if f, ok := toFloat(v); ok {
		return formatValue{num: f, isNum: true}, true
	}
	switch x := v.(type) {
	case nil:
		return formatValue{empty: true}, true
	case bool:
		if x {
			return formatValue{str: "TRUE"}, true
		}
		return formatValue{str: "FALSE"}, true
	case string:
		return formatValue{str: x, empty: x == ""}, true
	}
	return formatValue{}, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}
