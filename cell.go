package xlsx

import (
	"strconv"
	"time"
)

type CellType int

const (
	CellNumber CellType = iota
	CellString
	CellBool
	CellError
)

func (t CellType) String() string {
	switch t {
	case CellNumber:
		return "n"
	case CellString:
		return "str"
	case CellBool:
		return "b"
	case CellError:
		return "e"
	}
	return "?"
}

// Cell is one worksheet cell. Type selects which payload field is
// meaningful. A cell whose number format was applied has Type CellString
// with the rendered text, while RawType and the original payload keep
// the stored value.
type Cell struct {
	Type    CellType
	Number  float64
	Text    string
	Bool    bool
	RawType CellType
	// Raw is the <v> body as stored, the error token for error cells.
	Raw     string
	Formula string
	Runs    []RichRun
	// Style is the cellXfs index, -1 when the cell has none.
	Style     int
	Formatted bool
}

// Value returns the typed payload: float64, string, bool, or the error
// token string for error cells.
func (c *Cell) Value() any {
	switch c.Type {
	case CellNumber:
		return c.Number
	case CellString:
		return c.Text
	case CellBool:
		return c.Bool
	}
	return nil
}

// String renders the cell as display text.
func (c *Cell) String() string {
	switch c.Type {
	case CellNumber:
		return generalNumber(c.Number)
	case CellString:
		return c.Text
	case CellBool:
		if c.Bool {
			return "TRUE"
		}
		return "FALSE"
	case CellError:
		return c.Raw
	}
	return ""
}

// numberString prints the stored number with the shortest exact
// representation.
func (c *Cell) numberString() string {
	return strconv.FormatFloat(c.Number, 'f', -1, 64)
}

// Time reads a numeric cell as a date serial in the given date system.
func (c *Cell) Time(date1904 bool) (time.Time, bool) {
	if c.RawType != CellNumber {
		return time.Time{}, false
	}
	return TimeFromSerial(c.Number, date1904), true
}
