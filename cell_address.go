package xlsx

import (
	"fmt"
	"strconv"
	"strings"
)

// CellAddress is a zero-based column/row pair.
type CellAddress struct {
	C int
	R int
}

func (a CellAddress) String() string {
	return EncodeCell(a)
}

// Range is a rectangle given by its start and end corners, inclusive.
type Range struct {
	S CellAddress
	E CellAddress
}

func (r Range) String() string {
	return EncodeRange(r)
}

// Contains reports whether a lies inside the range.
func (r Range) Contains(a CellAddress) bool {
	return a.C >= r.S.C && a.C <= r.E.C && a.R >= r.S.R && a.R <= r.E.R
}

// EncodeColumn converts a zero-based column index into letters: 0 is "A",
// 25 is "Z", 26 is "AA".
func EncodeColumn(c int) string {
	if c < 0 {
		return ""
	}
	var buf [14]byte
	i := len(buf)
	for c++; c > 0; c = (c - 1) / 26 {
		i--
		buf[i] = byte('A' + (c-1)%26)
	}
	return string(buf[i:])
}

// DecodeColumn is the inverse of EncodeColumn. A leading '$' is ignored.
func DecodeColumn(s string) (int, error) {
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, fmt.Errorf("%w: empty column", ErrInvalidAddress)
	}
	result := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("%w: column %q", ErrInvalidAddress, s)
		}
		result = result*26 + int(c-'A') + 1
	}
	return result - 1, nil
}

// EncodeRow converts a zero-based row index into the one-based row label.
func EncodeRow(r int) string {
	return strconv.Itoa(r + 1)
}

// DecodeRow is the inverse of EncodeRow. A leading '$' is ignored.
func DecodeRow(s string) (int, error) {
	s = strings.TrimPrefix(s, "$")
	if s == "" || s[0] == '0' || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("%w: row %q", ErrInvalidAddress, s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: row %q", ErrInvalidAddress, s)
	}
	return n - 1, nil
}

func EncodeCell(a CellAddress) string {
	return EncodeColumn(a.C) + EncodeRow(a.R)
}

// DecodeCell parses addresses like "B7" or "$AA$10".
func DecodeCell(s string) (CellAddress, error) {
	i := 0
	if i < len(s) && s[i] == '$' {
		i++
	}
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	col, err := DecodeColumn(s[:i])
	if err != nil {
		return CellAddress{}, err
	}
	row, err := DecodeRow(s[i:])
	if err != nil {
		return CellAddress{}, err
	}
	return CellAddress{C: col, R: row}, nil
}

func EncodeRange(r Range) string {
	return EncodeCell(r.S) + ":" + EncodeCell(r.E)
}

// DecodeRange parses "A1:C10". A single address yields a one-cell range.
func DecodeRange(s string) (Range, error) {
	first, last, found := strings.Cut(s, ":")
	start, err := DecodeCell(first)
	if err != nil {
		return Range{}, err
	}
	if !found {
		return Range{S: start, E: start}, nil
	}
	end, err := DecodeCell(last)
	if err != nil {
		return Range{}, err
	}
	return Range{S: start, E: end}, nil
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
