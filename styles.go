package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/anfilat/xlsx-read/internal/xml"
)

// CellXf is one cell format record from <cellXfs>. Its position in the
// list is the style index cells refer to.
type CellXf struct {
	NumFmtID          int
	HasNumFmt         bool
	FontID            int
	FillID            int
	BorderID          int
	XfID              int
	ApplyNumberFormat bool
}

type Styles struct {
	// NumFmts holds the custom codes declared by the part.
	NumFmts map[int]string
	CellXfs []CellXf
}

// ParseStyles reads the number formats and cell formats of a styles part.
// Every declared numFmt is also registered into formats.
func ParseStyles(data string, formats *FormatTable) (*Styles, error) {
	decoder := xml.NewStringDecoder(data)

	result := &Styles{
		NumFmts: make(map[int]string),
	}

	isNumFmts := false
	isCellXfs := false
	var t xml.Token
	var err error
	for t, err = decoder.Token(); err == nil; t, err = decoder.Token() {
		switch t.Type {
		case xml.StartElement:
			switch {
			case t.Name.Local == "numFmts":
				isNumFmts = true
			case isNumFmts:
				if t.Name.Local != "numFmt" {
					return nil, fmt.Errorf("%w <%s> in numFmts", ErrStyles, t.Name)
				}
				id, err := strconv.Atoi(t.Value("numFmtId"))
				if err != nil {
					return nil, fmt.Errorf("%w: numFmtId %q", ErrStyles, t.Value("numFmtId"))
				}
				code := xml.Text(t.Value("formatCode"))
				result.NumFmts[id] = code
				formats.Load(code, id)
			case t.Name.Local == "cellXfs":
				isCellXfs = true
			case isCellXfs:
				switch t.Name.Local {
				case "xf":
					xf, err := readCellXf(t)
					if err != nil {
						return nil, err
					}
					result.CellXfs = append(result.CellXfs, xf)
				case "alignment", "protection":
				case "extLst", "ext":
					if err := decoder.Skip(); err != nil {
						return nil, err
					}
				default:
					return nil, fmt.Errorf("%w <%s> in cellXfs", ErrStyles, t.Name)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "numFmts":
				isNumFmts = false
			case "cellXfs":
				isCellXfs = false
			}
		}
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}

	return result, nil
}

func readCellXf(t xml.Token) (CellXf, error) {
	var xf CellXf
	var err error
	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "numFmtId":
			xf.NumFmtID, err = strconv.Atoi(attr.Value)
			xf.HasNumFmt = true
		case "fontId":
			xf.FontID, err = strconv.Atoi(attr.Value)
		case "fillId":
			xf.FillID, err = strconv.Atoi(attr.Value)
		case "borderId":
			xf.BorderID, err = strconv.Atoi(attr.Value)
		case "xfId":
			xf.XfID, err = strconv.Atoi(attr.Value)
		case "applyNumberFormat":
			xf.ApplyNumberFormat, err = parseXMLBool(attr.Value)
		}
		if err != nil {
			return CellXf{}, fmt.Errorf("%w: xf %s=%q", ErrStyles, attr.Name.Local, attr.Value)
		}
	}
	return xf, nil
}

// NumFmtID resolves a cell style index to its number format id. The
// second result is false when the index is unknown or carries no format.
func (s *Styles) NumFmtID(style int) (int, bool) {
	if s == nil || style < 0 || style >= len(s.CellXfs) {
		return 0, false
	}
	xf := s.CellXfs[style]
	return xf.NumFmtID, xf.HasNumFmt
}
