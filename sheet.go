package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/anfilat/xlsx-read/internal/xml"
)

// Sheet is a parsed worksheet: a sparse map from cell address ("B7") to
// cell plus the occupied range.
type Sheet struct {
	Name  string
	Cells map[string]*Cell
	// Ref is the encoded Range, empty for a sheet without cells or
	// dimension.
	Ref   string
	Range Range
	// FullRef is the declared range before row truncation, set only when
	// rows were dropped.
	FullRef string
	Merges  []Range
}

// Cell returns the cell at an address such as "C3".
func (s *Sheet) Cell(addr string) (*Cell, bool) {
	c, ok := s.Cells[strings.ToUpper(strings.ReplaceAll(addr, "$", ""))]
	return c, ok
}

// CellAt returns the cell at a zero-based column and row, or nil.
func (s *Sheet) CellAt(col, row int) *Cell {
	return s.Cells[EncodeCell(CellAddress{C: col, R: row})]
}

// sheetReader carries the document tables a worksheet is resolved
// against.
type sheetReader struct {
	strings *SharedStrings
	styles  *Styles
	formats *FormatTable
	format  FormatOptions
	raw     bool
	rows    int
	log     logrus.FieldLogger
}

type bounds struct {
	set                    bool
	minC, minR, maxC, maxR int
}

func (b *bounds) add(a CellAddress) {
	if !b.set {
		b.minC, b.maxC, b.minR, b.maxR = a.C, a.C, a.R, a.R
		b.set = true
		return
	}
	b.minC = min(b.minC, a.C)
	b.maxC = max(b.maxC, a.C)
	b.minR = min(b.minR, a.R)
	b.maxR = max(b.maxR, a.R)
}

func (b *bounds) rangeOf() Range {
	return Range{S: CellAddress{C: b.minC, R: b.minR}, E: CellAddress{C: b.maxC, R: b.maxR}}
}

func (r *sheetReader) parse(name, data string) (*Sheet, error) {
	decoder := xml.NewStringDecoder(data)

	sheet := &Sheet{
		Name:  name,
		Cells: make(map[string]*Cell),
	}
	log := r.log.WithField("sheet", name)

	var (
		declared    bool
		guess       bounds
		isSheetData bool
		row         = -1
		col         = -1
		truncated   bool
	)

	var t xml.Token
	var err error
	for t, err = decoder.Token(); err == nil; t, err = decoder.Token() {
		switch t.Type {
		case xml.StartElement:
			switch t.Name.Local {
			case "worksheet", "mergeCells":
			case "dimension":
				ref := t.Value("ref")
				if strings.Contains(ref, ":") {
					sheet.Range, err = DecodeRange(ref)
					if err != nil {
						return nil, fmt.Errorf("dimension: %w", err)
					}
					declared = true
				}
			case "sheetData":
				isSheetData = true
			case "row":
				if !isSheetData {
					break
				}
				row, err = rowIndex(t, row)
				if err != nil {
					return nil, err
				}
				col = -1
				if r.rows > 0 && row >= r.rows {
					truncated = true
					if err := decoder.Skip(); err != nil {
						return nil, err
					}
				}
			case "c":
				if !isSheetData {
					break
				}
				addr, cell, err := r.readCell(decoder, t, row, col)
				if err != nil {
					return nil, err
				}
				row, col = addr.R, addr.C
				guess.add(addr)
				key := EncodeCell(addr)
				r.applyFormat(cell, log.WithField("cell", key))
				sheet.Cells[key] = cell
			case "mergeCell":
				rng, err := DecodeRange(t.Value("ref"))
				if err != nil {
					return nil, fmt.Errorf("mergeCell: %w", err)
				}
				sheet.Merges = append(sheet.Merges, rng)
			default:
				if err := decoder.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "sheetData" {
				isSheetData = false
			}
		}
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}

	switch {
	case declared:
	case guess.set:
		sheet.Range = guess.rangeOf()
	default:
		return sheet, nil
	}
	if truncated && sheet.Range.E.R >= r.rows {
		sheet.FullRef = EncodeRange(sheet.Range)
		sheet.Range.E.R = r.rows - 1
	}
	sheet.Ref = EncodeRange(sheet.Range)
	return sheet, nil
}

func rowIndex(t xml.Token, prev int) (int, error) {
	v, ok := t.Get("r")
	if !ok {
		return prev + 1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: row %q", ErrInvalidAddress, v)
	}
	return n - 1, nil
}

// readCell consumes a <c> element. A numeric cell without a value
// becomes an empty string cell.
func (r *sheetReader) readCell(decoder *xml.Decoder, start xml.Token, row, col int) (CellAddress, *Cell, error) {
	addr := CellAddress{C: col + 1, R: row}
	if ref, ok := start.Get("r"); ok {
		var err error
		addr, err = DecodeCell(ref)
		if err != nil {
			return addr, nil, err
		}
	}

	cell := &Cell{Style: -1}
	if s, ok := start.Get("s"); ok {
		style, err := strconv.Atoi(s)
		if err != nil {
			return addr, nil, fmt.Errorf("%w: style %q in %s", ErrCellValue, s, EncodeCell(addr))
		}
		cell.Style = style
	}

	var (
		value    string
		hasValue bool
		inline   []string
		isInline bool
		depth    = 1
	)
	for depth > 0 {
		t, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = xml.ErrUnexpectedEOF
			}
			return addr, nil, err
		}
		switch t.Type {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "v":
				value, err = decoder.InnerXML()
				hasValue = true
				depth--
			case "f":
				var f string
				f, err = decoder.InnerXML()
				cell.Formula = xml.Unescape(f)
				depth--
			case "is":
				isInline = true
			case "t":
				if isInline {
					var text string
					text, err = decoder.InnerXML()
					inline = append(inline, xml.Text(text))
					depth--
				}
			case "rPh", "extLst":
				err = decoder.Skip()
				depth--
			}
			if err != nil {
				return addr, nil, err
			}
		case xml.EndElement:
			depth--
		}
	}

	typ := start.Value("t")
	if isInline && typ == "" {
		typ = "inlineStr"
	}
	if (typ == "" || typ == "n") && !hasValue {
		cell.Type, cell.RawType = CellString, CellString
		return addr, cell, nil
	}

	cell.Raw = xml.Unescape(value)
	var err error
	switch typ {
	case "", "n":
		cell.Type = CellNumber
		cell.Number, err = strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return addr, nil, fmt.Errorf("%w: number %q in %s", ErrCellValue, value, EncodeCell(addr))
		}
	case "s":
		idx, perr := strconv.Atoi(strings.TrimSpace(value))
		if perr != nil {
			return addr, nil, fmt.Errorf("%w: index %q in %s", ErrSharedString, value, EncodeCell(addr))
		}
		ss, gerr := r.strings.Get(idx)
		if gerr != nil {
			return addr, nil, gerr
		}
		cell.Type = CellString
		cell.Text = ss.Text
		cell.Runs = ss.Runs
	case "str":
		cell.Type = CellString
		cell.Text = xml.DecodeEscapes(cell.Raw)
	case "inlineStr":
		cell.Type = CellString
		cell.Text = strings.Join(inline, "")
	case "b":
		cell.Type = CellBool
		cell.Bool, err = parseXMLBool(value)
		if err != nil {
			return addr, nil, fmt.Errorf("%s: %w", EncodeCell(addr), err)
		}
	case "e":
		cell.Type = CellError
	default:
		return addr, nil, fmt.Errorf("%w %q in %s", ErrCellType, typ, EncodeCell(addr))
	}
	cell.RawType = cell.Type
	return addr, cell, nil
}

// applyFormat renders a styled cell through its number format. A failed
// rendering leaves the stored value in place.
func (r *sheetReader) applyFormat(cell *Cell, log logrus.FieldLogger) {
	if r.raw || cell.Style < 0 || cell.Type == CellError {
		return
	}
	if cell.Type == CellString && cell.Raw == "" && cell.Text == "" {
		return
	}
	id, ok := r.styles.NumFmtID(cell.Style)
	if !ok || id == 0 {
		return
	}

	text, err := r.formats.Format(id, cell.Value(), r.format)
	if err != nil {
		log.WithError(err).WithField("numFmtId", id).Debug("number format failed, keeping raw value")
		return
	}
	cell.Text = text
	cell.Type = CellString
	cell.Formatted = true
}
