package xlsx

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// RowObjects maps every row below the first one to an object keyed by
// the first row's text. Columns without a header are keyed by their
// letters, rows without cells are left out.
func (s *Sheet) RowObjects() []map[string]any {
	if s.Ref == "" {
		return nil
	}
	rng := s.Range

	headers := make([]string, 0, rng.E.C-rng.S.C+1)
	for c := rng.S.C; c <= rng.E.C; c++ {
		header := ""
		if cell := s.CellAt(c, rng.S.R); cell != nil {
			header = cell.String()
		}
		if header == "" {
			header = EncodeColumn(c)
		}
		headers = append(headers, header)
	}

	var result []map[string]any
	for r := rng.S.R + 1; r <= rng.E.R; r++ {
		var row map[string]any
		for i, header := range headers {
			cell := s.CellAt(rng.S.C+i, r)
			if cell == nil {
				continue
			}
			if row == nil {
				row = make(map[string]any, len(headers))
			}
			row[header] = cell.Value()
		}
		if row != nil {
			result = append(result, row)
		}
	}
	return result
}

// CSV renders the sheet range as comma separated text.
func (s *Sheet) CSV() (string, error) {
	var buf bytes.Buffer
	if err := s.WriteCSV(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteCSV writes one record per range row. Formatted cells are written
// as displayed, other numbers in full precision and error cells empty.
func (s *Sheet) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if s.Ref != "" {
		rng := s.Range
		record := make([]string, rng.E.C-rng.S.C+1)
		for r := rng.S.R; r <= rng.E.R; r++ {
			for i := range record {
				record[i] = csvField(s.CellAt(rng.S.C+i, r))
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func csvField(cell *Cell) string {
	switch {
	case cell == nil, cell.Type == CellError:
		return ""
	case cell.Type == CellNumber:
		return cell.numberString()
	}
	return cell.String()
}

// Formulae lists the cells in row order as "A1=SUM(B1:B3)" for formula
// cells and "A2=3" or "A3='text" for constants. Empty and error cells
// without a formula are left out.
func (s *Sheet) Formulae() []string {
	if s.Ref == "" {
		return nil
	}
	rng := s.Range

	var result []string
	for r := rng.S.R; r <= rng.E.R; r++ {
		for c := rng.S.C; c <= rng.E.C; c++ {
			cell := s.CellAt(c, r)
			if cell == nil {
				continue
			}
			ref := EncodeCell(CellAddress{C: c, R: r})
			switch {
			case cell.Formula != "":
				result = append(result, ref+"="+cell.Formula)
			case cell.RawType == CellNumber:
				result = append(result, ref+"="+cell.numberString())
			case cell.RawType == CellBool:
				result = append(result, ref+"="+strings.ToUpper(strconv.FormatBool(cell.Bool)))
			case cell.RawType == CellString && cell.Text != "":
				result = append(result, ref+"='"+cell.Text)
			}
		}
	}
	return result
}
