package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/anfilat/xlsx-read/internal/xml"
)

// CalcCell is one entry of the calculation chain.
type CalcCell struct {
	Ref     string
	SheetID int
	// Level marks the start of a new dependency level.
	Level     bool
	Array     bool
	NewThread bool
}

// ParseCalcChain reads xl/calcChain.xml. An entry without a sheet id
// belongs to the sheet of the entry before it.
func ParseCalcChain(data string) ([]CalcCell, error) {
	decoder := xml.NewStringDecoder(data)

	var result []CalcCell
	sheetID := 0

	var t xml.Token
	var err error
	for t, err = decoder.Token(); err == nil; t, err = decoder.Token() {
		if t.Type != xml.StartElement || t.Name.Local != "c" {
			continue
		}
		if v, ok := t.Get("i"); ok {
			sheetID, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("calc chain sheet id %q: %w", v, err)
			}
		}
		cell := CalcCell{
			Ref:     t.Value("r"),
			SheetID: sheetID,
		}
		for _, attr := range []struct {
			name string
			dst  *bool
		}{{"l", &cell.Level}, {"a", &cell.Array}, {"t", &cell.NewThread}} {
			v, ok := t.Get(attr.name)
			if !ok {
				continue
			}
			*attr.dst, err = parseXMLBool(v)
			if err != nil {
				return nil, fmt.Errorf("calc chain %s: %w", cell.Ref, err)
			}
		}
		result = append(result, cell)
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}
	return result, nil
}
