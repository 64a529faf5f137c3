package xlsx

import (
	"bytes"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestSheetReader(t *testing.T) *sheetReader {
	t.Helper()

	ss, err := ParseSharedStrings(testSharedStrings)
	require.NoError(t, err)
	formats := NewFormatTable()
	styles, err := ParseStyles(testStyles, formats)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return &sheetReader{
		strings: ss,
		styles:  styles,
		formats: formats,
		log:     logger,
	}
}

const testSheet = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<dimension ref="A1:D4"/>
<sheetViews><sheetView workbookViewId="0"><selection activeCell="B2"/></sheetView></sheetViews>
<sheetFormatPr defaultRowHeight="15"/>
<cols><col min="1" max="1" width="12"/></cols>
<sheetData>
<row r="1" spans="1:4"><c r="A1" t="s"><v>0</v></c><c r="B1"><v>0.5</v></c><c r="C1" s="1"><v>0.5</v></c><c r="D1" t="b"><v>1</v></c></row>
<row r="2"><c r="A2" t="str"><f>CONCAT("a","b")</f><v>a&amp;b</v></c><c t="e"><v>#DIV/0!</v></c><c r="D2" t="inlineStr"><is><t>in</t><r><t>line</t></r></is></c></row>
<row><c r="A3" s="2"><f>B1*2</f><v>1.23456</v></c><c r="B3"/><c r="C3" t="s"><v>1</v></c></row>
<row r="4"><c r="A4" s="1" t="s"><v>0</v></c><c r="B4" t="n"/></row>
</sheetData>
<mergeCells count="1"><mergeCell ref="A4:B4"/></mergeCells>
<pageMargins left="0.7" right="0.7" top="0.75" bottom="0.75" header="0.3" footer="0.3"/>
</worksheet>`

func TestParseSheet(t *testing.T) {
	r := newTestSheetReader(t)
	sheet, err := r.parse("Data", testSheet)
	require.NoError(t, err)

	require.Equal(t, "Data", sheet.Name)
	require.Equal(t, "A1:D4", sheet.Ref)
	require.Equal(t, "", sheet.FullRef)
	require.Equal(t, []Range{{S: CellAddress{C: 0, R: 3}, E: CellAddress{C: 1, R: 3}}}, sheet.Merges)

	cell, ok := sheet.Cell("A1")
	require.True(t, ok)
	require.Equal(t, CellString, cell.Type)
	require.Equal(t, "Total", cell.Text)
	require.Equal(t, -1, cell.Style)

	cell, ok = sheet.Cell("B1")
	require.True(t, ok)
	require.Equal(t, CellNumber, cell.Type)
	require.Equal(t, 0.5, cell.Number)
	require.False(t, cell.Formatted)

	cell, ok = sheet.Cell("$C$1")
	require.True(t, ok)
	require.Equal(t, CellString, cell.Type)
	require.Equal(t, CellNumber, cell.RawType)
	require.Equal(t, "50%", cell.Text)
	require.Equal(t, 0.5, cell.Number)
	require.True(t, cell.Formatted)

	cell = sheet.CellAt(3, 0)
	require.NotNil(t, cell)
	require.Equal(t, CellBool, cell.Type)
	require.True(t, cell.Bool)
	require.Equal(t, "TRUE", cell.String())

	cell = sheet.CellAt(0, 1)
	require.Equal(t, CellString, cell.Type)
	require.Equal(t, "a&b", cell.Text)
	require.Equal(t, `CONCAT("a","b")`, cell.Formula)

	cell = sheet.CellAt(1, 1)
	require.Equal(t, CellError, cell.Type)
	require.Equal(t, "#DIV/0!", cell.Raw)
	require.Nil(t, cell.Value())

	cell = sheet.CellAt(3, 1)
	require.Equal(t, CellString, cell.Type)
	require.Equal(t, "inline", cell.Text)

	cell = sheet.CellAt(0, 2)
	require.Equal(t, "1.235", cell.Text)
	require.Equal(t, "B1*2", cell.Formula)
	require.Equal(t, 1.23456, cell.Number)

	cell = sheet.CellAt(1, 2)
	require.Equal(t, CellString, cell.Type)
	require.Equal(t, "", cell.Text)

	cell = sheet.CellAt(2, 2)
	require.Equal(t, "Bold & plain", cell.Text)
	require.Len(t, cell.Runs, 2)

	// A percent format leaves text untouched.
	cell = sheet.CellAt(0, 3)
	require.Equal(t, "Total", cell.Text)

	cell = sheet.CellAt(1, 3)
	require.Equal(t, CellString, cell.Type)
	require.Equal(t, "", cell.Text)
}

func TestParseSheetInfersRange(t *testing.T) {
	r := newTestSheetReader(t)
	sheet, err := r.parse("S", `<worksheet><dimension ref="B2"/><sheetData>
<row r="3"><c r="C3"><v>1</v></c></row>
<row r="5"><c r="B5"><v>2</v></c><c><v>3</v></c><c><v>4</v></c></row>
</sheetData></worksheet>`)
	require.NoError(t, err)
	require.Equal(t, "B3:D5", sheet.Ref)
	require.Equal(t, 4.0, sheet.CellAt(3, 4).Number)
}

func TestParseSheetEmpty(t *testing.T) {
	r := newTestSheetReader(t)
	sheet, err := r.parse("S", `<worksheet><sheetData/></worksheet>`)
	require.NoError(t, err)
	require.Equal(t, "", sheet.Ref)
	require.Empty(t, sheet.Cells)
}

func TestParseSheetRows(t *testing.T) {
	r := newTestSheetReader(t)
	r.rows = 2
	sheet, err := r.parse("Data", testSheet)
	require.NoError(t, err)
	require.Equal(t, "A1:D2", sheet.Ref)
	require.Equal(t, "A1:D4", sheet.FullRef)
	require.Nil(t, sheet.CellAt(0, 2))
	require.NotNil(t, sheet.CellAt(0, 1))
}

func TestParseSheetRawValues(t *testing.T) {
	r := newTestSheetReader(t)
	r.raw = true
	sheet, err := r.parse("Data", testSheet)
	require.NoError(t, err)

	cell := sheet.CellAt(2, 0)
	require.Equal(t, CellNumber, cell.Type)
	require.False(t, cell.Formatted)
	require.Equal(t, "0.5", cell.String())
}

func TestParseSheetFormatFailureKeepsValue(t *testing.T) {
	r := newTestSheetReader(t)
	r.formats.Load(`0;0;0`, 164)
	sheet, err := r.parse("S", `<worksheet><sheetData><row r="1"><c r="A1" s="2"><v>7</v></c></row></sheetData></worksheet>`)
	require.NoError(t, err)

	cell := sheet.CellAt(0, 0)
	require.Equal(t, CellNumber, cell.Type)
	require.Equal(t, 7.0, cell.Number)
	require.False(t, cell.Formatted)
}

func TestParseSheetNonFiniteFraction(t *testing.T) {
	r := newTestSheetReader(t)
	r.formats.Load(`# ?/?`, 164)
	sheet, err := r.parse("S", `<worksheet><sheetData><row r="1"><c r="A1" s="2"><v>NaN</v></c><c r="B1" s="2"><v>1.5</v></c></row></sheetData></worksheet>`)
	require.NoError(t, err)

	cell := sheet.CellAt(0, 0)
	require.Equal(t, CellNumber, cell.Type)
	require.True(t, math.IsNaN(cell.Number))
	require.False(t, cell.Formatted)

	cell = sheet.CellAt(1, 0)
	require.Equal(t, "1 1/2", cell.Text)
	require.True(t, cell.Formatted)
}

func TestParseSheetErrors(t *testing.T) {
	r := newTestSheetReader(t)

	_, err := r.parse("S", `<worksheet><sheetData><row r="1"><c r="A1" t="x"><v>1</v></c></row></sheetData></worksheet>`)
	require.ErrorIs(t, err, ErrCellType)

	_, err = r.parse("S", `<worksheet><sheetData><row r="1"><c r="A1" t="b"><v>maybe</v></c></row></sheetData></worksheet>`)
	require.ErrorIs(t, err, ErrBoolean)

	_, err = r.parse("S", `<worksheet><sheetData><row r="1"><c r="A1"><v>abc</v></c></row></sheetData></worksheet>`)
	require.ErrorIs(t, err, ErrCellValue)

	_, err = r.parse("S", `<worksheet><sheetData><row r="1"><c r="A1" t="s"><v>99</v></c></row></sheetData></worksheet>`)
	require.ErrorIs(t, err, ErrSharedString)

	_, err = r.parse("S", `<worksheet><sheetData><row r="1"><c r="1A"><v>1</v></c></row></sheetData></worksheet>`)
	require.ErrorIs(t, err, ErrInvalidAddress)

	_, err = r.parse("S", `<worksheet><sheetData><row r="1"><c r="A1"><v>1</v></row></sheetData></worksheet>`)
	require.Error(t, err)
}
