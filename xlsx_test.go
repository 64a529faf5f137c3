package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type mapArchive map[string]string

func (m mapArchive) Files() []string {
	files := make([]string, 0, len(m))
	for name := range m {
		files = append(files, name)
	}
	slices.Sort(files)
	return files
}

func (m mapArchive) ReadFile(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}
	return []byte(data), nil
}

const testWorkbookRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet2.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`

const testWorkbookPlain = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<workbookPr/>
<sheets>
<sheet name="Data" sheetId="1" r:id="rId1"/>
<sheet name="Broken" sheetId="2" r:id="rId2"/>
</sheets>
</workbook>`

func testPackage() mapArchive {
	return mapArchive{
		"[Content_Types].xml":        testContentTypes,
		"_rels/.rels":                `<Relationships/>`,
		"xl/workbook.xml":            testWorkbookPlain,
		"xl/_rels/workbook.xml.rels": testWorkbookRels,
		"xl/sharedStrings.xml":       testSharedStrings,
		"xl/styles.xml":              testStyles,
		"xl/worksheets/sheet2.xml":   testSheet,
		"xl/worksheets/sheet1.xml":   `<worksheet><sheetData><row r="1"><c r="A1" t="q"><v>1</v></c></row></sheetData></worksheet>`,
		"docProps/core.xml":          testCoreProps,
	}
}

func TestParse(t *testing.T) {
	logger, hook := test.NewNullLogger()
	doc, err := Parse(testPackage(), WithLogger(logger))
	require.NoError(t, err)

	require.Equal(t, []string{"Data", "Broken"}, doc.SheetNames)
	require.Len(t, doc.Sheets, 1)
	require.Equal(t, 3, doc.Strings.Len())
	require.Len(t, doc.Styles.CellXfs, 4)
	require.Equal(t, "Budget & Plan", doc.Props.Core.Title)
	require.Nil(t, doc.Props.Ext)
	require.Nil(t, doc.Deps)
	require.False(t, doc.Date1904)
	require.Contains(t, doc.Parts, "xl/worksheets/sheet1.xml")

	sheet, err := doc.Sheet("Data")
	require.NoError(t, err)
	require.Equal(t, "A1:D4", sheet.Ref)

	cell := sheet.CellAt(0, 0)
	require.Equal(t, CellString, cell.Type)
	require.Equal(t, "Total", cell.Text)

	cell = sheet.CellAt(2, 0)
	require.Equal(t, CellString, cell.Type)
	require.Equal(t, "50%", cell.Text)
	require.True(t, cell.Formatted)

	cell = sheet.CellAt(1, 0)
	require.Equal(t, CellNumber, cell.Type)
	require.Equal(t, 0.5, cell.Number)
	tm, ok := cell.Time(doc.Date1904)
	require.True(t, ok)
	require.Equal(t, time.Date(1899, time.December, 31, 12, 0, 0, 0, time.UTC), tm)
	_, ok = sheet.CellAt(0, 0).Time(doc.Date1904)
	require.False(t, ok)

	_, err = doc.Sheet("Broken")
	require.ErrorIs(t, err, ErrSheetNotFound)
	_, err = doc.SheetByOrder(2)
	require.ErrorIs(t, err, ErrSheetNotFound)
	sheet, err = doc.SheetByOrder(0)
	require.NoError(t, err)
	require.Equal(t, "Data", sheet.Name)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.WarnLevel, entry.Level)
	require.Equal(t, "Broken", entry.Data["sheet"])
	require.Equal(t, "xl/worksheets/sheet1.xml", entry.Data["part"])
	err, _ = entry.Data[logrus.ErrorKey].(error)
	require.ErrorIs(t, err, ErrCellType)
}

func TestParseOptions(t *testing.T) {
	doc, err := Parse(testPackage(), WithSheets("Data"), WithRawValues(), WithDate1904(true), WithSheetRows(1))
	require.NoError(t, err)
	require.True(t, doc.Date1904)

	sheet, err := doc.Sheet("Data")
	require.NoError(t, err)
	require.Equal(t, "A1:D1", sheet.Ref)
	require.Equal(t, CellNumber, sheet.CellAt(2, 0).Type)
}

func TestParseSheetFallbackPaths(t *testing.T) {
	pkg := testPackage()
	delete(pkg, "xl/_rels/workbook.xml.rels")
	pkg["xl/worksheets/sheet1.xml"] = testSheet
	pkg["xl/worksheets/sheet2.xml"] = `<worksheet><sheetData><row r="1"><c r="A1"><v>2</v></c></row></sheetData></worksheet>`

	doc, err := Parse(pkg)
	require.NoError(t, err)
	require.Equal(t, "A1:D4", doc.Sheets["Data"].Ref)
	require.Equal(t, 2.0, doc.Sheets["Broken"].CellAt(0, 0).Number)
}

func TestParseSheetNamesFromProps(t *testing.T) {
	pkg := testPackage()
	pkg["[Content_Types].xml"] = `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>
</Types>`
	pkg["docProps/app.xml"] = `<Properties><HeadingPairs><vt:vector size="2" baseType="variant"><vt:variant><vt:lpstr>Worksheets</vt:lpstr></vt:variant><vt:variant><vt:i4>1</vt:i4></vt:variant></vt:vector></HeadingPairs><TitlesOfParts><vt:vector size="1" baseType="lpstr"><vt:lpstr>Data</vt:lpstr></vt:vector></TitlesOfParts></Properties>`

	doc, err := Parse(pkg)
	require.NoError(t, err)
	require.Equal(t, []string{"Data"}, doc.SheetNames)
	require.Equal(t, "Total", doc.Sheets["Data"].CellAt(0, 0).Text)
	require.Nil(t, doc.Props.Core)
}

func TestParseErrors(t *testing.T) {
	pkg := testPackage()
	delete(pkg, "[Content_Types].xml")
	_, err := Parse(pkg)
	require.ErrorIs(t, err, ErrNoContentTypes)

	pkg = testPackage()
	pkg["[Content_Types].xml"] = `<Types xmlns="http://example.com/"/>`
	_, err = Parse(pkg)
	require.ErrorIs(t, err, ErrNamespace)
	var partErr *PartError
	require.ErrorAs(t, err, &partErr)
	require.Equal(t, "[Content_Types].xml", partErr.Part)

	pkg = testPackage()
	delete(pkg, "xl/workbook.xml")
	_, err = Parse(pkg)
	require.ErrorIs(t, err, ErrNoWorkbook)

	pkg = testPackage()
	pkg["xl/sharedStrings.xml"] = `<sst><si><t>x</si></sst>`
	_, err = Parse(pkg)
	require.ErrorAs(t, err, &partErr)
	require.Equal(t, "xl/sharedStrings.xml", partErr.Part)
	require.Equal(t, "</si></sst>", partErr.Snippet)
}

func zipPackage(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestOpen(t *testing.T) {
	data := zipPackage(t, testPackage())

	doc, err := OpenReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, "50%", doc.Sheets["Data"].CellAt(2, 0).Text)

	doc, err = OpenBase64(base64.StdEncoding.EncodeToString(data))
	require.NoError(t, err)
	require.Len(t, doc.Sheets, 1)

	filename := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, os.WriteFile(filename, data, 0o600))
	doc, err = Open(filename)
	require.NoError(t, err)
	require.Equal(t, []string{"Data", "Broken"}, doc.SheetNames)

	_, err = OpenBase64("not base64!")
	require.Error(t, err)

	_, err = OpenReader(bytes.NewReader([]byte("not a zip")), 9)
	require.Error(t, err)
}

func TestParseNegativeStringCount(t *testing.T) {
	pkg := testPackage()
	pkg["xl/sharedStrings.xml"] = `<sst count="-1" uniqueCount="-1"><si><t>x</t></si></sst>`

	_, err := Parse(pkg)
	require.ErrorIs(t, err, ErrSharedString)
	var partErr *PartError
	require.ErrorAs(t, err, &partErr)
	require.Equal(t, "xl/sharedStrings.xml", partErr.Part)
}

func TestParseMalformedSheet(t *testing.T) {
	pkg := testPackage()
	pkg["xl/worksheets/sheet1.xml"] = `<worksheet><sheetData><row r="1"><c r="A1"><v>1</c></row></sheetData></worksheet>`

	logger, hook := test.NewNullLogger()
	doc, err := Parse(pkg, WithLogger(logger))
	require.NoError(t, err)
	require.Equal(t, []string{"Data", "Broken"}, doc.SheetNames)
	require.Len(t, doc.Sheets, 1)
	require.Equal(t, "Total", doc.Sheets["Data"].CellAt(0, 0).Text)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, "Broken", entry.Data["sheet"])
	err, _ = entry.Data[logrus.ErrorKey].(error)
	var partErr *PartError
	require.ErrorAs(t, err, &partErr)
	require.Equal(t, "xl/worksheets/sheet1.xml", partErr.Part)
	require.NotEmpty(t, partErr.Snippet)
}

func TestParseBrokenProps(t *testing.T) {
	pkg := testPackage()
	pkg["[Content_Types].xml"] = `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>
</Types>`
	pkg["docProps/app.xml"] = `<Properties><TitlesOfParts><vt:vector size="3" baseType="lpstr"><vt:lpstr>Data</vt:lpstr></vt:vector></TitlesOfParts></Properties>`

	logger, hook := test.NewNullLogger()
	doc, err := Parse(pkg, WithLogger(logger))
	require.NoError(t, err)
	require.Nil(t, doc.Props.Ext)
	require.Equal(t, "Budget & Plan", doc.Props.Core.Title)
	require.Equal(t, []string{"Data", "Broken"}, doc.SheetNames)

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Data["part"] == "docProps/app.xml" {
			found = true
			err, _ := entry.Data[logrus.ErrorKey].(error)
			require.ErrorIs(t, err, ErrVectorLength)
		}
	}
	require.True(t, found)
}
