package main

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anfilat/xlsx-read"
)

var testFiles = map[string]string{
	"[Content_Types].xml": `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
<Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>
</Types>`,
	"xl/workbook.xml": `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheets><sheet name="S" sheetId="1"/></sheets></workbook>`,
	"xl/worksheets/sheet1.xml": `<worksheet><sheetData>
<row r="1"><c r="A1" t="inlineStr"><is><t>n</t></is></c></row>
<row r="2"><c r="A2"><f>1+1</f><v>2</v></c></row>
</sheetData></worksheet>`,
}

func testDocument(t *testing.T) *xlsx.Document {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range testFiles {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	doc, err := xlsx.OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	return doc
}

func TestWrite(t *testing.T) {
	doc := testDocument(t)

	var out bytes.Buffer
	require.NoError(t, write(&out, doc, nil, "names"))
	require.Equal(t, "S\n", out.String())

	out.Reset()
	require.NoError(t, write(&out, doc, nil, "CSV"))
	require.Equal(t, "n\n2\n", out.String())

	out.Reset()
	require.NoError(t, write(&out, doc, nil, "formulae"))
	require.Equal(t, "S!A1='n\nS!A2=1+1\n", out.String())

	out.Reset()
	require.NoError(t, write(&out, doc, []string{"S"}, "json"))
	require.JSONEq(t, `{"S": [{"n": 2}]}`, out.String())

	require.Error(t, write(&out, doc, nil, "xml"))
	require.ErrorIs(t, write(&out, doc, []string{"missing"}, "csv"), xlsx.ErrSheetNotFound)
}
