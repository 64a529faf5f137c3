package xlsx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSharedStrings = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="4" uniqueCount="3">
<si><t>Total</t></si>
<si><r><rPr><b/><sz val="11"/><color rgb="FFFF0000"/><rFont val="Calibri"/><family val="2"/><scheme val="minor"/></rPr><t>Bold</t></r><r><rPr><i val="0"/><u val="none"/></rPr><t xml:space="preserve"> &amp; plain</t></r></si>
<si><t>a_x000D_b</t><rPh sb="0" eb="1"><t>ignored</t></rPh><phoneticPr fontId="1"/></si>
</sst>`

func TestParseSharedStrings(t *testing.T) {
	ss, err := ParseSharedStrings(testSharedStrings)
	require.NoError(t, err)
	require.Equal(t, 4, ss.Count)
	require.Equal(t, 3, ss.UniqueCount)
	require.Equal(t, 3, ss.Len())

	item, err := ss.Get(0)
	require.NoError(t, err)
	require.Equal(t, "Total", item.Text)
	require.Nil(t, item.Runs)
	require.Equal(t, "<t>Total</t>", item.XML)

	item, err = ss.Get(1)
	require.NoError(t, err)
	require.Equal(t, "Bold & plain", item.Text)
	require.Len(t, item.Runs, 2)
	require.Equal(t, RichRun{
		Text: "Bold",
		Props: RunProperties{
			Font:   "Calibri",
			Size:   11,
			Bold:   true,
			Color:  "FF0000",
			Family: "2",
		},
	}, item.Runs[0])
	require.Equal(t, " & plain", item.Runs[1].Text)
	require.False(t, item.Runs[1].Props.Italic)
	require.False(t, item.Runs[1].Props.Underline)
	require.True(t, strings.HasPrefix(item.XML, "<r><rPr><b/>"))

	item, err = ss.Get(2)
	require.NoError(t, err)
	require.Equal(t, "a\rb", item.Text)

	_, err = ss.Get(3)
	require.ErrorIs(t, err, ErrSharedString)
	_, err = ss.Get(-1)
	require.ErrorIs(t, err, ErrSharedString)
}

func TestParseSharedStringsUnknownRunProperty(t *testing.T) {
	_, err := ParseSharedStrings(`<sst><si><r><rPr><glow/></rPr><t>x</t></r></si></sst>`)
	require.ErrorIs(t, err, ErrRichFormat)
}

func TestParseSharedStringsUnclosed(t *testing.T) {
	_, err := ParseSharedStrings(`<sst><si><t>x</t>`)
	require.Error(t, err)
}

func TestParseSharedStringsCounts(t *testing.T) {
	_, err := ParseSharedStrings(`<sst count="-1" uniqueCount="-1"><si><t>x</t></si></sst>`)
	require.ErrorIs(t, err, ErrSharedString)

	ss, err := ParseSharedStrings(`<sst count="2000000000" uniqueCount="2000000000"><si><t>x</t></si></sst>`)
	require.NoError(t, err)
	require.Equal(t, 1, ss.Len())
	require.LessOrEqual(t, cap(ss.Items), maxPreallocStrings)
}
