package xlsx

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestZipArchive(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(`<sst><si><t>Ω</t></si></sst>`)
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("xl/")
	require.NoError(t, err)
	for name, content := range map[string]string{
		"xl/Workbook.xml":         "\xEF\xBB\xBF<workbook/>",
		`xl\worksheets\sheet1.xml`: "<worksheet/>",
		"xl/sharedStrings.xml":    utf16,
		"xl/media/image1.png":     "\xEF\xBB\xBFpng",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	archive, err := NewZipArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, archive.Files(), 4)
	require.NotContains(t, archive.Files(), "xl/")

	data, err := archive.ReadFile("/xl/workbook.xml")
	require.NoError(t, err)
	require.Equal(t, "<workbook/>", string(data))

	data, err = archive.ReadFile("xl/worksheets/sheet1.xml")
	require.NoError(t, err)
	require.Equal(t, "<worksheet/>", string(data))

	data, err = archive.ReadFile("xl/sharedStrings.xml")
	require.NoError(t, err)
	require.Equal(t, `<sst><si><t>Ω</t></si></sst>`, string(data))

	data, err = archive.ReadFile("xl/media/image1.png")
	require.NoError(t, err)
	require.Equal(t, "\xEF\xBB\xBFpng", string(data))

	_, err = archive.ReadFile("xl/styles.xml")
	require.ErrorIs(t, err, ErrPartNotFound)
}
