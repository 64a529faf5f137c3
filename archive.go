package xlsx

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Archive is the container a package is read from.
type Archive interface {
	// Files lists the entry names in archive order.
	Files() []string
	ReadFile(name string) ([]byte, error)
}

// ZipArchive reads package parts out of a zip file.
type ZipArchive struct {
	names []string
	files map[string]*zip.File
	lower map[string]*zip.File
}

func NewZipArchive(reader io.ReaderAt, size int64) (*ZipArchive, error) {
	zipReader, err := zip.NewReader(reader, size)
	if err != nil {
		return nil, err
	}

	a := &ZipArchive{
		names: make([]string, 0, len(zipReader.File)),
		files: make(map[string]*zip.File, len(zipReader.File)),
		lower: make(map[string]*zip.File, len(zipReader.File)),
	}
	for _, file := range zipReader.File {
		if strings.HasSuffix(file.Name, "/") {
			continue
		}
		a.names = append(a.names, file.Name)
		a.files[file.Name] = file
		a.lower[strings.ToLower(file.Name)] = file
	}
	return a, nil
}

func (a *ZipArchive) Files() []string {
	return a.names
}

// ReadFile looks the entry up by exact name, then case-insensitively, then
// with backslash separators. XML parts are returned as UTF-8.
func (a *ZipArchive) ReadFile(name string) ([]byte, error) {
	file := a.find(name)
	if file == nil {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	switch path.Ext(strings.ToLower(name)) {
	case ".xml", ".rels", ".vml":
		return toUTF8(data)
	}
	return data, nil
}

func (a *ZipArchive) find(name string) *zip.File {
	name = strings.TrimPrefix(name, "/")
	if f, ok := a.files[name]; ok {
		return f
	}
	if f, ok := a.lower[strings.ToLower(name)]; ok {
		return f
	}
	if f, ok := a.files[strings.ReplaceAll(name, "/", `\`)]; ok {
		return f
	}
	return nil
}

// toUTF8 strips a UTF-8 byte order mark and decodes UTF-16 parts that
// announce themselves with one.
func toUTF8(data []byte) ([]byte, error) {
	if !hasBOM(data) {
		return data, nil
	}
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("decode part: %w", err)
	}
	return out, nil
}

func hasBOM(data []byte) bool {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return true
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return true
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return true
	}
	return false
}
