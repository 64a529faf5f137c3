package xlsx

import (
	"errors"
	"io"
	"path"
	"strings"

	"github.com/anfilat/xlsx-read/internal/xml"
)

const (
	worksheetRelType       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	strictWorksheetRelType = "http://purl.oclc.org/ooxml/officeDocument/relationships/worksheet"
)

type Relationship struct {
	ID     string
	Type   string
	Target string
}

// ParseRelationships reads a .rels part.
func ParseRelationships(data string) ([]Relationship, error) {
	decoder := xml.NewStringDecoder(data)

	var result []Relationship
	var t xml.Token
	var err error
	for t, err = decoder.Token(); err == nil; t, err = decoder.Token() {
		if t.Type != xml.StartElement || t.Name.Local != "Relationship" {
			continue
		}
		result = append(result, Relationship{
			ID:     t.Value("Id"),
			Type:   t.Value("Type"),
			Target: xml.Unescape(t.Value("Target")),
		})
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}
	return result, nil
}

// relsPart is the relationships part that belongs to part.
func relsPart(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// worksheetTargets maps relationship ids of worksheets to part names,
// resolving targets relative to the workbook part.
func worksheetTargets(rels []Relationship, workbookPart string) map[string]string {
	sheets := make(map[string]string, len(rels))
	base := path.Dir(workbookPart)
	for _, rel := range rels {
		if rel.Type != worksheetRelType && rel.Type != strictWorksheetRelType {
			continue
		}
		if strings.HasPrefix(rel.Target, "/") {
			sheets[rel.ID] = rel.Target[1:]
		} else {
			sheets[rel.ID] = path.Join(base, rel.Target)
		}
	}
	return sheets
}
