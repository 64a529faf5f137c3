package xlsx

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/anfilat/xlsx-read/internal/xml"
)

const contentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

type PartCategory int

const (
	CategoryUnknown PartCategory = iota
	CategoryWorkbook
	CategorySheet
	CategorySharedStrings
	CategoryStyles
	CategoryTheme
	CategoryCoreProps
	CategoryExtProps
	CategoryCalcChain
)

var categoryNames = [...]string{
	CategoryUnknown:       "unknown",
	CategoryWorkbook:      "workbook",
	CategorySheet:         "worksheet",
	CategorySharedStrings: "shared-strings",
	CategoryStyles:        "styles",
	CategoryTheme:         "theme",
	CategoryCoreProps:     "core-properties",
	CategoryExtProps:      "extended-properties",
	CategoryCalcChain:     "calc-chain",
}

func (c PartCategory) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return categoryNames[CategoryUnknown]
}

var contentTypeCategories = map[string]PartCategory{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml":    CategoryWorkbook,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.template.main+xml": CategoryWorkbook,
	"application/vnd.ms-excel.sheet.macroEnabled.main+xml":                          CategoryWorkbook,
	"application/vnd.ms-excel.template.macroEnabled.main+xml":                       CategoryWorkbook,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml":     CategorySheet,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml": CategorySharedStrings,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml":        CategoryStyles,
	"application/vnd.openxmlformats-officedocument.theme+xml":                       CategoryTheme,
	"application/vnd.openxmlformats-package.core-properties+xml":                    CategoryCoreProps,
	"application/vnd.openxmlformats-officedocument.extended-properties+xml":         CategoryExtProps,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.calcChain+xml":     CategoryCalcChain,
}

// Directory is the parsed [Content_Types].xml: which part plays which
// role in the package. Part names have their leading slash removed.
type Directory struct {
	Namespace string
	// Defaults maps a lower-case file extension to its content type.
	Defaults map[string]string
	// Overrides maps a part name to its content type.
	Overrides map[string]string
	// Parts lists part names per category in declaration order.
	Parts map[PartCategory][]string
}

// Workbook is the first declared workbook part.
func (d *Directory) Workbook() string {
	return d.first(CategoryWorkbook)
}

func (d *Directory) Sheets() []string {
	return d.Parts[CategorySheet]
}

func (d *Directory) SharedStrings() string {
	return d.first(CategorySharedStrings)
}

func (d *Directory) Styles() string {
	return d.first(CategoryStyles)
}

func (d *Directory) CoreProps() string {
	return d.first(CategoryCoreProps)
}

func (d *Directory) ExtProps() string {
	return d.first(CategoryExtProps)
}

func (d *Directory) CalcChain() string {
	return d.first(CategoryCalcChain)
}

func (d *Directory) first(c PartCategory) string {
	if parts := d.Parts[c]; len(parts) > 0 {
		return parts[0]
	}
	return ""
}

// ContentType resolves the content type of a part: an Override wins,
// otherwise the Default registered for its extension.
func (d *Directory) ContentType(part string) string {
	part = strings.TrimPrefix(part, "/")
	if ct, ok := d.Overrides[part]; ok {
		return ct
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(part)), ".")
	return d.Defaults[ext]
}

// Categorize files archive entries that have no Override into categories
// through the Default table. Entries already known are left alone.
func (d *Directory) Categorize(files []string) {
	for _, f := range files {
		f = strings.TrimPrefix(f, "/")
		if _, ok := d.Overrides[f]; ok {
			continue
		}
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(f)), ".")
		c, ok := contentTypeCategories[d.Defaults[ext]]
		if !ok {
			continue
		}
		d.Parts[c] = append(d.Parts[c], f)
	}
}

// ParseContentTypes reads the package directory. The root namespace must
// be the OPC content-types namespace and at least one workbook part must
// be declared.
func ParseContentTypes(data string) (*Directory, error) {
	dir := &Directory{
		Defaults:  make(map[string]string),
		Overrides: make(map[string]string),
		Parts:     make(map[PartCategory][]string),
	}

	decoder := xml.NewStringDecoder(data)
	for {
		t, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if t.Type != xml.StartElement {
			continue
		}

		switch t.Name.Local {
		case "Types":
			dir.Namespace = t.Namespace()
			if dir.Namespace != contentTypesNamespace {
				return nil, fmt.Errorf("%w %q in content types", ErrNamespace, dir.Namespace)
			}
		case "Default":
			ext := strings.ToLower(t.Value("Extension"))
			dir.Defaults[ext] = xml.Unescape(t.Value("ContentType"))
		case "Override":
			part := strings.TrimPrefix(xml.Unescape(t.Value("PartName")), "/")
			ct := xml.Unescape(t.Value("ContentType"))
			dir.Overrides[part] = ct
			if c, ok := contentTypeCategories[ct]; ok {
				dir.Parts[c] = append(dir.Parts[c], part)
			}
		}
	}

	if dir.Namespace == "" {
		return nil, fmt.Errorf("%w: content types root is missing", ErrNamespace)
	}
	if len(dir.Parts[CategoryWorkbook]) == 0 {
		return nil, ErrNoWorkbook
	}
	return dir, nil
}
