package xlsx

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Document is a parsed package.
type Document struct {
	Directory *Directory
	Workbook  *Workbook
	Props     Props
	// Deps is the calculation chain, nil when the package has none.
	Deps []CalcCell
	// Sheets holds every parsed sheet by name. Sheets that failed to parse
	// are listed in SheetNames but missing here.
	Sheets     map[string]*Sheet
	SheetNames []string
	Strings    *SharedStrings
	Styles     *Styles
	Formats    *FormatTable
	// Parts lists the archive entries.
	Parts []string
	// Date1904 is the date system used for formatting.
	Date1904 bool
}

// Open parses the package stored in a file.
func Open(filename string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return OpenReader(bytes.NewReader(data), int64(len(data)), opts...)
}

// OpenBase64 parses a base64 encoded package.
func OpenBase64(data string, opts ...Option) (*Document, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return OpenReader(bytes.NewReader(raw), int64(len(raw)), opts...)
}

func OpenReader(reader io.ReaderAt, size int64, opts ...Option) (*Document, error) {
	archive, err := NewZipArchive(reader, size)
	if err != nil {
		return nil, err
	}
	return Parse(archive, opts...)
}

// Parse reads every part of the package in dependency order. Only the
// directory and the workbook are required. A broken shared string table
// or stylesheet fails the parse; broken properties, calculation chain or
// sheets are logged and left out.
func Parse(archive Archive, opts ...Option) (*Document, error) {
	o := newOptions(opts)
	doc := &Document{
		Sheets:  make(map[string]*Sheet),
		Formats: NewFormatTable(),
		Parts:   archive.Files(),
	}
	if err := doc.load(archive, o); err != nil {
		return nil, err
	}
	return doc, nil
}

func (doc *Document) load(archive Archive, o *options) error {
	data, ok, err := readPart(archive, contentTypesPart)
	if err != nil {
		return partError(contentTypesPart, err)
	}
	if !ok {
		return ErrNoContentTypes
	}
	doc.Directory, err = ParseContentTypes(data)
	if err != nil {
		return partError(contentTypesPart, err)
	}
	doc.Directory.Categorize(doc.Parts)

	if err := doc.loadSharedStrings(archive); err != nil {
		return err
	}
	if err := doc.loadStyles(archive); err != nil {
		return err
	}
	if err := doc.loadWorkbook(archive); err != nil {
		return err
	}
	doc.loadProps(archive, o.log)
	doc.loadCalcChain(archive, o.log)

	doc.Date1904 = doc.Workbook.Date1904
	if o.date1904 != nil {
		doc.Date1904 = *o.date1904
	}
	doc.loadSheets(archive, o)
	return nil
}

const contentTypesPart = "[Content_Types].xml"

// readPart returns the part as text. A missing part is reported through
// the flag, not as an error.
func readPart(archive Archive, name string) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}
	data, err := archive.ReadFile(name)
	if errors.Is(err, ErrPartNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// findFile locates a part the directory does not declare by its file
// name.
func (doc *Document) findFile(name string) string {
	for _, file := range doc.Parts {
		if strings.HasSuffix(strings.ToLower(file), name) {
			return file
		}
	}
	return ""
}

func (doc *Document) loadSharedStrings(archive Archive) error {
	part := doc.Directory.SharedStrings()
	if part == "" {
		part = doc.findFile("sharedstrings.xml")
	}
	data, ok, err := readPart(archive, part)
	if err != nil || !ok {
		return partError(part, err)
	}
	doc.Strings, err = ParseSharedStrings(data)
	return partError(part, err)
}

func (doc *Document) loadStyles(archive Archive) error {
	part := doc.Directory.Styles()
	if part == "" {
		part = doc.findFile("styles.xml")
	}
	data, ok, err := readPart(archive, part)
	if err != nil || !ok {
		return partError(part, err)
	}
	doc.Styles, err = ParseStyles(data, doc.Formats)
	return partError(part, err)
}

func (doc *Document) loadWorkbook(archive Archive) error {
	part := doc.Directory.Workbook()
	data, ok, err := readPart(archive, part)
	if err != nil {
		return partError(part, err)
	}
	if !ok {
		return partError(part, ErrNoWorkbook)
	}
	doc.Workbook, err = ParseWorkbook(data)
	return partError(part, err)
}

// loadProps reads the core and extended properties. Both parts are
// optional metadata: a broken one is logged and left out.
func (doc *Document) loadProps(archive Archive, log logrus.FieldLogger) {
	part := doc.Directory.CoreProps()
	if data, ok := readOptionalPart(archive, part, log); ok {
		core, err := ParseCoreProps(data)
		if err != nil {
			log.WithField("part", part).WithError(partError(part, err)).Warn("skipping core properties")
		} else {
			doc.Props.Core = core
		}
	}

	part = doc.Directory.ExtProps()
	if data, ok := readOptionalPart(archive, part, log); ok {
		ext, err := ParseExtProps(data)
		if err != nil {
			log.WithField("part", part).WithError(partError(part, err)).Warn("skipping extended properties")
		} else {
			doc.Props.Ext = ext
		}
	}
}

func (doc *Document) loadCalcChain(archive Archive, log logrus.FieldLogger) {
	part := doc.Directory.CalcChain()
	data, ok := readOptionalPart(archive, part, log)
	if !ok {
		return
	}
	deps, err := ParseCalcChain(data)
	if err != nil {
		log.WithField("part", part).WithError(partError(part, err)).Warn("skipping calculation chain")
		return
	}
	doc.Deps = deps
}

// readOptionalPart is readPart for parts the document can do without.
func readOptionalPart(archive Archive, part string, log logrus.FieldLogger) (string, bool) {
	data, ok, err := readPart(archive, part)
	if err != nil {
		log.WithField("part", part).WithError(err).Warn("skipping unreadable part")
		return "", false
	}
	return data, ok
}

// sheetPaths resolves the worksheet part of every sheet name: through the
// workbook relationships, else the n-th declared worksheet part, else the
// conventional xl/worksheets/sheetN.xml.
func (doc *Document) sheetPaths(archive Archive) []string {
	workbookPart := doc.Directory.Workbook()
	var targets map[string]string
	if data, ok, err := readPart(archive, relsPart(workbookPart)); err == nil && ok {
		if rels, err := ParseRelationships(data); err == nil {
			targets = worksheetTargets(rels, workbookPart)
		}
	}

	relIDs := make(map[string]string, len(doc.Workbook.Sheets))
	for _, s := range doc.Workbook.Sheets {
		relIDs[s.Name] = s.RelID
	}

	declared := doc.Directory.Sheets()
	paths := make([]string, len(doc.SheetNames))
	for i, name := range doc.SheetNames {
		if target, ok := targets[relIDs[name]]; ok {
			paths[i] = target
			continue
		}
		if i < len(declared) {
			paths[i] = declared[i]
			continue
		}
		paths[i] = "xl/worksheets/sheet" + strconv.Itoa(i+1) + ".xml"
	}
	return paths
}

func (doc *Document) loadSheets(archive Archive, o *options) {
	if ext := doc.Props.Ext; ext != nil && len(ext.Worksheets) > 0 {
		doc.SheetNames = slices.Clone(ext.Worksheets)
	} else {
		doc.SheetNames = doc.Workbook.SheetNames()
	}

	reader := &sheetReader{
		strings: doc.Strings,
		styles:  doc.Styles,
		formats: doc.Formats,
		format:  FormatOptions{Date1904: doc.Date1904},
		raw:     o.raw,
		rows:    o.rows,
		log:     o.log,
	}

	for i, part := range doc.sheetPaths(archive) {
		name := doc.SheetNames[i]
		if len(o.sheets) > 0 && !slices.Contains(o.sheets, name) {
			continue
		}
		log := o.log.WithFields(logrus.Fields{"sheet": name, "part": part})

		data, ok, err := readPart(archive, part)
		if err == nil && !ok {
			err = ErrPartNotFound
		}
		if err != nil {
			log.WithError(err).Warn("skipping sheet")
			continue
		}
		sheet, err := reader.parse(name, data)
		if err != nil {
			log.WithError(partError(part, err)).Warn("skipping sheet")
			continue
		}
		doc.Sheets[name] = sheet
	}
}

// Sheet returns a parsed sheet by name.
func (doc *Document) Sheet(name string) (*Sheet, error) {
	sheet, ok := doc.Sheets[name]
	if !ok {
		return nil, fmt.Errorf("can not find worksheet %s: %w", name, ErrSheetNotFound)
	}
	return sheet, nil
}

// SheetByOrder returns the n-th sheet in workbook order.
func (doc *Document) SheetByOrder(n int) (*Sheet, error) {
	if n < 0 || n >= len(doc.SheetNames) {
		return nil, fmt.Errorf("can not find worksheet %d: %w", n, ErrSheetNotFound)
	}
	return doc.Sheet(doc.SheetNames[n])
}
