package xlsx

import (
	"errors"
	"fmt"
	"io"

	"github.com/anfilat/xlsx-read/internal/xml"
)

const (
	spreadsheetNamespace       = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	strictSpreadsheetNamespace = "http://purl.oclc.org/ooxml/spreadsheetml/main"
)

var workbookPropsDefaults = map[string]string{
	"allowRefreshQuery":          "0",
	"autoCompressPictures":       "1",
	"backupFile":                 "0",
	"checkCompatibility":         "0",
	"codeName":                   "",
	"date1904":                   "0",
	"dateCompatibility":          "1",
	"filterPrivacy":              "0",
	"hidePivotFieldList":         "0",
	"promptedSolutions":          "0",
	"publishItems":               "0",
	"refreshAllConnections":      "false",
	"saveExternalLinkValues":     "1",
	"showBorderUnselectedTables": "1",
	"showInkAnnotation":          "1",
	"showObjects":                "all",
	"showPivotChartFilter":       "0",
}

var workbookViewDefaults = map[string]string{
	"activeTab":              "0",
	"autoFilterDateGrouping": "1",
	"firstSheet":             "0",
	"minimized":              "0",
	"showHorizontalScroll":   "1",
	"showSheetTabs":          "1",
	"showVerticalScroll":     "1",
	"tabRatio":               "600",
	"visibility":             "visible",
}

var calcPropsDefaults = map[string]string{
	"calcCompleted":  "true",
	"calcMode":       "auto",
	"calcOnSave":     "true",
	"concurrentCalc": "true",
	"fullCalcOnLoad": "false",
	"fullPrecision":  "true",
	"iterate":        "false",
	"iterateCount":   "100",
	"iterateDelta":   "0.001",
	"refMode":        "A1",
}

const defaultSheetState = "visible"

type WorkbookSheet struct {
	Name    string
	SheetID string
	// RelID is the r:id pointing into the workbook relationships.
	RelID string
	State string
}

// Workbook is the metadata of the workbook part. Attribute maps are
// back-filled with the documented defaults for anything the part omits.
type Workbook struct {
	Namespace  string
	AppVersion map[string]string
	Props      map[string]string
	Views      []map[string]string
	Sheets     []WorkbookSheet
	CalcProps  map[string]string
	Date1904   bool
}

// ParseWorkbook scans the workbook part. Only the spreadsheetml
// namespaces are accepted on the root element.
func ParseWorkbook(data string) (*Workbook, error) {
	decoder := xml.NewStringDecoder(data)

	wb := &Workbook{
		AppVersion: make(map[string]string),
		Props:      make(map[string]string),
		CalcProps:  make(map[string]string),
	}
	seenRoot := false

	var t xml.Token
	var err error
	for t, err = decoder.Token(); err == nil; t, err = decoder.Token() {
		if t.Type != xml.StartElement {
			continue
		}
		switch t.Name.Local {
		case "workbook":
			wb.Namespace = t.Namespace()
			if wb.Namespace != spreadsheetNamespace && wb.Namespace != strictSpreadsheetNamespace {
				return nil, fmt.Errorf("%w %q in workbook", ErrNamespace, wb.Namespace)
			}
			seenRoot = true
		case "fileVersion":
			wb.AppVersion = unescapedAttrs(t)
		case "workbookPr":
			wb.Props = unescapedAttrs(t)
		case "workbookView":
			wb.Views = append(wb.Views, unescapedAttrs(t))
		case "sheet":
			relID, ok := t.Get("r:id")
			if !ok {
				relID = t.Value("id")
			}
			wb.Sheets = append(wb.Sheets, WorkbookSheet{
				Name:    xml.Text(t.Value("name")),
				SheetID: t.Value("sheetId"),
				RelID:   relID,
				State:   t.Value("state"),
			})
		case "calcPr":
			wb.CalcProps = unescapedAttrs(t)
		case "definedNames", "extLst", "AlternateContent":
			if err := decoder.Skip(); err != nil {
				return nil, err
			}
		}
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}
	if !seenRoot {
		return nil, fmt.Errorf("%w: workbook root is missing", ErrNamespace)
	}

	backfill(wb.Props, workbookPropsDefaults)
	backfill(wb.CalcProps, calcPropsDefaults)
	for _, view := range wb.Views {
		backfill(view, workbookViewDefaults)
	}
	for i := range wb.Sheets {
		if wb.Sheets[i].State == "" {
			wb.Sheets[i].State = defaultSheetState
		}
	}

	wb.Date1904, err = parseXMLBool(wb.Props["date1904"])
	if err != nil {
		return nil, fmt.Errorf("workbookPr date1904: %w", err)
	}
	return wb, nil
}

// SheetNames lists the sheets in workbook order.
func (wb *Workbook) SheetNames() []string {
	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Name
	}
	return names
}

func backfill(m, defaults map[string]string) {
	for k, v := range defaults {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
}

func unescapedAttrs(t xml.Token) map[string]string {
	attrs := t.Attrs()
	for k, v := range attrs {
		attrs[k] = xml.Unescape(v)
	}
	return attrs
}

// parseXMLBool accepts the boolean spellings spreadsheet writers use.
func parseXMLBool(s string) (bool, error) {
	switch s {
	case "0", "false", "FALSE":
		return false, nil
	case "1", "true", "TRUE":
		return true, nil
	}
	return false, fmt.Errorf("%w %q", ErrBoolean, s)
}
