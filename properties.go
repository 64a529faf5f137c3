package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/anfilat/xlsx-read/internal/xml"
)

// CoreProps is docProps/core.xml.
type CoreProps struct {
	Category       string
	ContentStatus  string
	Keywords       string
	LastModifiedBy string
	Revision       string
	Version        string
	Creator        string
	Description    string
	Identifier     string
	Language       string
	Subject        string
	Title          string
	LastPrinted    time.Time
	Created        time.Time
	Modified       time.Time
}

// ExtProps is docProps/app.xml.
type ExtProps struct {
	Application       string
	AppVersion        string
	Company           string
	Manager           string
	DocSecurity       int
	HyperlinksChanged bool
	SharedDoc         bool
	LinksUpToDate     bool
	ScaleCrop         bool
	HeadingPairs      []VectorValue
	TitlesOfParts     []VectorValue
	// Worksheets are the sheet titles recovered from the heading pairs.
	Worksheets []string
}

// VectorValue is one element of a vt:vector; Type is the element name
// without prefix ("lpstr", "i4").
type VectorValue struct {
	Type string
	Text string
}

// Props holds both property parts. Either pointer is nil when its part
// is absent.
type Props struct {
	Core *CoreProps
	Ext  *ExtProps
}

var propDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parsePropDate(s string) time.Time {
	for _, layout := range propDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseCoreProps reads the core properties part. Dates that do not parse
// are left zero.
func ParseCoreProps(data string) (*CoreProps, error) {
	decoder := xml.NewStringDecoder(data)

	props := &CoreProps{}
	fields := map[string]*string{
		"category":       &props.Category,
		"contentStatus":  &props.ContentStatus,
		"keywords":       &props.Keywords,
		"lastModifiedBy": &props.LastModifiedBy,
		"revision":       &props.Revision,
		"version":        &props.Version,
		"creator":        &props.Creator,
		"description":    &props.Description,
		"identifier":     &props.Identifier,
		"language":       &props.Language,
		"subject":        &props.Subject,
		"title":          &props.Title,
	}
	dates := map[string]*time.Time{
		"lastPrinted": &props.LastPrinted,
		"created":     &props.Created,
		"modified":    &props.Modified,
	}

	var t xml.Token
	var err error
	for t, err = decoder.Token(); err == nil; t, err = decoder.Token() {
		if t.Type != xml.StartElement || t.Name.Local == "coreProperties" {
			continue
		}
		var text string
		text, err = decoder.InnerXML()
		if err != nil {
			return nil, err
		}
		if field, ok := fields[t.Name.Local]; ok {
			*field = xml.Text(text)
		} else if date, ok := dates[t.Name.Local]; ok {
			*date = parsePropDate(xml.Unescape(text))
		}
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}
	return props, nil
}

// ParseExtProps reads the extended (application) properties part.
func ParseExtProps(data string) (*ExtProps, error) {
	decoder := xml.NewStringDecoder(data)

	props := &ExtProps{}
	strs := map[string]*string{
		"Application": &props.Application,
		"AppVersion":  &props.AppVersion,
		"Company":     &props.Company,
		"Manager":     &props.Manager,
	}
	bools := map[string]*bool{
		"HyperlinksChanged": &props.HyperlinksChanged,
		"SharedDoc":         &props.SharedDoc,
		"LinksUpToDate":     &props.LinksUpToDate,
		"ScaleCrop":         &props.ScaleCrop,
	}

	var t xml.Token
	var err error
	for t, err = decoder.Token(); err == nil; t, err = decoder.Token() {
		if t.Type != xml.StartElement || t.Name.Local == "Properties" {
			continue
		}
		name := t.Name.Local
		var text string
		text, err = decoder.InnerXML()
		if err != nil {
			return nil, err
		}

		switch {
		case strs[name] != nil:
			*strs[name] = xml.Text(text)
		case bools[name] != nil:
			*bools[name], err = parseXMLBool(xml.Unescape(text))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		case name == "DocSecurity":
			props.DocSecurity, err = strconv.Atoi(text)
			if err != nil {
				return nil, fmt.Errorf("DocSecurity: %w", err)
			}
		case name == "HeadingPairs":
			props.HeadingPairs, err = ParseVector(text)
			if err != nil {
				return nil, fmt.Errorf("HeadingPairs: %w", err)
			}
		case name == "TitlesOfParts":
			props.TitlesOfParts, err = ParseVector(text)
			if err != nil {
				return nil, fmt.Errorf("TitlesOfParts: %w", err)
			}
		}
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}

	props.Worksheets = worksheetTitles(props.HeadingPairs, props.TitlesOfParts)
	return props, nil
}

// ParseVector reads the vt:vector inside data. A vt:variant element
// contributes its single child. The element count must equal the size
// attribute.
func ParseVector(data string) ([]VectorValue, error) {
	decoder := xml.NewStringDecoder(data)

	var (
		result  []VectorValue
		size    = -1
		count   int
		variant bool
	)

	var t xml.Token
	var err error
	for t, err = decoder.Token(); err == nil; t, err = decoder.Token() {
		switch t.Type {
		case xml.StartElement:
			switch t.Name.Local {
			case "vector":
				size, err = strconv.Atoi(t.Value("size"))
				if err != nil {
					return nil, fmt.Errorf("%w: size %q", ErrVectorLength, t.Value("size"))
				}
			case "variant":
				variant = true
				count++
			default:
				if !variant {
					count++
				}
				var text string
				text, err = decoder.InnerXML()
				if err != nil {
					return nil, err
				}
				result = append(result, VectorValue{Type: t.Name.Local, Text: xml.Text(text)})
			}
		case xml.EndElement:
			if t.Name.Local == "variant" {
				variant = false
			}
		}
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}
	if size >= 0 && size != count {
		return nil, fmt.Errorf("%w: declared %d, found %d", ErrVectorLength, size, count)
	}
	return result, nil
}

// worksheetTitles walks the (name, count) heading pairs with a running
// offset into the titles and returns the slice under "Worksheets".
func worksheetTitles(pairs, titles []VectorValue) []string {
	offset := 0
	for i := 0; i+1 < len(pairs); i += 2 {
		n, err := strconv.Atoi(pairs[i+1].Text)
		if err != nil || n < 0 {
			return nil
		}
		if pairs[i].Text == "Worksheets" {
			if offset+n > len(titles) {
				return nil
			}
			names := make([]string, n)
			for j := 0; j < n; j++ {
				names[j] = titles[offset+j].Text
			}
			return names
		}
		offset += n
	}
	return nil
}
