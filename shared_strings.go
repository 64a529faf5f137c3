package xlsx

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/anfilat/xlsx-read/internal/xml"
)

// RunProperties are the formatting attributes of one rich text run.
type RunProperties struct {
	Font      string
	Size      float64
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	// Color is the RGB part of an ARGB color ("FF0000").
	Color  string
	Family string
}

type RichRun struct {
	Text  string
	Props RunProperties
}

// SharedString is one <si> record. Runs is nil for plain text; Text is
// always the markup-free content, for rich text the runs concatenated.
type SharedString struct {
	Text string
	Runs []RichRun
	XML  string
}

type SharedStrings struct {
	Items       []SharedString
	Count       int
	UniqueCount int
}

func (s *SharedStrings) Get(idx int) (SharedString, error) {
	if s == nil || idx < 0 || idx >= len(s.Items) {
		return SharedString{}, fmt.Errorf("%w: index %d", ErrSharedString, idx)
	}
	return s.Items[idx], nil
}

func (s *SharedStrings) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// maxPreallocStrings caps the capacity taken from the count attributes.
const maxPreallocStrings = 1 << 16

// ParseSharedStrings reads the shared string table part.
func ParseSharedStrings(data string) (*SharedStrings, error) {
	decoder := xml.NewStringDecoder(data)

	result := &SharedStrings{}
	ar := &arena{}
	var (
		item    SharedString
		run     RichRun
		texts   []string
		siStart int
		isR     bool
		isRPr   bool
	)

	var t xml.Token
	var err error
	for t, err = decoder.Token(); err == nil; t, err = decoder.Token() {
		switch t.Type {
		case xml.StartElement:
			switch t.Name.Local {
			case "sst":
				result.Count, err = optionalInt(t, "count")
				if err != nil {
					return nil, err
				}
				result.UniqueCount, err = optionalInt(t, "uniqueCount")
				if err != nil {
					return nil, err
				}
				if result.Count < 0 || result.UniqueCount < 0 {
					return nil, fmt.Errorf("%w: negative count in table header", ErrSharedString)
				}
				result.Items = make([]SharedString, 0, min(max(result.UniqueCount, result.Count), maxPreallocStrings))
			case "si":
				item = SharedString{}
				texts = texts[:0]
				siStart = decoder.Offset()
			case "t":
				raw, err := decoder.InnerXML()
				if err != nil {
					return nil, err
				}
				text := xml.Text(raw)
				if isR {
					run.Text += text
				}
				texts = append(texts, text)
			case "r":
				isR = true
				run = RichRun{}
			case "rPr":
				isRPr = true
			case "rPh", "phoneticPr":
				if err := decoder.Skip(); err != nil {
					return nil, err
				}
			default:
				if isRPr {
					if err := applyRunProperty(&run.Props, t); err != nil {
						return nil, err
					}
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "si":
				item.Text = ar.concat(texts)
				item.XML = ar.toString(data[siStart:t.Offset])
				result.Items = append(result.Items, item)
			case "r":
				run.Text = ar.toString(run.Text)
				item.Runs = append(item.Runs, run)
				isR = false
			case "rPr":
				isRPr = false
			}
		}
	}
	if !errors.Is(err, io.EOF) {
		return nil, err
	}
	return result, nil
}

func applyRunProperty(p *RunProperties, t xml.Token) error {
	switch t.Name.Local {
	case "rFont":
		p.Font = xml.Unescape(t.Value("val"))
	case "sz":
		if v, ok := t.Get("val"); ok {
			size, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: font size %q", ErrRichFormat, v)
			}
			p.Size = size
		}
	case "b":
		p.Bold = flagProperty(t)
	case "i":
		p.Italic = flagProperty(t)
	case "strike":
		p.Strike = flagProperty(t)
	case "u":
		p.Underline = t.Value("val") != "none"
	case "color":
		rgb := t.Value("rgb")
		if len(rgb) == 8 {
			rgb = rgb[2:]
		}
		p.Color = rgb
	case "family":
		p.Family = t.Value("val")
	case "condense", "extend", "shadow", "charset", "outline", "vertAlign", "scheme":
	default:
		return fmt.Errorf("%w <%s>", ErrRichFormat, t.Name)
	}
	return nil
}

// flagProperty reads toggles such as <b/> or <b val="0"/>.
func flagProperty(t xml.Token) bool {
	v, ok := t.Get("val")
	if !ok {
		return true
	}
	b, err := parseXMLBool(v)
	return err != nil || b
}

func optionalInt(t xml.Token, name string) (int, error) {
	v, ok := t.Get(name)
	if !ok || v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
