package xlsx

import (
	"errors"
	"fmt"

	"github.com/anfilat/xlsx-read/internal/xml"
)

var (
	ErrNoWorkbook     = errors.New("parse xlsx file failed: workbook part doesn't exist")
	ErrNoContentTypes = errors.New("parse xlsx file failed: [Content_Types].xml doesn't exist")
	ErrNamespace      = errors.New("unknown namespace")
	ErrPartNotFound   = errors.New("part not found")
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrCellType       = errors.New("unrecognized cell type")
	ErrCellValue      = errors.New("invalid cell value")
	ErrBoolean        = errors.New("unrecognized boolean")
	ErrSharedString   = errors.New("incorrect shared string")
	ErrRichFormat     = errors.New("unrecognized rich format")
	ErrStyles         = errors.New("unrecognized tag in styles")
	ErrVectorLength   = errors.New("unexpected vector length")
	ErrInvalidAddress = errors.New("invalid cell address")

	// ErrFormat is the parent of every number format failure. Sheet
	// parsing treats it as recoverable and keeps the raw cell value.
	ErrFormat = errors.New("number format")
	// ErrUnsupported marks formats the engine has no rendering rule for,
	// as opposed to malformed ones.
	ErrUnsupported = errors.New("unsupported")

	ErrUnterminatedQuote     = fmt.Errorf("%w: unterminated quoted literal", ErrFormat)
	ErrUnterminatedBracket   = fmt.Errorf("%w: unterminated bracket", ErrFormat)
	ErrUnknownFormatID       = fmt.Errorf("%w: unknown format id", ErrFormat)
	ErrFormatSections        = fmt.Errorf("%w: sub-format count must be 1, 2 or 4", ErrFormat)
	ErrUnrecognizedCharacter = fmt.Errorf("%w: unrecognized character", ErrFormat)
	ErrInvalidValue          = fmt.Errorf("%w: unsupported value type", ErrFormat)
	ErrBadDateToken          = fmt.Errorf("%w: bad date token", ErrFormat)
	ErrUnsupportedFormat     = fmt.Errorf("%w: %w pattern", ErrFormat, ErrUnsupported)
)

// PartError reports a fatal problem with one package part.
type PartError struct {
	Part    string
	Snippet string
	Err     error
}

func (e *PartError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("%s: %v (near %q)", e.Part, e.Err, e.Snippet)
	}
	return fmt.Sprintf("%s: %v", e.Part, e.Err)
}

func (e *PartError) Unwrap() error {
	return e.Err
}

// partError attaches the part name, and for scan failures the text where
// scanning stopped, to err.
func partError(part string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PartError
	if errors.As(err, &pe) {
		return err
	}
	result := &PartError{Part: part, Err: err}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		result.Snippet = se.Snippet
	}
	return result
}
