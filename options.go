package xlsx

import (
	"io"

	"github.com/sirupsen/logrus"
)

type Option func(*options)

type options struct {
	log      logrus.FieldLogger
	raw      bool
	rows     int
	sheets   []string
	date1904 *bool
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		o.log = logger
	}
	return o
}

// WithLogger receives skipped sheets and cells whose number format
// failed. Nothing is logged by default.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithRawValues leaves cell values unformatted.
func WithRawValues() Option {
	return func(o *options) {
		o.raw = true
	}
}

// WithSheetRows limits every sheet to its first n rows. Zero means no
// limit.
func WithSheetRows(n int) Option {
	return func(o *options) {
		o.rows = max(n, 0)
	}
}

// WithSheets parses only the named sheets.
func WithSheets(names ...string) Option {
	return func(o *options) {
		o.sheets = append(o.sheets, names...)
	}
}

// WithDate1904 overrides the date system declared by the workbook.
func WithDate1904(on bool) Option {
	return func(o *options) {
		o.date1904 = &on
	}
}
