package xlsx

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	generalTrailingZerosRe = regexp.MustCompile(`(\.[0-9]*[1-9])0*$`)
	generalMantissaZerosRe = regexp.MustCompile(`(\.[0-9]*[1-9])0+e`)
	generalEmptyMantissaRe = regexp.MustCompile(`\.0*e`)
	generalZeroFractionRe  = regexp.MustCompile(`\.0*$`)
	generalFractionRe      = regexp.MustCompile(`\.([0-9]*[^0])0*$`)
	generalShortExponentRe = regexp.MustCompile(`(E[+-])([0-9])$`)
)

// FormatGeneral renders v the way the General format does: numbers use
// at most eleven characters, booleans become TRUE/FALSE and text is kept.
func FormatGeneral(v any) (string, error) {
	if f, ok := toFloat(v); ok {
		return generalNumber(f), nil
	}
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	}
	return "", fmt.Errorf("%w: %T", ErrInvalidValue, v)
}

func generalNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	maxLen := 11
	if v < 0 {
		maxLen++
	}
	a := math.Abs(v)

	var o string
	switch {
	case a >= 0.1 && a < 1:
		o = toPrecision(v, 9)
	case a >= 0.01 && a < 0.1:
		o = toPrecision(v, 8)
	case a >= 0.001 && a < 0.01:
		o = toPrecision(v, 7)
	case a >= 0.0001 && a < 0.001:
		o = toPrecision(v, 6)
	case a >= 1e10 && a < 1e11:
		o = toFixed(v, 10)
		if len(o) > 12 {
			o = o[:12]
		}
	case a > 1e-9 && a < 1e11:
		o = generalTrailingZerosRe.ReplaceAllString(toFixed(v, 12), "$1")
		o = strings.TrimSuffix(o, ".")
		if len(o) > maxLen {
			o = toPrecision(v, 10)
		}
		if len(o) > maxLen {
			o = toExponential(v, 5)
		}
	default:
		o = generalTrailingZerosRe.ReplaceAllString(toFixed(v, 11), "$1")
		if len(o) > maxLen {
			o = toPrecision(v, 6)
		}
	}

	o = generalMantissaZerosRe.ReplaceAllString(o, "${1}e")
	o = generalEmptyMantissaRe.ReplaceAllString(o, "e")
	o = strings.Replace(o, "e", "E", 1)
	o = generalZeroFractionRe.ReplaceAllString(o, "")
	o = generalFractionRe.ReplaceAllString(o, ".$1")
	o = generalShortExponentRe.ReplaceAllString(o, "${1}0$2")
	return o
}

func toFixed(v float64, digits int) string {
	return strconv.FormatFloat(v, 'f', digits, 64)
}

// toExponential prints one digit, the requested decimals and an exponent
// without padding, e.g. "1.50000e+5".
func toExponential(v float64, digits int) string {
	m, e := splitExponent(strconv.FormatFloat(v, 'e', digits, 64))
	return m + "e" + formatExponent(e)
}

// toPrecision prints v with the given number of significant digits,
// switching to exponent form for exponents below -6 or at least the
// precision.
func toPrecision(v float64, precision int) string {
	if v == 0 {
		return strconv.FormatFloat(0, 'f', precision-1, 64)
	}
	m, e := splitExponent(strconv.FormatFloat(v, 'e', precision-1, 64))
	if e < -6 || e >= precision {
		return m + "e" + formatExponent(e)
	}
	return strconv.FormatFloat(v, 'f', precision-1-e, 64)
}

func splitExponent(s string) (string, int) {
	m, e, _ := strings.Cut(s, "e")
	n, _ := strconv.Atoi(e)
	return m, n
}

func formatExponent(e int) string {
	if e < 0 {
		return "-" + itoa(-e)
	}
	return "+" + itoa(e)
}
