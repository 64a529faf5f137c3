package xlsx

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	fixedDenominatorRe = regexp.MustCompile(`^# (\?+)( ?)/( ?)([0-9]+)$`)
	mixedFractionRe    = regexp.MustCompile(`^# (\?+)/(\?+)$`)
	plainFractionRe    = regexp.MustCompile(`^(\?+)/(\?+)$`)
	placeholderRe      = regexp.MustCompile(`^[#0?,]*(\.[#0?]*)?$`)
)

// writeNumber renders val with a merged numeric pattern such as "#,##0.00",
// "0.00E+00" or "# ??/??".
func writeNumber(pattern string, val float64) (string, error) {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return "", fmt.Errorf("%w %q for %v", ErrUnsupportedFormat, pattern, val)
	}
	if strings.HasPrefix(pattern, "(") {
		inner := strings.TrimLeft(pattern[1:], " ")
		inner = strings.Replace(inner, " )", "", 1)
		inner = strings.Replace(inner, ")", "", 1)
		s, err := writeNumber(inner, math.Abs(val))
		if err != nil {
			return "", err
		}
		return "(" + s + ")", nil
	}

	if strings.HasSuffix(pattern, "%") {
		stripped := strings.ReplaceAll(pattern, "%", "")
		n := len(pattern) - len(stripped)
		s, err := writeNumber(stripped, val*math.Pow(100, float64(n)))
		if err != nil {
			return "", err
		}
		return s + strings.Repeat("%", n), nil
	}

	if strings.ContainsAny(pattern, "Ee") {
		return writeScientific(pattern, val)
	}

	for _, symbol := range []string{"$", "€"} {
		if rest, ok := strings.CutPrefix(pattern, symbol); ok {
			s, err := writeNumber(strings.TrimLeft(rest, " "), val)
			if err != nil {
				return "", err
			}
			return symbol + s, nil
		}
		if rest, ok := strings.CutSuffix(pattern, symbol); ok {
			s, err := writeNumber(strings.TrimRight(rest, " "), val)
			if err != nil {
				return "", err
			}
			return s + symbol, nil
		}
	}

	aval := math.Abs(val)
	sign := ""
	if val < 0 {
		sign = "-"
	}

	if r := fixedDenominatorRe.FindStringSubmatch(pattern); r != nil {
		den, _ := strconv.Atoi(r[4])
		if den == 0 {
			return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, pattern)
		}
		rnd := math.Floor(aval*float64(den) + 0.5)
		base := math.Floor(rnd / float64(den))
		num := int(rnd - base*float64(den))
		out := sign
		if base != 0 {
			out += strconv.FormatFloat(base, 'f', 0, 64)
		}
		out += " "
		if num == 0 {
			return out + strings.Repeat(" ", len(r[1])+1+len(r[4])), nil
		}
		return out + padLeft(itoa(num), len(r[1]), ' ') + r[2] + "/" + r[3] + padLeft(itoa(den), len(r[4]), '0'), nil
	}

	if r := mixedFractionRe.FindStringSubmatch(pattern); r != nil {
		whole, num, den := splitFraction(aval, pow10(len(r[2]))-1)
		if whole == 0 && num == 0 {
			return "0" + strings.Repeat(" ", len(r[1])+1+len(r[2])+1), nil
		}
		out := sign
		if whole != 0 {
			out += strconv.FormatFloat(whole, 'f', 0, 64)
		}
		out += " "
		if num == 0 {
			return out + strings.Repeat(" ", len(r[1])+1+len(r[2])), nil
		}
		return out + padLeft(itoa(num), len(r[1]), ' ') + "/" + padRight(itoa(den), len(r[2]), ' '), nil
	}

	if r := plainFractionRe.FindStringSubmatch(pattern); r != nil {
		whole, num, den := splitFraction(aval, pow10(len(r[2]))-1)
		improper := whole*float64(den) + float64(num)
		if improper == 0 {
			sign = ""
		}
		return sign + padLeft(strconv.FormatFloat(improper, 'f', 0, 64), len(r[1]), ' ') + "/" + padRight(itoa(den), len(r[2]), ' '), nil
	}

	if placeholderRe.MatchString(pattern) && strings.ContainsAny(pattern, "#0?") {
		return writePlaceholders(pattern, val), nil
	}

	return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, pattern)
}

// splitFraction separates the whole part of a non-negative val in float64
// so that only the remainder goes through the rational approximation.
func splitFraction(val float64, maxDen int) (float64, int, int) {
	whole := math.Floor(val)
	carry, num, den := Fraction(val-whole, maxDen, true)
	return whole + float64(carry), num, den
}

// writePlaceholders handles plain digit patterns: "0", "000", "0.00",
// "#,##0.000", "#.##", "0.0?" and trailing-comma thousands scaling.
func writePlaceholders(pattern string, val float64) string {
	intPat, fracPat, hasDot := strings.Cut(pattern, ".")

	scaled := strings.TrimRight(intPat, ",")
	for i := 0; i < len(intPat)-len(scaled); i++ {
		val /= 1000
	}
	intPat = scaled

	decimals := len(fracPat)
	rounded := roundHalfUp(math.Abs(val), decimals)
	digits := strconv.FormatFloat(rounded, 'f', decimals, 64)
	ip, fp, _ := strings.Cut(digits, ".")

	zeros := strings.Count(intPat, "0")
	spaces := strings.Count(intPat, "?")
	if ip == "0" && zeros == 0 {
		ip = ""
	}
	ip = padLeft(ip, zeros, '0')
	if strings.Contains(intPat, ",") {
		ip = commaify(ip)
	}
	ip = padLeft(ip, zeros+spaces, ' ')

	required := strings.LastIndexAny(fracPat, "0") + 1
	for len(fp) > required && strings.HasSuffix(fp, "0") {
		fp = fp[:len(fp)-1]
	}
	for k := len(fp); k < len(fracPat); k++ {
		if fracPat[k] == '?' {
			fp += " "
		}
	}

	out := ip
	if hasDot {
		out += "." + fp
	}
	if val < 0 && rounded != 0 {
		out = "-" + out
	}
	return out
}

// writeScientific renders "0.00E+00"-style patterns. A mantissa with more
// than one integer placeholder and a '#' (such as "##0.0E+0") switches to
// engineering notation, where the exponent is a multiple of that width.
func writeScientific(pattern string, val float64) (string, error) {
	at := strings.IndexAny(pattern, "Ee")
	mantPat, expPat := pattern[:at], pattern[at+1:]
	if expPat == "" || (expPat[0] != '+' && expPat[0] != '-') {
		return "", fmt.Errorf("%w %q", ErrUnsupportedFormat, pattern)
	}
	expDigits := max(strings.Count(expPat[1:], "0"), 1)

	intPat, fracPat, hasDot := strings.Cut(mantPat, ".")
	decimals := len(fracPat)
	intWidth := max(countPlaceholders(intPat), 1)
	engineering := intWidth > 1 && strings.Contains(intPat, "#")

	aval := math.Abs(val)
	exp := decimalExponent(aval)
	var mantissa string
	for i := 0; i < 3; i++ {
		shift := intWidth - 1
		if engineering {
			shift = ((exp % intWidth) + intWidth) % intWidth
		}
		m, e, _ := strings.Cut(strconv.FormatFloat(aval, 'e', decimals+shift, 64), "e")
		if got, _ := strconv.Atoi(e); got != exp {
			// rounding carried into the next power of ten
			exp = got
			continue
		}
		digits := strings.Replace(m, ".", "", 1)
		mantissa = digits[:1+shift]
		if hasDot {
			mantissa += "." + digits[1+shift:]
		}
		exp -= shift
		break
	}

	out := ""
	if val < 0 {
		out = "-"
	}
	out += mantissa + "E"
	switch {
	case exp < 0:
		out += "-"
		exp = -exp
	case expPat[0] == '+':
		out += "+"
	}
	return out + padInt(exp, expDigits), nil
}

func countPlaceholders(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '0' || s[i] == '#' || s[i] == '?' {
			n++
		}
	}
	return n
}

func decimalExponent(aval float64) int {
	if aval == 0 {
		return 0
	}
	s := strconv.FormatFloat(aval, 'e', -1, 64)
	_, e, _ := strings.Cut(s, "e")
	n, _ := strconv.Atoi(e)
	return n
}

// commaify inserts thousands separators into a string of digits.
func commaify(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	rev := []byte(digits)
	slices.Reverse(rev)
	out := make([]byte, 0, len(rev)+len(rev)/3)
	for i, c := range rev {
		if i > 0 && i%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	slices.Reverse(out)
	return string(out)
}

func roundHalfUp(x float64, decimals int) float64 {
	scale := float64(pow10(decimals))
	return math.Floor(x*scale+0.5) / scale
}

func pow10(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func padInt(n, width int) string {
	if n < 0 {
		return "-" + padLeft(itoa(-n), width, '0')
	}
	return padLeft(itoa(n), width, '0')
}

func padLeft(s string, width int, fill byte) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(string(fill), width-len(s)) + s
}

func padRight(s string, width int, fill byte) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(string(fill), width-len(s))
}
