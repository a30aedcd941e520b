package logic

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// FormatNumber renders n the way form clients print numbers: the shortest
// round-tripping digits, plain notation for decimal exponents in (-7, 21) and
// exponent notation outside it. 0 becomes "0", 1.5 becomes "1.5" and 1e21
// becomes "1e+21".
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}

	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(n, 'e', -1, 64), "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	// point is the position of the decimal point relative to digits.
	point := e + 1
	k := len(digits)

	switch {
	case k <= point && point <= 21:
		return sign + digits + strings.Repeat("0", point-k)
	case 0 < point && point <= 21:
		return sign + digits[:point] + "." + digits[point:]
	case -6 < point && point <= 0:
		return sign + "0." + strings.Repeat("0", -point) + digits
	}

	out := digits[:1]
	if k > 1 {
		out += "." + digits[1:]
	}
	expSign := "+"
	if point-1 < 0 {
		expSign = "-"
	}
	return sign + out + "e" + expSign + strconv.Itoa(abs(point-1))
}

// ParseNumber converts free text to a number with the same rules form clients
// apply. Surrounding whitespace is ignored and blank text is zero. Accepted
// forms are decimal literals with an optional sign and exponent, unsigned
// 0x/0o/0b integer literals and "Infinity" with an optional sign. Anything
// else is NaN. Decimal literals beyond the float64 range become ±Inf.
func ParseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		if base := radixBase(s[1]); base != 0 {
			return parseRadixInteger(s[2:], base)
		}
	}
	if !isDecimalLiteral(s) {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return n
}

func radixBase(prefix byte) int {
	switch prefix {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}
	return 0
}

func parseRadixInteger(digits string, base int) float64 {
	for i := 0; i < len(digits); i++ {
		if digitValue(digits[i]) >= base {
			return math.NaN()
		}
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return math.NaN()
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 36
}

// isDecimalLiteral matches [+-] digits [. digits] [(e|E) [+-] digits] with at
// least one mantissa digit. Underscores, hex floats and inf/nan spellings are
// rejected.
func isDecimalLiteral(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	mantissa := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		mantissa++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			mantissa++
		}
	}
	if mantissa == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exponent := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exponent++
		}
		if exponent == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
