package basic

import (
	"regexp"
	"strconv"
	"strings"
)

var reNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// FormatNumber renders a numeric value in its shortest decimal form.
func FormatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// parseNumber converts the leading numeric prefix of text, or 0 when
// there is none.
func parseNumber(text string) (value float64) {
	prefix := reNumber.FindString(text)
	if len(prefix) == 0 {
		return
	}

	value, _ = strconv.ParseFloat(prefix, 64)
	return
}

// EvalNumeric resolves a numeric operand: a bound variable, else a literal.
func (vars *Vars) EvalNumeric(token string) float64 {
	token = strings.TrimSpace(token)
	if value, ok := vars.GetNum(token); ok {
		return value
	}

	return parseNumber(token)
}

// EvalText resolves a text operand: a bound variable, else the token itself.
func (vars *Vars) EvalText(token string) string {
	token = strings.TrimSpace(token)
	if value, ok := vars.GetStr(token); ok {
		return value
	}

	return token
}

// EvalCondition evaluates "left op right", returning 1 when true and 0
// when false or malformed.
func (vars *Vars) EvalCondition(expr string) float64 {
	parts := strings.SplitN(strings.TrimSpace(expr), " ", 3)
	if len(parts) != 3 || len(parts[0]) == 0 || len(parts[1]) == 0 {
		return 0
	}

	left := vars.EvalNumeric(parts[0])
	right := vars.EvalNumeric(parts[2])

	var result bool
	switch parts[1] {
	case ">":
		result = left > right
	case "<":
		result = left < right
	case "=", "==":
		result = left == right
	}

	if result {
		return 1
	}
	return 0
}

// unquote strips a surrounding pair of double quotes.
func unquote(text string) (inner string, ok bool) {
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		return text[1 : len(text)-1], true
	}
	return text, false
}
