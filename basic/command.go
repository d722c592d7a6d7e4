package basic

import (
	"strings"
	"unicode"
)

// Kind is the decoded keyword of a command.
type Kind int

//go:generate go tool stringer -linecomment -type=Kind
const (
	KIND_UNKNOWN Kind = iota // UNKNOWN
	KIND_PRINT               // PRINT
	KIND_LET                 // LET
	KIND_IF                  // IF
	KIND_FOR                 // FOR
	KIND_NEXT                // NEXT
	KIND_GOSUB               // GOSUB
	KIND_RETURN              // RETURN
	KIND_END                 // END
	KIND_INPUT               // INPUT
)

// Command is a single decoded statement.
type Command struct {
	Kind Kind
	Text string // Statement text, without the label.

	Name string // LET, FOR, NEXT and INPUT variable.
	Arg  string // PRINT argument, LET value, FOR bound, GOSUB target.
	Cond string // IF condition.
	Then string // IF statement.

	Err error // Set when the statement is malformed.
}

var keywords = []struct {
	prefix string
	exact  bool
	kind   Kind
}{
	{"PRINT ", false, KIND_PRINT},
	{"LET ", false, KIND_LET},
	{"IF ", false, KIND_IF},
	{"FOR ", false, KIND_FOR},
	{"NEXT ", false, KIND_NEXT},
	{"GOSUB ", false, KIND_GOSUB},
	{"RETURN", true, KIND_RETURN},
	{"END", true, KIND_END},
	{"INPUT ", false, KIND_INPUT},
}

// SplitLabel separates the leading label token of a program line from
// its statement. ok is false when the line has no whitespace.
func SplitLabel(line string) (label string, text string, ok bool) {
	n := strings.IndexFunc(line, unicode.IsSpace)
	if n < 0 {
		label = line
		return
	}

	label = line[:n]
	text = strings.TrimSpace(line[n:])
	ok = true
	return
}

// Decode decodes a statement. Keywords are case sensitive.
func Decode(text string) (cmd Command) {
	text = strings.TrimSpace(text)
	cmd.Text = text

	for _, kw := range keywords {
		if kw.exact && text == kw.prefix {
			cmd.Kind = kw.kind
			return
		}
		if !kw.exact && strings.HasPrefix(text, kw.prefix) {
			cmd.Kind = kw.kind
			break
		}
	}

	switch cmd.Kind {
	case KIND_PRINT:
		cmd.Arg = strings.TrimSpace(text[len("PRINT "):])
	case KIND_LET:
		name, value, ok := strings.Cut(text[len("LET "):], "=")
		if !ok {
			cmd.Err = ErrEqualsMissing
			break
		}
		cmd.Name = strings.TrimSpace(name)
		cmd.Arg = strings.TrimSpace(value)
		if len(cmd.Name) == 0 {
			cmd.Err = ErrNameMissing
		}
	case KIND_IF:
		// Keep the separating space so "IF THEN ..." still finds THEN.
		cond, stmt, ok := strings.Cut(text[len("IF"):], " THEN ")
		if !ok {
			cmd.Err = ErrThenMissing
			break
		}
		cmd.Cond = strings.TrimSpace(cond)
		cmd.Then = strings.TrimSpace(stmt)
	case KIND_FOR:
		name, bound, ok := strings.Cut(text[len("FOR"):], " TO ")
		if !ok {
			cmd.Err = ErrToMissing
			break
		}
		cmd.Name = strings.TrimSpace(name)
		cmd.Arg = strings.TrimSpace(bound)
		if len(cmd.Name) == 0 {
			cmd.Err = ErrNameMissing
		}
	case KIND_NEXT:
		cmd.Name = strings.TrimSpace(text[len("NEXT "):])
	case KIND_GOSUB:
		cmd.Arg = strings.TrimSpace(text[len("GOSUB "):])
	case KIND_INPUT:
		cmd.Name = strings.TrimSpace(text[len("INPUT "):])
	default:
		cmd.Err = ErrCommandUnknown
	}

	return
}
