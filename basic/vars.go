package basic

import (
	"iter"
	"strings"

	"github.com/ezrec/ucbasic/internal"
)

// SIGIL marks an identifier as text typed.
const SIGIL = "$"

// IsText reports whether name belongs to the text variables.
func IsText(name string) bool {
	return strings.HasSuffix(name, SIGIL)
}

// Vars holds the numeric and text variable bindings of a program run.
type Vars struct {
	Num map[string]float64
	Str map[string]string
}

// SetNum binds a numeric variable.
func (vars *Vars) SetNum(name string, value float64) {
	if vars.Num == nil {
		vars.Num = map[string]float64{}
	}
	vars.Num[name] = value
}

// GetNum looks up a numeric variable.
func (vars *Vars) GetNum(name string) (value float64, ok bool) {
	value, ok = vars.Num[name]
	return
}

// SetStr binds a text variable.
func (vars *Vars) SetStr(name string, value string) {
	if vars.Str == nil {
		vars.Str = map[string]string{}
	}
	vars.Str[name] = value
}

// GetStr looks up a text variable.
func (vars *Vars) GetStr(name string) (value string, ok bool) {
	value, ok = vars.Str[name]
	return
}

// Delete removes a binding from whichever mapping its name selects.
func (vars *Vars) Delete(name string) {
	if IsText(name) {
		delete(vars.Str, name)
	} else {
		delete(vars.Num, name)
	}
}

// Clear removes every binding.
func (vars *Vars) Clear() {
	clear(vars.Num)
	clear(vars.Str)
}

// Len returns the number of bindings.
func (vars *Vars) Len() int {
	return len(vars.Num) + len(vars.Str)
}

// All iterates over every binding rendered as text, numeric variables
// first, each group in name order.
func (vars *Vars) All() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		internal.SortedMap(vars.Num, FormatNumber),
		internal.SortedMap(vars.Str, func(s string) string { return s }),
	)
}
