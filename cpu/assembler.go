// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"MEMORY_SIZE": fmt.Sprintf("%#x", MEMORY_SIZE),
}

// Assembler is a single pass, line at a time assembler for the mini VM.
type Assembler struct {
	Verbose   bool        // If set, verbosely logs the assembler actions.
	Log       *log.Logger // Diagnostic log, log.Default() if nil.
	Statement []Statement // List of assembled lines.

	predefine map[string]string // Predefines
	Equate    map[string]string // Map of equates.
	lineno    int
}

// Predefine defines a new equate or redefines an existing equate.
// Predefines survive Clear().
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
	if asm.Equate != nil {
		asm.Equate[equ] = value
	}
}

func (asm *Assembler) logger() *log.Logger {
	if asm.Log != nil {
		return asm.Log
	}
	return log.Default()
}

// Clear empties the bytecode buffer and forgets all equates.
func (asm *Assembler) Clear() {
	asm.Statement = asm.Statement[:0]
	asm.lineno = 0
	asm.Equate = maps.Clone(sysEquate)
	maps.Copy(asm.Equate, asm.predefine)
}

// Size returns the length of the bytecode buffer.
func (asm *Assembler) Size() (size int) {
	return asm.currentPc()
}

// Bytecode returns a copy of the bytecode buffer.
func (asm *Assembler) Bytecode() (code []byte) {
	return asm.Program().Bytecode()
}

// Program returns a snapshot of the assembled statements.
func (asm *Assembler) Program() *Program {
	return &Program{
		Statements: slices.Clone(asm.Statement),
	}
}

// currentPc gets the current program counter.
func (asm *Assembler) currentPc() int {
	if len(asm.Statement) == 0 {
		return 0
	}

	last := asm.Statement[len(asm.Statement)-1]

	return last.Pc + len(last.Codes)
}

// valueOf returns the byte value of a simple word.
func (asm *Assembler) valueOf(word string) (value uint8, err error) {
	if len(word) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if v64 < -0x80 || v64 > 0xff {
		err = ErrValueRange
		return
	}

	value = uint8(v64)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, _err := strconv.ParseInt(str, 0, 64)
		if _err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
)

// expandLine performs character and $() evaluations.
func (asm *Assembler) expandLine(line string) (expanded string, err error) {
	// Do 'x' evaluations
	line = reCharacter.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	expanded = reExpression.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil && err == nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})

	return
}

// cutComment strips a trailing ';' comment, ignoring ';' inside a 'x'
// character literal.
func cutComment(text string) string {
	quoted := false
	for n := 0; n < len(text); n++ {
		switch text[n] {
		case '\\':
			if quoted {
				n++
			}
		case '\'':
			quoted = !quoted
		case ';':
			if !quoted {
				return text[:n]
			}
		}
	}
	return text
}

// splitLine splits a line into a mnemonic and its comma separated operands.
func splitLine(line string) (mnemonic string, operands []string) {
	mnemonic, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	if len(rest) == 0 {
		return
	}
	for _, operand := range strings.Split(rest, ",") {
		operands = append(operands, strings.TrimSpace(operand))
	}
	return
}

// AssembleLine assembles a single line of source, appending its bytes to
// the bytecode buffer. On failure the buffer is unchanged.
func (asm *Assembler) AssembleLine(text string) (err error) {
	if asm.Equate == nil {
		asm.Clear()
	}

	asm.lineno++
	lineno := asm.lineno
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	line := strings.TrimSpace(cutComment(text))

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	if asm.Verbose {
		asm.logger().Debug("asm", "line", lineno, "text", line)
	}

	line, err = asm.expandLine(line)
	if err != nil {
		return
	}

	words := slices.DeleteFunc(strings.Split(line, " "), func(a string) bool { return len(a) == 0 })

	// .equ CONST VALUE
	if len(words) > 0 && words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		return
	}

	mnemonic, operands := splitLine(line)
	if len(mnemonic) == 0 {
		err = ErrOpcodeMissing
		return
	}

	// Substitute equates
	for n, operand := range operands {
		equate, ok := asm.Equate[operand]
		if ok {
			operands[n] = equate
		}
	}

	var codes []byte
	var label string

	switch strings.ToUpper(mnemonic) {
	case "LD":
		if len(operands) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(operands) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		if strings.ToUpper(operands[0]) != "A" {
			err = ErrRegisterInvalid
			return
		}
		var value uint8
		value, err = asm.valueOf(operands[1])
		if err != nil {
			return
		}
		codes = []byte{byte(OP_LD_A_N), value}
	case "ADD":
		if len(operands) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(operands) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		if strings.ToUpper(operands[0]) != "A" {
			err = ErrRegisterInvalid
			return
		}
		switch strings.ToUpper(operands[1]) {
		case "B":
			codes = []byte{byte(OP_ADD_A_B)}
		case "C":
			codes = []byte{byte(OP_ADD_A_C)}
		default:
			err = ErrRegisterInvalid
			return
		}
	case "RET":
		if len(operands) > 0 {
			err = ErrOpcodeExtraArgs
			return
		}
		codes = []byte{byte(OP_RET)}
	case "CALL":
		if len(operands) == 0 || len(operands[0]) == 0 {
			err = ErrTargetMissing
			return
		}
		if len(operands) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		// Placeholder address, the label is never linked.
		codes = []byte{byte(OP_CALL_NN), 0x00, 0x00}
		label = operands[0]
	default:
		err = ErrInstructionInvalid
		return
	}

	asm.Statement = append(asm.Statement, Statement{
		LineNo:    lineno,
		Pc:        asm.currentPc(),
		Words:     append([]string{mnemonic}, operands...),
		Codes:     codes,
		LinkLabel: label,
	})

	if asm.Verbose {
		asm.logger().Debug("asm", "line", lineno, "pc", asm.Statement[len(asm.Statement)-1].Pc, "codes", fmt.Sprintf("% x", codes))
	}

	return
}

// Parse clears the bytecode buffer, then assembles an input stream,
// skipping blank and comment lines.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	asm.Clear()

	for scanner.Scan() {
		text := scanner.Text()

		if len(strings.TrimSpace(cutComment(text))) == 0 {
			asm.lineno++
			continue
		}

		err = asm.AssembleLine(text)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	prog = asm.Program()

	return
}
