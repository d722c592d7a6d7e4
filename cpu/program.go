package cpu

import (
	"fmt"
	"iter"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// IMAGE_VERSION is the current bytecode image format.
const IMAGE_VERSION = 1

// Program is an assembled listing.
type Program struct {
	Statements []Statement
}

type Debug struct {
	*Statement
	Index int
}

// Debug finds the statement that produced the byte at pc.
func (prog *Program) Debug(pc uint16) (dbg Debug) {
	for n, st := range prog.Statements {
		if int(pc) >= st.Pc && int(pc) < st.Pc+len(st.Codes) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     int(pc) - st.Pc,
			}
			break
		}
	}

	return
}

// Bytecode returns the concatenated bytes of all statements.
func (prog *Program) Bytecode() (code []byte) {
	code = []byte{}
	for _, b := range prog.Codes() {
		code = append(code, b)
	}

	return
}

// Codes iterates over every byte with its program counter.
func (prog *Program) Codes() iter.Seq2[uint16, byte] {
	return func(yield func(pc uint16, code byte) bool) {
		for _, st := range prog.Statements {
			pc := uint16(st.Pc)
			for n, code := range st.Codes {
				if !yield(pc+uint16(n), code) {
					return
				}
			}
		}
	}
}

// Source returns the source text of each statement.
func (prog *Program) Source() (lines []string) {
	for _, st := range prog.Statements {
		text := st.Words[0]
		if len(st.Words) > 1 {
			text += " " + strings.Join(st.Words[1:], ",")
		}
		lines = append(lines, text)
	}
	return
}

// Image is the persisted form of an assembled program.
type Image struct {
	Version  int      `cbor:"1,keyasint"`
	Source   []string `cbor:"2,keyasint"`
	Bytecode []byte   `cbor:"3,keyasint"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cpu: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Image returns the persistable image of the program.
func (prog *Program) Image() *Image {
	return &Image{
		Version:  IMAGE_VERSION,
		Source:   prog.Source(),
		Bytecode: prog.Bytecode(),
	}
}

// MarshalImage serializes an Image to canonical CBOR bytes.
func MarshalImage(img *Image) ([]byte, error) {
	return cborEncMode.Marshal(img)
}

// UnmarshalImage deserializes an Image from CBOR bytes.
func UnmarshalImage(data []byte) (img *Image, err error) {
	img = &Image{}
	if err = cbor.Unmarshal(data, img); err != nil {
		img = nil
		err = fmt.Errorf("cpu: unmarshal image: %w", err)
		return
	}
	if img.Version != IMAGE_VERSION {
		img = nil
		err = ErrImageVersion
	}
	return
}
