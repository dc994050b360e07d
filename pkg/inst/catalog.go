package inst

import (
	"fmt"
	"strings"
)

// Width is the byte size of an instruction split into its opcode bytes and the
// operand bytes that follow them.
type Width struct {
	Opcode  int
	Operand int
}

// Total returns the full encoded size in bytes.
func (w Width) Total() int {
	return w.Opcode + w.Operand
}

// Info holds the derived metadata for one spec.
type Info struct {
	Text  string // canonical text, "#" for literals
	Bytes []byte // opcode bytes, without operands
	Width Width
}

var (
	catalog = make(map[Spec]Info, 512)
	byText  = make(map[string]Spec, 512)
	specs   []Spec // valid specs in encoding order: primary, then 0xCB table
)

// buildDerived computes every derived table from the opcode tables. It runs
// once from init; afterwards the tables are read-only.
func buildDerived() {
	add := func(s Spec, enc []byte) {
		info := Info{
			Text:  computeText(s),
			Bytes: enc,
			Width: computeWidth(s),
		}
		if prev, ok := byText[info.Text]; ok {
			panic(fmt.Sprintf("inst: %q is the text of both %#v and %#v", info.Text, prev, s))
		}
		catalog[s] = info
		byText[info.Text] = s
		specs = append(specs, s)
	}
	for i, s := range primary {
		if !s.Valid() || s.IsEscape() {
			continue
		}
		add(s, []byte{byte(i)})
	}
	for i, s := range secondary {
		add(s, []byte{EscapeByte, byte(i)})
	}
}

// computeWidth sums the per-operand-kind widths. An escaped spec adds the
// escape byte to the inner spec's width.
func computeWidth(s Spec) Width {
	if s.Prefix == PrefixCB {
		w := computeWidth(s.Inner())
		w.Opcode++
		return w
	}
	return Width{Opcode: 1, Operand: s.Dst.Width() + s.Src.Width()}
}

func computeText(s Spec) string {
	s = s.Inner()
	mnemonic := s.Op.String()
	if s.Op == LD && (s.Dst == FFImm8Addr || s.Dst == FFCAddr || s.Src == FFImm8Addr || s.Src == FFCAddr) {
		mnemonic = "ldh"
	}

	var operands []string
	if s.Cond != Always {
		operands = append(operands, s.Cond.String())
	}
	switch s.Op {
	case RST:
		operands = append(operands, fmt.Sprintf("$%02x", s.Vector))
	case BIT, RES, SET:
		operands = append(operands, fmt.Sprintf("%d", s.Bit))
	}
	for _, o := range s.Operands() {
		if o == ZeroImm8 {
			continue
		}
		operands = append(operands, o.String())
	}
	if len(operands) == 0 {
		return mnemonic
	}
	return mnemonic + " " + strings.Join(operands, ", ")
}

// Lookup returns the catalog metadata for a valid spec.
func Lookup(s Spec) (Info, bool) {
	info, ok := catalog[s]
	return info, ok
}

// ByteSize returns the total encoded size of s, including operands.
func ByteSize(s Spec) int {
	return catalog[s].Width.Total()
}

// WidthOf returns the opcode/operand byte split of s.
func WidthOf(s Spec) Width {
	return catalog[s].Width
}

// Encode returns the opcode bytes of s: the primary byte, or the escape byte
// followed by the secondary byte. Operand bytes are not included.
func Encode(s Spec) []byte {
	enc := catalog[s].Bytes
	out := make([]byte, len(enc))
	copy(out, enc)
	return out
}

// Text returns the canonical text of s. Invalid specs and the escape entry
// have no canonical text of their own.
func Text(s Spec) string {
	if info, ok := catalog[s]; ok {
		return info.Text
	}
	if s.IsEscape() {
		return "prefix cb"
	}
	return "invalid"
}

// ParseText resolves canonical text back to its spec.
func ParseText(text string) (Spec, bool) {
	s, ok := byText[text]
	return s, ok
}

// All returns every valid spec, primary table first.
func All() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Decode resolves the opcode bytes at the start of b. It returns the spec and
// the number of opcode bytes consumed; operand bytes are left to the caller.
func Decode(b []byte) (Spec, int, error) {
	if len(b) == 0 {
		return Spec{}, 0, fmt.Errorf("decode: %w", ErrShortInput)
	}
	s := primary[b[0]]
	if s.IsEscape() {
		if len(b) < 2 {
			return Spec{}, 1, fmt.Errorf("decode escape: %w", ErrShortInput)
		}
		return secondary[b[1]], 2, nil
	}
	if !s.Valid() {
		return s, 1, &InvalidOpcodeError{Bytes: []byte{b[0]}}
	}
	return s, 1, nil
}
