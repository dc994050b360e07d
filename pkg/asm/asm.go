// Package asm assembles RGBDS-style LR35902 text into machine code.
//
// Each line is reduced to the canonical text of package inst, with numeric
// literals replaced by "#", and resolved through inst.ParseText. The literal
// values are then emitted after the opcode bytes, 16-bit values
// little-endian.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/oisee/gbcore/pkg/inst"
)

// Instruction is one assembled line.
type Instruction struct {
	Spec  inst.Spec
	Bytes []byte // opcode bytes followed by operand bytes
}

// Assemble reads src one instruction per line. A ';' starts a comment; blank
// lines are skipped. Lines that fail are collected into an Errors value and
// the rest of the input is still assembled, so the returned bytes are always
// those of the good lines.
func Assemble(src io.Reader) ([]byte, error) {
	var (
		out  []byte
		errs Errors
	)
	sc := bufio.NewScanner(src)
	for line := 1; sc.Scan(); line++ {
		code := stripComment(sc.Text())
		if code == "" {
			continue
		}
		in, err := Parse(code)
		if err != nil {
			errs = append(errs, &LineError{Line: line, Text: code, Err: err})
			continue
		}
		out = append(out, in.Bytes...)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("read source: %w", err)
	}
	if len(errs) > 0 {
		return out, errs
	}
	return out, nil
}

// AssembleString is Assemble over a string.
func AssembleString(src string) ([]byte, error) {
	return Assemble(strings.NewReader(src))
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// Parse assembles a single instruction with no comment.
func Parse(text string) (Instruction, error) {
	st, err := parseStatement(text)
	if err != nil {
		return Instruction{}, err
	}
	key := st.text()
	s, ok := inst.ParseText(key)
	if !ok && st.mnemonic == "ld" {
		st.mnemonic = "ldh"
		s, ok = inst.ParseText(st.text())
	}
	if !ok {
		return Instruction{}, fmt.Errorf("%q: %w", key, ErrUnknownInstruction)
	}

	b := inst.Encode(s)
	values := st.values
	for _, o := range s.Inner().Operands() {
		switch {
		case o == inst.ZeroImm8:
			b = append(b, 0)
		case o.IsImmediate():
			enc, err := encodeLiteral(o, values[0])
			if err != nil {
				return Instruction{}, err
			}
			b = append(b, enc...)
			values = values[1:]
		}
	}
	return Instruction{Spec: s, Bytes: b}, nil
}

type literal struct {
	text  string
	value int64
}

// statement is one line split into its mnemonic and normalized operands.
// Numeric operands are replaced by "#" and their values kept in order.
type statement struct {
	mnemonic string
	operands []string
	values   []literal
}

func (st *statement) text() string {
	if len(st.operands) == 0 {
		return st.mnemonic
	}
	return st.mnemonic + " " + strings.Join(st.operands, ", ")
}

func parseStatement(code string) (*statement, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	i := strings.IndexFunc(code, unicode.IsSpace)
	if i < 0 {
		return &statement{mnemonic: code}, nil
	}
	st := &statement{mnemonic: code[:i]}
	for n, tok := range strings.Split(code[i:], ",") {
		tok = strings.Join(strings.Fields(tok), "")
		norm, err := st.operand(n, tok)
		if err != nil {
			return nil, err
		}
		st.operands = append(st.operands, norm)
	}
	// stop carries an implicit zero byte that the canonical text hides.
	if st.mnemonic == "stop" && len(st.values) == 1 && st.values[0].value == 0 {
		st.operands, st.values = nil, nil
	}
	return st, nil
}

// operand normalizes the n-th operand token. Bit numbers and rst vectors are
// part of the opcode and stay literal, in the form inst renders them.
func (st *statement) operand(n int, tok string) (string, error) {
	switch {
	case n == 0 && (st.mnemonic == "bit" || st.mnemonic == "res" || st.mnemonic == "set"):
		v, err := parseLiteral(tok)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(v, 10), nil

	case st.mnemonic == "rst":
		v, err := parseLiteral(tok)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("$%02x", v), nil

	case strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]"):
		return st.indirect(tok[1 : len(tok)-1])

	case strings.HasPrefix(tok, "sp+") || strings.HasPrefix(tok, "sp-"):
		lit := tok[3:]
		if tok[2] == '-' {
			lit = "-" + lit
		}
		if err := st.literal(lit); err != nil {
			return "", err
		}
		return "sp+" + inst.Placeholder, nil

	case isLiteral(tok):
		if err := st.literal(tok); err != nil {
			return "", err
		}
		return inst.Placeholder, nil
	}
	return tok, nil
}

var highPrefixes = []string{"$ff00+", "0xff00+", "ff00+"}

// indirect normalizes the inside of a bracketed operand. The RGBDS forms
// [hl+], [hl-] and [$ff00+n] turn ld into ldi, ldd and ldh, and jp [hl] is
// jp hl.
func (st *statement) indirect(inner string) (string, error) {
	switch inner {
	case "hl":
		if st.mnemonic == "jp" {
			return "hl", nil
		}
	case "hl+", "hli":
		st.rename("ldi")
		return "[hl]", nil
	case "hl-", "hld":
		st.rename("ldd")
		return "[hl]", nil
	}
	for _, p := range highPrefixes {
		if strings.HasPrefix(inner, p) {
			inner = inner[len(p):]
			st.rename("ldh")
			break
		}
	}
	if isLiteral(inner) {
		if err := st.literal(inner); err != nil {
			return "", err
		}
		return "[" + inst.Placeholder + "]", nil
	}
	return "[" + inner + "]", nil
}

func (st *statement) rename(mnemonic string) {
	if st.mnemonic == "ld" {
		st.mnemonic = mnemonic
	}
}

func (st *statement) literal(tok string) error {
	v, err := parseLiteral(tok)
	if err != nil {
		return err
	}
	st.values = append(st.values, literal{text: tok, value: v})
	return nil
}

func isLiteral(tok string) bool {
	if tok == "" {
		return false
	}
	switch c := tok[0]; {
	case c >= '0' && c <= '9', c == '$', c == '%', c == '-', c == '+':
		return true
	}
	return false
}

// parseLiteral accepts decimal, $hex, 0xhex and %binary, with an optional
// leading minus sign.
func parseLiteral(tok string) (int64, error) {
	digits := tok
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(digits, "$"):
		digits, base = digits[1:], 16
	case strings.HasPrefix(digits, "0x"):
		digits, base = digits[2:], 16
	case strings.HasPrefix(digits, "%"):
		digits, base = digits[1:], 2
	}
	if digits == "" || digits[0] == '-' || digits[0] == '+' {
		return 0, fmt.Errorf("%q: %w", tok, ErrMalformedLiteral)
	}
	v, err := strconv.ParseInt(digits, base, 32)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", tok, ErrMalformedLiteral)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// encodeLiteral checks that l fits operand o and returns its bytes. 8-bit
// operands accept -128..255; high-page addresses also accept 0xff00..0xffff.
func encodeLiteral(o inst.Operand, l literal) ([]byte, error) {
	v := l.value
	switch o {
	case inst.Imm16, inst.Imm16Addr:
		if v < -0x8000 || v > 0xFFFF {
			return nil, fmt.Errorf("%q does not fit 16 bits: %w", l.text, ErrMalformedLiteral)
		}
		return []byte{uint8(v), uint8(v >> 8)}, nil
	case inst.FFImm8Addr:
		if v >= 0xFF00 && v <= 0xFFFF {
			v &= 0xFF
		}
	}
	if v < -0x80 || v > 0xFF {
		return nil, fmt.Errorf("%q does not fit 8 bits: %w", l.text, ErrMalformedLiteral)
	}
	return []byte{uint8(v)}, nil
}
