package asm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/oisee/gbcore/pkg/inst"
)

// TestParse checks single instructions, including the RGBDS aliases and
// every literal radix.
func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want []byte
	}{
		{"nop", []byte{0x00}},
		{"  NOP  ", []byte{0x00}},
		{"ld a, 10", []byte{0x3E, 0x0A}},
		{"ld a, $0a", []byte{0x3E, 0x0A}},
		{"ld a, 0x0A", []byte{0x3E, 0x0A}},
		{"ld a, %1010", []byte{0x3E, 0x0A}},
		{"ld a, -1", []byte{0x3E, 0xFF}},
		{"ld bc, $1234", []byte{0x01, 0x34, 0x12}},
		{"ld [$c000], a", []byte{0xEA, 0x00, 0xC0}},
		{"ld [$ff44], a", []byte{0xEA, 0x44, 0xFF}},
		{"ldh [$44], a", []byte{0xE0, 0x44}},
		{"ldh [$ff44], a", []byte{0xE0, 0x44}},
		{"ld [$ff00+$44], a", []byte{0xE0, 0x44}},
		{"ldh a, [c]", []byte{0xF2}},
		{"ld a, [$ff00+c]", []byte{0xF2}},
		{"ld a, [c]", []byte{0xF2}},
		{"ld [hl+], a", []byte{0x22}},
		{"ld a, [hli]", []byte{0x2A}},
		{"ld [hl-], a", []byte{0x32}},
		{"ldd a, [hl]", []byte{0x3A}},
		{"ld hl, sp+2", []byte{0xF8, 0x02}},
		{"ld hl, sp - 2", []byte{0xF8, 0xFE}},
		{"add sp, -1", []byte{0xE8, 0xFF}},
		{"jr -2", []byte{0x18, 0xFE}},
		{"jr c, 5", []byte{0x38, 0x05}},
		{"jp nz, $0150", []byte{0xC2, 0x50, 0x01}},
		{"jp hl", []byte{0xE9}},
		{"rst $38", []byte{0xFF}},
		{"rst 56", []byte{0xFF}},
		{"rst 0x08", []byte{0xCF}},
		{"bit 7, h", []byte{0xCB, 0x7C}},
		{"res 0, [hl]", []byte{0xCB, 0x86}},
		{"set 3, a", []byte{0xCB, 0xDF}},
		{"swap a", []byte{0xCB, 0x37}},
		{"stop", []byte{0x10, 0x00}},
		{"stop 0", []byte{0x10, 0x00}},
		{"stop $00", []byte{0x10, 0x00}},
		{"jp [hl]", []byte{0xE9}},
		{"jp [ HL ]", []byte{0xE9}},
	}
	for _, tc := range tests {
		got, err := Parse(tc.text)
		if err != nil {
			t.Errorf("%q: %v", tc.text, err)
			continue
		}
		if !bytes.Equal(got.Bytes, tc.want) {
			t.Errorf("%q: got % X want % X", tc.text, got.Bytes, tc.want)
		}
	}
}

// TestParseErrors checks the error class of each rejected line.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		text string
		want error
	}{
		{"ld a, $zz", ErrMalformedLiteral},
		{"ld a, 0x", ErrMalformedLiteral},
		{"ld a, 12a", ErrMalformedLiteral},
		{"ld a, $-5", ErrMalformedLiteral},
		{"ld a, 256", ErrMalformedLiteral},
		{"ld a, -129", ErrMalformedLiteral},
		{"ld bc, 65536", ErrMalformedLiteral},
		{"ldh [$fe00], a", ErrMalformedLiteral},
		{"bit x, a", ErrMalformedLiteral},
		{"rst $zz", ErrMalformedLiteral},
		{"mov a, b", ErrUnknownInstruction},
		{"ld a, ix", ErrUnknownInstruction},
		{"bit 8, a", ErrUnknownInstruction},
		{"rst $39", ErrUnknownInstruction},
		{"jp [hl], a", ErrUnknownInstruction},
		{"stop 1", ErrUnknownInstruction},
		{"jp nz, [hl]", ErrUnknownInstruction},
	}
	for _, tc := range tests {
		_, err := Parse(tc.text)
		if !errors.Is(err, tc.want) {
			t.Errorf("%q: got %v want %v", tc.text, err, tc.want)
		}
	}
}

// TestTextRoundTrip assembles the canonical text of every instruction with
// its placeholder substituted and expects the opcode bytes followed by the
// literal's bytes.
func TestTextRoundTrip(t *testing.T) {
	for _, s := range inst.All() {
		text := inst.Text(s)
		want := inst.Encode(s)
		for _, o := range s.Inner().Operands() {
			switch {
			case o == inst.ZeroImm8:
				want = append(want, 0x00)
			case o.Width() == 2:
				text = strings.Replace(text, inst.Placeholder, "$1234", 1)
				want = append(want, 0x34, 0x12)
			case o.Width() == 1:
				text = strings.Replace(text, inst.Placeholder, "$12", 1)
				want = append(want, 0x12)
			}
		}

		got, err := Parse(text)
		if err != nil {
			t.Errorf("%q: %v", text, err)
			continue
		}
		if got.Spec != s {
			t.Errorf("%q resolves to %q", text, inst.Text(got.Spec))
		}
		if !bytes.Equal(got.Bytes, want) {
			t.Errorf("%q: got % X want % X", text, got.Bytes, want)
		}
		if len(got.Bytes) != inst.ByteSize(s) {
			t.Errorf("%q: %d bytes, width says %d", text, len(got.Bytes), inst.ByteSize(s))
		}
	}
}

// TestAssembleContinuesPastErrors checks that bad lines are reported with
// their line numbers while the good ones still assemble.
func TestAssembleContinuesPastErrors(t *testing.T) {
	src := `; start
	ld a, $10     ; line 2

	ld b, $1g     ; malformed
	inc a
	frobnicate    ; unknown
	jp $0150
`
	got, err := AssembleString(src)
	want := []byte{0x3E, 0x10, 0x3C, 0xC3, 0x50, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes: got % X want % X", got, want)
	}

	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("got %v, want Errors", err)
	}
	if len(errs) != 2 {
		t.Fatalf("got %d line errors, want 2: %v", len(errs), err)
	}
	checks := []struct {
		line int
		text string
		want error
	}{
		{4, "ld b, $1g", ErrMalformedLiteral},
		{6, "frobnicate", ErrUnknownInstruction},
	}
	for i, c := range checks {
		le := errs[i]
		if le.Line != c.line || le.Text != c.text || !errors.Is(le, c.want) {
			t.Errorf("error %d: got line %d %q %v, want line %d %q %v",
				i, le.Line, le.Text, le.Err, c.line, c.text, c.want)
		}
	}
	if !errors.Is(err, ErrMalformedLiteral) || !errors.Is(err, ErrUnknownInstruction) {
		t.Errorf("aggregate does not unwrap to both sentinels: %v", err)
	}
}

// TestAssembleClean checks a program with no errors returns a nil error.
func TestAssembleClean(t *testing.T) {
	got, err := AssembleString("di\nld sp, $fffe\n\n; done\nhalt\n")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xF3, 0x31, 0xFE, 0xFF, 0x76}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X want % X", got, want)
	}
}
