package inst

import (
	"bytes"
	"errors"
	"testing"
)

// TestTableCompleteness verifies every opcode in both tables resolves to a
// valid spec or the explicit invalid marker, and only the known slots are
// invalid.
func TestTableCompleteness(t *testing.T) {
	wantInvalid := map[byte]bool{
		0xD3: true, 0xDB: true, 0xDD: true, 0xE3: true, 0xE4: true, 0xEB: true,
		0xEC: true, 0xED: true, 0xF4: true, 0xFC: true, 0xFD: true,
	}
	for i := 0; i < 256; i++ {
		s := Primary(byte(i))
		if s.Valid() == wantInvalid[byte(i)] {
			t.Errorf("primary 0x%02X: valid=%v, want %v", i, s.Valid(), !wantInvalid[byte(i)])
		}
		if i == EscapeByte {
			if !s.IsEscape() {
				t.Errorf("primary 0x%02X should be the escape spec, got %#v", i, s)
			}
			continue
		}
		if s.Prefix != PrefixNone {
			t.Errorf("primary 0x%02X carries prefix %d", i, s.Prefix)
		}
	}
	for i := 0; i < 256; i++ {
		s := Secondary(byte(i))
		if !s.Valid() {
			t.Errorf("secondary 0x%02X is invalid", i)
		}
		if s.Prefix != PrefixCB {
			t.Errorf("secondary 0x%02X (%s) missing 0xCB prefix", i, Text(s))
		}
	}
}

// TestAllCount verifies the number of distinct valid specs: 256 primary minus
// 11 invalid slots minus the escape, plus 256 secondary.
func TestAllCount(t *testing.T) {
	if got, want := len(All()), 256-11-1+256; got != want {
		t.Errorf("All() returned %d specs, want %d", got, want)
	}
}

// TestEncodeDecodeRoundTrip verifies decode(encode(spec)) == spec for every
// valid spec.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range All() {
		enc := Encode(s)
		got, n, err := Decode(enc)
		if err != nil {
			t.Errorf("%s: decode % X: %v", Text(s), enc, err)
			continue
		}
		if n != len(enc) {
			t.Errorf("%s: decode consumed %d bytes, want %d", Text(s), n, len(enc))
		}
		if got != s {
			t.Errorf("%s: decode % X returned %s", Text(s), enc, Text(got))
		}
	}
}

// TestTextRoundTrip verifies canonical text resolves back to the same spec.
func TestTextRoundTrip(t *testing.T) {
	for _, s := range All() {
		got, ok := ParseText(Text(s))
		if !ok {
			t.Errorf("%q does not resolve", Text(s))
			continue
		}
		if got != s {
			t.Errorf("%q resolves to %q", Text(s), Text(got))
		}
	}
}

// TestEncodingMatchesHardware spot-checks encodings against the LR35902
// opcode map.
func TestEncodingMatchesHardware(t *testing.T) {
	expected := map[string][]byte{
		"nop":            {0x00},
		"ld bc, #":       {0x01},
		"ld [#], sp":     {0x08},
		"stop":           {0x10},
		"jr #":           {0x18},
		"jr nz, #":       {0x20},
		"ldi [hl], a":    {0x22},
		"ldd a, [hl]":    {0x3A},
		"ld b, b":        {0x40},
		"ld [hl], a":     {0x77},
		"halt":           {0x76},
		"ld a, [hl]":     {0x7E},
		"add a, b":       {0x80},
		"adc [hl]":       {0x8E},
		"sub a, a":       {0x97},
		"xor a":          {0xAF},
		"cp [hl]":        {0xBE},
		"ret nz":         {0xC0},
		"jp #":           {0xC3},
		"call #":         {0xCD},
		"rst $38":        {0xFF},
		"ldh [#], a":     {0xE0},
		"ldh [c], a":     {0xE2},
		"add sp, #":      {0xE8},
		"jp hl":          {0xE9},
		"ld [#], a":      {0xEA},
		"ldh a, [#]":     {0xF0},
		"ld hl, sp+#":    {0xF8},
		"ld a, [#]":      {0xFA},
		"rlc b":          {0xCB, 0x00},
		"rrc [hl]":       {0xCB, 0x0E},
		"swap a":         {0xCB, 0x37},
		"srl a":          {0xCB, 0x3F},
		"bit 0, b":       {0xCB, 0x40},
		"bit 7, [hl]":    {0xCB, 0x7E},
		"res 3, c":       {0xCB, 0x99},
		"set 7, a":       {0xCB, 0xFF},
	}
	for text, want := range expected {
		s, ok := ParseText(text)
		if !ok {
			t.Errorf("%q: not in catalog", text)
			continue
		}
		if got := Encode(s); !bytes.Equal(got, want) {
			t.Errorf("%q: encoding % X, want % X", text, got, want)
		}
	}
}

// TestWidths verifies byte size calculations for each operand-width class.
func TestWidths(t *testing.T) {
	tests := []struct {
		text string
		want Width
	}{
		{"nop", Width{1, 0}},
		{"ld b, #", Width{1, 1}},
		{"ld bc, #", Width{1, 2}},
		{"ld [#], sp", Width{1, 2}},
		{"ldh [#], a", Width{1, 1}},
		{"ldh [c], a", Width{1, 0}},
		{"jr nz, #", Width{1, 1}},
		{"ld hl, sp+#", Width{1, 1}},
		{"stop", Width{1, 1}},
		{"call c, #", Width{1, 2}},
		{"rst $08", Width{1, 0}},
		{"rlc b", Width{2, 0}},
		{"bit 7, [hl]", Width{2, 0}},
	}
	for _, tc := range tests {
		s, ok := ParseText(tc.text)
		if !ok {
			t.Errorf("%q: not in catalog", tc.text)
			continue
		}
		if got := WidthOf(s); got != tc.want {
			t.Errorf("%q: width %+v, want %+v", tc.text, got, tc.want)
		}
		if ByteSize(s) != tc.want.Total() {
			t.Errorf("%q: ByteSize %d, want %d", tc.text, ByteSize(s), tc.want.Total())
		}
	}
}

// TestWidthMatchesEncoding verifies the opcode part of every width equals the
// encoded opcode bytes.
func TestWidthMatchesEncoding(t *testing.T) {
	for _, s := range All() {
		if got, want := WidthOf(s).Opcode, len(Encode(s)); got != want {
			t.Errorf("%s: opcode width %d, encoding %d bytes", Text(s), got, want)
		}
	}
}

// TestDecodeInvalid verifies invalid slots surface ErrInvalidOpcode.
func TestDecodeInvalid(t *testing.T) {
	_, _, err := Decode([]byte{0xD3})
	if !errors.Is(err, ErrInvalidOpcode) {
		t.Fatalf("Decode(D3): got %v, want ErrInvalidOpcode", err)
	}
	var ioe *InvalidOpcodeError
	if !errors.As(err, &ioe) || ioe.Bytes[0] != 0xD3 {
		t.Errorf("Decode(D3): error %v does not carry the opcode", err)
	}

	if _, _, err := Decode([]byte{EscapeByte}); !errors.Is(err, ErrShortInput) {
		t.Errorf("Decode(CB): got %v, want ErrShortInput", err)
	}
}

// TestEscapeInner verifies the two-level union: stripping the prefix of a
// secondary spec yields the bare inner instruction.
func TestEscapeInner(t *testing.T) {
	s := Secondary(0x0F) // rrc a
	if s.Op != RRC || s.Dst != A {
		t.Fatalf("secondary 0x0F: got %#v", s)
	}
	inner := s.Inner()
	if inner.Prefix != PrefixNone || inner.Op != RRC {
		t.Errorf("Inner(): got %#v", inner)
	}
	if _, ok := Lookup(inner); ok {
		t.Error("bare inner spec should not be in the catalog")
	}
}
