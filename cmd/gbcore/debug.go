package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/oisee/gbcore/internal/term"
	"github.com/oisee/gbcore/pkg/gameboy"
	"github.com/oisee/gbcore/pkg/inst"
)

// debug single-steps m from the keyboard until q or end of input.
func debug(ctx context.Context, m *gameboy.Machine) error {
	readKey, closeKeys := keyReader()
	defer closeKeys()

	fmt.Println("space/enter: step   f: run to next frame   q: quit")
	for {
		printNext(m)
		if ctx.Err() != nil {
			return nil
		}
		k, err := readKey()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch k {
		case 'q':
			return nil
		case 'f':
			var n int
			n, err = m.RunFrame(ctx)
			if !m.LCD.DisplayEnabled() {
				fmt.Println("  display is off")
			}
			fmt.Printf("  %d cycles\n", n)
			if errors.Is(err, context.Canceled) {
				return nil
			}
		default:
			var n int
			n, err = m.StepInstruction()
			fmt.Printf("  %d cycles\n", n)
		}
		if err != nil {
			printState(m)
			return err
		}
	}
}

// keyReader returns a cbreak keyboard when there is a terminal, and a
// line-at-a-time reader of stdin otherwise.
func keyReader() (read func() (byte, error), done func()) {
	kb, err := term.Open()
	if err == nil {
		return kb.ReadKey, func() { kb.Close() }
	}
	slog.Debug("no cbreak terminal, reading lines from stdin", "err", err)

	r := bufio.NewReader(os.Stdin)
	return func() (byte, error) {
		line, err := r.ReadString('\n')
		if len(line) == 0 {
			return 0, err
		}
		return line[0], nil
	}, func() {}
}

// printNext shows the registers and the instruction at PC.
func printNext(m *gameboy.Machine) {
	// peeking ahead must not trip strict mode
	strict := m.Memory.Strict
	m.Memory.Strict = false
	defer func() { m.Memory.Strict = strict }()

	pc := m.CPU.PC
	s, _, err := inst.Decode([]byte{m.Memory.Read(pc), m.Memory.Read(pc + 1)})
	text := inst.Text(s)
	size := inst.ByteSize(s)
	if err != nil || size == 0 {
		size = 1
	}
	var code []byte
	for i := 0; i < size; i++ {
		code = append(code, m.Memory.Read(pc+uint16(i)))
	}

	st := m.CPU.State
	fmt.Printf("%02x:%04x  %-9s %-18s AF=%04x BC=%04x DE=%04x HL=%04x SP=%04x LY=%3d %s\n",
		m.Memory.Bank(), pc, fmt.Sprintf("% x", code), text,
		st.AF(), st.BC(), st.DE(), st.HL(), st.SP, m.LCD.LY(), m.LCD.Mode())
}
