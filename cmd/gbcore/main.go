package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bradleyjkemp/memviz"
	"github.com/oisee/gbcore/internal/statsview"
	"github.com/oisee/gbcore/pkg/asm"
	"github.com/oisee/gbcore/pkg/batch"
	"github.com/oisee/gbcore/pkg/cpu"
	"github.com/oisee/gbcore/pkg/gameboy"
	"github.com/oisee/gbcore/pkg/inst"
	"github.com/oisee/gbcore/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "gbcore",
		Short:         "LR35902 (Game Boy) CPU and LCD execution core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// run command
	var runOpts machineOptions

	runCmd := &cobra.Command{
		Use:   "run [rom]",
		Short: "Run a ROM image or an assembly source for a number of cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tab *profile.Table
			if runOpts.profile != "" || runOpts.top > 0 {
				tab = profile.NewTable()
			}
			m, err := newMachine(cmd.Flags(), args[0], &runOpts, tab)
			if err != nil {
				return err
			}

			if runOpts.statsview != "" {
				stop := statsview.Launch(os.Stdout, runOpts.statsview)
				defer stop()
			}

			fmt.Printf("Game Boy core\n")
			fmt.Printf("  Image: %s (%q, %d banks)\n", args[0], m.Memory.Title(), m.Memory.Banks())
			if runOpts.cycles == 0 {
				fmt.Printf("  Cycles: until interrupted\n")
			} else {
				fmt.Printf("  Cycles: %d (%.1f frames)\n", runOpts.cycles, float64(runOpts.cycles)/gameboy.FrameCycles)
			}
			fmt.Println()

			n, runErr := m.Run(cmd.Context(), runOpts.cycles)
			if errors.Is(runErr, context.Canceled) {
				runErr = nil
			}

			fmt.Printf("Ran %d cycles, %d frames\n", n, m.LCD.Frames())
			printState(m)

			if tab != nil {
				if err := writeProfile(tab, runOpts.profile, runOpts.top); err != nil {
					return err
				}
			}
			if runOpts.memviz != "" {
				if err := writeMemviz(m, runOpts.memviz); err != nil {
					return err
				}
			}
			return runErr
		},
	}
	addRunFlags(runCmd.Flags(), &runOpts)

	// debug command
	var debugOpts machineOptions

	debugCmd := &cobra.Command{
		Use:   "debug [rom]",
		Short: "Single-step a ROM one instruction per key press",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newMachine(cmd.Flags(), args[0], &debugOpts, nil)
			if err != nil {
				return err
			}
			return debug(cmd.Context(), m)
		},
	}
	addMachineFlags(debugCmd.Flags(), &debugOpts)

	// asm command
	var output string

	asmCmd := &cobra.Command{
		Use:   "asm [source]",
		Short: "Assemble RGBDS-style source into a binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			code, err := asm.AssembleString(string(src))
			var lineErrs asm.Errors
			if errors.As(err, &lineErrs) {
				for _, le := range lineErrs {
					fmt.Fprintf(os.Stderr, "%s:%d: %s: %v\n", args[0], le.Line, le.Text, le.Err)
				}
				return fmt.Errorf("%d lines failed to assemble", len(lineErrs))
			}
			if err != nil {
				return err
			}

			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".gb"
			}
			if err := os.WriteFile(output, code, 0o644); err != nil {
				return err
			}
			fmt.Printf("Assembled %d bytes to %s\n", len(code), output)
			return nil
		},
	}
	asmCmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: source name with .gb)")

	// verify command
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the emulator dispatch and the instruction table round trips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cpu.Check(); err != nil {
				return err
			}
			all := inst.All()
			fmt.Printf("Dispatch: %d instructions, one emulator each\n", len(all))

			failed := 0
			for _, s := range all {
				if err := roundTrip(s); err != nil {
					fmt.Printf("  %-18s %v\n", inst.Text(s), err)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d instructions failed", failed, len(all))
			}
			fmt.Printf("Round trips: %d encode/decode, text, assembler\n", len(all))
			return nil
		},
	}

	// table command
	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "Print both opcode tables with canonical text and emulator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for op := 0; op < 256; op++ {
				printTableRow(fmt.Sprintf("%02x", op), inst.Primary(byte(op)))
			}
			for op := 0; op < 256; op++ {
				printTableRow(fmt.Sprintf("cb %02x", op), inst.Secondary(byte(op)))
			}
			return nil
		},
	}

	// batch command
	var batchOpts machineOptions
	var numWorkers int

	batchCmd := &cobra.Command{
		Use:   "batch [roms...]",
		Short: "Run several images in parallel and combine their profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tab *profile.Table
			if batchOpts.profile != "" || batchOpts.top > 0 {
				tab = profile.NewTable()
			}
			jobs := make([]batch.Job, 0, len(args))
			raw := batchOpts.raw
			for _, path := range args {
				data, source, err := loadImage(path)
				if err != nil {
					return err
				}
				raw = raw || (source && !cmd.Flags().Changed("raw"))
				jobs = append(jobs, batch.Job{Name: path, Image: data})
			}

			if batchOpts.statsview != "" {
				stop := statsview.Launch(os.Stdout, batchOpts.statsview)
				defer stop()
			}

			pool := batch.NewPool(numWorkers)
			fmt.Printf("Running %d images on %d workers\n", len(jobs), pool.NumWorkers)
			results := pool.Run(cmd.Context(), jobs, gameboy.Config{
				Logger:   slog.Default(),
				Profile:  tab,
				SkipBoot: !raw,
				Strict:   batchOpts.strict,
			}, batchOpts.cycles)

			for _, r := range results {
				status := "ok"
				if r.Err != nil && !errors.Is(r.Err, context.Canceled) {
					status = r.Err.Error()
				}
				fmt.Printf("  %-24s %10d cycles %5d frames  PC=%04x  %s\n", r.Name, r.Cycles, r.Frames, r.State.PC, status)
			}
			cycles, failed := pool.Stats()
			fmt.Printf("Total %d cycles, %d failed\n", cycles, failed)

			if tab != nil {
				if err := writeProfile(tab, batchOpts.profile, batchOpts.top); err != nil {
					return err
				}
			}
			if batchOpts.memviz != "" {
				if err := writeGraph(batchOpts.memviz, &results); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d images failed", failed, len(jobs))
			}
			return nil
		},
	}
	addRunFlags(batchCmd.Flags(), &batchOpts)
	batchCmd.Flags().IntVar(&numWorkers, "workers", 0, "Number of workers (0 = NumCPU)")

	rootCmd.AddCommand(runCmd, debugCmd, asmCmd, verifyCmd, tableCmd, batchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// machineOptions are the flags shared by the commands that build a machine.
type machineOptions struct {
	strict bool
	raw    bool

	cycles    uint64
	profile   string
	top       int
	statsview string
	memviz    string
}

func addMachineFlags(fs *pflag.FlagSet, o *machineOptions) {
	fs.BoolVar(&o.strict, "strict", false, "Fault on unusable addresses and on reads past the ROM image")
	fs.BoolVar(&o.raw, "raw", false, "Start at 0000 with cleared registers (default for .asm sources)")
}

func addRunFlags(fs *pflag.FlagSet, o *machineOptions) {
	addMachineFlags(fs, o)
	fs.Uint64Var(&o.cycles, "cycles", 60*gameboy.FrameCycles, "Machine cycles to run (0 = until interrupted)")
	fs.StringVar(&o.profile, "profile", "", "Write the instruction profile to a JSON file")
	fs.IntVar(&o.top, "top", 0, "Print the N most executed instructions")
	fs.StringVar(&o.statsview, "statsview", "", "Serve runtime statistics on `addr`")
	fs.Lookup("statsview").NoOptDefVal = statsview.Address
	fs.StringVar(&o.memviz, "memviz", "", "Write a graphviz dump of the final machine state")
}

// loadImage reads path, assembling it first when it is a source file.
func loadImage(path string) (data []byte, source bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asm", ".s":
		data, err = asm.AssembleString(string(data))
		if err != nil {
			return nil, true, fmt.Errorf("assemble %s: %w", path, err)
		}
		return data, true, nil
	}
	return data, false, nil
}

// newMachine loads path into a machine. Sources start raw unless --raw was
// given explicitly.
func newMachine(fs *pflag.FlagSet, path string, o *machineOptions, tab *profile.Table) (*gameboy.Machine, error) {
	data, source, err := loadImage(path)
	if err != nil {
		return nil, err
	}
	raw := o.raw
	if source && !fs.Changed("raw") {
		raw = true
	}
	return gameboy.New(data, gameboy.Config{
		Logger:   slog.Default(),
		Profile:  tab,
		SkipBoot: !raw,
		Strict:   o.strict,
	})
}

func printState(m *gameboy.Machine) {
	s := m.CPU.State
	fmt.Printf("  AF=%04x BC=%04x DE=%04x HL=%04x SP=%04x PC=%02x:%04x IME=%v\n",
		s.AF(), s.BC(), s.DE(), s.HL(), s.SP, s.Bank, s.PC, s.IME)
	fmt.Printf("  LCD %s LY=%d halted=%v\n", m.LCD.Mode(), m.LCD.LY(), m.CPU.Halted())
}

func writeProfile(tab *profile.Table, path string, top int) error {
	entries := tab.Entries()
	if top > 0 {
		fmt.Printf("\nTop instructions (%d retired, %d distinct)\n", tab.Total(), len(entries))
		for i, e := range entries {
			if i == top {
				break
			}
			fmt.Printf("  %-8s %-18s %10d %12d cycles\n", e.Opcode, e.Text, e.Count, e.Cycles)
		}
	}
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := profile.WriteJSON(f, entries); err != nil {
		return err
	}
	fmt.Printf("Profile written to %s\n", path)
	return nil
}

func writeMemviz(m *gameboy.Machine, path string) error {
	snap := m.Snapshot()
	return writeGraph(path, &snap)
}

// writeGraph writes a graphviz dump of v, which should be a pointer.
func writeGraph(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	memviz.Map(f, v)
	fmt.Printf("State graph written to %s\n", path)
	return nil
}

// roundTrip checks one instruction through decode, text lookup and the
// assembler.
func roundTrip(s inst.Spec) error {
	enc := inst.Encode(s)
	got, n, err := inst.Decode(enc)
	if err != nil {
		return fmt.Errorf("decode % x: %w", enc, err)
	}
	if got != s || n != len(enc) {
		return fmt.Errorf("decode % x gave %s", enc, inst.Text(got))
	}
	if got, ok := inst.ParseText(inst.Text(s)); !ok || got != s {
		return fmt.Errorf("text does not resolve back")
	}
	text := strings.ReplaceAll(inst.Text(s), inst.Placeholder, "0")
	in, err := asm.Parse(text)
	if err != nil {
		return fmt.Errorf("assemble %q: %w", text, err)
	}
	if in.Spec != s || len(in.Bytes) != inst.ByteSize(s) {
		return fmt.Errorf("assemble %q gave %d bytes of %s", text, len(in.Bytes), inst.Text(in.Spec))
	}
	return nil
}

func printTableRow(code string, s inst.Spec) {
	name, _ := cpu.EmulatorName(s)
	w := inst.WidthOf(s)
	fmt.Printf("%-6s %-18s %d+%d  %s\n", code, inst.Text(s), w.Opcode, w.Operand, name)
}
