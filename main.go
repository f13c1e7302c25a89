// Command i8080emu runs a CP/M .COM binary against the emulated Intel
// 8080 CPU core, using only the WBOOT and C_WRITESTR BDOS calls.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/skx/i8080emu/bdos"
	"github.com/skx/i8080emu/consoleout"
	"github.com/skx/i8080emu/cpu"
	"github.com/skx/i8080emu/memory"
)

// Exit codes, distinct per the failure kind so a caller's shell script
// can tell them apart without scraping stderr.
const (
	exitOK           = 0
	exitUsage        = 1
	exitUnknownOp    = 2
	exitUnknownBDOS  = 3
	exitStepBudget   = 4
	exitRuntimeOther = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("i8080emu", flag.ContinueOnError)
	steps := fs.Int("steps", 0, "maximum number of instructions to execute (0 means run until termination)")
	debug := fs.Bool("debug", false, "enable debug-level logging")
	console := fs.String("console", "stdout", fmt.Sprintf("console output driver to use: %v", consoleout.Drivers()))

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: i8080emu [flags] path/to/file.com\n")
		fs.PrintDefaults()
		return exitUsage
	}
	path := fs.Arg(0)

	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	if *debug {
		lvl.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("failed to read ROM", slog.String("path", path), slog.String("error", err.Error()))
		return exitRuntimeOther
	}

	con, err := consoleout.New(*console)
	if err != nil {
		logger.Error("failed to create console driver", slog.String("console", *console), slog.String("error", err.Error()))
		return exitUsage
	}

	mem := &memory.Memory{}
	if err := mem.LoadImage(data, 0x0100); err != nil {
		logger.Error("failed to load ROM image", slog.String("error", err.Error()))
		return exitRuntimeOther
	}

	shim := bdos.New(con, logger)
	c := cpu.New(mem, shim, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return runLoop(ctx, c, *steps, logger)
}

// runLoop drives Step until the program halts, a fatal error occurs,
// the step budget is exhausted, or ctx is cancelled. Cancellation is
// only ever checked between instructions, never mid-instruction.
func runLoop(ctx context.Context, c *cpu.CPU, budget int, logger *slog.Logger) int {
	steps := 0
	for {
		select {
		case <-ctx.Done():
			logger.Warn("interrupted", slog.Int("steps", steps))
			return exitRuntimeOther
		default:
		}

		if budget > 0 && steps >= budget {
			logger.Warn("step budget exhausted", slog.Int("steps", steps))
			return exitStepBudget
		}

		outcome, err := c.Step()
		steps++

		if err != nil {
			logger.Error("fatal error", slog.Int("steps", steps), slog.String("error", err.Error()))

			var unknownOp *cpu.UnknownOpcode
			var unknownBDOS *bdos.UnknownBDOSCall
			switch {
			case errors.As(err, &unknownOp):
				return exitUnknownOp
			case errors.As(err, &unknownBDOS):
				return exitUnknownBDOS
			default:
				return exitRuntimeOther
			}
		}

		if outcome == cpu.Halt {
			logger.Debug("halted", slog.Int("steps", steps))
			return exitOK
		}
	}
}
