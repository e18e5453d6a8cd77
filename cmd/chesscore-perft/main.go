// Command chesscore-perft counts move-generation leaf nodes, optionally split
// by root move, using one goroutine per root move.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

var (
	fen        = flag.String("fen", board.StartFEN, "position to count from")
	depth      = flag.Int("depth", 5, "perft depth")
	divide     = flag.Bool("divide", false, "print the count below each root move")
	workers    = flag.Int("workers", runtime.NumCPU(), "maximum concurrent root moves")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	logLevel   = flag.String("log-level", "info", "log level")
)

func main() {
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level: %v\n", err)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	os.Exit(perftMain())
}

// perftMain runs the count and returns the exit code after the deferred
// profile flush.
func perftMain() int {
	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Error().Err(err).Msg("could not create CPU profile")
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Error().Err(err).Msg("could not start CPU profile")
			return 1
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	if err := run(); err != nil {
		log.Error().Err(err).Msg("perft failed")
		return 1
	}
	return 0
}

func run() error {
	pos, err := board.ParseFEN(*fen, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	var total uint64
	if *divide {
		entries, err := engine.ParallelDivide(ctx, pos, *depth, *workers)
		if err != nil {
			return err
		}
		for _, e := range entries {
			total += e.Nodes
			fmt.Printf("%s: %d\n", e.Move, e.Nodes)
		}
	} else if total, err = engine.ParallelPerft(ctx, pos, *depth, *workers); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("\nNodes searched: %d\n", total)
	log.Info().
		Int("depth", *depth).
		Uint64("nodes", total).
		Dur("elapsed", elapsed).
		Float64("nps", float64(total)/max(elapsed.Seconds(), 1e-9)).
		Msg("perft complete")
	return nil
}
