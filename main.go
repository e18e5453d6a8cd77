// Command chesscore plays a game of chess on the console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
	"github.com/hailam/chesscore/internal/game"
	"github.com/hailam/chesscore/internal/storage"
)

var (
	fenFlag        = flag.String("fen", board.StartFEN, "starting position")
	modeFlag       = flag.String("mode", "", "game mode: hvh, hvc or cvc (default: saved setting)")
	colorFlag      = flag.String("color", "", "colour the human plays in hvc: white or black")
	difficultyFlag = flag.String("difficulty", "", "engine difficulty: easy, medium or hard")
	depthFlag      = flag.Int("depth", 0, "override the search depth")
	moveTimeFlag   = flag.Duration("movetime", 0, "override the time per engine move")
	dbFlag         = flag.String("db", "", "database directory (default: platform data directory)")
	logLevelFlag   = flag.String("log-level", "info", "log level: trace, debug, info, warn, error")
	historyFlag    = flag.Bool("history", false, "list archived games and exit")
)

func main() {
	flag.Parse()

	level, err := zerolog.ParseLevel(*logLevelFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level: %v\n", err)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if err := run(); err != nil && !errors.Is(err, game.ErrQuit) {
		log.Fatal().Err(err).Msg("game failed")
	}
}

func run() error {
	store, err := openStorage()
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize storage, settings will not be saved")
	} else {
		defer store.Close()
	}

	if *historyFlag {
		if store == nil {
			return err
		}
		return printHistory(store)
	}

	settings := storage.DefaultSettings()
	z := board.DefaultZobrist()
	if store != nil {
		if settings, err = store.LoadSettings(); err != nil {
			return err
		}
		if z, err = store.Zobrist(board.DefaultZobristSeed); err != nil {
			return err
		}
		welcome(store)
	}

	if err := applyFlags(settings); err != nil {
		return err
	}

	pos, err := board.ParseFEN(*fenFlag, z)
	if err != nil {
		return err
	}

	white, black := createPlayers(pos, settings)
	g := game.New(pos, white, black, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info().
		Str("mode", settings.GameMode.String()).
		Str("difficulty", settings.Difficulty.String()).
		Int("depth", settings.Engine.MaxDepth).
		Dur("movetime", settings.Engine.MoveTime).
		Msg("new game")

	result, err := g.Play(ctx)
	if err != nil {
		return err
	}

	if store == nil {
		return nil
	}
	moves := make([]string, len(g.Moves()))
	for i, m := range g.Moves() {
		moves[i] = m.String()
	}
	if err := store.ArchiveGame(storage.GameRecord{
		StartFEN: g.StartFEN(),
		Moves:    moves,
		Result:   result.String(),
		Mode:     settings.GameMode,
	}); err != nil {
		log.Error().Err(err).Msg("failed to archive game")
	}

	if settings.GameMode == storage.ModeHumanVsComputer {
		winner, decisive := result.Winner()
		record := storage.GameResult{
			Won:        decisive && winner == settings.HumanColor,
			Draw:       result.IsDraw(),
			Reason:     result.String(),
			Mode:       settings.GameMode,
			Difficulty: settings.Difficulty,
			Duration:   g.Duration(),
		}
		if err := store.RecordGame(record); err != nil {
			log.Error().Err(err).Msg("failed to record game")
		}
	}
	return store.SaveSettings(settings)
}

func openStorage() (*storage.Storage, error) {
	if *dbFlag != "" {
		return storage.Open(*dbFlag)
	}
	return storage.NewStorage()
}

func printHistory(store *storage.Storage) error {
	games, err := store.LoadGames()
	if err != nil {
		return err
	}
	for _, g := range games {
		fmt.Printf("%s  %-3s  %-32s %s\n", g.Played.Format(time.DateTime), g.Mode, g.Result, strings.Join(g.Moves, " "))
	}
	fmt.Printf("%d games\n", len(games))
	return nil
}

func welcome(store *storage.Storage) {
	first, err := store.IsFirstLaunch()
	if err != nil || !first {
		return
	}
	fmt.Println("Welcome! Enter moves like e2e4, e1g1 to castle or e7e8q to promote. Type quit to leave.")
	if err := store.MarkFirstLaunchComplete(); err != nil {
		log.Warn().Err(err).Msg("failed to save first launch")
	}
}

// applyFlags overrides the saved settings with any flags given.
func applyFlags(settings *storage.Settings) error {
	if *modeFlag != "" {
		mode, err := storage.ParseGameMode(*modeFlag)
		if err != nil {
			return err
		}
		settings.GameMode = mode
	}

	switch *colorFlag {
	case "":
	case "white":
		settings.HumanColor = board.White
	case "black":
		settings.HumanColor = board.Black
	default:
		return fmt.Errorf("unknown colour %q", *colorFlag)
	}

	if *difficultyFlag != "" {
		d, err := engine.ParseDifficulty(*difficultyFlag)
		if err != nil {
			return err
		}
		settings.Difficulty = d
		settings.Engine = engine.DifficultySettings[d]
	}
	if *depthFlag > 0 {
		settings.Engine.MaxDepth = *depthFlag
	}
	if *moveTimeFlag > 0 {
		settings.Engine.MoveTime = *moveTimeFlag
	}
	return nil
}

func createPlayers(pos *board.Position, settings *storage.Settings) (white, black game.Player) {
	human := func() game.Player { return game.NewHumanPlayer(os.Stdin, os.Stdout) }
	computer := func() game.Player { return game.NewEnginePlayer(pos, settings.Engine) }

	switch settings.GameMode {
	case storage.ModeHumanVsHuman:
		h := human()
		return h, h
	case storage.ModeComputerVsComputer:
		return computer(), computer()
	default:
		if settings.HumanColor == board.Black {
			return computer(), human()
		}
		return human(), computer()
	}
}
