package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"acecast/internal/api"
	"acecast/internal/config"
	"acecast/internal/constants"
	"acecast/internal/database"
	"acecast/internal/elo"
	"acecast/internal/ingest"
	"acecast/internal/insight"
	"acecast/internal/logger"
	"acecast/internal/repository"
	"acecast/internal/service"
	"acecast/internal/tournament"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "match":
		runMatch(os.Args[2:])
	case "tournament":
		runTournament(os.Args[2:])
	case "ingest":
		runIngest(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: acecast <command> [flags]

commands:
  match       win probability and head-to-head bundle for two players
  tournament  simulate a single-elimination draw
  ingest      load match CSVs and build the archive database`)
}

func runMatch(args []string) {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	a := fs.String("a", "", "first player name")
	b := fs.String("b", "", "second player name")
	surface := fs.String("surface", "hard", "court surface")
	data := fs.String("data", "", "comma-separated CSV paths")
	baseK := fs.Float64("k", elo.DefaultBaseK, "base K-factor")
	bleed := fs.Float64("bleed", elo.DefaultSurfaceBleed, "surface-to-overall bleed")
	remote := fs.String("remote", "", "base URL of a running acecast server")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	log := cliLogger(*verbose)
	if *a == "" || *b == "" {
		log.Fatal().Msg("both -a and -b are required")
	}

	if *remote != "" {
		client := api.NewClient(*remote)
		ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
		defer cancel()

		// Prefetch both snapshots concurrently; a cold-start card is worth
		// warning about before the insight call.
		g, gCtx := errgroup.WithContext(ctx)
		snaps := make([]*api.SnapshotResponse, 2)
		for i, name := range []string{*a, *b} {
			g.Go(func() error {
				snap, err := client.Snapshot(gCtx, name, *surface)
				if err != nil {
					return err
				}
				snaps[i] = snap
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.Fatal().Err(err).Msg("failed to fetch player snapshots")
		}
		for _, snap := range snaps {
			if snap.Snapshot.EloOverall == elo.DefaultRating && snap.Snapshot.Last10Surface == "0-0" {
				log.Warn().Str("player", snap.Player).Msg("player has no rating history, using cold-start defaults")
			}
		}

		bundle, err := client.MatchInsight(ctx, *a, *b, *surface)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to fetch match insight")
		}
		printJSON(log, bundle)
		return
	}

	engine := localEngine(log, *data, *baseK, *bleed)
	printJSON(log, insight.BuildMatchInsight(engine, *a, *b, *surface))
}

func runTournament(args []string) {
	fs := flag.NewFlagSet("tournament", flag.ExitOnError)
	drawPath := fs.String("draw", "", "YAML draw file")
	players := fs.String("players", "", "comma-separated player names (alternative to -draw)")
	surface := fs.String("surface", "hard", "court surface")
	trials := fs.Int("trials", 0, "Monte Carlo trial count; 0 uses the quick estimate")
	data := fs.String("data", "", "comma-separated CSV paths")
	baseK := fs.Float64("k", elo.DefaultBaseK, "base K-factor")
	bleed := fs.Float64("bleed", elo.DefaultSurfaceBleed, "surface-to-overall bleed")
	remote := fs.String("remote", "", "base URL of a running acecast server")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	log := cliLogger(*verbose)

	field := splitList(*players)
	if *drawPath != "" {
		draw, err := tournament.LoadDraw(*drawPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load draw file")
		}
		// The draw file wins over flags.
		field = draw.Players
		*surface = draw.Surface
		if draw.Trials > 0 {
			*trials = draw.Trials
		}
	}
	if len(field) == 0 {
		log.Fatal().Msg("a tournament field is required via -draw or -players")
	}

	if *remote != "" {
		ctx, cancel := context.WithTimeout(context.Background(), constants.SimulationTimeout)
		defer cancel()

		bundle, err := api.NewClient(*remote).TournamentBrief(ctx, field, *surface, *trials)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to fetch tournament brief")
		}
		printJSON(log, bundle)
		return
	}

	engine := localEngine(log, *data, *baseK, *bleed)
	sim := tournament.NewSimulator(engine, 0, log)

	ctx, cancel := context.WithTimeout(context.Background(), constants.SimulationTimeout)
	defer cancel()

	probs, err := sim.TitleProbabilities(ctx, field, *surface, *trials)
	if err != nil {
		log.Fatal().Err(err).Msg("tournament simulation failed")
	}
	risks := sim.UpsetRisks(field, *surface)
	printJSON(log, insight.BuildTournamentBrief(engine, field, *surface, probs, risks))
}

func runIngest(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	data := fs.String("data", "", "comma-separated CSV paths")
	dbPath := fs.String("db", "acecast.db", "archive database path")
	verbose := fs.Bool("v", false, "debug logging")
	fs.Parse(args)

	log := cliLogger(*verbose)
	paths := splitList(*data)
	if len(paths) == 0 {
		log.Fatal().Msg("-data is required")
	}

	db, err := database.New(&config.Config{DBPath: *dbPath}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open archive database")
	}
	defer db.Close()

	engine := elo.NewEngine(elo.Params{}, log)
	svc := service.NewIngestService(
		engine,
		repository.NewPlayerRepository(db, log),
		repository.NewMatchRepository(db, log),
		repository.NewRatingHistoryRepository(db, log),
		log,
	)

	if err := svc.Run(context.Background(), paths); err != nil {
		log.Fatal().Err(err).Msg("ingestion failed")
	}
}

func localEngine(log zerolog.Logger, data string, baseK, bleed float64) *elo.Engine {
	paths := splitList(data)
	if len(paths) == 0 {
		log.Fatal().Msg("-data is required unless -remote is set")
	}

	records, _ := ingest.LoadFiles(paths, log)
	engine := elo.NewEngine(elo.Params{BaseK: baseK, SurfaceBleed: bleed}, log)
	if err := engine.Ingest(records); err != nil {
		log.Fatal().Err(err).Msg("failed to ingest match records")
	}
	return engine
}

func cliLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return logger.CLI(level)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// printJSON writes the bundle to stdout; all logging goes to stderr so the
// output stays pipeable.
func printJSON(log zerolog.Logger, v any) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode output")
	}
	fmt.Println(string(payload))
}
