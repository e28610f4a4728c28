package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/anthon-sd/rookify-sub000/internal/adapters"
	"github.com/anthon-sd/rookify-sub000/internal/bootstrap"
	"github.com/anthon-sd/rookify-sub000/internal/report"
	repo "github.com/anthon-sd/rookify-sub000/internal/repository"
)

func main() {
	cfgPath := flag.String("config", ".env", "path to the .env config file")
	gameID := flag.String("game", "", "id of an analyzed game")
	output := flag.String("out", "report.pdf", "output pdf path")
	flag.Parse()

	cfg, err := bootstrap.Setup(*cfgPath)
	if err != nil {
		panic("failed to setup configuration: " + err.Error())
	}
	logger, err := bootstrap.NewLogger(cfg.LogLevel)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if *gameID == "" {
		logger.Fatal("-game is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mongoAdapter := adapters.NewAdapterMongo(cfg, logger)
	if err := mongoAdapter.Init(ctx); err != nil {
		logger.Fatalw("failed to init mongo", "error", err)
	}
	defer mongoAdapter.Close(context.Background())

	moments := repo.NewMomentRepository(mongoAdapter.Database, logger)
	record, err := moments.GetAnalysis(ctx, *gameID)
	if err != nil {
		logger.Fatalw("failed to load analysis", "game_id", *gameID, "error", err)
	}
	stored, err := moments.GetMomentsByGame(ctx, *gameID)
	if err != nil {
		logger.Fatalw("failed to load moments", "game_id", *gameID, "error", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		logger.Fatalw("failed to create output", "path", *output, "error", err)
	}
	defer f.Close()

	if err := report.Render(f, record, stored); err != nil {
		logger.Fatalw("failed to render report", "game_id", *gameID, "error", err)
	}
	logger.Infow("report written", "game_id", *gameID, "path", *output, "moments", len(stored))
}
