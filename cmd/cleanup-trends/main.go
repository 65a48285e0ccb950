package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/outfity/trend-radar/internal/config"
	"github.com/outfity/trend-radar/internal/logger"
	reposql "github.com/outfity/trend-radar/internal/repository/sql"
	"github.com/outfity/trend-radar/internal/service"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "recompute scores and report, but write nothing")
	flag.Parse()

	logger.InitJSONLogger()

	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	ctx := context.Background()
	db, err := reposql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)
	defer db.Close()

	trendRepository := reposql.NewTrendProductRepository(db)
	favoriteRepository := reposql.NewFavoriteRepository(db)
	transactionalRepository := reposql.NewTransactionalRepository(db)

	factorGatherer := service.NewFactorGatherer(trendRepository, favoriteRepository)
	cleanupService := service.NewCleanupService(trendRepository, transactionalRepository, factorGatherer)

	report, err := cleanupService.Run(ctx, *dryRun)
	handleErr("running cleanup", err)

	report.Print(os.Stdout)
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
