package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/outfity/trend-radar/internal/config"
	httpAPI "github.com/outfity/trend-radar/internal/http"
	"github.com/outfity/trend-radar/internal/http/controller"
	"github.com/outfity/trend-radar/internal/logger"
	"github.com/outfity/trend-radar/internal/metrics"
	reposql "github.com/outfity/trend-radar/internal/repository/sql"
	"github.com/outfity/trend-radar/internal/scraper"
	"github.com/outfity/trend-radar/internal/service"
	"github.com/outfity/trend-radar/internal/sources"
	sqspkg "github.com/outfity/trend-radar/internal/sqs"
)

func main() {
	logger.InitJSONLogger()

	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := reposql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)

	// Repositories
	trendRepository := reposql.NewTrendProductRepository(db)
	eventRepository := reposql.NewTrendEventRepository(db)
	transactionalRepository := reposql.NewTransactionalRepository(db)
	favoriteRepository := reposql.NewFavoriteRepository(db)

	// SQS publisher for the outbox worker
	sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
	handleErr("creating SQS client", err)
	publisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)

	// Scrapers and services
	sourceRegistry := sources.Default()
	scraperRegistry := scraper.NewRegistry(scraper.NewCatalogScraper(
		time.Duration(conf.Scraper.TimeoutSeconds)*time.Second,
		conf.Scraper.UserAgent,
	))

	trendService := service.NewTrendService(sourceRegistry, scraperRegistry, transactionalRepository, conf.ActiveCities)
	factorGatherer := service.NewFactorGatherer(trendRepository, favoriteRepository)
	cleanupService := service.NewCleanupService(trendRepository, transactionalRepository, factorGatherer)

	// Publish outbox events every 2 seconds
	outboxWorker := service.NewOutboxWorker(eventRepository, publisher, 2*time.Second)
	go outboxWorker.Start(ctx)

	// HTTP server
	ctr := controller.New(conf)
	trendCtr := controller.NewTrendController(trendService, cleanupService, trendRepository, transactionalRepository)
	httpServer := gin.New()
	httpServer = httpAPI.InitRouter(conf, httpServer, ctr, trendCtr)

	go func() {
		if err := httpServer.Run(":" + conf.HTTPServer.Port); err != nil {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down gracefully...")
	cancel()
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
