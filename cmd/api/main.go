package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-wgf-sdk/internal/aws"
	"github.com/imrishuroy/go-wgf-sdk/internal/config"
	"github.com/imrishuroy/go-wgf-sdk/internal/handlers"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterShippingRoutes(r, cfg)

	return r
}

func main() {
	configPath := flag.String("config", os.Getenv("WGF_CONFIG"), "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}
	logger := cfg.Logger(os.Stderr)
	if err := cfg.ValidateRelay(); err != nil {
		logger.Error("invalid relay config", slog.Any("err", err))
		os.Exit(1)
	}
	ttl, _ := cfg.TTLWindow()

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWS.Region, cfg.AWS.EndpointOverride)
	if err != nil {
		logger.Error("failed to init aws clients", slog.Any("err", err))
		os.Exit(1)
	}

	r := setupRouter(handlers.HandlerConfig{
		DynamoDBClient:   clients.DynamoDB,
		SQSClient:        clients.SQS,
		IdempotencyTable: cfg.Relay.IdempotencyTable,
		DispatchTable:    cfg.Relay.DispatchTable,
		QueueURL:         cfg.Relay.QueueURL,
		TTLWindow:        ttl,
		Logger:           logger,
	})

	// RUN_LOCAL serves plain HTTP for development.
	if cfg.Relay.RunLocal {
		logger.Info("running local server", slog.String("addr", cfg.Relay.Addr))
		if err := r.Run(cfg.Relay.Addr); err != nil {
			logger.Error("failed to run local server", slog.Any("err", err))
			os.Exit(1)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
