package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	wgf "github.com/imrishuroy/go-wgf-sdk"
	"github.com/imrishuroy/go-wgf-sdk/internal/aws"
	"github.com/imrishuroy/go-wgf-sdk/internal/config"
)

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

	client, err := wgf.NewFromMap(cfg.Credentials(), wgf.WithLogger(logger))
	if err != nil {
		logger.Error("invalid lending api credentials", slog.Any("err", err))
		os.Exit(1)
	}

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWS.Region, cfg.AWS.EndpointOverride)
	if err != nil {
		logger.Error("failed to init aws clients", slog.Any("err", err))
		os.Exit(1)
	}

	p := NewProcessor(clients, cfg.Relay.IdempotencyTable, cfg.Relay.DispatchTable, ttl,
		client, aws.NewMetrics(clients.CloudWatch, cfg.Metrics.Namespace), logger)

	// RUN_LOCAL feeds one message from LOCAL_SQS_BODY through the processor.
	if cfg.Relay.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			logger.Error("LOCAL_SQS_BODY is required with RUN_LOCAL")
			os.Exit(1)
		}
		event := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local", Body: body}}}
		if err := p.Handle(context.Background(), event); err != nil {
			logger.Error("local handler error", slog.Any("err", err))
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
