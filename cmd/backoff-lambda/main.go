package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"sqsbackoff/internal/config"
	"sqsbackoff/internal/constants"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/pipeline"
	"sqsbackoff/pkg/bootstrap"
	"sqsbackoff/pkg/logging"
	"sqsbackoff/pkg/tracing"
)

const serviceName = constants.DefaultLambdaServiceName

// Everything below runs once per cold start. A configuration error stops the
// function before any record is handled.
func main() {
	earlyLog := logging.NewEarlyLog()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		os.Exit(1)
	}
	defer log.Sync()

	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(serviceName)
	}

	ctx := context.Background()

	base := bootstrap.NewBase(cfg, log)
	if err := base.InitSQS(ctx); err != nil {
		log.Fatalf("Failed to initialize SQS: %v", err)
	}

	rdb, err := bootstrap.NewDatabaseConnector(cfg, log).InitRedis(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	tp, err := tracing.Init(cfg.Tracing, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	p, err := pipeline.New(cfg, log, base.SQS, rdb)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	lambda.Start(newHandler(p, tp, log))
}
