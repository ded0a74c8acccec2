package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sqsbackoff/internal/backoff"
	"sqsbackoff/internal/broker"
	"sqsbackoff/internal/config"
	"sqsbackoff/internal/constants"
	"sqsbackoff/internal/logger"
	"sqsbackoff/internal/message"
	"sqsbackoff/pkg/logging"
)

var (
	configFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "backoff-consumer",
		Short: "SQS consumer with schedule-driven retry backoff",
		Long:  "Consumes an SQS queue and delays redelivery of recoverable failures according to a backoff schedule",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (optional, environment is always read)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(scheduleCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, logger.Logger, error) {
	earlyLog := logging.NewEarlyLog()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return nil, nil, err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		return nil, nil, err
	}

	return cfg, log, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the queue and serve the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.InfowCtx(ctx, "Starting backoff consumer")

			app := NewApp(cfg, log)
			if err := app.Initialize(ctx); err != nil {
				log.Fatalf("Failed to initialize application: %v", err)
			}

			log.InfowCtx(ctx, "Service running")
			if err := app.Run(ctx); err != nil && err != context.Canceled {
				log.ErrorwCtx(ctx, "Service stopped with error", "error", err)
				return err
			}
			log.InfowCtx(ctx, "Service shutdown complete")
			return nil
		},
	}
}

func sendCmd() *cobra.Command {
	var (
		payload string
		traceID string
		groupID string
		count   int
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Publish test messages to the configured queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			var body map[string]interface{}
			if err := json.Unmarshal([]byte(payload), &body); err != nil {
				return fmt.Errorf("payload must be a JSON object: %w", err)
			}

			ctx := cmd.Context()
			client, err := broker.NewClient(ctx, cfg.Queue)
			if err != nil {
				return err
			}
			sender := broker.NewSender(client, cfg.Queue.URL, log).WithGroupID(groupID)

			for i := 0; i < count; i++ {
				id, err := sender.Publish(ctx, message.Message{Payload: body, TraceID: traceID})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&payload, "payload", `{"specialRetry":true}`, "JSON object sent as the message payload")
	cmd.Flags().StringVar(&traceID, "trace-id", "", "Trace id (generated when empty)")
	cmd.Flags().StringVar(&groupID, "group-id", constants.DefaultMessageGroupID, "Message group id for FIFO queues")
	cmd.Flags().IntVar(&count, "count", 1, "Number of messages to send")

	return cmd
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Print the retry decision for each delivery count",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			schedule, err := backoff.FromConfig(cfg.Backoff)
			if err != nil {
				return err
			}

			return printSchedule(cmd.OutOrStdout(), schedule)
		},
	}
}
