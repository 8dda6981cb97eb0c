package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inhahackathon/foodmarket/config"
	"github.com/inhahackathon/foodmarket/internal/logging"
	"github.com/inhahackathon/foodmarket/internal/mq"
	"github.com/inhahackathon/foodmarket/internal/services"
	"github.com/inhahackathon/foodmarket/internal/storage"
	"github.com/spf13/cobra"
)

// workerCmd consumes board deletion events and removes the deleted boards' images.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs the board image cleanup worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.NewLogger(cfg.AppName+"-worker", cfg.Profile)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		files, err := storage.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}

		broker, err := mq.Open(ctx, cfg.Broker)
		if err != nil {
			return fmt.Errorf("open broker: %w", err)
		}
		defer broker.Close()

		cleanup := services.NewImageCleanup(files, logger)
		logger.WithField("channel", cfg.Broker.Channel).Info("worker subscribed")
		if err := broker.Subscribe(ctx, cfg.Broker.Channel, cleanup.HandleMessage); err != nil && ctx.Err() == nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		logger.Info("worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
