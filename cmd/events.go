/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/workoai/referrals/config"
	"github.com/workoai/referrals/internal/logging"
	"github.com/workoai/referrals/internal/mq"
	"github.com/workoai/referrals/types"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect referral events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log referral events as they are published",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.New(cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bus, err := mq.Open(ctx, cfg)
		if err != nil {
			return err
		}
		if bus == nil {
			return errors.New("MQ_BACKEND is none; nothing to tail")
		}
		defer bus.Close()

		logger.Info("tailing referral events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.Channel)
		err = mq.NewReferralEvents(bus, cfg.MQ.Channel).Consume(ctx, func(ctx context.Context, event types.ReferralEvent) error {
			logger.Info("referral_event",
				slog.String("type", string(event.Type)),
				slog.String("referral_id", event.ReferralID.String()),
				slog.String("owner_id", event.OwnerID.String()),
				slog.String("status", event.Status.String()),
				slog.Time("occurred_at", event.OccurredAt),
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
