package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/heycoach-api/internal/database"
	"github.com/noah-isme/heycoach-api/internal/repository"
	"github.com/noah-isme/heycoach-api/internal/service"
	"github.com/noah-isme/heycoach-api/pkg/twilio"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := database.Migrate(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo user with sessions, assignments and progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := database.Migrate(e.db); err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			seeder := service.NewSeedService(repository.NewSeedRepository(e.db), true, "", e.logger)
			result, err := seeder.SeedDemo(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d sessions, %d assignments, %d notifications, %d metrics\n",
				result.UserID, result.Sessions, result.Assignments, result.Notifications, result.Metrics)
			return nil
		},
	}
}

func newSendCmd() *cobra.Command {
	var to, body string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a WhatsApp message through Twilio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(to) == "" || strings.TrimSpace(body) == "" {
				return errors.New("--to and --body are required")
			}

			e, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if !e.cfg.TwilioConfigured() {
				return service.ErrMessagingUnavailable
			}

			client := twilio.NewClient(twilio.Config{
				AccountSID: e.cfg.TwilioAccountSID,
				AuthToken:  e.cfg.TwilioAuthToken,
				FromNumber: e.cfg.TwilioWhatsAppNumber,
				Logger:     e.logger,
			})

			ctx, cancel := commandContext(cmd)
			defer cancel()

			sid, err := client.SendMessage(ctx, to, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", sid)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient phone number")
	cmd.Flags().StringVar(&body, "body", "", "Message text")
	return cmd
}

func newSweepOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Flag assignments past their due date and notify their owners",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			notifications := service.NewNotificationService(repository.NewNotificationRepository(e.db), e.redis, e.cfg.ChannelBase, e.nats, e.valid, e.logger)
			progress := service.NewProgressService(
				repository.NewProgressMetricRepository(e.db),
				repository.NewSessionRepository(e.db),
				repository.NewAssignmentRepository(e.db),
				repository.NewPracticeAttemptRepository(e.db),
				e.redis,
				e.cfg.ProgressCacheTTL,
				e.cfg.ChannelBase,
				e.valid,
				e.logger,
			)
			events := service.NewEventPublisher(e.nats, e.cfg.ChannelBase, e.logger)
			assignments := service.NewAssignmentService(repository.NewAssignmentRepository(e.db), notifications, progress, events, e.valid, e.logger)

			result, err := assignments.SweepOverdue(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d assignments marked overdue\n", result.Overdue)
			return nil
		},
	}
}
