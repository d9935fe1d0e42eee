package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atmosgear/skate-league/internal/config"
)

var backfillJSON bool

var backfillCmd = &cobra.Command{
	Use:   "backfill-emails",
	Short: "Send confirmation emails to participants who have not received one",
	Long: `Send the confirmation email to every active participant whose
confirmation_email_sent flag is not set, oldest registration first.

Sends are sequential. A failed send is reported and left pending for the
next run.`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().BoolVar(&backfillJSON, "json", false, "print the full result as JSON")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeStore()

	svc, err := newService(cfg, store)
	if err != nil {
		return err
	}

	res, err := svc.BackfillConfirmationEmails(ctx)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}

	out := cmd.OutOrStdout()
	if backfillJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	for _, item := range res.Results {
		if item.Success {
			fmt.Fprintf(out, "ok    %s %s\n", item.ID, item.Email)
		} else {
			fmt.Fprintf(out, "FAIL  %s %s: %s\n", item.ID, item.Email, item.Error)
		}
	}
	fmt.Fprintln(out, res.Message)
	if res.Failed > 0 {
		return fmt.Errorf("%d confirmation email(s) failed", res.Failed)
	}
	return nil
}
