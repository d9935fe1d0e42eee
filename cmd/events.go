package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atmosgear/skate-league/internal/catalog"
	"github.com/atmosgear/skate-league/internal/config"
	"github.com/atmosgear/skate-league/internal/model"
)

var eventsCounts bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the event catalog",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsCounts, "counts", false, "include live registration counts (needs the database)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var list []model.EventAvailability
	if eventsCounts {
		ctx := context.Background()
		store, closeStore, err := openStore(ctx, cfg, false)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer closeStore()

		svc, err := newService(cfg, store)
		if err != nil {
			return err
		}
		if list, err = svc.EventAvailability(ctx); err != nil {
			return err
		}
	} else {
		events, err := catalog.Load(cfg.EventsFile)
		if err != nil {
			return err
		}
		for _, e := range events.All() {
			list = append(list, model.EventAvailability{Event: e, SpotsLeft: e.TotalSpots})
		}
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tTITLE\tREGISTERED\tLEFT\tSTATUS")
	for _, e := range list {
		status := "open"
		if e.ComingSoon {
			status = "coming soon"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.ID, e.Date, e.Time, e.Title, e.Registered, e.SpotsLeft, status)
	}
	return tw.Flush()
}
