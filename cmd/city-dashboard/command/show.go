package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var showCity string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch every feed once and print the dashboard as JSON",
	RunE:  show,
}

func init() {
	showCmd.Flags().StringVar(&showCity, "city", "", "city to show (defaults to DEFAULT_CITY)")
}

func show(cmd *cobra.Command, _ []string) error {
	service, _, err := newService(cfg, showCity)
	if err != nil {
		return err
	}
	service.Restore()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.LoadTimeout)
	defer cancel()

	if err := service.Refresh(ctx); err != nil {
		slog.Warn("some feeds failed", "err", err)
	}

	out, err := json.MarshalIndent(service.Dashboard(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode dashboard: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
