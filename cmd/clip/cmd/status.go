package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abdul-hamid-achik/clipshare/internal/civiltime"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and device cache status",
	Long:  "Show the server URL and its readiness, the device cache path, cached entry count, history size, and the last local sweep.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	now := s.clock.Now()
	serverStatus := "ready"
	if err := s.api.Health(cmd.Context()); err != nil {
		serverStatus = "unavailable"
		s.logger.Debug("health check failed", "error", err)
	}

	entries, err := s.cache.Entries(now)
	if err != nil {
		return fmt.Errorf("failed to read device cache: %w", err)
	}
	history, err := s.cache.History(now)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	lastSweep, err := s.cache.LastSweep()
	if err != nil {
		return fmt.Errorf("failed to read last sweep: %w", err)
	}

	if jsonOutput {
		return writeJSON(os.Stdout, map[string]any{
			"server":         viper.GetString("server"),
			"server_status":  serverStatus,
			"cache":          s.cache.Path(),
			"cached_entries": len(entries),
			"history":        len(history),
			"last_sweep":     lastSweep,
		})
	}

	PrintKeyValue("Server", viper.GetString("server"))
	PrintKeyValue("Server status", serverStatus)
	PrintKeyValue("Device cache", s.cache.Path())
	PrintKeyValue("Cached entries", fmt.Sprintf("%d", len(entries)))
	PrintKeyValue("History", fmt.Sprintf("%d", len(history)))
	if lastSweep > 0 {
		PrintKeyValue("Last sweep", civiltime.Format(lastSweep))
	}
	return nil
}
