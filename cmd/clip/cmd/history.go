package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/clipshare/internal/clientcache"
)

var (
	historyYAML   bool
	historyClear  bool
	historyRemove string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently opened entries",
	Long: `List entries opened on this device, most recent first.

History keeps the last 50 entries; expired entries are dropped whenever the
list is read.

Examples:
  clip history
  clip history --yaml
  clip history --remove notes
  clip history --clear`,
	Aliases: []string{"h", "ls"},
	Args:    cobra.NoArgs,
	RunE:    runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyYAML, "yaml", false, "output in YAML format")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "forget all history")
	historyCmd.Flags().StringVar(&historyRemove, "remove", "", "forget one entry")
}

func runHistory(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	switch {
	case historyClear:
		if err := s.cache.ClearHistory(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		Success("History cleared")
		return nil
	case historyRemove != "":
		if err := s.cache.RemoveHistory(historyRemove); err != nil {
			return fmt.Errorf("failed to remove %s: %w", historyRemove, err)
		}
		Success("Removed %s from history", historyRemove)
		return nil
	}

	now := s.clock.Now()
	items, err := s.cache.History(now)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if items == nil {
		items = []clientcache.HistoryItem{}
	}

	switch {
	case jsonOutput:
		return writeJSON(os.Stdout, items)
	case historyYAML:
		return writeYAML(os.Stdout, items)
	}

	if len(items) == 0 {
		Info("No history")
		return nil
	}
	printHistory(items, now)
	return nil
}

func printHistory(items []clientcache.HistoryItem, now int64) {
	PrintTableHeader("ID", "EXPIRES", "SUMMARY")
	for _, item := range items {
		summary := item.ContentSummary
		if item.IsProtected {
			summary = Dim("%s", summary)
		}
		fmt.Printf("%s\t%s\t%s\n", item.ID, formatExpiry(item.ExpiresAt, now), summary)
	}
}
