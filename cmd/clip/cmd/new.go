package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	newTTL     time.Duration
	newProtect bool
	newScheme  string
)

var newCmd = &cobra.Command{
	Use:   "new [content...]",
	Short: "Store text under a server-generated id",
	Long: `Store text under a new id chosen by the server and print the id.

Examples:
  clip new "one-off paste"
  git diff | clip new --ttl 1h`,
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
	addWriteFlags(newCmd, &newTTL, &newProtect, &newScheme)
}

func runNew(cmd *cobra.Command, args []string) error {
	in, secret, err := buildInput(args, newTTL, newProtect, newScheme)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	entry, err := s.api.CreateEntry(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}
	if err := s.cache.PutEntry(*entry); err != nil {
		Warning("Entry %s not cached on this device: %v", entry.ID, err)
	}

	if newProtect {
		if err := s.registerSecret(ctx, entry.ID, secret); err != nil {
			return err
		}
	}

	if jsonOutput {
		return writeJSON(os.Stdout, entry)
	}
	fmt.Println(entry.ID)
	Info("Share: %s", shareURL(viper.GetString("public_url"), entry.ID))
	return nil
}
