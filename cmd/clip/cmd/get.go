package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/clipshare/internal/crypto"
	"github.com/abdul-hamid-achik/clipshare/internal/validation"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print an entry",
	Long: `Print the content of an entry.

The newer of the device copy and the server copy is shown; a newer server
copy is saved to this device. When the server is unreachable the device copy
is used. Protected entries are unlocked with a remembered secret or a prompt.

Content is printed to stdout. Messages go to stderr, making this command
pipe-friendly.

Examples:
  clip get notes
  clip get notes --json
  NOTES=$(clip get notes)`,
	Aliases: []string{"g", "open"},
	Args:    cobra.ExactArgs(1),
	RunE:    runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := validation.EntryID(id); err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	res, err := s.sync.Open(ctx, id)
	if err != nil {
		return err
	}
	if res.RemoteErr != nil {
		Warning("Server unavailable, showing device copy: %v", res.RemoteErr)
	}
	if res.Expired {
		return fmt.Errorf("entry %s has expired", id)
	}
	if res.Entry == nil {
		return fmt.Errorf("entry %s not found", id)
	}

	entry := *res.Entry
	if entry.IsProtected || crypto.IsSealed(entry.Content) {
		secret, err := s.unlock(ctx, id)
		if err != nil && res.RemoteErr != nil {
			// Offline: the remembered secret can still open sealed content.
			if cached, cErr := s.cache.GetSecret(id); cErr == nil {
				secret, err = cached, nil
			}
		}
		if err != nil {
			return err
		}
		entry.Content, err = crypto.Open(secret, entry.Content)
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return fmt.Errorf("entry %s could not be decrypted with the verified secret", id)
		}
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		return writeJSON(os.Stdout, entryView{Entry: entry, Source: res.Source.String()})
	}

	fmt.Print(entry.Content)
	if isVerbose() {
		fmt.Fprintln(os.Stderr)
		Info("%s from %s, expires %s", id, res.Source, formatExpiry(entry.ExpiresAt, s.clock.Now()))
	}
	return nil
}
