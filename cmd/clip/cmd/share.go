package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abdul-hamid-achik/clipshare/internal/validation"
)

var shareCmd = &cobra.Command{
	Use:   "share <id>",
	Short: "Print the share link of an entry",
	Long: `Print the link others can use to open an entry.

The link is built from public_url in the config file (CLIP_PUBLIC_URL), or
from the server URL when no public URL is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runShare,
}

func init() {
	rootCmd.AddCommand(shareCmd)
}

func runShare(_ *cobra.Command, args []string) error {
	id := args[0]
	if err := validation.EntryID(id); err != nil {
		return err
	}

	link := shareURL(viper.GetString("public_url"), id)
	if jsonOutput {
		return writeJSON(os.Stdout, map[string]string{"id": id, "url": link})
	}
	fmt.Println(link)
	return nil
}
