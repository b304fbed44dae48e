package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/clipshare/internal/validation"
)

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an entry",
	Long: `Delete an entry from the server and from this device, together with its
secret and history.

Examples:
  clip rm notes
  clip rm notes --force`,
	Aliases: []string{"delete", "del"},
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "skip confirmation")
}

func runRm(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := validation.EntryID(id); err != nil {
		return err
	}

	if !rmForce && !PromptConfirm("Delete "+id+"?") {
		Info("Aborted")
		return nil
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	s.secrets.Forget(id)
	return reportWrite("Deleted", id, s.sync.Delete(cmd.Context(), id))
}
