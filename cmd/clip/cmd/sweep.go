package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired entries",
	Long: `Remove expired entries from this device and ask the server to do the same.

The server sweep needs the admin token when the server has one configured
(admin_token in the config file or CLIP_ADMIN_TOKEN).`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.sync.Sweep(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		out := map[string]any{
			"local":  res.Local,
			"remote": res.Remote,
		}
		if res.RemoteErr != nil {
			out["remote_error"] = res.RemoteErr.Error()
		}
		return writeJSON(os.Stdout, out)
	}

	Success("Removed %d expired entries from this device", res.Local)
	if res.RemoteErr != nil {
		Warning("Server sweep failed: %v", res.RemoteErr)
		return nil
	}
	Success("Server removed %d expired entries", len(res.Remote))
	return nil
}
