package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/clipshare/internal/validation"
)

var passwdRemove bool

var passwdCmd = &cobra.Command{
	Use:   "passwd <id>",
	Short: "Set or remove the secret of an entry",
	Long: `Set the secret that guards an entry, or remove it with --remove.

This changes only the secret the server checks. Content sealed with an older
secret must be stored again with 'clip put --protect' to be readable with the
new one.

The secret can also be provided via the CLIP_SECRET environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: runPasswd,
}

func init() {
	rootCmd.AddCommand(passwdCmd)
	passwdCmd.Flags().BoolVar(&passwdRemove, "remove", false, "remove the secret")
}

func runPasswd(cmd *cobra.Command, args []string) error {
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
	if passwdRemove {
		if err := s.api.DeleteSecret(ctx, id); err != nil {
			return fmt.Errorf("failed to remove secret: %w", err)
		}
		s.secrets.Forget(id)
		if err := s.cache.DeleteSecret(id); err != nil {
			return fmt.Errorf("failed to forget secret: %w", err)
		}
		Success("Secret removed from %s", Bold(id))
		return nil
	}

	secret, err := readSecret("New secret: ", true)
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	if err := validation.Secret(secret); err != nil {
		return err
	}

	if err := s.api.SetSecret(ctx, id, secret); err != nil {
		return fmt.Errorf("failed to set secret: %w", err)
	}
	if err := s.cache.PutSecret(id, secret); err != nil {
		return fmt.Errorf("failed to remember secret: %w", err)
	}
	if err := s.cache.ResetAttempts(id); err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	Success("Secret set for %s", Bold(id))
	return nil
}
