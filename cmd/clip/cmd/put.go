package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abdul-hamid-achik/clipshare/internal/client"
	"github.com/abdul-hamid-achik/clipshare/internal/crypto"
	"github.com/abdul-hamid-achik/clipshare/internal/validation"
)

var (
	putTTL     time.Duration
	putProtect bool
	putScheme  string
)

var putCmd = &cobra.Command{
	Use:   "put <id> [content...]",
	Short: "Store text under an id",
	Long: `Store text under an id, creating or replacing the entry.

Content comes from the arguments, or from stdin when none are given.
Updating a live entry keeps its original expiry.

With --protect the content is sealed with a secret before it leaves this
device, and the secret is registered with the server.

Examples:
  clip put notes "remember the milk"
  echo "hello" | clip put greeting --ttl 30m
  CLIP_SECRET=hunter2 clip put plan --protect --scheme simple < plan.txt`,
	Aliases: []string{"set"},
	Args:    cobra.MinimumNArgs(1),
	RunE:    runPut,
}

func init() {
	rootCmd.AddCommand(putCmd)
	addWriteFlags(putCmd, &putTTL, &putProtect, &putScheme)
}

// addWriteFlags registers the flags shared by put and new.
func addWriteFlags(c *cobra.Command, ttl *time.Duration, protect *bool, scheme *string) {
	c.Flags().DurationVar(ttl, "ttl", 0, "time to live, e.g. 30m or 12h (default: server default)")
	c.Flags().BoolVar(protect, "protect", false, "seal the content with a secret")
	c.Flags().StringVar(scheme, "scheme", "", "content scheme for --protect: crypto, simple (default from config)")
}

func runPut(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := validation.EntryID(id); err != nil {
		return err
	}

	in, secret, err := buildInput(args[1:], putTTL, putProtect, putScheme)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	res := s.sync.Save(ctx, id, in)
	if err := reportWrite("Saved", id, res); err != nil {
		return err
	}

	if putProtect {
		if err := s.registerSecret(ctx, id, secret); err != nil {
			return err
		}
	}

	if jsonOutput && res.Entry != nil {
		return writeJSON(os.Stdout, res.Entry)
	}
	return nil
}

// buildInput reads content and seals it when protect is set.
func buildInput(args []string, ttl time.Duration, protect bool, scheme string) (client.EntryInput, string, error) {
	content, err := readContent(args, os.Stdin)
	if err != nil {
		return client.EntryInput{}, "", err
	}
	if err := validation.Content(content); err != nil {
		return client.EntryInput{}, "", err
	}
	minutes, err := ttlMinutes(ttl)
	if err != nil {
		return client.EntryInput{}, "", err
	}

	in := client.EntryInput{Content: content, TTLMinutes: minutes}
	if !protect {
		return in, "", nil
	}

	secret, err := readSecret("New secret: ", true)
	if err != nil {
		return client.EntryInput{}, "", err
	}
	if err := validation.Secret(secret); err != nil {
		return client.EntryInput{}, "", err
	}

	sealScheme, err := parseScheme(scheme)
	if err != nil {
		return client.EntryInput{}, "", err
	}
	sealed, err := crypto.Seal(sealScheme, secret, content)
	if err != nil {
		return client.EntryInput{}, "", fmt.Errorf("failed to seal content: %w", err)
	}
	in.Content = sealed
	in.IsProtected = true
	return in, secret, nil
}

func parseScheme(name string) (crypto.Scheme, error) {
	if name == "" {
		name = viper.GetString("scheme")
	}
	switch name {
	case "crypto", "":
		return crypto.SchemeCrypto, nil
	case "simple":
		return crypto.SchemeSimple, nil
	case "plain":
		return crypto.SchemePlain, nil
	default:
		return "", fmt.Errorf("unknown scheme: %s (valid: crypto, simple, plain)", name)
	}
}

// registerSecret stores the secret on the server and remembers it on this
// device.
func (s *session) registerSecret(ctx context.Context, id, secret string) error {
	if err := s.api.SetSecret(ctx, id, secret); err != nil {
		Warning("Secret for %s not registered with server: %v", id, err)
	}
	if err := s.cache.PutSecret(id, secret); err != nil {
		return fmt.Errorf("failed to remember secret: %w", err)
	}
	s.secrets.Put(id, secret)
	return nil
}
