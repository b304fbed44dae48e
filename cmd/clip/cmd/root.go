// Package cmd provides the CLI commands for clip.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfigDir = ".clipshare"

var (
	cfgFile    string
	jsonOutput bool
	verbose    bool
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "clip",
	Short: "clip - share text snippets that expire",
	Long: `clip stores text on a clipshare server and keeps a copy on this device.

Entries expire after their time-to-live. Protected entries need a secret to
open; the secret is remembered on this device after the first unlock.

Get started:
  clip put notes "remember the milk"   Store text under an id
  clip get notes                       Print an entry
  clip history                         List recently opened entries

Examples:
  echo "hello" | clip put greeting --ttl 30m
  CLIP_SECRET=hunter2 clip put plan --protect < plan.txt
  clip new "one-off paste"
  clip share greeting`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.clipshare/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "server URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().String("cache", "", "device cache file (default ~/.clipshare/cache.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("cache", rootCmd.PersistentFlags().Lookup("cache"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	viper.SetDefault("server", "http://localhost:8080")
	viper.SetDefault("public_url", "")
	viper.SetDefault("admin_token", "")
	viper.SetDefault("utc_offset", 8*time.Hour)
	viper.SetDefault("timeout", 10*time.Second)
	viper.SetDefault("scheme", "crypto")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CLIP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Load config file if it exists.
	_ = viper.ReadInConfig()
}

// configDir returns ~/.clipshare, or a relative directory when the home
// directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultConfigDir
	}
	return filepath.Join(home, defaultConfigDir)
}

// cachePath returns the device cache file.
// Priority: --cache flag > CLIP_CACHE env > config file > ~/.clipshare/cache.db
func cachePath() string {
	if p := viper.GetString("cache"); p != "" {
		return p
	}
	return filepath.Join(configDir(), "cache.db")
}

// isVerbose returns whether verbose mode is enabled.
func isVerbose() bool {
	if verbose {
		return true
	}
	return viper.GetBool("verbose")
}

// shareURL joins the public base URL and an entry id. The server URL is used
// when no public URL is configured.
func shareURL(base, id string) string {
	if base == "" {
		base = viper.GetString("server")
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), id)
}
