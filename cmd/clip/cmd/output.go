package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/abdul-hamid-achik/clipshare/internal/clipsync"
)

var (
	// Color definitions.
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	boldColor    = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
)

// Messages go to stderr so entry content on stdout stays pipe-friendly.

// Success prints a success message in green.
func Success(format string, a ...any) {
	successColor.Fprintf(os.Stderr, "✓ "+format+"\n", a...)
}

// Warning prints a warning message in yellow.
func Warning(format string, a ...any) {
	warningColor.Fprintf(os.Stderr, "⚠ "+format+"\n", a...)
}

// Info prints an info message in cyan.
func Info(format string, a ...any) {
	infoColor.Fprintf(os.Stderr, "ℹ "+format+"\n", a...)
}

// Bold prints text in bold.
func Bold(format string, a ...any) string {
	return boldColor.Sprintf(format, a...)
}

// Dim prints text in dim/faint style.
func Dim(format string, a ...any) string {
	return dimColor.Sprintf(format, a...)
}

// PromptConfirm asks for user confirmation and returns true if confirmed.
func PromptConfirm(message string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", message)

	var response string
	_, err := fmt.Scanln(&response)
	if err != nil {
		return false
	}

	switch strings.ToLower(response) {
	case "y", "yes":
		return true
	}
	return false
}

// PrintKeyValue prints a key-value pair with the key highlighted.
func PrintKeyValue(key, value string) {
	fmt.Printf("%s: %s\n", boldColor.Sprint(key), value)
}

// PrintTableHeader prints a table header with bold column names.
func PrintTableHeader(columns ...string) {
	for i, col := range columns {
		if i > 0 {
			fmt.Print("\t")
		}
		fmt.Print(boldColor.Sprint(col))
	}
	fmt.Println()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// reportWrite prints where a dual write landed and fails when neither side
// accepted it.
func reportWrite(action, id string, res clipsync.WriteResult) error {
	switch {
	case res.Local && res.Remote:
		Success("%s %s", action, Bold(id))
	case res.Remote:
		Warning("%s %s on server; device cache not updated: %v", action, id, res.LocalErr)
	case res.Local:
		Warning("%s %s on this device only; server unavailable: %v", action, id, res.RemoteErr)
	default:
		return fmt.Errorf("%s %s failed: server: %v; device: %v", strings.ToLower(action), id, res.RemoteErr, res.LocalErr)
	}
	return nil
}
