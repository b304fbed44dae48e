package cmd

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/abdul-hamid-achik/clipshare/internal/clientcache"
	"github.com/abdul-hamid-achik/clipshare/internal/clipsync"
	"github.com/abdul-hamid-achik/clipshare/internal/crypto"
)

func TestCachePath(t *testing.T) {
	viper.Set("cache", "/custom/cache.db")
	defer viper.Set("cache", "")

	if got := cachePath(); got != "/custom/cache.db" {
		t.Errorf("cachePath() with override = %s", got)
	}

	viper.Set("cache", "")
	if got := cachePath(); got != filepath.Join(configDir(), "cache.db") {
		t.Errorf("cachePath() default = %s", got)
	}
}

func TestShareURL(t *testing.T) {
	viper.Set("server", "http://localhost:8080")
	defer viper.Set("server", "")

	tests := []struct {
		base string
		want string
	}{
		{"https://clip.example.com", "https://clip.example.com/abc"},
		{"https://clip.example.com/", "https://clip.example.com/abc"},
		{"", "http://localhost:8080/abc"},
	}
	for _, tt := range tests {
		if got := shareURL(tt.base, "abc"); got != tt.want {
			t.Errorf("shareURL(%q) = %s, want %s", tt.base, got, tt.want)
		}
	}
}

func TestReadContent(t *testing.T) {
	got, err := readContent([]string{"hello", "world"}, strings.NewReader("ignored"))
	if err != nil || got != "hello world" {
		t.Errorf("from args = %q, %v", got, err)
	}

	got, err = readContent(nil, strings.NewReader("line one\nline two\n"))
	if err != nil || got != "line one\nline two" {
		t.Errorf("from stdin = %q, %v", got, err)
	}
}

func TestTTLMinutes(t *testing.T) {
	tests := []struct {
		in      time.Duration
		want    int
		wantErr bool
	}{
		{0, 0, false},
		{30 * time.Minute, 30, false},
		{90 * time.Second, 2, false},
		{12 * time.Hour, 720, false},
		{-time.Minute, 0, true},
	}
	for _, tt := range tests {
		got, err := ttlMinutes(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ttlMinutes(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ttlMinutes(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatExpiry(t *testing.T) {
	if got := formatExpiry(1000, 2000); got != "expired" {
		t.Errorf("past = %s", got)
	}
	if got := formatExpiry(91_000, 1000); got != "in 1m30s" {
		t.Errorf("future = %s", got)
	}
}

func TestParseScheme(t *testing.T) {
	viper.Set("scheme", "simple")
	defer viper.Set("scheme", "crypto")

	tests := []struct {
		name    string
		want    crypto.Scheme
		wantErr bool
	}{
		{"crypto", crypto.SchemeCrypto, false},
		{"simple", crypto.SchemeSimple, false},
		{"plain", crypto.SchemePlain, false},
		{"", crypto.SchemeSimple, false},
		{"rot13", "", true},
	}
	for _, tt := range tests {
		got, err := parseScheme(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseScheme(%q) error = %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseScheme(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestReportWrite(t *testing.T) {
	offline := errors.New("connection refused")

	if err := reportWrite("Saved", "x", clipsync.WriteResult{Local: true, Remote: true}); err != nil {
		t.Errorf("both sides: %v", err)
	}
	if err := reportWrite("Saved", "x", clipsync.WriteResult{Local: true, RemoteErr: offline}); err != nil {
		t.Errorf("local only: %v", err)
	}
	err := reportWrite("Saved", "x", clipsync.WriteResult{RemoteErr: offline, LocalErr: offline})
	if err == nil || !strings.Contains(err.Error(), "saved x failed") {
		t.Errorf("neither side: %v", err)
	}
}

func TestWriteYAMLHistory(t *testing.T) {
	items := []clientcache.HistoryItem{{
		ID:             "notes",
		Title:          "notes",
		ContentSummary: "remember the milk",
		VisitedAt:      100,
		CreatedAt:      50,
		ExpiresAt:      200,
	}}

	var buf bytes.Buffer
	if err := writeYAML(&buf, items); err != nil {
		t.Fatalf("writeYAML: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"- id: notes", "contentSummary: remember the milk", "expiresAt: 200"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml output missing %q:\n%s", want, out)
		}
	}
}
