package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adda-Baaj/khobor-lekhok/internal/domain"
)

func writeConfig(t *testing.T, apiKey string) string {
	t.Helper()
	dir := t.TempDir()
	body := "gemini:\n  api_key: \"" + apiKey + "\"\n" +
		"store:\n  path: " + filepath.Join(dir, "data.db") + "\n" +
		"media:\n  dir: " + filepath.Join(dir, "media") + "\n" +
		"log:\n  level: error\n"
	path := filepath.Join(dir, "khobor-lekhok.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerateRejectsCountOutOfRange(t *testing.T) {
	cfg := writeConfig(t, "key")
	_, err := execute(t, "generate", "--config", cfg, "--env-file", filepath.Join(t.TempDir(), "none.env"), "--count", "11")
	if !domain.IsConfiguration(err) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestTestConnectionRequiresKey(t *testing.T) {
	t.Setenv("NEWSGEN_GEMINI_API_KEY", "")
	cfg := writeConfig(t, "")
	_, err := execute(t, "test-connection", "--config", cfg, "--env-file", filepath.Join(t.TempDir(), "none.env"))
	if err == nil || !strings.Contains(err.Error(), "API key not configured") {
		t.Fatalf("err = %v", err)
	}
}

func TestStatsOnEmptyStore(t *testing.T) {
	cfg := writeConfig(t, "key")
	out, err := execute(t, "stats", "--config", cfg, "--env-file", filepath.Join(t.TempDir(), "none.env"))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var decoded struct {
		Stats struct {
			TotalGenerated int `json:"total_generated"`
		} `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if decoded.Stats.TotalGenerated != 0 {
		t.Errorf("total = %d", decoded.Stats.TotalGenerated)
	}
}
