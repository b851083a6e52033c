package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/features"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/orchestrator"
	"github.com/ravinpandey/ecalls-ar-sentiment-mvp/transcript"
)

const testTranscript = `John Smith, CEO: We delivered record revenue.
Q&A
Analyst A: What about margins?
Jane Doe, CFO: Margins improved 5%.
`

type cliEnv struct {
	base       string
	configPath string
}

func setupCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	base := t.TempDir()
	raw := filepath.Join(base, "raw", "ABC")
	if err := os.MkdirAll(raw, 0o755); err != nil {
		t.Fatalf("mkdir raw: %v", err)
	}
	if err := os.WriteFile(filepath.Join(raw, "2023-May-02-ABC.txt"), []byte(testTranscript), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	body := fmt.Sprintf(`pipeline:
  log_level: warn
paths:
  raw: %s
  interim: %s
  processed: %s
  database: %s
`,
		filepath.Join(base, "raw"),
		filepath.Join(base, "interim"),
		filepath.Join(base, "processed"),
		filepath.Join(base, "db", "ecalls.db"),
	)
	configPath := filepath.Join(base, "config.yaml")
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cliEnv{base: base, configPath: configPath}
}

func runCLI(t *testing.T, env cliEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestStagedCommands(t *testing.T) {
	env := setupCLIEnv(t)

	out, _, err := runCLI(t, env, "segment")
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	requireContains(t, out, "Wrote 3 utterances from 1 calls")

	out, _, err = runCLI(t, env, "score", "--sections", "qa", "--batch-size", "8")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	requireContains(t, out, "Wrote 2 scored utterances")

	scored, err := orchestrator.ReadJSONL[features.ScoredUtterance](filepath.Join(env.base, "processed", orchestrator.ScoredFile))
	if err != nil {
		t.Fatalf("read scored: %v", err)
	}
	for _, s := range scored {
		if s.Section != transcript.SectionQA {
			t.Fatalf("section filter leaked %+v", s)
		}
	}

	out, _, err = runCLI(t, env, "pair")
	if err != nil {
		t.Fatalf("pair: %v", err)
	}
	requireContains(t, out, "Wrote 1 pairs")
	if _, err := os.Stat(filepath.Join(env.base, "processed", orchestrator.PairsCSVFile)); err != nil {
		t.Fatalf("expected csv next to pairs: %v", err)
	}

	out, _, err = runCLI(t, env, "report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	requireContains(t, out, "polarity")
	requireContains(t, out, "qa")
}

func TestScoreRejectsBadFlags(t *testing.T) {
	env := setupCLIEnv(t)
	if _, _, err := runCLI(t, env, "segment"); err != nil {
		t.Fatalf("segment: %v", err)
	}
	tests := [][]string{
		{"score", "--sections", "intro"},
		{"score", "--limit", "-1"},
		{"score", "--batch-size", "0"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, _, err := runCLI(t, env, args...); err == nil {
				t.Fatalf("expected error for %v", args)
			}
		})
	}
}

func TestRunCommandWritesRunDir(t *testing.T) {
	env := setupCLIEnv(t)
	out, _, err := runCLI(t, env, "run")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "1 calls, 3 utterances, 1 pairs")
	requireContains(t, out, orchestrator.ManifestFile)

	if _, err := os.Stat(filepath.Join(env.base, "db", "ecalls.db")); err != nil {
		t.Fatalf("expected database to be created: %v", err)
	}
	runs, err := filepath.Glob(filepath.Join(env.base, "processed", "run_*"))
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one run dir, got %v (%v)", runs, err)
	}
}

func TestConfigShow(t *testing.T) {
	env := setupCLIEnv(t)
	out, _, err := runCLI(t, env, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# source: "+env.configPath)
	requireContains(t, out, "provider: lexicon")
	requireContains(t, out, "log_level: warn")
}

func TestInvalidConfigFails(t *testing.T) {
	env := setupCLIEnv(t)
	if err := os.WriteFile(env.configPath, []byte("sentiment:\n  workers: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, env, "config", "show"); err == nil {
		t.Fatal("expected invalid config to fail")
	}
}
