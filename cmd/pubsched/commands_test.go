package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestGenerateCmd(t *testing.T) {
	t.Parallel()
	out, _, err := runCmd(t, "generate", "--type", "weekly", "--at", "18:00", "--days", "fri,mon")
	if err != nil || strings.TrimSpace(out) != "0 18 * * 1,5" {
		t.Fatalf("generate = %q, %v", out, err)
	}

	out, errOut, err := runCmd(t, "generate", "--type", "specific_times")
	if err != nil || strings.TrimSpace(out) != "0 9 * * *" || !strings.Contains(errOut, "warning") {
		t.Fatalf("fallback generate = %q %q %v", out, errOut, err)
	}

	if _, _, err := runCmd(t, "generate", "--type", "specific_times", "--strict"); err == nil {
		t.Fatal("--strict should fail on fallback")
	}
}

func TestClassifyAndDescribeCmd(t *testing.T) {
	t.Parallel()
	out, _, err := runCmd(t, "classify", "0,30", "9,17", "*", "*", "*")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	var got classifyOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Type != "specific_times" || len(got.Values.SpecificTimes) != 2 || got.Fallback != "" {
		t.Fatalf("classify = %+v", got)
	}

	out, _, err = runCmd(t, "describe", "15 * * * *")
	if err != nil || strings.TrimSpace(out) != "every hour at minute 15" {
		t.Fatalf("describe = %q, %v", out, err)
	}
}

func TestNextCmdWithoutConfig(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "absent.json")
	out, _, err := runCmd(t, "--config", missing, "next", "-n", "2", "0 0 1 * *")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || lines[0] != "monthly on day 1 at 00:00" {
		t.Fatalf("next output = %q", out)
	}
	if _, _, err := runCmd(t, "--config", missing, "next", "bogus"); err == nil {
		t.Fatal("expected error for unparsable expression")
	}
}

func TestTaskCmds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "storage:\n  driver: file\n  path: " + filepath.ToSlash(filepath.Join(dir, "tasks")) + "\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := runCmd(t, "--config", cfgPath, "task", "save", "--name", "digest", "--type", "daily", "--at", "09:15")
	if err != nil {
		t.Fatalf("task save: %v", err)
	}
	id, _, _ := strings.Cut(strings.TrimSpace(out), "\t")
	if id == "" || !strings.Contains(out, "15 9 * * *") {
		t.Fatalf("task save output = %q", out)
	}

	out, _, err = runCmd(t, "--config", cfgPath, "task", "list")
	if err != nil || !strings.Contains(out, "digest") || !strings.Contains(out, "daily at 09:15") {
		t.Fatalf("task list = %q, %v", out, err)
	}

	out, _, err = runCmd(t, "--config", cfgPath, "task", "show", id)
	if err != nil || !strings.Contains(out, "shape:    daily") {
		t.Fatalf("task show = %q, %v", out, err)
	}

	if _, _, err := runCmd(t, "--config", cfgPath, "task", "rm", id); err != nil {
		t.Fatalf("task rm: %v", err)
	}
	if _, _, err := runCmd(t, "--config", cfgPath, "task", "show", id); err == nil {
		t.Fatal("show after rm should fail")
	}
}

func TestTaskCmdRequiresStorage(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "absent.json")
	if _, _, err := runCmd(t, "--config", missing, "task", "list"); err == nil || !strings.Contains(err.Error(), "no storage configured") {
		t.Fatalf("err = %v", err)
	}
}
