package bridge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
}

func TestInvokeParsesJSON(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "etl_pipeline.py", `echo '{"status":"success","records":3}'`)

	r := NewRunner(dir, nil)
	out, err := r.Invoke(context.Background(), "etl_pipeline", nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	doc, ok := out.(map[string]interface{})
	if !ok {
		t.Fatalf("expected object output, got %T", out)
	}
	if doc["status"] != "success" {
		t.Fatalf("unexpected output: %v", doc)
	}
}

func TestInvokePassesArgs(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "etl_pipeline.py", `echo "{\"first\":\"$1\"}"`)

	r := NewRunner(dir, nil)
	out, err := r.Invoke(context.Background(), "etl_pipeline", []string{"GDP"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if out.(map[string]interface{})["first"] != "GDP" {
		t.Fatalf("argv not passed through: %v", out)
	}
}

func TestInvokeMissingCapability(t *testing.T) {
	r := NewRunner(t.TempDir(), nil)

	_, err := r.Invoke(context.Background(), "nope", nil)
	var nf *CapabilityNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected CapabilityNotFoundError, got %v", err)
	}
	if nf.Capability != "nope" {
		t.Fatalf("unexpected capability: %s", nf.Capability)
	}
}

func TestInvokeNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "analysis.py", `echo "boom" >&2; exit 3`)

	r := NewRunner(dir, nil)
	_, err := r.Invoke(context.Background(), "analysis", nil)
	var pe *ProcessExecutionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProcessExecutionError, got %v", err)
	}
	if pe.ExitCode != 3 {
		t.Fatalf("unexpected exit code %d", pe.ExitCode)
	}
	if pe.Stderr != "boom" {
		t.Fatalf("stderr not captured: %q", pe.Stderr)
	}
}

func TestInvokeBadJSON(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "analysis.py", `echo "not json"`)

	r := NewRunner(dir, nil)
	_, err := r.Invoke(context.Background(), "analysis", nil)
	var pe *OutputParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected OutputParseError, got %v", err)
	}
	if pe.Sample != "not json" {
		t.Fatalf("unexpected sample: %q", pe.Sample)
	}
}

func TestInvokeEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "analysis.py", `exit 0`)

	r := NewRunner(dir, nil)
	out, err := r.Invoke(context.Background(), "analysis", nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	doc, ok := out.(map[string]interface{})
	if !ok || len(doc) != 0 {
		t.Fatalf("expected empty document, got %v", out)
	}
}

func TestInvokeTimeout(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "analysis.py", `sleep 5`)

	r := NewRunner(dir, nil, WithTimeout(100*time.Millisecond))
	_, err := r.Invoke(context.Background(), "analysis", nil)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestScriptOverride(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "custom.sh", `echo '[1,2]'`)

	r := NewRunner(dir, nil, WithScript("analysis", "custom.sh"))
	out, err := r.Invoke(context.Background(), "analysis", nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if arr, ok := out.([]interface{}); !ok || len(arr) != 2 {
		t.Fatalf("unexpected output: %v", out)
	}
}
