package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rulekeybuilder/internal/config"
)

const simpleDoc = `{
	"target": "//pkg:lib",
	"rules": {
		"//pkg:lib": {
			"namespace": "pkg",
			"name": "lib",
			"inputs": [
				{"name": "name", "value": {"type": "string", "string": "lib"}},
				{"name": "count", "value": {"type": "int", "int": 3}}
			]
		}
	}
}`

func writeDoc(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func captureStdoutCommand(t *testing.T, f func() error) (string, error) {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := f()

	w.Close()
	os.Stdout = old

	buf := make([]byte, 64*1024)
	n, _ := r.Read(buf)
	return string(buf[:n]), err
}

func TestKeyPrintsDigestForValidDocument(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "rule.json", simpleDoc)

	out, err := captureStdoutCommand(t, func() error {
		return Key([]string{"--workspace", dir, docPath}, &config.Config{})
	})
	if err != nil {
		t.Fatalf("Key() error: %v", err)
	}
	if !strings.Contains(out, "//pkg:lib") {
		t.Errorf("expected target name in output, got %q", out)
	}
	fields := strings.Fields(out)
	if len(fields) == 0 || len(fields[0]) != 40 {
		t.Errorf("expected a 40-char hex digest, got %q", out)
	}
}

func TestKeyRejectsWrongArgCount(t *testing.T) {
	if err := Key([]string{}, &config.Config{}); err == nil {
		t.Fatal("expected an error with no rule document argument")
	}
	if err := Key([]string{"a.json", "b.json"}, &config.Config{}); err == nil {
		t.Fatal("expected an error with two rule document arguments")
	}
}

func TestKeyJSONFormat(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "rule.json", simpleDoc)

	out, err := captureStdoutCommand(t, func() error {
		return Key([]string{"--workspace", dir, "--format", "json", docPath}, &config.Config{})
	})
	if err != nil {
		t.Fatalf("Key() error: %v", err)
	}
	if !strings.Contains(out, `"target"`) || !strings.Contains(out, `"rule_key"`) {
		t.Errorf("expected JSON output with target/rule_key keys, got %q", out)
	}
}

func TestVerifyMatchesIdenticalDocuments(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.json", simpleDoc)
	b := writeDoc(t, dir, "b.json", simpleDoc)

	out, err := captureStdoutCommand(t, func() error {
		return Verify([]string{"--workspace", dir, a, b}, &config.Config{})
	})
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if !strings.Contains(out, "MATCH") {
		t.Errorf("expected MATCH in output, got %q", out)
	}
}

func TestVerifyRejectsDifferingDocuments(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.json", simpleDoc)
	other := `{
		"target": "//pkg:lib",
		"rules": {
			"//pkg:lib": {
				"namespace": "pkg",
				"name": "lib",
				"inputs": [
					{"name": "name", "value": {"type": "string", "string": "lib"}},
					{"name": "count", "value": {"type": "int", "int": 4}}
				]
			}
		}
	}`
	b := writeDoc(t, dir, "b.json", other)

	_, err := captureStdoutCommand(t, func() error {
		return Verify([]string{"--workspace", dir, a, b}, &config.Config{})
	})
	if err == nil {
		t.Fatal("expected an error when rule keys differ")
	}
}

func TestVerifyExpectMode(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "rule.json", simpleDoc)

	out, err := captureStdoutCommand(t, func() error {
		return Key([]string{"--workspace", dir, docPath}, &config.Config{})
	})
	if err != nil {
		t.Fatalf("Key() error: %v", err)
	}
	digest := strings.Fields(out)[0]

	_, err = captureStdoutCommand(t, func() error {
		return Verify([]string{"--workspace", dir, "--expect", digest, docPath}, &config.Config{})
	})
	if err != nil {
		t.Fatalf("Verify() with matching --expect should succeed: %v", err)
	}

	_, err = captureStdoutCommand(t, func() error {
		return Verify([]string{"--workspace", dir, "--expect", strings.Repeat("0", 40), docPath}, &config.Config{})
	})
	if err == nil {
		t.Fatal("expected an error for a mismatched --expect digest")
	}
}

func TestInspectPrintsDigest(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "rule.json", simpleDoc)

	out, err := captureStdoutCommand(t, func() error {
		return Inspect([]string{"--workspace", dir, docPath}, &config.Config{})
	})
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if !strings.Contains(out, "//pkg:lib") {
		t.Errorf("expected target name in output, got %q", out)
	}
}
