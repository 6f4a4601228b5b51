package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_GeneratesFileFromValidXML(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "generated.go")
	var stderr bytes.Buffer

	code := run([]string{
		"-in", "../../internal/dialect/testdata/fixture.xml",
		"-out", out,
		"-package", "fixture",
	}, &stderr)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr.String())
	}
	src, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(src), "package fixture") {
		t.Fatalf("expected generated package clause, got:\n%s", src)
	}
	if !strings.Contains(string(src), "FixturePingMessage") {
		t.Fatalf("expected FixturePingMessage type, got:\n%s", src)
	}
}

func TestRun_MissingXMLExitsNonZero(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{
		"-in", filepath.Join(t.TempDir(), "does-not-exist.xml"),
		"-out", filepath.Join(t.TempDir(), "out.go"),
		"-package", "whatever",
	}, &stderr)
	if code == 0 {
		t.Fatalf("expected non-zero exit code for missing input")
	}
}

func TestRun_MalformedXMLExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.xml")
	if err := os.WriteFile(in, []byte("<mavlink><messages><message></mavlink>"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	var stderr bytes.Buffer
	code := run([]string{
		"-in", in,
		"-out", filepath.Join(dir, "out.go"),
		"-package", "whatever",
	}, &stderr)
	if code == 0 {
		t.Fatalf("expected non-zero exit code for malformed XML")
	}
}

func TestRun_MissingFlagsExitsTwo(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"-in", "x.xml"}, &stderr)
	if code != 2 {
		t.Fatalf("expected exit code 2 for missing required flags, got %d", code)
	}
}
