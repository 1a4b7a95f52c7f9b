package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "inputs.txt")
	content := "# inputs\na.json\n\n  b.json  \na.json\n/abs/c.json\n"
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(list)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	want := []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json"), "/abs/c.json"}
	if len(paths) != len(want) {
		t.Fatalf("expected %d paths, got %v", len(want), paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path %d: expected %s, got %s", i, want[i], paths[i])
		}
	}

	if _, err := ReadPathsFromFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing list file")
	}
}

func TestProcessFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("fail"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.json")

	results := ProcessFiles(context.Background(), 2, []string{good, bad, missing},
		func(_ context.Context, data []byte) (string, error) {
			if string(data) == "fail" {
				return "", errors.New("bad input")
			}
			return strings.ToUpper(string(data)), nil
		})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Path != good || results[0].Value != "HELLO" || results[0].Error != nil {
		t.Errorf("unexpected result for good input: %+v", results[0])
	}
	if results[1].Error == nil {
		t.Error("expected error for bad input")
	}
	if results[2].Error == nil || !strings.Contains(results[2].Error.Error(), "read input") {
		t.Errorf("expected read error for missing input, got %v", results[2].Error)
	}
}
