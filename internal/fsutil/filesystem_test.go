package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOSFileSystem_ReadFileLimited(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preds.json")
	if err := os.WriteFile(path, []byte(`{"predictions":[]}`), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	data, err := ReadFileLimited(OSFileSystem{}, path, 1024)
	if err != nil {
		t.Fatalf("ReadFileLimited: %v", err)
	}
	if string(data) != `{"predictions":[]}` {
		t.Errorf("unexpected contents %q", data)
	}

	if _, err := ReadFileLimited(OSFileSystem{}, path, 4); err == nil {
		t.Error("expected size limit error")
	} else if !strings.Contains(err.Error(), "too large") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReadFileLimited_Missing(t *testing.T) {
	m := NewMemoryFileSystem()
	if _, err := ReadFileLimited(m, "nope.json", 10); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadFileLimited_Directory(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.MkdirAll("a/b", 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFileLimited(m, "a", 10); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestMemoryFileSystem_CreateWithDirs(t *testing.T) {
	m := NewMemoryFileSystem()
	w, err := CreateWithDirs(m, "out/reports/run.json")
	if err != nil {
		t.Fatalf("CreateWithDirs: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := m.Stat("out/reports")
	if err != nil || !info.IsDir() {
		t.Fatalf("expected out/reports directory, got %v %v", info, err)
	}
	data, err := m.ReadFile("out/reports/run.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q, want hello", data)
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	m := NewMemoryFileSystem()
	src := []byte("abc")
	m.Put("./x.json", src)
	src[0] = 'z'

	got, err := m.ReadFile("x.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abc" {
		t.Errorf("stored data mutated: %q", got)
	}
	got[0] = 'q'
	again, _ := m.ReadFile("x.json")
	if string(again) != "abc" {
		t.Errorf("returned data aliases storage: %q", again)
	}
}
