package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_CreateAndRead(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "fgmax_grids.data")

	var fsys FileSystem = OSFileSystem{}
	w, err := fsys.Create(name)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := io.WriteString(w, "1  # fgno\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if !fsys.Exists(name) {
		t.Fatal("Exists should be true after Create")
	}
	data, err := fsys.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "1  # fgno\n" {
		t.Errorf("ReadFile = %q", data)
	}
}

func TestOSFileSystem_MkdirAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "_output", "plots")
	fsys := OSFileSystem{}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	info, err := fsys.Stat(dir)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory")
	}
}

func TestMemoryFileSystem_SeedAndOpen(t *testing.T) {
	m := NewMemoryFileSystem().Seed(map[string]string{
		"_output/fgmax0001.txt": "1 2 3\n",
	})

	f, err := m.Open("_output/fgmax0001.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "1 2 3\n" {
		t.Errorf("read %q", data)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Name() != "fgmax0001.txt" || info.Size() != 6 {
		t.Errorf("info = %s/%d", info.Name(), info.Size())
	}

	if !m.Exists("_output") {
		t.Error("parent directory should exist after Seed")
	}
}

func TestMemoryFileSystem_OpenNonExistent(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.Open("missing.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
	_, err = m.ReadFile("missing.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist from ReadFile, got %v", err)
	}
	_, err = m.Stat("missing.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist from Stat, got %v", err)
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	m := NewMemoryFileSystem()
	w, err := m.Create("xy.txt")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte("       2\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Truncated but not yet flushed.
	data, _ := m.ReadFile("xy.txt")
	if len(data) != 0 {
		t.Errorf("expected empty file before Close, got %q", data)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, _ = m.ReadFile("xy.txt")
	if string(data) != "       2\n" {
		t.Errorf("after Close got %q", data)
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	m := NewMemoryFileSystem().Seed(map[string]string{"a.txt": "abc"})
	data, _ := m.ReadFile("a.txt")
	data[0] = 'X'
	again, _ := m.ReadFile("a.txt")
	if string(again) != "abc" {
		t.Errorf("stored data mutated through returned slice: %q", again)
	}
}

func TestMemoryFileSystem_StatDirAndNames(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.MkdirAll("out/plots", 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	info, err := m.Stat("out")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() || info.Mode()&fs.ModeDir == 0 {
		t.Error("expected out to be a directory")
	}

	m.Seed(map[string]string{"b.txt": "", "a.txt": ""})
	names := m.Names()
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Errorf("Names = %v", names)
	}
}

func TestCreateAll(t *testing.T) {
	m := NewMemoryFileSystem()
	w, err := CreateAll(m, "plots/fg1/h.png")
	if err != nil {
		t.Fatalf("CreateAll: %v", err)
	}
	w.Close()
	if !m.Exists("plots/fg1") {
		t.Error("CreateAll should create the parent directory")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		ref, name, want string
	}{
		{"run/fgmax_grids.data", "fgmax_pts.txt", filepath.Join("run", "fgmax_pts.txt")},
		{"fgmax_grids.data", "pts.txt", "pts.txt"},
		{"run/fgmax_grids.data", "/abs/pts.txt", "/abs/pts.txt"},
		{"run/fgmax_grids.data", "", ""},
	}
	for _, tt := range tests {
		if got := Resolve(tt.ref, tt.name); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.ref, tt.name, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	if _, ok := Default(nil).(OSFileSystem); !ok {
		t.Error("Default(nil) should be OSFileSystem")
	}
	m := NewMemoryFileSystem()
	if Default(m) != FileSystem(m) {
		t.Error("Default should return a non-nil argument unchanged")
	}
}
