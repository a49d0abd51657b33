package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOfIsDeterministic(t *testing.T) {
	a := Of([]byte("hello world"))
	b := Of([]byte("hello world"))
	if !a.Equal(b) {
		t.Fatal("expected equal digests for identical input")
	}
	c := Of([]byte("hello world!"))
	if a.Equal(c) {
		t.Fatal("expected different digests for different input")
	}
}

func TestOfFileHeadChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("version one"), 0o644); err != nil {
		t.Fatal(err)
	}
	d1, size1, err := OfFileHead(path)
	if err != nil {
		t.Fatal(err)
	}
	if size1 != int64(len("version one")) {
		t.Fatalf("size1 = %d, want %d", size1, len("version one"))
	}

	if err := os.WriteFile(path, []byte("version two, longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	d2, _, err := OfFileHead(path)
	if err != nil {
		t.Fatal(err)
	}
	if d1.Equal(d2) {
		t.Fatal("expected digest to change when file content changes")
	}
}
