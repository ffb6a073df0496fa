package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "obs.txt")
	if err := os.WriteFile(path, []byte("pneu furado\n\n  trocado no campo  \n"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		value string
		stdin string
		want  string
	}{
		{"literal", "abastecido", "", "abastecido"},
		{"at sign alone is literal", "@", "", "@"},
		{"stdin", "-", "linha 1\n\nlinha 2\n", "linha 1\nlinha 2"},
		{"file", "@" + path, "", "pneu furado\ntrocado no campo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandText(tt.value, strings.NewReader(tt.stdin))
			if err != nil {
				t.Fatalf("ExpandText: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandTextMissingFile(t *testing.T) {
	if _, err := ExpandText("@"+filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadSource(t *testing.T) {
	got, err := ReadSource("-", strings.NewReader(`{"type":"Polygon"}`))
	if err != nil || string(got) != `{"type":"Polygon"}` {
		t.Fatalf("stdin: %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "area.geojson")
	os.WriteFile(path, []byte(`{}`), 0644)
	got, err = ReadSource(path, nil)
	if err != nil || string(got) != `{}` {
		t.Fatalf("file: %q, %v", got, err)
	}
}

func TestReadLinesFromReader(t *testing.T) {
	lines := ReadLinesFromReader(strings.NewReader("a\n\n  b  \n"))
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("lines = %q", lines)
	}
}
