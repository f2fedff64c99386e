package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kgviz/pkg/render"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    render.Format
		wantErr bool
	}{
		{"svg", render.FormatSVG, false},
		{"PNG", render.FormatPNG, false},
		{"dot", render.FormatDOT, false},
		{"pdf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderCommandFromFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	input := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(input, []byte(`{"nodes": [], "links": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "graph.dot")

	root := New(io.Discard, log.InfoLevel).RootCommand()
	root.SetArgs([]string{"render", "--input", input, "--format", "dot", "--no-cache", "-o", output})
	if err := root.Execute(); err != nil {
		t.Fatalf("render error: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("output is not DOT:\n%s", data)
	}
}

func TestRenderCommandRejectsUnknownEngine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := New(io.Discard, log.InfoLevel).RootCommand()
	root.SetArgs([]string{"render", "--engine", "dot", "-o", filepath.Join(t.TempDir(), "x.svg")})
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Error("render --engine dot should fail")
	}
}

func TestRenderCommandMissingInput(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := New(io.Discard, log.InfoLevel).RootCommand()
	root.SetArgs([]string{"render", "--input", filepath.Join(t.TempDir(), "nope.json"), "--format", "dot"})
	root.SetErr(io.Discard)
	err := root.Execute()
	if err == nil {
		t.Fatal("render with missing input should fail")
	}
	if !Reported(err) {
		t.Errorf("error %v should be marked as reported", err)
	}
}
