package labels

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLabels(t *testing.T) {
	d := NewDefault(0)
	tests := []struct {
		got, want string
	}{
		{d.X(1), "1 sat/vB"},
		{d.X(2.5), "2.5 sat/vB"},
		{d.Y(0), "0 kB"},
		{d.Y(3), "150 kB"},
		{NewDefault(100).Y(2), "200 kB"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestLuaLabels(t *testing.T) {
	code := `
function x_label(v) return "fee " .. v end
function y_label(v)
  if v > 5 then error("too big") end
  return v * 10
end
`
	l, err := LoadLuaString("test", code, NewDefault(50), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer l.Close()

	if got := l.X(3); got != "fee 3" {
		t.Errorf("X(3) = %q", got)
	}
	if got := l.Y(2); got != "20" {
		t.Errorf("Y(2) = %q", got)
	}
	// Runtime error falls back to the default label
	if got := l.Y(6); got != "300 kB" {
		t.Errorf("Y(6) = %q, want fallback", got)
	}
	// Cached result survives closing the state
	l.Close()
	if got := l.X(3); got != "fee 3" {
		t.Errorf("cached X(3) = %q", got)
	}
	if got := l.X(4); got != "4 sat/vB" {
		t.Errorf("X(4) after close = %q, want fallback", got)
	}
}

func TestLuaMissingFunctionsFallBack(t *testing.T) {
	l, err := LoadLuaString("empty", `local unused = 1`, NewDefault(10), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer l.Close()

	if got := l.X(1); got != "1 sat/vB" {
		t.Errorf("X(1) = %q", got)
	}
	if got := l.Y(1); got != "10 kB" {
		t.Errorf("Y(1) = %q", got)
	}
}

func TestLoadLuaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.lua")
	if err := os.WriteFile(path, []byte(`function x_label(v) return v .. "!" end`), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := LoadLua(path, nil, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer l.Close()
	if got := l.X(7); got != "7!" {
		t.Errorf("X(7) = %q", got)
	}
}

func TestLoadLuaSyntaxError(t *testing.T) {
	if _, err := LoadLuaString("bad", `function x_label(`, nil, nil); err == nil {
		t.Fatal("expected syntax error")
	}
	if _, err := LoadLua(filepath.Join(t.TempDir(), "missing.lua"), nil, nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
