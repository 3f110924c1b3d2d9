package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gomono"
)

func TestLoadBuiltin(t *testing.T) {
	for _, src := range []string{"builtin:gomono", "built-in:gomono"} {
		data, err := Load(src)
		if err != nil {
			t.Fatalf("Load(%q): %v", src, err)
		}
		if len(data) != len(gomono.TTF) {
			t.Fatalf("Load(%q) returned %d bytes", src, len(data))
		}
	}
	if _, err := Load("builtin:nope"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	if err := Check(gomono.TTF); err != nil {
		t.Fatalf("Go Mono should pass: %v", err)
	}
	if err := Check(goregular.TTF); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("proportional font should be rejected, got %v", err)
	}
	if err := Check([]byte("not a font")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("garbage should be rejected, got %v", err)
	}
}

func TestResolveFallsBackToBuiltin(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.ttf")
	if err := os.WriteFile(broken, []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := Resolve([]string{filepath.Join(dir, "missing.ttf"), broken, ""}, nil)
	if res != Builtin() {
		t.Fatalf("expected builtin fallback, got %+v", res)
	}
	if got := Resolve(nil, nil); got != Builtin() {
		t.Fatalf("empty chain should give builtin, got %+v", got)
	}
}

func TestResolvePicksFirstUsable(t *testing.T) {
	dir := t.TempDir()
	mono := filepath.Join(dir, "MyMono.ttf")
	if err := os.WriteFile(mono, gomono.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	res := Resolve([]string{filepath.Join(dir, "missing.ttf"), mono, BuiltinMono}, nil)
	if res.Src != mono || res.Name != "MyMono" {
		t.Fatalf("unexpected resource %+v", res)
	}
}
