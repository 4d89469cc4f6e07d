package adapter

import (
	"errors"
	"testing"

	"vdir/internal/entry"
	apperrors "vdir/internal/errors"
	"vdir/internal/url"
)

// stubAdapter is the minimal Adapter used by registry tests.
type stubAdapter struct {
	scheme string
}

func (s stubAdapter) Scheme() string                           { return s.scheme }
func (s stubAdapter) List(path string) ([]entry.Entry, error)  { return nil, nil }
func (s stubAdapter) IsModifiable(u url.URL) bool              { return true }
func (s stubAdapter) Column(name string) *entry.Column         { return nil }
func (s stubAdapter) NormalizeURL(path string) (string, error) { return path, nil }
func (s stubAdapter) ReadFile(path string) ([]byte, error)     { return nil, nil }
func (s stubAdapter) WriteFile(path string, data []byte) error { return nil }

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	local := stubAdapter{scheme: "file"}
	if err := r.Register(local); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	a, canonical, ok := r.Get("file")
	if !ok || canonical != "file" {
		t.Fatalf("Get(file) = %v/%q/%v", a, canonical, ok)
	}

	if _, _, ok := r.Get("gopher"); ok {
		t.Error("Get of an unregistered scheme should report ok=false")
	}
}

func TestRegistryAliasTransparency(t *testing.T) {
	r := NewRegistry()
	arch := stubAdapter{scheme: "archive"}
	if err := r.Register(arch); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Alias("zip", "archive"); err != nil {
		t.Fatalf("Alias failed: %v", err)
	}
	if err := r.Alias("tar", "zip"); err != nil {
		t.Fatalf("chained Alias failed: %v", err)
	}

	direct, directScheme, _ := r.Get("archive")
	viaAlias, aliasScheme, ok := r.Get("tar")
	if !ok {
		t.Fatal("Get through alias chain failed")
	}
	if directScheme != aliasScheme {
		t.Errorf("canonical scheme mismatch: %q vs %q", directScheme, aliasScheme)
	}
	if direct != viaAlias {
		t.Error("alias resolution must yield the identical adapter")
	}
}

func TestRegistryRejectsAliasCycles(t *testing.T) {
	r := NewRegistry()

	if err := r.Alias("a", "a"); err == nil {
		t.Error("self alias must be rejected")
	}

	if err := r.Alias("a", "b"); err != nil {
		t.Fatalf("Alias(a,b) failed: %v", err)
	}
	if err := r.Alias("b", "a"); err == nil {
		t.Error("two-step alias cycle must be rejected")
	}

	if err := r.Alias("b", "c"); err != nil {
		t.Fatalf("Alias(b,c) failed: %v", err)
	}
	if err := r.Alias("c", "a"); err == nil {
		t.Error("three-step alias cycle must be rejected")
	}

	var appErr *apperrors.AppError
	err := r.Alias("x", "x")
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeConfig {
		t.Errorf("cycle rejection should be a config error, got %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubAdapter{scheme: "file"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(stubAdapter{scheme: "file"}); err == nil {
		t.Error("duplicate Register must fail")
	}
	if err := r.Alias("file", "other"); err == nil {
		t.Error("aliasing over a registered scheme must fail")
	}
}
