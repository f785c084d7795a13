package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrDefaultEmptyPath(t *testing.T) {
	c, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault(\"\"): %v", err)
	}
	if len(c.PaymentMethods) == 0 || len(c.Grades) == 0 {
		t.Fatal("defaults should not be empty")
	}
	if !c.ValidMethod("cash") {
		t.Error("default catalog should accept cash")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "payment_methods:\n  - cash\n  - mobile wallet\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.PaymentMethods) != 2 {
		t.Fatalf("payment methods = %v", c.PaymentMethods)
	}
	if !c.ValidMethod("Mobile Wallet") {
		t.Error("method match should be case-insensitive")
	}
	if c.ValidMethod("card") {
		t.Error("card is not in the configured methods")
	}
	// grades section absent: falls back to defaults
	if len(c.Grades) == 0 {
		t.Error("grades should fall back to defaults")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("payment_methods: {not: [a list"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
