package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	domainerrors "nodandknow/contexts/live-session/session-engine/domain/errors"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if len(c.Questions) != 8 || len(c.Infos) != 8 {
		t.Fatalf("expected 8 questions and 8 infos, got %d/%d", len(c.Questions), len(c.Infos))
	}
	c.Questions[0] = "changed"
	if Default().Questions[0] == "changed" {
		t.Fatalf("default catalog must be copied")
	}
}

func TestParseCatalog(t *testing.T) {
	c, err := Parse([]byte(`
questions:
  - "Do you lock your screen?"
  - "  "
  - "Do you use a password manager?"
infos:
  - "Screens left unlocked invite trouble."
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(c.Questions) != 2 || c.Questions[1] != "Do you use a password manager?" || len(c.Infos) != 1 {
		t.Fatalf("unexpected catalog %+v", c)
	}
}

func TestParseRejectsIncompleteCatalog(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"no questions": "infos: [a]\n",
		"no infos":     "questions: [a]\n",
	}
	for name, body := range cases {
		if _, err := Parse([]byte(body)); !errors.Is(err, domainerrors.ErrInvalidCatalog) {
			t.Fatalf("%s: expected invalid catalog, got %v", name, err)
		}
	}
	if _, err := Parse([]byte("questions: {")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadCatalog(t *testing.T) {
	c, err := Load("")
	if err != nil || len(c.Questions) != 8 {
		t.Fatalf("expected built-in catalog for empty path, got %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte("questions: [q]\ninfos: [i]\n"), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if c.Question(0) != "q" || c.Info(0) != "i" {
		t.Fatalf("unexpected catalog %+v", c)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected directory error")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}
