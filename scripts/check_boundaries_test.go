package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, root string, rel string, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestCollectViolations(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "contexts/live/engine/domain/services/ok.go", `package services

import (
	"time"

	"nodandknow/contexts/live/engine/domain/entities"
)
`)
	writeSource(t, root, "contexts/live/engine/domain/services/bad.go", `package services

import "nodandknow/contexts/live/engine/adapters/memory"
`)
	writeSource(t, root, "contexts/live/engine/application/commands/bad.go", `package commands

import (
	"github.com/google/uuid"
	"nodandknow/internal/platform/config"
	"nodandknow/contexts/other/service/ports"
)
`)
	writeSource(t, root, "contexts/live/engine/application/commands/ok.go", `package commands

import (
	"nodandknow/contexts/live/engine/ports"
	"nodandknow/internal/shared/events"
)
`)
	writeSource(t, root, "contexts/live/engine/application/commands/ignored_test.go", `package commands

import "nodandknow/contexts/live/engine/adapters/memory"
`)
	t.Chdir(root)

	violations := collectViolations("contexts")
	rules := make(map[string]int)
	for _, v := range violations {
		if strings.HasSuffix(v.File, "ok.go") {
			t.Fatalf("unexpected violation in clean file: %+v", v)
		}
		rules[v.Rule]++
	}
	for _, rule := range []string{
		"domain must not import adapters",
		"application must not import runtime infrastructure",
		"cross-module imports are forbidden",
		"application import is outside explicit allowlist",
	} {
		if rules[rule] == 0 {
			t.Fatalf("expected a %q violation, got %+v", rule, violations)
		}
	}
}

func TestIsStdlib(t *testing.T) {
	cases := map[string]bool{
		"context":                 true,
		"math/rand/v2":            true,
		"github.com/google/uuid":  false,
		"nodandknow/internal/app": false,
	}
	for path, want := range cases {
		if got := isStdlib(path); got != want {
			t.Fatalf("isStdlib(%q) = %v, want %v", path, got, want)
		}
	}
}
