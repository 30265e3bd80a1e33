package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
	domainerrors "nodandknow/contexts/live-session/session-engine/domain/errors"

	"gopkg.in/yaml.v3"
)

var defaultInfos = []string{
	"36% of Americans use a password manager.",
	"81% of data breaches are caused by weak or reused passwords.",
	"Only 10% of people use two-factor authentication on all accounts.",
	"Public WiFi can expose your data to attackers. Use a VPN for safety.",
	"Regularly updating software helps protect against security vulnerabilities.",
	"Back up your important files to avoid data loss from ransomware.",
	"Never share your login credentials, even with close friends.",
	"Think before you click: phishing emails can look very convincing.",
}

var defaultQuestions = []string{
	"Do you reuse the same password across multiple accounts?",
	"Have you enabled two-factor authentication on your main email?",
	"Do you use your fingerprint to unlock your phone?",
	"Would you click a link in an unexpected email from your bank?",
	"Do you regularly update your software when prompted?",
	"Would you connect to free public WiFi for online banking?",
	"Do you backup your important files regularly?",
	"Would you share your login credentials with a close friend?",
}

// Default returns the built-in security awareness catalog.
func Default() entities.Catalog {
	return entities.Catalog{
		Questions: append([]string(nil), defaultQuestions...),
		Infos:     append([]string(nil), defaultInfos...),
	}
}

type document struct {
	Questions []string `yaml:"questions"`
	Infos     []string `yaml:"infos"`
}

// Parse decodes a catalog document. Blank entries are dropped; both lists
// must end up non-empty.
func Parse(data []byte) (entities.Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return entities.Catalog{}, fmt.Errorf("catalog: document is empty: %w", domainerrors.ErrInvalidCatalog)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return entities.Catalog{}, fmt.Errorf("catalog: decode: %w", err)
	}
	out := entities.Catalog{
		Questions: normalize(doc.Questions),
		Infos:     normalize(doc.Infos),
	}
	if len(out.Questions) == 0 {
		return entities.Catalog{}, fmt.Errorf("catalog: no questions: %w", domainerrors.ErrInvalidCatalog)
	}
	if len(out.Infos) == 0 {
		return entities.Catalog{}, fmt.Errorf("catalog: no infos: %w", domainerrors.ErrInvalidCatalog)
	}
	return out, nil
}

// Load reads a catalog file. An empty path selects the built-in catalog.
func Load(path string) (entities.Catalog, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Default(), nil
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		return entities.Catalog{}, fmt.Errorf("catalog: stat %s: %w", trimmed, err)
	}
	if info.IsDir() {
		return entities.Catalog{}, fmt.Errorf("catalog: %s is a directory", trimmed)
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		return entities.Catalog{}, fmt.Errorf("catalog: read %s: %w", trimmed, err)
	}
	out, err := Parse(data)
	if err != nil {
		return entities.Catalog{}, fmt.Errorf("catalog: %s: %w", filepath.Clean(trimmed), err)
	}
	return out, nil
}

func normalize(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
