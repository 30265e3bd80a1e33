package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "nodandknow"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRules constrains imports of one layer inside a context module.
// Prefixes in allowed and forbidden are relative to the module prefix when
// they start with "./" and absolute otherwise.
type layerRules struct {
	name      string
	forbidden []string
	allowed   []string
}

var rulesByLayer = map[string]layerRules{
	"domain": {
		name:      "domain",
		forbidden: []string{modulePath + "/internal"},
		allowed:   []string{"./domain"},
	},
	"application": {
		name:      "application",
		forbidden: []string{modulePath + "/internal/platform", modulePath + "/internal/app"},
		allowed:   []string{"./application", "./domain", "./ports", modulePath + "/internal/shared"},
	},
}

// main walks contexts/ and reports imports that cross a module boundary or
// pull infrastructure into the domain and application layers.
func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var out []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		slashed := filepath.ToSlash(path)
		parts := strings.Split(slashed, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}
		modulePrefix := strings.Join([]string{modulePath, "contexts", parts[1], parts[2]}, "/")
		out = append(out, checkFile(path, slashed, parts[3], modulePrefix)...)
		return nil
	})
	return out
}

func checkFile(path string, slashed string, layer string, modulePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: slashed, Line: 1, Rule: "file must parse"}}
	}

	rules, constrained := rulesByLayer[layer]
	var out []violation
	for _, spec := range file.Imports {
		importPath := strings.Trim(spec.Path.Value, `"`)
		report := func(rule string) {
			out = append(out, violation{
				File:   slashed,
				Line:   fset.Position(spec.Pos()).Line,
				Import: importPath,
				Rule:   rule,
			})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, modulePrefix) {
			report("cross-module imports are forbidden")
		}
		if !constrained {
			continue
		}
		if strings.Contains(importPath, "/adapters/") {
			report(rules.name + " must not import adapters")
		}
		if matchesAny(importPath, rules.forbidden, modulePrefix) {
			report(rules.name + " must not import runtime infrastructure")
		}
		if !isStdlib(importPath) && !matchesAny(importPath, rules.allowed, modulePrefix) {
			report(rules.name + " import is outside explicit allowlist")
		}
	}
	return out
}

func matchesAny(importPath string, prefixes []string, modulePrefix string) bool {
	for _, prefix := range prefixes {
		if rest, ok := strings.CutPrefix(prefix, "./"); ok {
			prefix = modulePrefix + "/" + rest
		}
		if hasPrefix(importPath, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isStdlib treats any import whose first element has no dot as standard
// library, except the module itself.
func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
