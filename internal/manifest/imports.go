// imports.go implements top-level import extraction from the Entry Point
// File. The entry point's content is otherwise opaque to the launch
// contract; the only interpretation performed is collecting the module
// names it imports, so the build can verify every one of them resolves to
// a manifest entry before Docker is ever invoked.
//
// The scanner is deliberately line-based rather than a full Python parser:
// it recognizes the statement forms that appear at module scope in real
// dashboard scripts (import X, import X as Y, import X, Y, from X import ...)
// and ignores everything else. Imports constructed dynamically
// (importlib, __import__) are invisible to it, which matches the contract's
// "best effort at build time, authoritative failure at runtime" stance.
package manifest

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// importRegex matches "import a.b.c" and "import a, b as bb, c" statements.
var importRegex = regexp.MustCompile(`^\s*import\s+(.+)$`)

// fromImportRegex matches "from a.b import c" statements. Relative imports
// ("from . import x", "from .sibling import y") have a leading dot and are
// excluded by the character class.
var fromImportRegex = regexp.MustCompile(`^\s*from\s+([A-Za-z_][\w.]*)\s+import\b`)

// ScanImports reads a Python source file and returns the sorted, unique
// set of top-level module names it imports.
//
// "Top-level" means the first dotted segment: "matplotlib.pyplot" yields
// "matplotlib". Relative imports are skipped because they resolve within
// the application itself, not to an installable distribution.
//
// Returns a model.CLIError with ExitProjectNotFound if the file is missing.
func ScanImports(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitProjectNotFound,
				fmt.Sprintf("entry point file not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read entry point file %s: %w", path, err)
	}
	return ScanImportsBytes(data), nil
}

// ScanImportsBytes extracts top-level imported module names from Python
// source content. Split out from ScanImports for in-memory callers and
// tests.
func ScanImportsBytes(src []byte) []string {
	seen := make(map[string]bool)

	for _, line := range strings.Split(string(src), "\n") {
		// Strip a trailing "#" comment before matching. Import statements
		// carry no string operands, so any "#" on a line the regexes would
		// match starts a comment; without this, "import pandas  # note"
		// would fail the module-name check and be silently dropped.
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}

		// "from X import ..." — a single module reference.
		if m := fromImportRegex.FindStringSubmatch(line); m != nil {
			addModule(seen, m[1])
			continue
		}

		// "import X [as Y][, Z ...]" — possibly several references.
		m := importRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		for _, part := range strings.Split(m[1], ",") {
			part = strings.TrimSpace(part)
			// Drop "as alias" — the imported module is what matters.
			if idx := strings.Index(part, " as "); idx >= 0 {
				part = part[:idx]
			}
			part = strings.TrimSpace(part)
			if part == "" || !isModuleRef(part) {
				// Not an import statement after all (e.g. the word
				// "import" inside a string literal with trailing syntax
				// the regex caught). Skip rather than guess.
				continue
			}
			addModule(seen, part)
		}
	}

	modules := make([]string, 0, len(seen))
	for mod := range seen {
		modules = append(modules, mod)
	}
	sort.Strings(modules)
	return modules
}

// moduleRefRegex validates a dotted module reference.
var moduleRefRegex = regexp.MustCompile(`^[A-Za-z_][\w]*(\.[A-Za-z_][\w]*)*$`)

// isModuleRef reports whether s is a syntactically valid dotted module name.
func isModuleRef(s string) bool {
	return moduleRefRegex.MatchString(s)
}

// addModule records the top-level segment of a dotted module reference.
func addModule(seen map[string]bool, ref string) {
	top := ref
	if idx := strings.Index(ref, "."); idx >= 0 {
		top = ref[:idx]
	}
	if top != "" {
		seen[top] = true
	}
}
