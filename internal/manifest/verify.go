// verify.go implements the manifest invariant of the launch contract:
// every module imported by the Entry Point File must be present and
// resolvable in the Dependency Manifest. A violation is a build-time
// failure — the build aborts before the container image build starts,
// which surfaces the problem minutes earlier than a pip failure inside
// the image build would.
package manifest

import (
	"fmt"
	"strings"
)

// moduleAliases maps Python import module names to the distribution names
// they are installed from, for the cases where the two differ. Modules not
// in this table are assumed to match their distribution under PEP 503
// normalization (e.g. import "requests" ↔ distribution "requests").
var moduleAliases = map[string]string{
	"yaml":          "pyyaml",
	"PIL":           "pillow",
	"cv2":           "opencv-python",
	"sklearn":       "scikit-learn",
	"bs4":           "beautifulsoup4",
	"dotenv":        "python-dotenv",
	"dateutil":      "python-dateutil",
	"jwt":           "pyjwt",
	"serial":        "pyserial",
	"git":           "gitpython",
	"docker":        "docker",
	"fitz":          "pymupdf",
	"OpenSSL":       "pyopenssl",
	"websocket":     "websocket-client",
	"attr":          "attrs",
	"pkg_resources": "setuptools",
}

// DistributionForModule returns the distribution name (normalized) that
// provides the given imported module, applying the known alias table and
// falling back to the normalized module name itself.
func DistributionForModule(module string) string {
	if dist, ok := moduleAliases[module]; ok {
		return NormalizeName(dist)
	}
	return NormalizeName(module)
}

// MissingDependency describes one entry point import that has no matching
// manifest entry.
type MissingDependency struct {
	// Module is the imported module name as written in the entry point.
	Module string

	// Distribution is the (normalized) distribution name the module was
	// expected to resolve to.
	Distribution string
}

// String renders the missing dependency for error output.
func (m MissingDependency) String() string {
	if m.Distribution != NormalizeName(m.Module) {
		return fmt.Sprintf("%s (provided by %q)", m.Module, m.Distribution)
	}
	return m.Module
}

// Verify checks the entry point's imports against the Dependency Manifest
// and returns the imports that have no matching manifest entry.
//
// Standard-library modules are excluded: they ship with the base runtime
// and are never listed in a pip manifest. Modules whose name matches the
// entry point's own package structure cannot be distinguished from
// third-party ones by a line scanner, so local single-file apps should
// keep all their code in the entry point (which is the shape this
// contract packages anyway).
//
// A nil/empty result means the invariant holds.
func Verify(m *Manifest, imports []string) []MissingDependency {
	var missing []MissingDependency

	for _, mod := range imports {
		if IsStdlibModule(mod) {
			continue
		}

		dist := DistributionForModule(mod)
		if !m.Has(dist) {
			missing = append(missing, MissingDependency{
				Module:       mod,
				Distribution: dist,
			})
		}
	}

	return missing
}

// FormatMissing renders a list of missing dependencies as a single
// human-readable string for error messages.
func FormatMissing(missing []MissingDependency) string {
	parts := make([]string, 0, len(missing))
	for _, m := range missing {
		parts = append(parts, m.String())
	}
	return strings.Join(parts, ", ")
}
