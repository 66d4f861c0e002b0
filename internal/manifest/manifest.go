// manifest.go implements parsing of pip requirements files (the Dependency
// Manifest of the launch contract). The parser understands the subset of
// the requirements format that matters for dependency verification:
// package names, extras, version constraints, environment markers,
// comments, blank lines, and backslash line continuations.
//
// Full pip resolution semantics (index options, editable installs, URL
// requirements) are out of scope: those lines are preserved as opaque
// directives so the manifest can still be staged verbatim into the image.
package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// Requirement represents a single package requirement parsed from the
// Dependency Manifest: a package-name-and-version-constraint pair.
type Requirement struct {
	// Name is the distribution name exactly as written in the manifest
	// (e.g. "PyYAML").
	Name string

	// Extras lists the optional feature groups requested in brackets,
	// e.g. "requests[security]" → ["security"].
	Extras []string

	// Constraint is the version constraint expression, if any
	// (e.g. "==1.30.0", ">=6.0,<7").
	Constraint string

	// Marker is the PEP 508 environment marker after ";", if any.
	Marker string

	// Line is the 1-based line number in the manifest file,
	// used for error reporting.
	Line int
}

// NormalizedName returns the PEP 503 normalized form of the requirement
// name: lowercase, with runs of "-", "_" and "." collapsed to a single "-".
// Two names that normalize equally refer to the same distribution.
func (r Requirement) NormalizedName() string {
	return NormalizeName(r.Name)
}

// String renders the requirement in the manifest's own syntax.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	b.WriteString(r.Constraint)
	if r.Marker != "" {
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}

// Manifest is the parsed Dependency Manifest: the ordered set of
// requirements plus any pip directives the parser treats as opaque.
// The manifest is read once at build time and never mutated at runtime.
type Manifest struct {
	// Path is the file the manifest was read from.
	Path string

	// Requirements holds the parsed package requirements in file order.
	Requirements []Requirement

	// Directives holds lines beginning with "-" (e.g. "-r base.txt",
	// "--index-url ..."). They are not interpreted, only retained.
	Directives []string
}

// normalizeRunRegex collapses runs of name separator characters for
// PEP 503 normalization.
var normalizeRunRegex = regexp.MustCompile(`[-_.]+`)

// NormalizeName applies PEP 503 name normalization: lowercase with all
// runs of "-", "_" and "." replaced by a single "-".
func NormalizeName(name string) string {
	return normalizeRunRegex.ReplaceAllString(strings.ToLower(name), "-")
}

// requirementRegex matches a requirement line after comment stripping:
// name, optional extras, optional constraint expression. The constraint
// is everything after the name/extras that is not a marker.
//
// Examples matched:
//
//	streamlit
//	streamlit==1.30.0
//	PyYAML >= 6.0, < 7
//	requests[security,socks]>=2.28
var requirementRegex = regexp.MustCompile(
	`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[([^\]]*)\])?\s*([^;]*)$`)

// Parse reads and parses a requirements file from disk.
//
// Returns a model.CLIError with ExitProjectNotFound if the file does not
// exist, and with ExitManifestInvalid if a line cannot be parsed. The
// launch contract treats manifest problems as build-time failures, so
// callers should abort the build on any error from here.
func Parse(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitProjectNotFound,
				fmt.Sprintf("dependency manifest not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read dependency manifest %s: %w", path, err)
	}

	m, err := ParseBytes(data)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// ParseBytes parses requirements file content. Split out from Parse so
// tests and in-memory callers do not need a file on disk.
func ParseBytes(data []byte) (*Manifest, error) {
	m := &Manifest{}

	// Fold backslash line continuations before splitting into lines.
	// pip joins "name==\n1.0" style continuations into one logical line.
	folded := strings.ReplaceAll(string(data), "\\\n", " ")
	folded = strings.ReplaceAll(folded, "\\\r\n", " ")

	for i, line := range strings.Split(folded, "\n") {
		lineNo := i + 1

		// Strip comments. A "#" starts a comment either at the beginning
		// of the line or when preceded by whitespace (pip's rule — a "#"
		// inside a URL fragment does not start a comment, but URL
		// requirements are opaque directives here anyway).
		if idx := strings.Index(line, "#"); idx >= 0 {
			if idx == 0 || line[idx-1] == ' ' || line[idx-1] == '\t' {
				line = line[:idx]
			}
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Option and include lines are pip directives; retain without
		// interpreting. Resolution semantics of the install tool are
		// explicitly out of scope for this contract.
		if strings.HasPrefix(line, "-") {
			m.Directives = append(m.Directives, line)
			continue
		}

		req, err := parseRequirementLine(line, lineNo)
		if err != nil {
			return nil, model.WrapCLIError(
				model.ExitManifestInvalid,
				fmt.Sprintf("invalid requirement on line %d", lineNo),
				err,
			)
		}
		m.Requirements = append(m.Requirements, *req)
	}

	return m, nil
}

// parseRequirementLine parses one logical requirement line into a
// Requirement. The line is already comment-stripped and trimmed.
func parseRequirementLine(line string, lineNo int) (*Requirement, error) {
	// Split off the environment marker first: "name>=1.0; python_version < '3.12'".
	spec := line
	marker := ""
	if idx := strings.Index(line, ";"); idx >= 0 {
		spec = strings.TrimSpace(line[:idx])
		marker = strings.TrimSpace(line[idx+1:])
	}

	matches := requirementRegex.FindStringSubmatch(spec)
	if matches == nil {
		return nil, fmt.Errorf("cannot parse requirement %q", line)
	}

	req := &Requirement{
		Name:       matches[1],
		Constraint: strings.TrimSpace(matches[4]),
		Marker:     marker,
		Line:       lineNo,
	}

	if matches[3] != "" {
		for _, extra := range strings.Split(matches[3], ",") {
			extra = strings.TrimSpace(extra)
			if extra != "" {
				req.Extras = append(req.Extras, extra)
			}
		}
	}

	// A constraint, if present, must start with a comparison operator.
	// Anything else (e.g. "streamlit 1.30") is a malformed line that pip
	// would also reject.
	if req.Constraint != "" && !validConstraintStart(req.Constraint) {
		return nil, fmt.Errorf("invalid version constraint %q for package %q", req.Constraint, req.Name)
	}

	return req, nil
}

// validConstraintStart reports whether the constraint expression begins
// with one of the PEP 440 comparison operators.
func validConstraintStart(constraint string) bool {
	for _, op := range []string{"==", "!=", "<=", ">=", "<", ">", "~=", "==="} {
		if strings.HasPrefix(constraint, op) {
			return true
		}
	}
	return false
}

// Has reports whether the manifest contains a distribution with the given
// name, compared under PEP 503 normalization.
func (m *Manifest) Has(name string) bool {
	want := NormalizeName(name)
	for _, req := range m.Requirements {
		if req.NormalizedName() == want {
			return true
		}
	}
	return false
}

// Names returns the normalized distribution names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Requirements))
	for _, req := range m.Requirements {
		names = append(names, req.NormalizedName())
	}
	return names
}
