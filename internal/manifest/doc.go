// Package manifest handles the Dependency Manifest (pip requirements
// file) side of the launch contract.
//
// Responsibilities:
//   - Parse requirements.txt into typed Requirement entries (name, extras,
//     version constraint, environment marker), preserving pip directives
//     as opaque lines.
//   - Scan the Entry Point File for top-level imports.
//   - Verify the build-time invariant: every imported third-party module
//     must resolve to a manifest entry. Absence is a build-time failure,
//     not a runtime one.
//
// The package deliberately does NOT implement pip's resolution semantics
// (version solving, index access); those belong to the install tool that
// runs inside the image build.
package manifest
