// Package docker provides Docker Engine API wrappers and container
// lifecycle management for the dashboard-container CLI.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Container label management for persisting app instance metadata
//     (Docker labels are the sole state storage mechanism)
//   - Image operations: build (via the docker CLI), existence check,
//     removal
//   - Container lifecycle operations: create+start, list, stop, remove,
//     inspect
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
// The image build shells out to the docker CLI instead, because BuildKit
// progress output and build-context handling come for free there.
package docker
