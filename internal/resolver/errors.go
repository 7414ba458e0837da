package resolver

import (
	"strings"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// newConflictError builds a CodeConflict error carrying the constraints and
// requiring paths it is given. The solver passes the failing goal's own
// constraint and requiring path; no minimal inconsistent set across all
// requirers is computed.
func newConflictError(id string, constraints []string, requiringPaths [][]string) error {
	err := phalanxerrors.New(phalanxerrors.CodeConflict, "no candidate of "+id+" satisfies all requirers")
	err = phalanxerrors.WithContext(err, "package", id)
	err = phalanxerrors.WithContext(err, "constraints", constraints)

	paths := make([]string, 0, len(requiringPaths))
	for _, p := range requiringPaths {
		paths = append(paths, strings.Join(p, " -> "))
	}
	err = phalanxerrors.WithContext(err, "requiring_paths", paths)
	return err
}

// newCancelledError builds a CodeResolveCancelled error carrying the open
// goal stack at the point the timeout was hit.
func newCancelledError(reason string, goalStack []string) error {
	err := phalanxerrors.New(phalanxerrors.CodeResolveCancelled, "resolution cancelled: "+reason)
	return phalanxerrors.WithContext(err, "goal_stack", goalStack)
}

// newNotFoundError wraps a registry miss for id with the requiring path.
func newNotFoundError(id string, requiringPath []string) error {
	err := phalanxerrors.New(phalanxerrors.CodePackageNotFound, "package not found: "+id)
	return phalanxerrors.WithContext(err, "requiring_path", strings.Join(requiringPath, " -> "))
}
