// Package preflight provides readiness checks for the external services
// and filesystem paths Podmill depends on.
//
// These checks run in two contexts:
//   - The daemon runs them once at startup and logs anything that fails,
//     so a misconfigured box is obvious before the first episode lands.
//   - The CLI "podmill status" command uses the same checks to display
//     service health.
//
// Each check is gated by its config toggle -- unconfigured features are
// skipped.
package preflight
