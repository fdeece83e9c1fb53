// Package preflight provides readiness checks for the filesystem paths,
// capture hardware, and backend services that Hriday depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs any failures so a
//     misconfigured install is visible before the first session.
//   - The CLI "hriday status" command uses individual check functions
//     (CheckBackend, CheckCaptureDevices) to display readiness.
//
// Failures are advisory. A missing camera must not block upload-only use,
// so callers report the results rather than abort on them.
package preflight
