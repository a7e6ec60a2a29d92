// Package preflight provides readiness checks for the filesystem, the archive
// store, and the model provider.
//
// The CLI "subforge doctor" command runs RunAll and renders the results.
// Checks never return errors; failures are reported in Result.Detail.
package preflight
