// Package services defines shared utilities consumed by the extraction,
// translation, and archive components as well as the external model client.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, operation names, and chunk
//     positions for logging and tracing.
//   - Structured error markers plus the Wrap helper that let the CLI tell a
//     translation failure apart from a configuration or validation problem.
//
// Use these helpers when wiring new components so operational behaviour (error
// handling, observability) stays uniform across the toolkit.
package services
