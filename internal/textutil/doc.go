// Package textutil provides small text helpers shared by the CLI and the
// model-facing components.
//
// The primary use cases are:
//   - Bounded, single-line snippets of model output for diagnostics
//   - Normalising free-form language labels ("French", "pt_br") to BCP 47 tags
//   - Naming exported archive entries and translated subtitle files
package textutil
