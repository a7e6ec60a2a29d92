// Package main hosts the subforge CLI entrypoint and command graph.
//
// The Cobra command tree exposes the internal packages directly: extract
// salvages JSON from model output, srt converts between SRT and transcription
// JSON, translate drives the chunked translation orchestrator, archive manages
// saved work products, and doctor runs preflight checks. Configuration, .env
// loading, and logger construction are resolved once per invocation by the
// command context so subcommands stay declarative.
package main
