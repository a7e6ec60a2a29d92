// Package translation translates subtitle segments in bounded, sequential
// chunks.
//
// The Orchestrator owns chunking, progress, and the timing invariant: output
// segments always carry the input StartTime/EndTime at the same index. The
// per-chunk work is delegated to a Translator; LLMTranslator is the default
// implementation backed by the chat completion client.
//
// Chunks run one at a time. A failed or short chunk aborts the batch and no
// partial result is returned. Cancellation is observed between chunks, so an
// in-flight chunk always finishes first.
package translation
