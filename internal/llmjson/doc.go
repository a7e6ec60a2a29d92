// Package llmjson salvages a single JSON value from free-form model output.
//
// Models wrap JSON in prose, markdown fences, or emit slightly broken escapes.
// The Extractor runs an ordered cascade of attempts, cheapest and most likely
// first, and stops at the first one that yields valid JSON:
//
//  1. fenced     - contents of ``` fenced blocks (optional language tag)
//  2. bracket    - first '{' or '[' through the LAST matching closer
//  3. sanitized  - the bracket candidate with raw control characters inside
//     strings re-escaped and \' unescaped
//  4. prefix     - the first complete value at the start of the bracket
//     candidate, ignoring whatever trails it (only with AllowTrailing)
//  5. verbatim   - the whole trimmed input
//
// No attempt panics or returns an error; total failure is reported as
// ok=false (or ErrNoJSON from Decode) and logged with a bounded snippet.
//
// The bracket step is greedy by default for compatibility with chatty model
// output. ModeBalanced swaps it for a string-aware bracket matcher that stops
// at the closer matching the first opener.
package llmjson
