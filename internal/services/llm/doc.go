// Package llm provides an OpenRouter-compatible chat completion client.
//
// The translation pipeline uses it as the default external collaborator and
// the doctor command uses HealthCheck to verify credentials.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: system/user prompts with a JSON response format.
// Client.CompleteText: system/user prompts with free-form output.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, network timeouts, and replies
// with empty content, using exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Retry-After headers are honoured up to the max
// delay. Context cancellation aborts retries immediately.
//
// Failures are wrapped with services.ErrExternal, or services.ErrConfiguration
// when the client is missing an API key.
package llm
