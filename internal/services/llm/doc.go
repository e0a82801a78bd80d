// Package llm provides the chat-completion client used by the generation
// stages.
//
// The client speaks the OpenRouter chat completions API (any OpenAI-compatible
// endpoint works via base_url). Stage executors supply a system prompt that
// pins the output schema and a user prompt built from the session inputs,
// prior stage outputs, and operator feedback; the response is decoded from
// JSON with tolerance for code fences and surrounding prose.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive the raw JSON payload.
// Client.GenerateInto: complete and decode into a typed value.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Context cancellation aborts retries immediately.
package llm
