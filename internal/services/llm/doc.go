// Package llm provides an OpenRouter chat client for LLM-backed generation.
//
// This package is used by:
//   - Content generation stage: produce episode titles, descriptions, and notes
//   - Preflight checks: verify API key and model availability before a run
//
// # Request Shape
//
// The client sends system/user prompts to a configured model with a JSON
// response format, so callers always receive a machine-parseable payload.
// Prompt text and result schemas live with the callers; this package only
// moves bytes and normalizes provider quirks.
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title, timeout.
// NewClientFrom adapts the shared [content] configuration section directly.
//
// # Entry Points
//
// NewClient: construct client from Config.
// NewClientFrom: construct client from config.LLMConfig.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: parse model output that may be fenced or prose-wrapped.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Retry-After headers are honored when present. Context cancellation aborts
// retries immediately.
//
// # Fallback
//
// If the LLM is unavailable or returns an error, callers should fall back to
// deterministic defaults rather than failing the workflow outright.
package llm
