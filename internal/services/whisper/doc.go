// Package whisper uploads conditioned audio to an OpenAI-compatible
// speech-to-text endpoint and returns the transcript together with the
// language the service detected.
//
// The service sends a single multipart request to
// <base_url>/audio/transcriptions asking for verbose_json so the response
// carries the detected language and per-segment log probabilities, which feed
// the transcript confidence estimate. Uploads larger than the configured cap
// are rejected before any bytes leave the machine.
//
// The HTTP client is injectable (WithHTTPClient) so tests run against
// httptest servers without touching the network.
package whisper
