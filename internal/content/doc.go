// Package content generates episode marketing copy from a transcript.
//
// The generator issues a single JSON chat completion against the configured
// LLM and decodes the payload into an Episode (title, description, show
// notes, summary, social posts). When no LLM is configured or the call
// fails, it degrades to deterministic transcript-derived fallback content
// and marks the Episode with Fallback=true so downstream consumers can see
// the degradation instead of mistaking it for genuine model output.
//
// The only hard failure is an empty transcript; everything else produces
// usable content one way or the other.
package content
