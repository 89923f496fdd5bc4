// Package language normalizes language identifiers across the pipeline.
//
// Transcription services accept ISO 639-1 hints but report detected languages
// as English words ("english"), while show configuration uses BCP-47 tags
// ("en-US"). All conversions are consolidated here so transcription, content
// generation, and publishing agree on what language an episode is in.
package language
