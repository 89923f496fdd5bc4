// Package media conditions raw episode audio with ffmpeg.
//
// The Processor probes the input with ffprobe, then runs a single ffmpeg
// pass that trims leading/trailing silence, normalizes loudness, conforms
// sample rate and channel count to the configured targets, and optionally
// concatenates intro/outro stingers. Output is a PCM WAV in the staging
// directory, described by a ProcessedAudio value.
//
// Both the ffmpeg invocation and the ffprobe call are injectable for tests
// (WithCommandRunner, WithProber), mirroring how the transcription side
// stubs its external processes.
package media
