// Package textutil provides small text helpers shared across the pipeline:
// filesystem-safe name sanitization, URL slugs for episode identifiers, and
// rune-aware truncation for platform character limits.
package textutil
