// Package social announces new episodes on X. The post text is the generated
// social copy when the content stage produced one, otherwise a deterministic
// announcement built from the title and summary. The episode page URL is
// appended when one can be derived from configuration, and the final text is
// hard-capped at the platform's 280-rune limit with the URL kept intact.
package social
