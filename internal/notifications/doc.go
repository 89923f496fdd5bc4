// Package notifications delivers push notifications for pipeline milestones
// via ntfy.
//
// Components publish events with small string payloads; the service renders
// them into titled, tagged ntfy messages. Intermediate events are suppressed
// so only queue additions, completions, publishes, and failures reach the
// user's devices. Without a configured topic the service degrades to a noop.
package notifications
