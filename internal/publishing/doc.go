// Package publishing fans an episode out to every enabled platform
// connector and reports per-platform results.
//
// The coordinator assembles an immutable EpisodeData snapshot (episode ID,
// content fields, show-level defaults), launches one goroutine per connector
// with a per-platform deadline, and always awaits all of them. Connector
// errors and panics become failed PlatformResults; a platform failure never
// fails the publish call itself. The only errors Publish returns are
// assembly/validation problems and the no-platforms-enabled configuration
// case.
//
// Platform membership comes exclusively from the [platforms] enabled list in
// the configuration. Connectors are never probed for availability.
package publishing
