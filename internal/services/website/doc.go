// Package website publishes episodes to the show's static site. When a
// content API endpoint is configured the episode payload is POSTed there;
// otherwise the configured deploy hook is triggered so the site rebuilds
// from its own content source. The episode page URL comes from the content
// API response when it provides one, falling back to the configured public
// base URL.
package website
