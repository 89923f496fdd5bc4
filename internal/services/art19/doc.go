// Package art19 publishes episodes to the Art19 podcast host through its
// JSON:API. The flow is three requests: register an audio upload to receive
// a presigned URL, push the file bytes there, then create the episode with
// the upload and series references. When auto_publish is configured a final
// PATCH flips the episode live.
package art19
