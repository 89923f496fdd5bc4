// Command podmill is the operator CLI for the podcast production pipeline.
//
// It runs the pipeline directly (process, publish), manages the shared work
// queue (add, queue), and inspects configuration and service health (status,
// config, notify). The long-running counterpart is cmd/podmilld, which
// watches the inbox and drains the same queue.
package main
