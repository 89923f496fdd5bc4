// Package services provides the shared error taxonomy and context annotation
// helpers used by the pipeline stages and their external-service adapters.
package services
