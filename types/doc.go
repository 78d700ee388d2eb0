// Package types defines the shared error taxonomy and outcome
// classification used across the generation resilience pipeline.
package types
