// Package audit finalizes one tamper-evident record per generation
// attempt: which repair layers ran, the resolved outcome, and sanitized
// payloads under a hash-always, redact-above-threshold policy.
package audit
