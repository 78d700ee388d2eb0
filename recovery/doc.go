// Package recovery escalates one generation attempt through three repair
// layers of increasing cost: the in-flight parse hook, direct schema
// coercion of the captured raw text, and an assisted repack on the
// cheapest credentialed model.
package recovery
