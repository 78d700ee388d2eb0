// Package llm specifies the boundary to the model-invocation
// collaborator: the invoker interface, the in-flight repair hook, and
// explicit provider credentials with cost-ordered repack model selection.
package llm
