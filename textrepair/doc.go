// Package textrepair sanitizes malformed JSON text returned by
// generative-AI providers: unescaped content quotes, markdown fences,
// and single-key wrapper envelopes around the intended payload.
package textrepair
