// Package anthropic is a minimal client for the Anthropic Messages API,
// covering exactly what the game loop needs: multimodal user messages
// (base64 screenshots plus a text prompt), optional extended thinking,
// optional server-side web search, and a typed error taxonomy that
// separates fatal failures (bad credential, exhausted quota) from
// transient ones (rate limit, overload).
//
// The package deliberately speaks the wire format directly. The game loop's
// failure handling keys on the error.type discriminator in the response
// body, and its prompts carry raw PNG image blocks; both sit below the
// abstraction level of general-purpose LLM wrappers.
package anthropic
