// Package vision identifies concert artists and venues from media using a
// multimodal chat-completion model behind the OpenRouter API.
//
// Key types:
//   - Client: retrying HTTP client for image analysis requests
//   - Analysis: the fixed response schema with per-field confidences
//   - Context: capture metadata handed to the model alongside the images
//
// A model response that cannot be parsed never fails the caller: DecodeAnalysis
// degrades to a fully populated zero-confidence Analysis so downstream
// matching always receives a well-formed structure.
package vision
