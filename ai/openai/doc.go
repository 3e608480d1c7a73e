// Package openai implements the ai interfaces over OpenAI-compatible
// APIs via langchaingo. It works against the OpenAI API itself and
// against local servers speaking the same protocol (Ollama, LocalAI,
// vLLM).
package openai
