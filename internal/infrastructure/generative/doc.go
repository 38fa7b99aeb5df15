// Package generative adapts the hosted AI services the studio relies on:
// OpenAI chat-vision and image generation, Google Gemini vision, and the
// Meshy image-to-3D job API.
package generative
