// Package tts wraps an ElevenLabs-compatible text-to-speech API. The tts
// stage feeds it the accepted narration script and stores the resulting
// audio in the session work directory.
package tts
