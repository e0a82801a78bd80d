// Package renderer drives ffmpeg to assemble accepted stage outputs into the
// final video file.
package renderer
