// Package stages implements the pipeline stage executors: scene planning and
// script writing over the LLM, stock media matching for visuals, overlay
// design, narration synthesis, and final video assembly.
package stages
