// Package stockmedia wraps a Pexels-compatible stock footage and photo API.
// The visuals stage queries it with scene keywords and records the matched
// asset URLs in the stage output.
package stockmedia
