// Package pipeline holds the post-render HTML stages applied to an
// extracted document:
//   - allow-list sanitization of the content fragment (bluemonday)
//   - image source rewriting once media has been downloaded
//   - wrapping the fragment into a standalone page
//   - CSS injection into that page
//
// Every stage takes and returns HTML strings so the stages compose in any
// order the caller needs.
package pipeline
