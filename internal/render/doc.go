// Package render compiles a decoded block map into semantic HTML.
//
// Rendering is a recursive descent over block ids. Sibling streams are
// grouped before dispatch: consecutive list items of the same kind share a
// <ul>/<ol> wrapper, and an image may absorb up to three trailing caption
// paragraphs. A per-call Context accumulates the plain text, image manifest,
// paragraph count and unsupported block types as a side effect.
//
// The output vocabulary uses feishu-* class names so that the embedded
// stylesheets and the sanitizer policy can target it.
package render
