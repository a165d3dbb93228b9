// Package blocks models the Feishu docx block tree.
//
// The docx API returns a document as a flat, paginated list of blocks. Each
// block carries its numeric type, its parent and child ids, and a payload
// stored under a type-specific key ("text", "heading2", "image", "table", ...).
//
// Decode turns one raw block into a Node whose Payload is a closed set of
// variants:
//
//	Text        rich-text container (paragraph, heading, list item, quote line)
//	Image       image token and alignment
//	Table       cell ids, grid size, merge info, column widths
//	Grid        side-by-side layout container
//	GridColumn  one column of a grid, with its width ratio
//	Callout     callout container with an emoji id
//	Code        code block with language and rich-text elements
//	Todo        checkbox item
//	File        attachment
//	Embed       sheet, bitable, mindnote, bookmark or link preview card
//	Iframe      embedded external page
//	Divider     horizontal rule
//	Unstructured anything else, with the raw fields kept in source order
//
// The variant is chosen once at decode time, in the same priority order the
// renderer dispatches on, so rendering never probes raw keys except for the
// Unstructured fallback.
//
// Map indexes decoded nodes by id. It is built once per extraction and never
// mutated afterwards.
package blocks
