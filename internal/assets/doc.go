// Package assets provides the stylesheets and the page template used to
// turn extracted document HTML into a standalone page.
//
// Every source is an FSLoader over an fs.FS laid out as
//
//	styles/{name}.css
//	templates/{name}.html
//
// NewEmbeddedLoader serves the copies compiled into the binary and
// NewDirLoader serves a directory on disk. An Overlay stacks a directory
// in front of the embedded copies so a custom tree only needs the files
// it changes.
//
// Names are validated before any lookup, and disk loaders refuse files
// that resolve outside their root through symlinks.
package assets
