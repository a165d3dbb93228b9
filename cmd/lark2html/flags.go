package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// errHelpShown reports that -h/--help printed usage; the command exits 0.
var errHelpShown = errors.New("help shown")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds flags that shape the produced HTML.
type renderFlags struct {
	noStandalone   bool
	inlineImages   bool
	sanitize       bool
	highlight      bool
	highlightStyle string
}

// assetFlags holds stylesheet flags.
type assetFlags struct {
	style     string // Name, CSS file path, or inline CSS
	assetPath string // Override asset directory
}

// extractFlags holds all flags for the extract command.
type extractFlags struct {
	common  commonFlags
	output  string
	format  string
	workers int
	timeout string
	render  renderFlags
	assets  assetFlags
}

// mediaFlags holds flags for the media command.
type mediaFlags struct {
	common  commonFlags
	output  string
	timeout string
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common  commonFlags
	addr    string
	timeout string
	render  renderFlags
	assets  assetFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing and logs")
}

// addRenderFlags adds HTML shaping flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.BoolVar(&f.noStandalone, "no-standalone", false, "emit the content fragment instead of a full HTML page")
	fs.BoolVar(&f.inlineImages, "inline-images", false, "download images and embed them as data URLs")
	fs.BoolVar(&f.sanitize, "sanitize", false, "run the allow-list sanitizer over the content")
	fs.BoolVar(&f.highlight, "highlight", false, "syntax-highlight code blocks")
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "chroma style for --highlight (default: github)")
}

// addAssetFlags adds stylesheet flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "CSS style name, file path, or inline CSS")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// buildExtractFlagSet registers the extract flags into f.
func buildExtractFlagSet(f *extractFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: stdout for a single URL)")
	fs.StringVarP(&f.format, "format", "f", "", "output format: html, json, text")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel extractions (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-document timeout (e.g., 30s, 2m)")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addAssetFlags(fs, &f.assets)

	return fs
}

// buildMediaFlagSet registers the media flags into f.
func buildMediaFlagSet(f *mediaFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("media", flag.ContinueOnError)
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "download timeout (e.g., 30s, 2m)")
	addCommonFlags(fs, &f.common)
	return fs
}

// buildServeFlagSet registers the serve flags into f.
func buildServeFlagSet(f *serveFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default: 127.0.0.1:8080)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-request extraction timeout")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addAssetFlags(fs, &f.assets)
	return fs
}

// parseExtractFlags parses extract command flags and returns the URLs.
func parseExtractFlags(args []string, stderr io.Writer) (*extractFlags, []string, error) {
	f := &extractFlags{}
	fs := buildExtractFlagSet(f)
	fs.Usage = func() { printExtractUsage(stderr) }
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseMediaFlags parses media command flags and returns the positional args.
func parseMediaFlags(args []string, stderr io.Writer) (*mediaFlags, []string, error) {
	f := &mediaFlags{}
	fs := buildMediaFlagSet(f)
	fs.Usage = func() { printMediaUsage(stderr) }
	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := buildServeFlagSet(f)
	fs.Usage = func() { printServeUsage(stderr) }
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: serve takes no arguments, got %q", ErrUsage, fs.Arg(0))
	}
	return f, nil
}

// parse runs fs.Parse and maps its errors onto the CLI's sentinels.
func parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.Usage()
			return errHelpShown
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}
