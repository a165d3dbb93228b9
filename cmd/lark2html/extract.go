package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	lark2html "github.com/alnah/go-lark2html"
	"github.com/alnah/go-lark2html/internal/config"
	"github.com/alnah/go-lark2html/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoURL              = errors.New("no document URL specified")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrCreateOutputDir    = errors.New("failed to create output directory")
	ErrWriteOutput        = errors.New("failed to write output")
	ErrTokenCache         = errors.New("token cache unavailable")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// extractOutcome is one written (or failed) document.
type extractOutcome struct {
	URL        string
	OutputPath string // "-" for stdout
	Document   *lark2html.ExtractedDocument
	Err        error
}

// runExtractCmd orchestrates the extract command.
func runExtractCmd(ctx context.Context, args []string, env *Environment) error {
	flags, urls, err := parseExtractFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		printExtractUsage(env.Stderr)
		return ErrNoURL
	}
	if flags.workers < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidWorkerCount, flags.workers)
	}

	cfg, envCfg, err := loadCLIConfig(flags.common, env)
	if err != nil {
		return err
	}
	mergeRenderFlags(flags.render, flags.assets, flags.timeout, cfg)
	if flags.format != "" {
		cfg.Output.Format = flags.format
	}
	if flags.output != "" {
		cfg.Output.Dir = flags.output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := buildLogger(cfg, flags.common.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ext, cleanup, err := newExtractor(ctx, cfg, env, log)
	if err != nil {
		return err
	}
	defer cleanup()

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	workers = lark2html.ResolveWorkers(workers)
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Workers: %d\n", workers)
	}

	// A single document without an output directory goes to stdout
	toStdout := len(urls) == 1 && cfg.Output.Dir == ""
	outDir := cfg.Output.Dir
	if outDir == "" {
		outDir = "."
	}
	if !toStdout {
		if err := os.MkdirAll(outDir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOutputDir, err)
		}
	}

	results := ext.ExtractAll(ctx, urls, workers)
	outcomes := make([]extractOutcome, len(results))
	usedNames := make(map[string]bool, len(results))
	for i, r := range results {
		outcomes[i] = extractOutcome{URL: r.URL, Document: r.Document, Err: r.Err}
		if r.Err != nil {
			continue
		}
		outcomes[i].OutputPath, outcomes[i].Err = writeDocument(ctx, ext, r.Document, cfg, outDir, toStdout, usedNames, env.Stdout)
	}

	if len(outcomes) == 1 {
		if outcomes[0].Err != nil {
			return outcomes[0].Err
		}
		printDocumentWarnings(env.Stderr, outcomes[0], flags.common.quiet)
		if !toStdout && !flags.common.quiet {
			fmt.Fprintf(env.Stdout, "Created %s\n", outcomes[0].OutputPath)
		}
		return nil
	}
	return printOutcomes(outcomes, flags.common.quiet, flags.common.verbose, env)
}

// writeDocument post-processes doc and writes it in the configured format.
func writeDocument(ctx context.Context, ext *lark2html.Extractor, doc *lark2html.ExtractedDocument, cfg *config.Config, outDir string, toStdout bool, usedNames map[string]bool, stdout io.Writer) (string, error) {
	if cfg.Output.InlineImages && doc.ImageCount > 0 {
		if err := ext.InlineImages(ctx, doc); err != nil {
			return "", err
		}
	}

	data, extension, err := formatDocument(ctx, ext, doc, cfg)
	if err != nil {
		return "", err
	}

	if toStdout {
		if _, err := stdout.Write(data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return "-", nil
	}

	name := doc.Title
	if usedNames[strings.ToLower(fileutil.SafeFileName(name))] {
		name += "-" + doc.DocToken
	}
	usedNames[strings.ToLower(fileutil.SafeFileName(name))] = true

	path, err := fileutil.OutputPath(outDir, name, extension)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, filePermissions); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrWriteOutput, path, err)
	}
	return path, nil
}

// formatDocument encodes doc as html, json or text and returns the bytes
// with the file extension to use.
func formatDocument(ctx context.Context, ext *lark2html.Extractor, doc *lark2html.ExtractedDocument, cfg *config.Config) ([]byte, string, error) {
	switch strings.ToLower(cfg.Output.Format) {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("encoding json: %w", err)
		}
		return append(data, '\n'), "json", nil
	case "text":
		return []byte(doc.TextPlain + "\n"), "txt", nil
	default:
		if !cfg.Output.Standalone {
			return []byte(doc.ContentHTML + "\n"), "html", nil
		}
		page, err := ext.Standalone(ctx, doc)
		if err != nil {
			return nil, "", err
		}
		return []byte(page), "html", nil
	}
}

// printDocumentWarnings reports extraction warnings on stderr.
func printDocumentWarnings(w io.Writer, o extractOutcome, quiet bool) {
	if quiet || o.Document == nil {
		return
	}
	for _, warning := range o.Document.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", o.URL, warning)
	}
}

// printOutcomes prints batch results and returns an error when any
// extraction failed. The error wraps the first failure so the exit code
// reflects its cause.
func printOutcomes(outcomes []extractOutcome, quiet, verbose bool, env *Environment) error {
	var (
		failed   int
		firstErr error
	)
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = o.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", o.URL, o.Err, errorHint(o.Err, env.Config))
			continue
		}

		printDocumentWarnings(env.Stderr, o, quiet)
		if quiet {
			continue
		}
		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d blocks, %d images)\n", o.URL, o.OutputPath, o.Document.BlockCount, o.Document.ImageCount)
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", o.OutputPath)
		}
	}

	if !quiet {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(outcomes)-failed, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d extraction(s) failed: %w", failed, len(outcomes), firstErr)
	}
	return nil
}
