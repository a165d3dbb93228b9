package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lark2html "github.com/alnah/go-lark2html"
	"github.com/alnah/go-lark2html/internal/fileutil"
)

// runMediaCmd downloads one drive media object by token.
func runMediaCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseMediaFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) != 1 || strings.TrimSpace(positional[0]) == "" {
		printMediaUsage(env.Stderr)
		return fmt.Errorf("%w: media takes exactly one token", ErrUsage)
	}
	token := strings.TrimSpace(positional[0])
	if fileutil.IsURL(token) {
		return fmt.Errorf("%w: media takes a drive media token, not a URL (use extract for documents)", ErrUsage)
	}

	cfg, _, err := loadCLIConfig(flags.common, env)
	if err != nil {
		return err
	}
	if flags.timeout != "" {
		cfg.API.Timeout = flags.timeout
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

	ctx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	media, err := ext.DownloadMedia(ctx, token)
	if err != nil {
		return err
	}
	data, err := decodeDataURL(media.DataURL)
	if err != nil {
		return fmt.Errorf("%w: %v", lark2html.ErrMediaDownload, err)
	}

	if flags.output == "" {
		if _, err := env.Stdout.Write(data); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}

	if dir := filepath.Dir(flags.output); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOutputDir, err)
		}
	}
	if err := fileutil.WriteFileAtomic(flags.output, data, filePermissions); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteOutput, flags.output, err)
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "Created %s (%s, %d bytes)\n", flags.output, media.MIMEType, len(data))
	}
	return nil
}

// decodeDataURL returns the payload of a base64 data URL.
func decodeDataURL(dataURL string) ([]byte, error) {
	meta, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(meta, "data:") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("not a base64 data URL")
	}
	return base64.StdEncoding.DecodeString(payload)
}
