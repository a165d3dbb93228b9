package main

import (
	"errors"
	"os"

	lark2html "github.com/alnah/go-lark2html"
	"github.com/alnah/go-lark2html/internal/config"
)

// Exit codes for lark2html CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful extraction
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, URL or style
	ExitIO      = 3 // File not found, permission denied, unwritable output
	ExitAuth    = 4 // Rejected credentials or document not shared with the app
	ExitRemote  = 5 // Open API, token cache or response errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Auth errors (exit 4)
	var apiErr *lark2html.APIError
	if errors.Is(err, lark2html.ErrAuthCredential) ||
		(errors.As(err, &apiErr) && apiErr.IsPermissionDenied()) {
		return ExitAuth
	}

	// Remote errors (exit 5)
	if apiErr != nil ||
		errors.Is(err, lark2html.ErrPaginationOverflow) ||
		errors.Is(err, lark2html.ErrMediaDownload) ||
		errors.Is(err, lark2html.ErrMalformedResponse) ||
		errors.Is(err, lark2html.ErrEmptyBlockList) ||
		errors.Is(err, lark2html.ErrEmptyRender) ||
		errors.Is(err, ErrTokenCache) {
		return ExitRemote
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrCreateOutputDir) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, lark2html.ErrInvalidURL) ||
		errors.Is(err, lark2html.ErrStyleNotFound) ||
		errors.Is(err, lark2html.ErrInvalidAssetPath) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoURL) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	return ExitGeneral
}
