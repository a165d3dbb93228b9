package lark2html

import (
	"errors"

	"github.com/alnah/go-lark2html/internal/assets"
	"github.com/alnah/go-lark2html/internal/feishu"
)

// Sentinel errors for library operations.
var (
	ErrInvalidURL     = errors.New("not a valid feishu document url (expected /docx/ or /wiki/)")
	ErrEmptyBlockList = errors.New("document block list is empty")
	ErrEmptyRender    = errors.New("document body rendered to empty html")
	ErrNilDocument    = errors.New("document cannot be nil")

	// Remote API errors.
	ErrAuthCredential     = feishu.ErrAuthCredential
	ErrPaginationOverflow = feishu.ErrPaginationOverflow
	ErrMediaDownload      = feishu.ErrMediaDownload
	ErrMalformedResponse  = feishu.ErrMalformedResponse

	// Asset loading errors.
	ErrStyleNotFound    = assets.ErrStyleNotFound
	ErrInvalidAssetPath = errors.New("invalid asset path")
)

// APIError is a failed Open API call: a non-2xx status or a non-zero
// envelope code. Use errors.As to inspect it.
type APIError = feishu.APIError
