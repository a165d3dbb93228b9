package feishu

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the Open API client.
var (
	ErrAuthCredential     = errors.New("feishu credential error")
	ErrPaginationOverflow = errors.New("block pagination exceeded page limit")
	ErrMediaDownload      = errors.New("media download failed")
	ErrMalformedResponse  = errors.New("malformed API response")
)

// permissionCodes are business codes the Open API returns when the app
// lacks access to a document or a scope.
var permissionCodes = map[int]struct{}{
	1770032:  {},
	91204:    {},
	99991672: {},
	99991663: {},
}

// APIError is a failed Open API call. Status is the HTTP status code and
// Code the business code from the response envelope (0 when the failure
// happened at the HTTP level).
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("feishu api error (code=%d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("feishu api request failed (HTTP %d): %s", e.Status, e.Message)
}

// IsPermissionDenied reports whether the error is one of the known
// "app has no access" answers.
func (e *APIError) IsPermissionDenied() bool {
	if e == nil {
		return false
	}
	if e.Status == http.StatusForbidden {
		return true
	}
	_, ok := permissionCodes[e.Code]
	return ok
}
