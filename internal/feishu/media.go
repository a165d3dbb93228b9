package feishu

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultMediaType = "application/octet-stream"
	mediaChunkSize   = 0x8000
	// maxErrorBody bounds how much of a failed download is quoted back.
	maxErrorBody = 4 << 10
)

// Media is a downloaded drive file encoded as a data URL.
type Media struct {
	MIMEType string
	DataURL  string
	Size     int64
}

// DownloadMedia fetches a drive media file and returns it as a base64
// data URL. The body is streamed through the encoder and bounded by the
// client's media size cap.
func (c *Client) DownloadMedia(ctx context.Context, mediaToken string) (Media, error) {
	mediaToken = strings.TrimSpace(mediaToken)
	if mediaToken == "" {
		return Media{}, fmt.Errorf("%w: media token is required", ErrMediaDownload)
	}

	token, err := c.TenantToken(ctx)
	if err != nil {
		return Media{}, err
	}

	target := c.baseURL + "/drive/v1/medias/" + url.PathEscape(mediaToken) + "/download"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Media{}, fmt.Errorf("%w: %v", ErrMediaDownload, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Media{}, fmt.Errorf("%w: %w", ErrMediaDownload, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := firstNonEmpty(string(body), "unknown error")
		return Media{}, fmt.Errorf("%w: %w", ErrMediaDownload, &APIError{Status: resp.StatusCode, Message: detail})
	}

	mimeType := mediaType(resp.Header.Get("Content-Type"))

	var sb strings.Builder
	sb.WriteString("data:")
	sb.WriteString(mimeType)
	sb.WriteString(";base64,")

	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	n, err := io.CopyBuffer(enc, io.LimitReader(resp.Body, c.maxMediaBytes+1), make([]byte, mediaChunkSize))
	if err != nil {
		return Media{}, fmt.Errorf("%w: reading body: %w", ErrMediaDownload, err)
	}
	if n > c.maxMediaBytes {
		return Media{}, fmt.Errorf("%w: media exceeds %d bytes", ErrMediaDownload, c.maxMediaBytes)
	}
	if err := enc.Close(); err != nil {
		return Media{}, fmt.Errorf("%w: %w", ErrMediaDownload, err)
	}

	c.log.Debug("media downloaded", "media", mediaToken, "mime", mimeType, "bytes", n)
	return Media{MIMEType: mimeType, DataURL: sb.String(), Size: n}, nil
}

// mediaType keeps the Content-Type header minus whitespace, falling back
// to application/octet-stream when it is absent or unparseable.
func mediaType(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return defaultMediaType
	}
	if _, _, err := mime.ParseMediaType(header); err != nil {
		return defaultMediaType
	}
	return header
}
