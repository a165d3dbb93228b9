package lark2html

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-lark2html/internal/pipeline"
)

// InlineImages downloads every image in the manifest and embeds it as a
// data URL, both in Image.Src and in the src attribute of the matching
// <img> in ContentHTML. Each distinct token is downloaded once, with at
// most the configured number of downloads in flight.
//
// The first failure cancels the remaining downloads and leaves doc
// unchanged; the error wraps ErrMediaDownload.
func (e *Extractor) InlineImages(ctx context.Context, doc *ExtractedDocument) error {
	if doc == nil {
		return ErrNilDocument
	}
	if len(doc.Images) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		sources = make(map[string]string, len(doc.Images))
		seen    = make(map[string]bool, len(doc.Images))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.imageWorkers)
	for _, img := range doc.Images {
		if img.Token == "" || seen[img.Token] {
			continue
		}
		seen[img.Token] = true

		token := img.Token
		g.Go(func() error {
			media, err := e.client.DownloadMedia(gctx, token)
			if err != nil {
				if errors.Is(err, ErrMediaDownload) {
					return fmt.Errorf("image %s: %w", token, err)
				}
				return fmt.Errorf("%w: image %s: %w", ErrMediaDownload, token, err)
			}
			mu.Lock()
			sources[token] = media.DataURL
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	contentHTML, err := pipeline.SetImageSources(doc.ContentHTML, sources)
	if err != nil {
		return fmt.Errorf("setting image sources: %w", err)
	}

	for i := range doc.Images {
		doc.Images[i].Src = sources[doc.Images[i].Token]
	}
	doc.ContentHTML = contentHTML
	e.log.Debug("images inlined", "document", doc.DocToken, "images", len(sources))
	return nil
}
