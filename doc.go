// Package lark2html converts Feishu/Lark cloud documents to semantic HTML.
//
// # Quick Start
//
// Create an extractor with the app credentials of an Open Platform app that
// can read the document, then extract by URL:
//
//	ext, err := lark2html.NewExtractor(appID, appSecret)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := ext.Extract(ctx, "https://example.feishu.cn/docx/doxcnAbC123")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(doc.Title, doc.WordCount, doc.ImageCount)
//
// The result holds the content HTML fragment (doc.ContentHTML), the plain
// text (doc.TextPlain), an image manifest in document order (doc.Images)
// and integrity warnings (doc.Warnings).
//
// # Extraction Pipeline
//
//  1. URL validation and doc token extraction (docx and wiki URLs)
//  2. Concurrent fetch of document metadata and the paginated block list
//  3. Block map construction and root lookup
//  4. Recursive rendering: heading numbering, list grouping, image caption
//     binding, merged-cell tables, cycle-safe traversal
//  5. Optional sanitization of the content HTML (bluemonday)
//
// Every failure is returned as an error; a partial document is never
// returned. Match failures with errors.Is against ErrInvalidURL,
// ErrAuthCredential, ErrPaginationOverflow, ErrEmptyBlockList,
// ErrEmptyRender and ErrMediaDownload, or errors.As against *APIError.
//
// # Configuration
//
//	ext, err := lark2html.NewExtractor(appID, appSecret,
//	    lark2html.WithTimeout(time.Minute),
//	    lark2html.WithSanitize(true),
//	    lark2html.WithCodeHighlight("github"),
//	    lark2html.WithLogger(zapLogger),
//	)
//
// Tenant access tokens are cached per app. Share a store between extractors,
// or across processes with Redis:
//
//	rdb, err := lark2html.DialRedis(ctx, "localhost:6379")
//	ext, err := lark2html.NewExtractor(appID, appSecret,
//	    lark2html.WithTokenStore(lark2html.NewRedisStore(rdb, "")),
//	)
//
// # Post-processing
//
// Standalone wraps the content in a full HTML page with an embedded
// stylesheet. InlineImages downloads every manifest image and embeds it as
// a data URL, so the page has no remote dependencies:
//
//	if err := ext.InlineImages(ctx, doc); err != nil {
//	    log.Fatal(err)
//	}
//	page, err := ext.Standalone(ctx, doc)
//
// # Batch Extraction
//
// ExtractAll extracts several documents with a bounded number of workers.
// Each URL gets its own BatchResult; one failure does not stop the others.
// ResolveWorkers picks a worker count from GOMAXPROCS when none is given.
package lark2html
