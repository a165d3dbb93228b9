// Package feishu is a small client for the Feishu/Lark Open API surface
// needed to read a docx document: tenant token issuance with caching,
// document metadata, the paginated block list, and drive media download.
//
// The client is fail-fast. It never retries; every error is returned to
// the caller wrapped around one of the package sentinels or an *APIError.
package feishu
