// Package crawler fetches source and article pages and prepares them for
// the content oracle.
//
// # Components
//
//   - Fetcher: HTTP page fetcher with browser-like headers, charset decoding
//     and retry with exponential backoff
//   - Clean: strips scripts, styles and other noise from a page so that the
//     oracle prompt stays small
//   - Normalize: resolves discovered links against a source's origin
//
// Design decision: Fetcher is a plain net/http client rather than a headless
// browser because:
//  1. News homepages render their article links server-side
//  2. JavaScript-rendered pages are out of scope
//  3. A single client with a timeout is easy to reason about under retry
//
// # Usage
//
//	fetcher := crawler.NewFetcher(crawler.WithTimeout(30 * time.Second))
//	page, err := fetcher.Fetch(ctx, "https://news.example/")
//	text, err := crawler.Clean(page)
//	urls := crawler.Normalize(discovered, "https://news.example/")
package crawler
