// Package report renders crawl results for people and programs.
//
// Every Writer handles four documents: the report of one crawl cycle, the
// list of recorded cycles, recently stored articles and the source
// registry. Three formats are available:
//   - text (SimpleWriter): terminal summary, tables for lists
//   - json (JSONWriter, FullJSONWriter): stable machine-readable output
//   - markdown (MarkdownWriter): shareable report with an outcome chart
//
// Writers only read model and database types; they never query the store.
package report
