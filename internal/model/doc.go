// Package model defines the data structures shared by the crawler packages.
//
// This package contains the following main types:
//   - Source: a configured website with its language and display name
//   - ExtractedArticle: the validated extraction result for one URL
//   - PersistedArticle: the row written to the article store
//   - SourceReport and CycleReport: what happened during a crawl cycle
//
// It also owns the per-language controlled tag vocabularies and the tag
// validation that maps free-form oracle tags onto them.
//
// Models live in their own package so that the extractor, pipeline,
// database and report packages can share them without import cycles.
package model
