// Package database stores articles, crawl sources and crawl cycle history.
//
// The Store implements both the article store (existence checks and inserts
// into the news table) and the source registry (the news_sources table).
// It also records one row per crawl cycle in crawl_cycles.
//
// Design decision: We go through database/sql with three drivers instead of
// an ORM because:
//  1. The schema is three small tables with hand-written queries
//  2. SQLite (modernc.org/sqlite) needs no server for local runs and tests
//  3. Existing deployments keep their news tables in MySQL or PostgreSQL
//
// Queries are written with '?' placeholders and rebound to '$n' for PostgreSQL.
package database
