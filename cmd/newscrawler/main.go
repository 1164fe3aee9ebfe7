// Package main provides the entry point for the newscrawler CLI.
//
// newscrawler visits configured news sites once a day, asks a language model
// which links are articles, extracts relevant articles and stores them.
//
// Usage:
//
//	newscrawler serve
//	newscrawler run --format markdown --output report.md
//	newscrawler sources add https://news.example/ --name "Example" --language en
//
// See --help for all available options.
package main

// main is the entry point for newscrawler.
func main() {
	Execute()
}
