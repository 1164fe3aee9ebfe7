// Package oracle talks to the language model that discovers article links on
// a homepage and judges article pages.
//
// The model is reached through an OpenAI-compatible chat completions
// endpoint. The default base URL is DashScope's compatible mode, which serves
// the qwen family of models; any other compatible endpoint works as well.
//
// Two kinds of requests are made:
//
//   - Structured requests ask the endpoint for a JSON object response and
//     parse it strictly. Used by DiscoverURLs and ExtractContent.
//   - Raw requests (Complete) return the model's text unchanged so callers can
//     repair malformed output themselves.
//
// Every failure to obtain a usable answer is reported as an *ExtractionError.
package oracle
