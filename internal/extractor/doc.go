// Package extractor turns an article page into a validated ExtractedArticle.
//
// Each attempt tries two strategies in order:
//
//  1. structured: ask the oracle for a JSON object and use it directly
//  2. raw: send the same instruction as a plain prompt, strip markdown
//     fences from the answer and parse the outermost {...} block
//
// The second strategy only runs when the first one fails. When both fail the
// extractor waits 2^attempt backoff units and tries again, up to the
// configured number of attempts.
//
// Any parsed answer goes through Repair, which fills missing fields, coerces
// loosely typed values and filters tags to the language's vocabulary, before
// the acceptance checks run. A rejected answer is a normal outcome reported
// in Result, not an error.
package extractor
