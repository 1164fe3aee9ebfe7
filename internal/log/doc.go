// Package log builds the crawler's slog loggers.
//
// Every logger returned here masks credentials before a record reaches its
// output. The crawler handles three kinds of secret: the oracle API key,
// database passwords (also embedded in DSNs and connection URLs) and HTTP
// authentication headers. Verbose mode lowers the level to Debug but never
// turns masking off, so logs of a scheduled server can be attached to bug
// reports as they are.
//
// # Redaction rules
//
// An attribute is masked when
//   - its key is a known credential name (api_key, dsn, cookie, ...)
//   - its key contains a credential word (password, token, secret, ...)
//   - its string value looks like a bearer token, JWT, "sk-" key or PEM key
//
// A URL value carrying a password keeps everything but the password,
// e.g. postgres://crawler:xxxxx@db:5432/news.
//
// # Usage
//
//	logger, err := log.NewLogger(os.Stderr, cfg.LogFormat, cfg.Verbose)
//	if err != nil {
//	    return err
//	}
//	logger.Info("oracle configured", "model", cfg.Oracle.Model, "api_key", cfg.Oracle.APIKey)
//	// time=... level=INFO msg="oracle configured" model=qwen-plus api_key=***REDACTED***
package log
