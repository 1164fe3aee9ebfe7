// Package config provides the configuration of the news crawler.
// It defines the database, oracle, schedule, crawl and retry settings and
// loads them from defaults, a YAML file, .env files and the environment.
package config
