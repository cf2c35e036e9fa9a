// Package config loads rulekit configuration.
//
// Values come from a YAML file, then a .env file, then the process
// environment, in increasing precedence. Environment variables use the
// RULEKIT_ prefix with underscores for nesting, so RULEKIT_CACHE_BACKEND
// sets cache.backend and RULEKIT_SERVER_MAX_BLOB_BYTES sets
// server.max_blob_bytes.
//
//	cfg, err := config.Load("rulekit-cache", config.WithConfigFile(path))
package config
