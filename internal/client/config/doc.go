// Package config loads runtime configuration for the cookiecutter CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: COOKIE_* variables, optionally seeded from a dotenv file
//     given with -e or -env (otherwise .env and .env.local when present).
//  3. Optional JSON file selected via -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-g string   generator service base URL
//	-id string  identity service base URL
//	-s string   store backend (sqlite, redis, s3, memory)
//	-d string   store DSN
//	-p string   preview server listen address
//	-o string   download directory
//	-l string   log level
//	-u string   deep link
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "generator_url": "https://gen.example",
//	  "identity_url": "https://id.example",
//	  "store": {"backend": "redis", "redis_url": "redis://localhost:6379/0"},
//	  "request_timeout": "60s",
//	  "notification_ttl": "4s",
//	  "generate_rate": 0.5,
//	  "log_backend": "zap"
//	}
package config
