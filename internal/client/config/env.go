package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/cookiecutter/internal/flagx"
)

// Environment variable names.
const (
	EnvGeneratorURL    = "COOKIE_GENERATOR_URL"
	EnvIdentityURL     = "COOKIE_IDENTITY_URL"
	EnvRedirectURL     = "COOKIE_REDIRECT_URL"
	EnvStoreBackend    = "COOKIE_STORE_BACKEND"
	EnvStoreDSN        = "COOKIE_STORE_DSN"
	EnvRedisURL        = "COOKIE_REDIS_URL"
	EnvRedisPrefix     = "COOKIE_REDIS_PREFIX"
	EnvS3Endpoint      = "COOKIE_S3_ENDPOINT"
	EnvS3Region        = "COOKIE_S3_REGION"
	EnvS3Bucket        = "COOKIE_S3_BUCKET"
	EnvS3AccessKey     = "COOKIE_S3_ACCESS_KEY"
	EnvS3SecretKey     = "COOKIE_S3_SECRET_KEY"
	EnvS3Prefix        = "COOKIE_S3_PREFIX"
	EnvPreviewAddr     = "COOKIE_PREVIEW_ADDR"
	EnvDownloadDir     = "COOKIE_DOWNLOAD_DIR"
	EnvRequestTimeout  = "COOKIE_REQUEST_TIMEOUT"
	EnvNotificationTTL = "COOKIE_NOTIFICATION_TTL"
	EnvGenerateRate    = "COOKIE_GENERATE_RATE"
	EnvGenerateBurst   = "COOKIE_GENERATE_BURST"
	EnvLogLevel        = "COOKIE_LOG_LEVEL"
	EnvLogBackend      = "COOKIE_LOG_BACKEND"
	EnvDeepLink        = "COOKIE_DEEP_LINK"
)

// parseEnv overlays cfg with COOKIE_* environment variables.
//
// A dotenv file given with -e/-env must exist. Without it, .env and
// .env.local in the working directory are loaded when present. Variables
// already set in the process environment are never overridden by a file.
func parseEnv(cfg *Config, args []string) error {
	if file := flagx.EnvFileFlag(args); file != "" {
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else {
		// Missing default files are fine.
		_ = godotenv.Load(".env")
		_ = godotenv.Load(".env.local")
	}

	setString(&cfg.GeneratorURL, EnvGeneratorURL)
	setString(&cfg.IdentityURL, EnvIdentityURL)
	setString(&cfg.RedirectURL, EnvRedirectURL)
	setString(&cfg.Store.Backend, EnvStoreBackend)
	setString(&cfg.Store.DSN, EnvStoreDSN)
	setString(&cfg.Store.RedisURL, EnvRedisURL)
	setString(&cfg.Store.RedisPrefix, EnvRedisPrefix)
	setString(&cfg.Store.S3.Endpoint, EnvS3Endpoint)
	setString(&cfg.Store.S3.Region, EnvS3Region)
	setString(&cfg.Store.S3.Bucket, EnvS3Bucket)
	setString(&cfg.Store.S3.AccessKey, EnvS3AccessKey)
	setString(&cfg.Store.S3.SecretKey, EnvS3SecretKey)
	setString(&cfg.Store.S3.Prefix, EnvS3Prefix)
	setString(&cfg.PreviewAddr, EnvPreviewAddr)
	setString(&cfg.DownloadDir, EnvDownloadDir)
	setString(&cfg.LogLevel, EnvLogLevel)
	setString(&cfg.LogBackend, EnvLogBackend)
	setString(&cfg.DeepLink, EnvDeepLink)

	if err := setDuration(&cfg.RequestTimeout, EnvRequestTimeout); err != nil {
		return err
	}
	if err := setDuration(&cfg.NotificationTTL, EnvNotificationTTL); err != nil {
		return err
	}
	if v, ok := os.LookupEnv(EnvGenerateRate); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvGenerateRate, err)
		}
		cfg.GenerateRate = f
	}
	if v, ok := os.LookupEnv(EnvGenerateBurst); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvGenerateBurst, err)
		}
		cfg.GenerateBurst = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
