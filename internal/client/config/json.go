package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cookiecutter/internal/client/store"
	"github.com/dmitrijs2005/cookiecutter/internal/flagx"
	"github.com/dmitrijs2005/cookiecutter/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. Pointer and zero values mean
// "not set" and leave the earlier value in place.
type JsonConfig struct {
	GeneratorURL    string          `json:"generator_url"`
	IdentityURL     string          `json:"identity_url"`
	RedirectURL     string          `json:"redirect_url"`
	Store           *store.Config   `json:"store"`
	PreviewAddr     string          `json:"preview_addr"`
	DownloadDir     string          `json:"download_dir"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
	NotificationTTL *timex.Duration `json:"notification_ttl"`
	GenerateRate    *float64        `json:"generate_rate"`
	GenerateBurst   *int            `json:"generate_burst"`
	LogLevel        string          `json:"log_level"`
	LogBackend      string          `json:"log_backend"`
}

// parseJson overlays cfg with values loaded from the JSON file named by
// -c or -config. Without the flag nothing is loaded.
func parseJson(cfg *Config, args []string) error {
	jsonConfigFile := flagx.JSONConfigFlag(args)
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	overlay(&cfg.GeneratorURL, jc.GeneratorURL)
	overlay(&cfg.IdentityURL, jc.IdentityURL)
	overlay(&cfg.RedirectURL, jc.RedirectURL)
	overlay(&cfg.PreviewAddr, jc.PreviewAddr)
	overlay(&cfg.DownloadDir, jc.DownloadDir)
	overlay(&cfg.LogLevel, jc.LogLevel)
	overlay(&cfg.LogBackend, jc.LogBackend)

	if s := jc.Store; s != nil {
		overlay(&cfg.Store.Backend, s.Backend)
		overlay(&cfg.Store.DSN, s.DSN)
		overlay(&cfg.Store.RedisURL, s.RedisURL)
		overlay(&cfg.Store.RedisPrefix, s.RedisPrefix)
		overlay(&cfg.Store.S3.Endpoint, s.S3.Endpoint)
		overlay(&cfg.Store.S3.Region, s.S3.Region)
		overlay(&cfg.Store.S3.Bucket, s.S3.Bucket)
		overlay(&cfg.Store.S3.AccessKey, s.S3.AccessKey)
		overlay(&cfg.Store.S3.SecretKey, s.S3.SecretKey)
		overlay(&cfg.Store.S3.Prefix, s.S3.Prefix)
	}

	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.NotificationTTL != nil {
		cfg.NotificationTTL = jc.NotificationTTL.Duration
	}
	if jc.GenerateRate != nil {
		cfg.GenerateRate = *jc.GenerateRate
	}
	if jc.GenerateBurst != nil {
		cfg.GenerateBurst = *jc.GenerateBurst
	}
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
