package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/cookiecutter/internal/flagx"
)

var knownFlags = []string{"-g", "-id", "-s", "-d", "-p", "-o", "-l", "-u"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-g string   generator service base URL
//	-id string  identity service base URL
//	-s string   store backend (sqlite, redis, s3, memory)
//	-d string   store DSN (sqlite file path)
//	-p string   preview server listen address
//	-o string   download directory
//	-l string   log level
//	-u string   deep link the client was opened with
//
// args are filtered with flagx.FilterArgs first, so flags owned by other
// loaders (-c, -e) do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, known())

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.GeneratorURL, "g", cfg.GeneratorURL, "generator service base URL")
	fs.StringVar(&cfg.IdentityURL, "id", cfg.IdentityURL, "identity service base URL")
	fs.StringVar(&cfg.Store.Backend, "s", cfg.Store.Backend, "store backend")
	fs.StringVar(&cfg.Store.DSN, "d", cfg.Store.DSN, "store DSN")
	fs.StringVar(&cfg.PreviewAddr, "p", cfg.PreviewAddr, "preview server address")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "download directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.DeepLink, "u", cfg.DeepLink, "deep link")

	return fs.Parse(args)
}

func known() []string {
	out := make([]string, 0, len(knownFlags)*2)
	for _, f := range knownFlags {
		out = append(out, f, "-"+f)
	}
	return out
}
