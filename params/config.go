// Package params loads the OME's runtime configuration from environment
// variables (optionally via a .env file), adapted from the teacher's
// params.LoadFromEnv. Fields are grounded on
// original_source/src/args.rs's Arguments: listen address/port, TLS
// cert/key paths, force-no-tls, plus the executioner and
// markets-discovery URLs and the dumpfile path this design adds.
package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultListenAddress   = "0.0.0.0"
	DefaultListenPort      = 8989
	DefaultCertFile        = "cert.pem"
	DefaultKeyFile         = "pkey.secret"
	DefaultKnownMarketsURL = "http://localhost:3030/book"
	DefaultExternalBookURL = "http://localhost:3030/book/"
	DefaultDumpfilePath    = "data/ome-dump"
	DefaultDumpInterval    = 30 * time.Second
)

// Config is the OME's runtime configuration.
type Config struct {
	ListenAddress string
	ListenPort    uint16

	CertificatePath string
	PrivateKeyPath  string
	ForceNoTLS      bool

	ExecutionerURL  string // settlement dispatcher target; empty disables dispatch
	KnownMarketsURL string
	ExternalBookURL string

	DumpfilePath string
	DumpInterval time.Duration

	LogFilePath string
}

// Default returns the hardcoded defaults, mirroring
// original_source/src/args.rs's DEFAULT_* constants.
func Default() Config {
	return Config{
		ListenAddress:   DefaultListenAddress,
		ListenPort:      DefaultListenPort,
		CertificatePath: DefaultCertFile,
		PrivateKeyPath:  DefaultKeyFile,
		ForceNoTLS:      false,
		KnownMarketsURL: DefaultKnownMarketsURL,
		ExternalBookURL: DefaultExternalBookURL,
		DumpfilePath:    DefaultDumpfilePath,
		DumpInterval:    DefaultDumpInterval,
		LogFilePath:     "data/ome.log",
	}
}

// LoadFromEnv loads configuration from .env (if present, at envPath or
// the working directory) and then environment variables. Priority:
// ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("OME_LISTEN_ADDRESS"); v != "" {
		cfg.ListenAddress = v
	}
	if v := os.Getenv("OME_LISTEN_PORT"); v != "" {
		if port, err := strconv.ParseUint(v, 10, 16); err == nil {
			cfg.ListenPort = uint16(port)
		}
	}
	if v := os.Getenv("OME_CERTIFICATE_PATH"); v != "" {
		cfg.CertificatePath = v
	}
	if v := os.Getenv("OME_PRIVATE_KEY_PATH"); v != "" {
		cfg.PrivateKeyPath = v
	}
	if v := os.Getenv("OME_FORCE_NO_TLS"); v != "" {
		cfg.ForceNoTLS = v == "true"
	}
	if v := os.Getenv("OME_EXECUTIONER_URL"); v != "" {
		cfg.ExecutionerURL = v
	}
	if v := os.Getenv("OME_KNOWN_MARKETS_URL"); v != "" {
		cfg.KnownMarketsURL = v
	}
	if v := os.Getenv("OME_EXTERNAL_BOOK_URL"); v != "" {
		cfg.ExternalBookURL = v
	}
	if v := os.Getenv("OME_DUMPFILE_PATH"); v != "" {
		cfg.DumpfilePath = v
	}
	if v := os.Getenv("OME_DUMP_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.DumpInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("OME_LOG_FILE"); v != "" {
		cfg.LogFilePath = v
	}

	return cfg
}
