package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is loaded once at startup and immutable for the run.
type Config struct {
	PartnerID      string
	Username       string
	Password       string
	DownloadFolder string

	Headless     bool
	PollInterval time.Duration

	// MaxWait caps the completion poll. Zero keeps the default
	// contract: an unbounded blocking wait.
	MaxWait time.Duration

	// DatabaseURL enables the optional run ledger when set.
	DatabaseURL string

	// CatalogPath overrides the embedded dataset catalog when set.
	CatalogPath string
}

func FromEnv() (Config, error) {
	cfg := Config{
		PartnerID:      strings.TrimSpace(os.Getenv("FBDFG_PID")),
		Username:       strings.TrimSpace(os.Getenv("FBDFG_USER")),
		Password:       os.Getenv("FBDFG_PASS"),
		DownloadFolder: strings.TrimSpace(os.Getenv("DOWNLOAD_FOLDER")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DFGDL_DATABASE_URL")),
		CatalogPath:    strings.TrimSpace(os.Getenv("DFGDL_CATALOG")),
		Headless:       getenv("DFGDL_HEADLESS", "1") == "1",
	}

	if cfg.PartnerID == "" {
		return Config{}, fmt.Errorf("FBDFG_PID is required")
	}
	if cfg.Username == "" {
		return Config{}, fmt.Errorf("FBDFG_USER is required")
	}
	if cfg.Password == "" {
		return Config{}, fmt.Errorf("FBDFG_PASS is required")
	}
	if cfg.DownloadFolder == "" {
		return Config{}, fmt.Errorf("DOWNLOAD_FOLDER is required")
	}

	pollSec, err := strconv.Atoi(getenv("DFGDL_POLL_SECONDS", "1"))
	if err != nil || pollSec < 1 {
		return Config{}, fmt.Errorf("invalid DFGDL_POLL_SECONDS")
	}
	cfg.PollInterval = time.Duration(pollSec) * time.Second

	maxWaitSec, err := strconv.Atoi(getenv("DFGDL_MAX_WAIT_SECONDS", "0"))
	if err != nil || maxWaitSec < 0 {
		return Config{}, fmt.Errorf("invalid DFGDL_MAX_WAIT_SECONDS")
	}
	cfg.MaxWait = time.Duration(maxWaitSec) * time.Second

	return cfg, nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
