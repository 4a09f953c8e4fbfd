package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dealflow/internal/history"
	"dealflow/internal/source"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Source     source.Location
	Fields     history.Fields
	DataPath   string
	LogDir     string
	ExportPath string
	// AlwaysReload makes the MCP server re-read the export on every tool call.
	AlwaysReload bool
	// MonthsBack limits the month series to the last N months; 0 keeps all.
	MonthsBack int
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return fromEnv(exeDir), nil
}

func fromEnv(exeDir string) *AppConfig {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	defaults := history.DefaultFields()
	cfg := &AppConfig{
		Source: source.Location{
			SheetID: getEnv("GOOGLE_SHEET_ID", ""),
			GID:     getEnv("GOOGLE_SHEET_GID", "0"),
			Sheet:   getEnv("XLSX_SHEET", ""),
		},
		Fields: history.Fields{
			Name:   getEnv("DEAL_NAME_COLUMN", defaults.Name),
			Owner:  getEnv("DEAL_OWNER_COLUMN", defaults.Owner),
			Amount: getEnv("AMOUNT_COLUMN", defaults.Amount),
			Metric: getEnv("METRIC_COLUMN", defaults.Metric),
		},
		DataPath:     dataPath,
		LogDir:       getEnv("LOGS_FOLDER", filepath.Join(dataPath, "logs")),
		ExportPath:   getEnv("EXPORT_PATH", filepath.Join(dataPath, "pipeline-data.json")),
		AlwaysReload: getEnvBool("DEALFLOW_ALWAYS_RELOAD", false),
		MonthsBack:   getEnvInt("MONTHS_BACK", 0),
	}

	cfg.SetSource(getEnv("DEALFLOW_SOURCE", ""))
	return cfg
}

// SetSource points the configuration at a local path or an http(s) URL.
// An empty value leaves the current location untouched.
func (c *AppConfig) SetSource(pathOrURL string) {
	switch {
	case pathOrURL == "":
	case strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://"):
		c.Source.URL, c.Source.Path = pathOrURL, ""
	default:
		c.Source.Path, c.Source.URL = pathOrURL, ""
	}
}

// UseSheet points the configuration at a Google Sheet, dropping any path or
// URL so the sheet is what gets read.
func (c *AppConfig) UseSheet(sheetID string) {
	c.Source.SheetID = sheetID
	c.Source.Path, c.Source.URL = "", ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer environment value")
	}
	return fallback
}
