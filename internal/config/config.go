package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"docextract/internal/logger"
)

// OCR engine names accepted by OCR_ENGINE.
const (
	EngineAuto       = "auto"
	EngineVision     = "vision"
	EngineDocumentAI = "documentai"
	EngineTesseract  = "tesseract"
	EnginePDFText    = "pdftext"
)

type Config struct {
	// OCR Configuration
	OCREngine     string
	OCRTimeout    time.Duration
	TesseractPath string
	TesseractLang string

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string
	GoogleServiceAccountKey    string

	// Text Enhancement Configuration (OpenAI compatible endpoint)
	EnhanceEnabled     bool
	EnhanceBaseURL     string
	EnhanceAPIKey      string
	EnhanceModel       string
	EnhanceMaxTokens   int
	EnhanceTemperature float32
	EnhanceTopP        float32
	EnhanceTimeout     time.Duration
	EnhanceMaxRetries  int

	// HTTP Server Configuration
	ServerAddr     string
	UploadDir      string
	MaxUploadBytes int64
	AllowImagePath bool // accept server-side paths in the imagePath form field

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OCREngine:                  strings.ToLower(getEnv("OCR_ENGINE", EngineAuto)),
		OCRTimeout:                 getSeconds("OCR_TIMEOUT_SECONDS", 120),
		TesseractPath:              getEnv("TESSERACT_PATH", "tesseract"),
		TesseractLang:              getEnv("TESSERACT_LANG", "eng"),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleServiceAccountKey:    getEnv("GOOGLE_SERVICE_ACCOUNT_KEY", ""),
		EnhanceEnabled:             getBool("ENHANCE_ENABLED", false),
		EnhanceBaseURL:             getEnv("ENHANCE_BASE_URL", "http://localhost:4891/v1"),
		EnhanceAPIKey:              getEnv("ENHANCE_API_KEY", ""),
		EnhanceModel:               getEnv("ENHANCE_MODEL", "mini-orca-3b"),
		EnhanceMaxTokens:           getInt("ENHANCE_MAX_TOKENS", 2048),
		EnhanceTemperature:         getFloat("ENHANCE_TEMPERATURE", 0.1),
		EnhanceTopP:                getFloat("ENHANCE_TOP_P", 0.9),
		EnhanceTimeout:             getSeconds("ENHANCE_TIMEOUT_SECONDS", 120),
		EnhanceMaxRetries:          getInt("ENHANCE_MAX_RETRIES", 2),
		ServerAddr:                 getEnv("SERVER_ADDR", ":8080"),
		UploadDir:                  getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:             int64(getInt("MAX_UPLOAD_BYTES", 20*1024*1024)),
		AllowImagePath:             getBool("ALLOW_IMAGE_PATH", false),
		GoogleSheetURL:             getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:       getEnv("GOOGLE_SHEET_WORKSHEET", "Documents"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.OCREngine {
	case EngineAuto, EngineVision, EngineDocumentAI, EngineTesseract, EnginePDFText:
	default:
		return fmt.Errorf("OCR_ENGINE must be one of auto, vision, documentai, tesseract, pdftext (got %q)", c.OCREngine)
	}
	if c.OCREngine == EngineDocumentAI {
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for the documentai engine")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for the documentai engine")
		}
	}
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT_SECONDS must be positive")
	}
	if c.EnhanceTimeout <= 0 {
		return fmt.Errorf("ENHANCE_TIMEOUT_SECONDS must be positive")
	}
	if c.EnhanceMaxTokens <= 0 {
		return fmt.Errorf("ENHANCE_MAX_TOKENS must be positive")
	}
	if c.EnhanceMaxRetries < 0 {
		return fmt.Errorf("ENHANCE_MAX_RETRIES cannot be negative")
	}
	if c.EnhanceTemperature < 0 || c.EnhanceTemperature > 2 {
		return fmt.Errorf("ENHANCE_TEMPERATURE must be between 0 and 2")
	}
	if c.EnhanceTopP <= 0 || c.EnhanceTopP > 1 {
		return fmt.Errorf("ENHANCE_TOP_P must be in (0, 1]")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.LogFormat)
	}
	return nil
}

// Default returns the configuration Load produces with an empty environment.
func Default() *Config {
	return &Config{
		OCREngine:            EngineAuto,
		OCRTimeout:           120 * time.Second,
		TesseractPath:        "tesseract",
		TesseractLang:        "eng",
		GoogleCloudLocation:  "us",
		EnhanceBaseURL:       "http://localhost:4891/v1",
		EnhanceModel:         "mini-orca-3b",
		EnhanceMaxTokens:     2048,
		EnhanceTemperature:   0.1,
		EnhanceTopP:          0.9,
		EnhanceTimeout:       120 * time.Second,
		EnhanceMaxRetries:    2,
		ServerAddr:           ":8080",
		UploadDir:            "uploads",
		MaxUploadBytes:       20 * 1024 * 1024,
		GoogleSheetWorksheet: "Documents",
		LogLevel:             "info",
		LogFormat:            "console",
		LogTimeFormat:        "2006-01-02T15:04:05Z07:00",
		LogOutput:            "stderr",
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// HasGoogleCredentials reports whether the environment names Google credentials.
func HasGoogleCredentials() bool {
	return os.Getenv("GOOGLE_CREDENTIALS") != "" || os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return defaultValue
}

func getFloat(key string, defaultValue float32) float32 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 32); err == nil {
		return float32(f)
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return defaultValue
}

func getSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getInt(key, defaultSeconds)) * time.Second
}
