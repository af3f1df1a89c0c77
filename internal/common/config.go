package common

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. It is resolved once at process
// start and read-only afterwards.
type Config struct {
	Server   ServerConfig
	OCR      OCRConfig
	Oracle   OracleConfig
	Pipeline PipelineConfig
}

// ServerConfig holds transport-related configuration
type ServerConfig struct {
	HTTPAddr string
}

// OCRConfig holds the external OCR toolchain configuration
type OCRConfig struct {
	Tesseract     string
	Pdftoppm      string
	Pdftotext     string
	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int
	PSM           int
	OEM           int
}

// OracleConfig holds generative-oracle configuration
type OracleConfig struct {
	Provider    string // "ollama" | "gemini"
	BaseURL     string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// PipelineConfig holds confidence thresholds for admission decisions
type PipelineConfig struct {
	OCRConfidenceThreshold        float64 // below this, log a low-confidence warning
	OCRRejectThreshold            float64 // below this, the document pipeline returns unprocessed
	ValidationConfidenceThreshold float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT", "tesseract"),
			Pdftoppm:      getEnv("PDFTOPPM", "pdftoppm"),
			Pdftotext:     getEnv("PDFTOTEXT", "pdftotext"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			PSM:           getEnvAsInt("OCR_PSM", 0),
			OEM:           getEnvAsInt("OCR_OEM", 0),
		},
		Oracle: OracleConfig{
			Provider:    getEnv("ORACLE_PROVIDER", "ollama"),
			BaseURL:     getEnv("OLLAMA_URL", "http://localhost:11434"),
			Model:       getEnv("ORACLE_MODEL", "llama3.2:latest"),
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			MaxTokens:   getEnvAsInt("ORACLE_MAX_TOKENS", 2048),
			Temperature: getEnvAsFloat32("ORACLE_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("ORACLE_TIMEOUT", 300*time.Second),
		},
		Pipeline: PipelineConfig{
			OCRConfidenceThreshold:        getEnvAsFloat64("OCR_CONFIDENCE_THRESHOLD", 0.6),
			OCRRejectThreshold:            getEnvAsFloat64("OCR_REJECT_THRESHOLD", 0.3),
			ValidationConfidenceThreshold: getEnvAsFloat64("VALIDATION_CONFIDENCE_THRESHOLD", 0.7),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case "ollama":
		if c.Oracle.BaseURL == "" {
			return NewAppError("CONFIG_ERROR", "OLLAMA_URL is required", ErrInvalidInput)
		}
	case "gemini":
		if c.Oracle.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown oracle provider %q", c.Oracle.Provider), ErrInvalidInput)
	}
	if c.Oracle.Model == "" {
		return NewAppError("CONFIG_ERROR", "ORACLE_MODEL is required", ErrInvalidInput)
	}
	if c.Pipeline.OCRRejectThreshold > c.Pipeline.OCRConfidenceThreshold {
		return NewAppError("CONFIG_ERROR", "OCR_REJECT_THRESHOLD must not exceed OCR_CONFIDENCE_THRESHOLD", ErrInvalidInput)
	}
	return nil
}
