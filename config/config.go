package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	defaultTokenExpiryMinutes  = 30
	defaultSweepIntervalMins   = 30
	defaultTempAlbumTTLMinutes = 60
	defaultVisionTimeoutSecs   = 30
	defaultThumbnailMaxSize    = 250
)

type Config struct {
	// database path (sqlite file)
	DatabasePath string

	// local storage: pending uploads live under TempUploadsPath until they are
	// promoted or swept; ScratchPath holds short-lived working copies (raw
	// downloads re-served from object storage)
	TempUploadsPath string
	ScratchPath     string

	// auth
	JWTSecret   string
	TokenExpiry time.Duration

	// object storage (S3)
	AWSRegion    string
	S3BucketName string

	// vision OCR API
	VisionEndpoint string
	VisionAPIKey   string
	VisionTimeout  time.Duration

	// temp album sweeper settings
	SweepInterval time.Duration
	TempAlbumTTL  time.Duration

	// thumbnail generation settings
	ThumbnailMaxSize int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "purple_archive.db")

	tempUploads := getEnvOrDefault("TEMP_UPLOADS_PATH", filepath.Join(".", "temp_uploads"))
	absTempUploads, err := filepath.Abs(tempUploads)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for temp uploads '%s': %w", tempUploads, err)
	}

	scratch := getEnvOrDefault("SCRATCH_PATH", filepath.Join(".", "scratch"))
	absScratch, err := filepath.Abs(scratch)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for scratch dir '%s': %w", scratch, err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	cfg := Config{
		DatabasePath:     dbPath,
		TempUploadsPath:  absTempUploads,
		ScratchPath:      absScratch,
		JWTSecret:        jwtSecret,
		TokenExpiry:      time.Duration(getEnvIntOrDefault("TOKEN_EXPIRY_MINUTES", defaultTokenExpiryMinutes)) * time.Minute,
		AWSRegion:        getEnvOrDefault("AWS_DEFAULT_REGION", "ap-northeast-1"),
		S3BucketName:     os.Getenv("AWS_S3_BUCKET_NAME"),
		VisionEndpoint:   getEnvOrDefault("VISION_API_ENDPOINT", "https://vision.googleapis.com/v1/images:annotate"),
		VisionAPIKey:     os.Getenv("VISION_API_KEY"),
		VisionTimeout:    time.Duration(getEnvIntOrDefault("VISION_TIMEOUT_SECONDS", defaultVisionTimeoutSecs)) * time.Second,
		SweepInterval:    time.Duration(getEnvIntOrDefault("SWEEP_INTERVAL_MINUTES", defaultSweepIntervalMins)) * time.Minute,
		TempAlbumTTL:     time.Duration(getEnvIntOrDefault("TEMP_ALBUM_TTL_MINUTES", defaultTempAlbumTTLMinutes)) * time.Minute,
		ThumbnailMaxSize: getEnvIntOrDefault("THUMBNAIL_MAX_SIZE", defaultThumbnailMaxSize),
	}

	return cfg, nil
}
