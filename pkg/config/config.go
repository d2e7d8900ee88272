package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PostStorePostgres = "postgres"
	PostStoreMongo    = "mongo"

	MediaBackendLocal      = "local"
	MediaBackendCloudinary = "cloudinary"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	PostgresConnStr string
	PostStore       string
	MongoURI        string
	MongoDatabase   string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	MediaBackend        string
	MediaRoot           string
	MediaURL            string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	FirebaseCredentialsPath string
	CORSAllowedOrigins      []string
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads the configuration from the environment, after loading a .env file
// when one exists. Every invalid value is reported in a single error.
func Load() (*Config, error) {
	// A missing .env file is fine, the variables may come from the environment.
	_ = godotenv.Load()

	var problems []string

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		PostgresConnStr:         os.Getenv("POSTGRES_CONN_STR"),
		PostStore:               strings.ToLower(getEnv("POST_STORE", PostStorePostgres)),
		MongoURI:                os.Getenv("MONGO_URI"),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialmedia"),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		AccessTokenTTL:          getDuration("ACCESS_TOKEN_TTL", 5*time.Minute, &problems),
		RefreshTokenTTL:         getDuration("REFRESH_TOKEN_TTL", 24*time.Hour, &problems),
		MediaBackend:            strings.ToLower(getEnv("MEDIA_BACKEND", MediaBackendLocal)),
		MediaRoot:               getEnv("MEDIA_ROOT", "./media"),
		MediaURL:                strings.TrimRight(getEnv("MEDIA_URL", "/media"), "/"),
		CloudinaryCloudName:     os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:        os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:     os.Getenv("CLOUDINARY_API_SECRET"),
		FirebaseCredentialsPath: os.Getenv("FIREBASE_CREDENTIALS_PATH"),
		CORSAllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if cfg.PostgresConnStr == "" {
		problems = append(problems, "POSTGRES_CONN_STR environment variable not set")
	}

	switch cfg.PostStore {
	case PostStorePostgres:
	case PostStoreMongo:
		if cfg.MongoURI == "" {
			problems = append(problems, "MONGO_URI must be set when POST_STORE=mongo")
		}
	default:
		problems = append(problems, fmt.Sprintf("POST_STORE must be %q or %q, got %q", PostStorePostgres, PostStoreMongo, cfg.PostStore))
	}

	if cfg.JWTSecret == "" {
		if cfg.IsDevelopment() {
			cfg.JWTSecret = "supersecretjwtkey"
		} else {
			problems = append(problems, "JWT_SECRET environment variable not set")
		}
	}

	switch cfg.MediaBackend {
	case MediaBackendLocal:
	case MediaBackendCloudinary:
		if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
			problems = append(problems, "CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET must be set when MEDIA_BACKEND=cloudinary")
		}
	default:
		problems = append(problems, fmt.Sprintf("MEDIA_BACKEND must be %q or %q, got %q", MediaBackendLocal, MediaBackendCloudinary, cfg.MediaBackend))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, problems *[]string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		*problems = append(*problems, fmt.Sprintf("%s must be a positive duration, got %q", key, value))
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
