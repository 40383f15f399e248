package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	publicKeyPrefix  = "pk_"
	serviceKeyPrefix = "sk_"
	minKeyLength     = 32
	minJWTSecretLen  = 32
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	PublicAPIKey string
	ServiceKey   string
	JWTSecretKey string
	ServerPort   int
	PublicURL    string
	CORSOrigins  []string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	WalletBaseURL   string
	WalletIssuerID  string
	WalletIssuerKey string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
// Все проверки секретов выполняются здесь, до любого сетевого вызова:
// неполная или кривая конфигурация валит процесс на старте, а не в рантайме.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return nil, fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return nil, fmt.Errorf("DATABASE_URL must use the postgres scheme, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("DATABASE_URL is missing a host")
	}

	publicKey := os.Getenv("PUBLIC_API_KEY")
	if err := validateKey("PUBLIC_API_KEY", publicKey, publicKeyPrefix); err != nil {
		return nil, err
	}

	serviceKey := os.Getenv("SERVICE_KEY")
	if err := validateKey("SERVICE_KEY", serviceKey, serviceKeyPrefix); err != nil {
		return nil, err
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if len(jwtKey) < minJWTSecretLen {
		return nil, fmt.Errorf("JWT_SECRET_KEY must be at least %d characters", minJWTSecretLen)
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	publicURL := os.Getenv("PUBLIC_URL")
	if publicURL == "" {
		publicURL = fmt.Sprintf("http://localhost:%d", port)
	}

	var origins []string
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	smtpPort := 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		smtpPort, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT environment variable: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		PublicAPIKey: publicKey,
		ServiceKey:   serviceKey,
		JWTSecretKey: jwtKey,
		ServerPort:   port,
		PublicURL:    publicURL,
		CORSOrigins:  origins,

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: smtpPort,
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		WalletBaseURL:   os.Getenv("WALLET_BASE_URL"),
		WalletIssuerID:  os.Getenv("WALLET_ISSUER_ID"),
		WalletIssuerKey: os.Getenv("WALLET_ISSUER_KEY"),
	}

	return cfg, nil
}

func validateKey(name, value, prefix string) error {
	if value == "" {
		return fmt.Errorf("%s environment variable is not set", name)
	}
	if !strings.HasPrefix(value, prefix) {
		return fmt.Errorf("%s must start with %q", name, prefix)
	}
	if len(value) < minKeyLength {
		return fmt.Errorf("%s must be at least %d characters", name, minKeyLength)
	}
	return nil
}
