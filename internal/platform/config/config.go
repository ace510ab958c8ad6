package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DBMemory   = "memory"
	DBPostgres = "postgres"
	DBMongo    = "mongo"
	DBDynamo   = "dynamodb"
)

type Config struct {
	Port string
	Env  string

	// Database selection: "memory", "postgres", "mongo" or "dynamodb"
	DBType string

	// MongoDB settings (when DBType = "mongo")
	MongoURI             string
	MongoDB              string
	MongoUseTransactions bool // requires a replica set

	// DynamoDB settings (when DBType = "dynamodb")
	AWSRegion          string
	DynamoDBEndpoint   string // Optional: for local development
	AWSAccessKeyID     string // Optional: for local development
	AWSSecretAccessKey string // Optional: for local development

	// PostgreSQL settings (when DBType = "postgres")
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	PostgresMaxConns int

	// Timeouts
	HTTPReadTimeoutSec     int
	HTTPWriteTimeoutSec    int
	HTTPIdleTimeoutSec     int
	HTTPRequestTimeoutSec  int
	MongoConnectTimeoutSec int
	MongoOpTimeoutMs       int

	// Security settings
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPM   int

	// Lifecycle events; empty brokers disables publishing
	KafkaBrokers []string
	KafkaTopic   string

	// Upper bound on publishing one operation's events
	KafkaPublishTimeoutMs int

	// Report the real payment outcome on renewal instead of always true
	RenewalReportActualPayment bool
}

func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	cfg := &Config{}

	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "dev")
	cfg.DBType = strings.ToLower(getEnv("DB_TYPE", DBMemory))

	cfg.MongoURI = getEnv("MONGODB_URI", getEnv("MONGO_URI", ""))
	cfg.MongoDB = getEnv("MONGO_DB", "policy_admin")
	cfg.MongoUseTransactions = getEnvAsBool("MONGO_USE_TRANSACTIONS", false)

	cfg.AWSRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", "")
	cfg.AWSAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AWSSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")

	cfg.PostgresHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.PostgresPort = getEnvAsInt("POSTGRES_PORT", 5432)
	cfg.PostgresUser = getEnv("POSTGRES_USER", "postgres")
	cfg.PostgresPassword = getEnv("POSTGRES_PASSWORD", "")
	cfg.PostgresDB = getEnv("POSTGRES_DB", "policy_admin")
	cfg.PostgresSSLMode = getEnv("POSTGRES_SSLMODE", "disable")
	cfg.PostgresMaxConns = getEnvAsInt("POSTGRES_MAX_CONNS", 10)

	cfg.HTTPReadTimeoutSec = getEnvAsInt("HTTP_READ_TIMEOUT_SEC", 10)
	cfg.HTTPWriteTimeoutSec = getEnvAsInt("HTTP_WRITE_TIMEOUT_SEC", 30)
	cfg.HTTPIdleTimeoutSec = getEnvAsInt("HTTP_IDLE_TIMEOUT_SEC", 120)
	cfg.HTTPRequestTimeoutSec = getEnvAsInt("HTTP_REQUEST_TIMEOUT_SEC", 20)
	cfg.MongoConnectTimeoutSec = getEnvAsInt("MONGO_CONNECT_TIMEOUT_SEC", 5)
	cfg.MongoOpTimeoutMs = getEnvAsInt("MONGO_OP_TIMEOUT_MS", 500)

	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.AllowedOrigins = getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"})
	cfg.RateLimitRPM = getEnvAsInt("RATE_LIMIT_RPM", 100)

	cfg.KafkaBrokers = getEnvAsSlice("KAFKA_BROKERS", nil)
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", "policy-lifecycle")
	cfg.KafkaPublishTimeoutMs = getEnvAsInt("KAFKA_PUBLISH_TIMEOUT_MS", 2000)

	cfg.RenewalReportActualPayment = getEnvAsBool("RENEWAL_REPORT_ACTUAL_PAYMENT", false)

	switch cfg.DBType {
	case DBMemory, DBPostgres, DBDynamo:
	case DBMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when DB_TYPE=mongo")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}

	// chi's Timeout must fire before the server gives up on the write.
	if cfg.HTTPRequestTimeoutSec >= cfg.HTTPWriteTimeoutSec {
		return nil, fmt.Errorf("HTTP_REQUEST_TIMEOUT_SEC (%d) must be less than HTTP_WRITE_TIMEOUT_SEC (%d)",
			cfg.HTTPRequestTimeoutSec, cfg.HTTPWriteTimeoutSec)
	}

	// Tokens can only be verified against an explicit secret in production.
	if cfg.IsProd() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production environment")
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	var result []string
	for _, s := range strings.Split(valStr, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	if len(result) == 0 {
		return defaultVal
	}
	return result
}
