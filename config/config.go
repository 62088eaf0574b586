package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort       string
	PublicBaseURL string
	CORSOrigins   []string
	AdminUserIDs  []string

	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	SQLitePath string

	RedisAddr     string
	RedisPort     string
	RedisPassword string

	// Whop
	WhopAPIKey         string
	WhopAppID          string
	WhopAPIBaseURL     string
	WhopWebhookSecret  string
	WhopTokenPublicKey string
	WhopTokenSecret    string
	WhopTokenIssuer    string
	PurchaseURL        string

	// Storage
	StorageDriver       string
	StorageBucket       string
	SupabaseURL         string
	SupabaseServiceKey  string
	OSSEndpoint         string
	OSSRegion           string
	OSSAccessKeyID      string
	OSSAccessKeySecret  string
	OSSRoleArn          string
	S3Region            string
	S3Endpoint          string
	S3AccessKeyID       string
	S3SecretAccessKey   string
	S3PublicURL         string
	S3ForcePathStyle    bool
	UploadMaxBytes      int64
	ImageUploadMaxBytes int64

	// Generation backend
	GenerationAPIURL         string
	GenerationAPIKey         string
	GenerationCallbackSecret string
	GenerationMaxAttempts    int

	// Token economics
	VideoCostTokens         int64
	SceneCostTokens         int64
	UploadCostTokens        int64
	FallbackTokensPerDollar int64

	// Log configuration
	LogLevel      string
	LogFilename   string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c *Config) RedisFullAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisAddr, c.RedisPort)
}

// CallbackURL is the address the generation backend reports results to.
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/api/v1/generation/callback"
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		// Ignore error if .env file is not found
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		AppPort:       v.GetString("APP_PORT"),
		PublicBaseURL: v.GetString("PUBLIC_BASE_URL"),
		CORSOrigins:   splitList(v.GetString("CORS_ORIGINS")),
		AdminUserIDs:  splitList(v.GetString("ADMIN_USER_IDS")),

		DBDriver:   v.GetString("DB_DRIVER"),
		DBHost:     v.GetString("DB_HOST"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBPort:     v.GetString("DB_PORT"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		RedisAddr:     v.GetString("REDIS_HOST"),
		RedisPort:     v.GetString("REDIS_PORT"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		WhopAPIKey:         v.GetString("WHOP_API_KEY"),
		WhopAppID:          v.GetString("WHOP_APP_ID"),
		WhopAPIBaseURL:     v.GetString("WHOP_API_BASE_URL"),
		WhopWebhookSecret:  v.GetString("WHOP_WEBHOOK_SECRET"),
		WhopTokenPublicKey: v.GetString("WHOP_TOKEN_PUBLIC_KEY"),
		WhopTokenSecret:    v.GetString("WHOP_TOKEN_SECRET"),
		WhopTokenIssuer:    v.GetString("WHOP_TOKEN_ISSUER"),
		PurchaseURL:        v.GetString("PURCHASE_URL"),

		StorageDriver:       v.GetString("STORAGE_DRIVER"),
		StorageBucket:       v.GetString("STORAGE_BUCKET"),
		SupabaseURL:         v.GetString("SUPABASE_URL"),
		SupabaseServiceKey:  v.GetString("SUPABASE_SERVICE_ROLE_KEY"),
		OSSEndpoint:         v.GetString("OSS_ENDPOINT"),
		OSSRegion:           v.GetString("OSS_REGION"),
		OSSAccessKeyID:      v.GetString("OSS_ACCESS_KEY_ID"),
		OSSAccessKeySecret:  v.GetString("OSS_ACCESS_KEY_SECRET"),
		OSSRoleArn:          v.GetString("OSS_ROLE_ARN"),
		S3Region:            v.GetString("S3_REGION"),
		S3Endpoint:          v.GetString("S3_ENDPOINT"),
		S3AccessKeyID:       v.GetString("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:   v.GetString("S3_SECRET_ACCESS_KEY"),
		S3PublicURL:         v.GetString("S3_PUBLIC_URL"),
		S3ForcePathStyle:    v.GetBool("S3_FORCE_PATH_STYLE"),
		UploadMaxBytes:      v.GetInt64("UPLOAD_MAX_BYTES"),
		ImageUploadMaxBytes: v.GetInt64("IMAGE_UPLOAD_MAX_BYTES"),

		GenerationAPIURL:         v.GetString("GENERATION_API_URL"),
		GenerationAPIKey:         v.GetString("GENERATION_API_KEY"),
		GenerationCallbackSecret: v.GetString("GENERATION_CALLBACK_SECRET"),
		GenerationMaxAttempts:    v.GetInt("GENERATION_MAX_ATTEMPTS"),

		VideoCostTokens:         v.GetInt64("VIDEO_COST_TOKENS"),
		SceneCostTokens:         v.GetInt64("SCENE_COST_TOKENS"),
		UploadCostTokens:        v.GetInt64("UPLOAD_COST_TOKENS"),
		FallbackTokensPerDollar: v.GetInt64("FALLBACK_TOKENS_PER_DOLLAR"),

		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFilename:   v.GetString("LOG_FILENAME"),
		LogMaxSize:    v.GetInt("LOG_MAX_SIZE"),
		LogMaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		LogMaxAge:     v.GetInt("LOG_MAX_AGE"),
		LogCompress:   v.GetBool("LOG_COMPRESS"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("SQLITE_PATH", "ugcads.db")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")

	v.SetDefault("WHOP_API_BASE_URL", "https://api.whop.com/api/v2")
	v.SetDefault("WHOP_TOKEN_ISSUER", "urn:whopcom:exp-proxy")
	v.SetDefault("PURCHASE_URL", "/tokens")

	v.SetDefault("STORAGE_DRIVER", "supabase")
	v.SetDefault("STORAGE_BUCKET", "videos")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("UPLOAD_MAX_BYTES", 200<<20)
	v.SetDefault("IMAGE_UPLOAD_MAX_BYTES", 10<<20)

	v.SetDefault("GENERATION_MAX_ATTEMPTS", 3)

	v.SetDefault("VIDEO_COST_TOKENS", 100)
	v.SetDefault("SCENE_COST_TOKENS", 100)
	v.SetDefault("UPLOAD_COST_TOKENS", 1)
	v.SetDefault("FALLBACK_TOKENS_PER_DOLLAR", 20)

	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("LOG_FILENAME", "logs/app.log")
	v.SetDefault("LOG_MAX_SIZE", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE", 28)
	v.SetDefault("LOG_COMPRESS", true)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
