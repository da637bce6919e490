// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig
	Pipeline PipelineConfig
	Model    ModelConfig
	Artifact ArtifactConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PipelineConfig holds the replenishment policy knobs.
type PipelineConfig struct {
	SafetyFactor         float64
	MinStockFloor        int
	TrainingWindowMonths int
	MinTrainingRows      int
	BatchSize            int
}

// ModelConfig holds the regressor hyperparameters.
type ModelConfig struct {
	Estimators   int
	MaxDepth     int
	LearningRate float64
	Seed         int64
}

type ArtifactConfig struct {
	Dir string

	// Optional S3-compatible upload target. Disabled when Bucket is empty.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

type LogConfig struct {
	Level string
	Dir   string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "stockcast")
		viper.SetDefault("DB_SSLMODE", "disable")

		viper.SetDefault("SAFETY_FACTOR", 1.2)
		viper.SetDefault("MIN_STOCK_FLOOR", 1)
		viper.SetDefault("TRAINING_WINDOW_MONTHS", 6)
		viper.SetDefault("MIN_TRAINING_ROWS", 10)
		viper.SetDefault("BATCH_SIZE", 500)

		viper.SetDefault("MODEL_ESTIMATORS", 100)
		viper.SetDefault("MODEL_MAX_DEPTH", 3)
		viper.SetDefault("MODEL_LEARNING_RATE", 0.1)
		viper.SetDefault("MODEL_SEED", 42)

		viper.SetDefault("ARTIFACT_DIR", "./data/artifacts")
		viper.SetDefault("ARTIFACT_S3_ENDPOINT", "")
		viper.SetDefault("ARTIFACT_S3_ACCESS_KEY", "")
		viper.SetDefault("ARTIFACT_S3_SECRET_KEY", "")
		viper.SetDefault("ARTIFACT_S3_BUCKET", "")
		viper.SetDefault("ARTIFACT_S3_USE_SSL", true)

		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("LOG_DIR", "./logs")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Pipeline: PipelineConfig{
				SafetyFactor:         viper.GetFloat64("SAFETY_FACTOR"),
				MinStockFloor:        viper.GetInt("MIN_STOCK_FLOOR"),
				TrainingWindowMonths: viper.GetInt("TRAINING_WINDOW_MONTHS"),
				MinTrainingRows:      viper.GetInt("MIN_TRAINING_ROWS"),
				BatchSize:            viper.GetInt("BATCH_SIZE"),
			},
			Model: ModelConfig{
				Estimators:   viper.GetInt("MODEL_ESTIMATORS"),
				MaxDepth:     viper.GetInt("MODEL_MAX_DEPTH"),
				LearningRate: viper.GetFloat64("MODEL_LEARNING_RATE"),
				Seed:         viper.GetInt64("MODEL_SEED"),
			},
			Artifact: ArtifactConfig{
				Dir:         viper.GetString("ARTIFACT_DIR"),
				S3Endpoint:  viper.GetString("ARTIFACT_S3_ENDPOINT"),
				S3AccessKey: viper.GetString("ARTIFACT_S3_ACCESS_KEY"),
				S3SecretKey: viper.GetString("ARTIFACT_S3_SECRET_KEY"),
				S3Bucket:    viper.GetString("ARTIFACT_S3_BUCKET"),
				S3UseSSL:    viper.GetBool("ARTIFACT_S3_USE_SSL"),
			},
			Log: LogConfig{
				Level: viper.GetString("LOG_LEVEL"),
				Dir:   viper.GetString("LOG_DIR"),
			},
		}
	})

	return instance
}
