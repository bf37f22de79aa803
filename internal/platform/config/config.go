package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	APIPort        string
	JWTKey         []byte
	JWTExp         time.Duration
	RequestTimeout time.Duration

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string
	DBConnStr     string
	DBAutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionEventsChannel string
	LeaderboardCacheTTL  time.Duration

	GraderMode        string // "random" or "executor"
	GraderExecutorURL string
	GraderTimeout     time.Duration
	AwardPolicy       string // "cumulative" or "best"
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	AppConfig = &Config{
		APIPort:              v.GetString("API_PORT"),
		JWTKey:               []byte(v.GetString("JWT_SECRET")),
		JWTExp:               time.Duration(v.GetInt("JWT_EXPIRATION_HOURS")) * time.Hour,
		RequestTimeout:       time.Duration(v.GetInt("REQUEST_TIMEOUT_SECONDS")) * time.Second,
		DBHost:               v.GetString("DB_HOST"),
		DBPort:               v.GetString("DB_PORT"),
		DBUser:               v.GetString("DB_USER"),
		DBPassword:           v.GetString("DB_PASSWORD"),
		DBName:               v.GetString("DB_NAME"),
		DBSslMode:            v.GetString("DB_SSLMODE"),
		DBAutoMigrate:        v.GetBool("DB_AUTO_MIGRATE"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		RedisDB:              v.GetInt("REDIS_DB"),
		SessionEventsChannel: v.GetString("SESSION_EVENTS_CHANNEL"),
		LeaderboardCacheTTL:  time.Duration(v.GetInt("LEADERBOARD_CACHE_TTL_SECONDS")) * time.Second,
		GraderMode:           v.GetString("GRADER_MODE"),
		GraderExecutorURL:    v.GetString("GRADER_EXECUTOR_URL"),
		GraderTimeout:        time.Duration(v.GetInt("GRADER_TIMEOUT_SECONDS")) * time.Second,
		AwardPolicy:          v.GetString("AWARD_POLICY"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("JWT_SECRET", "defaultsecret")
	v.SetDefault("JWT_EXPIRATION_HOURS", 72)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 60)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "codecollab_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_EVENTS_CHANNEL", "coding_session_events")
	v.SetDefault("LEADERBOARD_CACHE_TTL_SECONDS", 60)
	v.SetDefault("GRADER_MODE", "random")
	v.SetDefault("GRADER_EXECUTOR_URL", "http://localhost:9000/grade")
	v.SetDefault("GRADER_TIMEOUT_SECONDS", 10)
	v.SetDefault("AWARD_POLICY", "cumulative")
}
