package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Load reads the .env file specified by BDI_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("BDI_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is optional; without it agents live only in memory.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// RedisURL enables the Redis percept sensor when set.
func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

// PerceptPrefix returns the Redis key prefix for percept lists.
// Defaults to "bdi:percepts" if not set.
func PerceptPrefix() string {
	p := os.Getenv("PERCEPT_PREFIX")
	if p == "" {
		return "bdi:percepts"
	}
	return p
}

// DomainFile names a domain document hosted at startup.
func DomainFile() string {
	return os.Getenv("DOMAIN_FILE")
}

func APIKey() string {
	return os.Getenv("API_KEY")
}

// TickInterval returns how often the runner ticks every agent.
// Defaults to 1s if not set.
func TickInterval() time.Duration {
	return duration("TICK_INTERVAL", time.Second)
}

// ActionTimeout bounds a single actuator call.
// Defaults to 5s if not set.
func ActionTimeout() time.Duration {
	return duration("ACTION_TIMEOUT", 5*time.Second)
}

// PlannerMaxDepth returns the longest plan considered. Zero means the planner default.
func PlannerMaxDepth() int {
	return positiveInt("PLANNER_MAX_DEPTH", 0)
}

// PlannerMaxNodes returns the search budget per plan. Zero means the planner default.
func PlannerMaxNodes() int {
	return positiveInt("PLANNER_MAX_NODES", 0)
}

// InferenceMaxIterations returns the fixpoint iteration cap. Zero means the engine
// default.
func InferenceMaxIterations() int {
	return positiveInt("INFERENCE_MAX_ITERATIONS", 0)
}

// MaxPromotionsPerTick returns how many desires may become intentions per tick.
// Defaults to 1 if not set.
func MaxPromotionsPerTick() int {
	return positiveInt("MAX_PROMOTIONS_PER_TICK", 1)
}

// BeliefMinCertainty returns the certainty below which beliefs are ignored by goal
// checks and planning. Defaults to 0.
func BeliefMinCertainty() float64 {
	v, err := strconv.ParseFloat(os.Getenv("BELIEF_MIN_CERTAINTY"), 64)
	if err != nil || v < 0 || v > 1 {
		return 0
	}
	return v
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	return positiveInt("RATE_LIMIT_BURST", 20)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// NewLogger builds a production logger at LogLevel.
func NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(LogLevel())
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func duration(name string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(name))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func positiveInt(name string, def int) int {
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
