package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (policy knobs, timeouts), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	JWT       JWTConfig
	Voucher   VoucherConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

// VoucherConfig carries the issuance and redemption policy knobs.
type VoucherConfig struct {
	// Allowed face values in minor currency units.
	Denominations []int64 `envconfig:"VOUCHER_DENOMINATIONS" default:"5,10,15,20,25,30,35,40,45"`
	// How long redeemed access stays valid.
	RedemptionValidity time.Duration `envconfig:"VOUCHER_REDEMPTION_VALIDITY" default:"720h"`
	// Redemption attempts (success or failure) per actor per rolling hour.
	AttemptsPerHour int `envconfig:"VOUCHER_ATTEMPTS_PER_HOUR" default:"10"`
	// Successful redemptions per parent actor per rolling 30 days.
	MonthlyRedemptionCap int `envconfig:"VOUCHER_MONTHLY_CAP" default:"5"`
	// Bounded retries when a generated code collides on digest.
	MaxGenerationAttempts int `envconfig:"VOUCHER_MAX_GENERATION_ATTEMPTS" default:"5"`
}

type SchedulerConfig struct {
	Enabled         bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	SweepInterval   time.Duration `envconfig:"SCHEDULER_SWEEP_INTERVAL" default:"1h"`
	WarningInterval time.Duration `envconfig:"SCHEDULER_WARNING_INTERVAL" default:"24h"`
	WarningWindow   time.Duration `envconfig:"SCHEDULER_WARNING_WINDOW" default:"72h"`
	SweepBatchSize  int           `envconfig:"SCHEDULER_SWEEP_BATCH_SIZE" default:"500"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: "24h",
		},
		Voucher: VoucherConfig{
			Denominations:         []int64{5, 10, 15, 20, 25, 30, 35, 40, 45},
			RedemptionValidity:    720 * time.Hour,
			AttemptsPerHour:       10,
			MonthlyRedemptionCap:  5,
			MaxGenerationAttempts: 5,
		},
		Scheduler: SchedulerConfig{
			Enabled:         false,
			SweepInterval:   time.Hour,
			WarningInterval: 24 * time.Hour,
			WarningWindow:   72 * time.Hour,
			SweepBatchSize:  500,
		},
	}
}
