package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env     string
		Name    string
		Version string
	} `mapstructure:"app"`

	HTTP struct {
		Addr         string
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"http"`

	// Пустой DSN — хранилище в памяти (для разработки и тестов).
	Postgres struct {
		DSN      string
		MaxConns int32 `mapstructure:"max_conns"`
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Redis struct {
		Addr           string
		IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
	} `mapstructure:"redis"`

	RabbitMQ struct {
		URL      string
		Exchange string
	} `mapstructure:"rabbitmq"`

	Telegram struct {
		Token            string
		AdminChatID      int64   `mapstructure:"admin_chat_id"`
		LowCapacityRatio float64 `mapstructure:"low_capacity_ratio"`
	} `mapstructure:"telegram"`

	Tracing struct {
		Endpoint string
	} `mapstructure:"tracing"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.name", "factory")
	v.SetDefault("app.version", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.idempotency_ttl", 24*time.Hour)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "factory")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("telegram.low_capacity_ratio", 0.1)
	v.SetDefault("tracing.endpoint", "")
}

// Load читает YAML по path. Любой ключ можно переопределить через ENV:
// postgres.dsn -> APP_POSTGRES_DSN. Пустой path — только дефолты и ENV.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
