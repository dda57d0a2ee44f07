package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Documents struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"documents"`

	Fulfillment struct {
		MaxAttempts int           `mapstructure:"max_attempts"`
		RetryBase   time.Duration `mapstructure:"retry_base"`
	} `mapstructure:"fulfillment"`
}

// Load reads the YAML file at path. Values can be overridden with APP_*
// variables (APP_POSTGRES_DSN, APP_TELEGRAM_TOKEN, ...), which are also read
// from a .env file in the working directory when one exists.
func Load(path string) (Config, error) {
	var c Config
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return c, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("fulfillment.max_attempts", 3)
	v.SetDefault("fulfillment.retry_base", 50*time.Millisecond)

	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
