package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Spok95/kitchen-quotes/internal/domain/access"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const DefaultPath = "config/example.yaml"

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr            string
		CORSOrigins     []string      `mapstructure:"cors_origins"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`

	Redis struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
		LockTTL  time.Duration `mapstructure:"lock_ttl"`
	} `mapstructure:"redis"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`

	Roles         map[string]access.RoleSpec `mapstructure:"roles"`
	RolesFallback string                     `mapstructure:"roles_fallback"`
}

// Path — путь к конфигу: APP_CONFIG или файл по умолчанию.
func Path() string {
	if p := os.Getenv("APP_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (Config, error) {
	// .env необязателен; уже заданные переменные окружения он не перетирает
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 5*time.Second)
	v.SetDefault("redis.lock_ttl", 30*time.Second)
	v.SetDefault("roles_fallback", string(access.RoleKitchenStaff))
	// без значения по умолчанию AutomaticEnv не видит ключ при Unmarshal
	for _, k := range []string{"postgres.dsn", "auth.jwt_secret", "redis.addr", "redis.password", "telegram.token", "telegram.admin_chat_id"} {
		_ = v.BindEnv(k)
	}

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("config: postgres.dsn is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("config: redis.addr is required when redis is enabled")
	}
	return nil
}

// RoleTable строит таблицу ролей из секции roles (пустая — встроенная таблица).
func (c Config) RoleTable() (access.RoleTable, error) {
	return access.NewRoleTable(c.Roles, c.RolesFallback)
}
