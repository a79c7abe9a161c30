package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	BroadcastLocal = "local"
	BroadcastRedis = "redis"
)

type AppConfig struct {
	App struct {
		Name     string `mapstructure:"NAME"`
		Port     string `mapstructure:"PORT"`
		LogLevel string `mapstructure:"LOG_LEVEL"`
	} `mapstructure:"APP"`

	DATABASE struct {
		Postgres struct {
			DSN string `mapstructure:"URL"`
		} `mapstructure:"POSTGRES"`
		Redis struct {
			Addr     string `mapstructure:"ADDR"`
			Password string `mapstructure:"PASSWORD"`
			DB       int    `mapstructure:"DB"`
		} `mapstructure:"REDIS"`
		AutoMigrate bool `mapstructure:"AUTO_MIGRATE"`
	} `mapstructure:"DATABASE"`

	JWT struct {
		Secret        string `mapstructure:"SECRET"`
		PublicKeyPath string `mapstructure:"PUBLIC_KEY_PATH"`
	} `mapstructure:"JWT"`

	UPSTREAM struct {
		ExpenseTrackerURL string        `mapstructure:"EXPENSE_TRACKER_URL"`
		UserServiceURL    string        `mapstructure:"USER_SERVICE_URL"`
		ServiceToken      string        `mapstructure:"SERVICE_TOKEN"`
		Timeout           time.Duration `mapstructure:"TIMEOUT"`
		ProfileCacheTTL   time.Duration `mapstructure:"PROFILE_CACHE_TTL"`
	} `mapstructure:"UPSTREAM"`

	BROADCAST struct {
		Mode string `mapstructure:"MODE"`
	} `mapstructure:"BROADCAST"`

	CORS struct {
		AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
	} `mapstructure:"CORS"`

	CHAT struct {
		MaxPageSize int `mapstructure:"MAX_PAGE_SIZE"`
	} `mapstructure:"CHAT"`

	WS struct {
		MaxConnections int `mapstructure:"MAX_CONNECTIONS"`
	} `mapstructure:"WS"`
}

var Conf *AppConfig

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP.NAME", "chat-service")
	v.SetDefault("APP.PORT", "8080")
	v.SetDefault("APP.LOG_LEVEL", "info")

	v.SetDefault("DATABASE.POSTGRES.URL", "")
	v.SetDefault("DATABASE.REDIS.ADDR", "")
	v.SetDefault("DATABASE.REDIS.PASSWORD", "")
	v.SetDefault("DATABASE.REDIS.DB", 0)
	v.SetDefault("DATABASE.AUTO_MIGRATE", true)

	v.SetDefault("JWT.SECRET", "")
	v.SetDefault("JWT.PUBLIC_KEY_PATH", "")

	v.SetDefault("UPSTREAM.EXPENSE_TRACKER_URL", "")
	v.SetDefault("UPSTREAM.USER_SERVICE_URL", "")
	v.SetDefault("UPSTREAM.SERVICE_TOKEN", "")
	v.SetDefault("UPSTREAM.TIMEOUT", 5*time.Second)
	v.SetDefault("UPSTREAM.PROFILE_CACHE_TTL", 10*time.Minute)

	v.SetDefault("BROADCAST.MODE", BroadcastLocal)
	v.SetDefault("CORS.ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("CHAT.MAX_PAGE_SIZE", 200)
	v.SetDefault("WS.MAX_CONNECTIONS", 10000)
}

// Load reads application.yaml from paths (default ".") plus CHATAPP_* env vars.
// A missing config file is not an error; env and defaults still apply.
func Load(paths ...string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("CHATAPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Warn().Msg("application.yaml not found, using env and defaults")
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func LoadConfig() error {
	config, err := Load()
	if err != nil {
		return err
	}
	Conf = config
	log.Info().Msg("configuration loaded...")
	return nil
}

func (c *AppConfig) Validate() error {
	if c.JWT.Secret == "" && c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("either JWT.SECRET or JWT.PUBLIC_KEY_PATH must be set")
	}

	c.BROADCAST.Mode = strings.ToLower(strings.TrimSpace(c.BROADCAST.Mode))
	switch c.BROADCAST.Mode {
	case "":
		c.BROADCAST.Mode = BroadcastLocal
	case BroadcastLocal:
	case BroadcastRedis:
		if c.DATABASE.Redis.Addr == "" {
			return fmt.Errorf("BROADCAST.MODE=redis requires DATABASE.REDIS.ADDR")
		}
	default:
		return fmt.Errorf("unknown BROADCAST.MODE %q", c.BROADCAST.Mode)
	}

	if c.CHAT.MaxPageSize <= 0 {
		c.CHAT.MaxPageSize = 200
	}
	return nil
}
