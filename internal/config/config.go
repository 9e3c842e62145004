package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Store drivers for the device key-value store.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreS3     = "s3"
	StoreMemory = "memory"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	API struct {
		BaseURL        string
		TimeoutSeconds int
	}
	Store struct {
		Driver string
		Path   string
	}
	Redis struct {
		Addr   string
		DB     int
		Prefix string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
	}
	DevAPI struct {
		Addr         string
		DatabasePath string
	}
	Log struct {
		Level string
	}
}

// Load reads configuration from environment variables and optional config files.
// configFile, when set, replaces the ./config.* lookup.
func Load(configFile string) (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("CHINJI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "127.0.0.1:8090")
	v.SetDefault("api.baseurl", "http://127.0.0.1:8091")
	v.SetDefault("api.timeoutseconds", 30)
	v.SetDefault("store.driver", StoreSQLite)
	v.SetDefault("store.path", "data/device.db")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "chinji")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "devices/default")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 60*24*30)
	v.SetDefault("devapi.addr", "127.0.0.1:8091")
	v.SetDefault("devapi.databasepath", "data/devapi.db")
	v.SetDefault("log.level", "info")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case StoreSQLite, StoreRedis, StoreMemory:
	case StoreS3:
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return fmt.Errorf("storage bucket is required for the s3 store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	return nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
