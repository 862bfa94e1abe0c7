package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Kafka    Kafka
	SMTP     SMTP
	Auth     Auth
	Outbox   Outbox
	Log      Log
}

type Server struct {
	Addr string
	Mode string // debug / release / test
}

type Database struct {
	Driver       string // mysql / postgres / sqlite
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type Redis struct {
	Addr     string // 留空则不启用缓存
	Password string
	DB       int
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type SMTP struct {
	Host     string // 留空则不发送提及邮件
	Port     int
	Username string
	Password string
	From     string
}

type Auth struct {
	Secret string
	Issuer string
}

type Outbox struct {
	BatchSize int
	Interval  time.Duration
}

type Log struct {
	Development bool
	Level       string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "user:password@tcp(127.0.0.1:3306)/forum?charset=utf8mb4&parseTime=True")
	v.SetDefault("database.maxopenconns", 20)
	v.SetDefault("database.maxidleconns", 10)
	// 环境变量只会覆盖 viper 已知的 key，所以空值也要登记默认值
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "forum-events")
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("outbox.batchsize", 200)
	v.SetDefault("outbox.interval", time.Second)
	v.SetDefault("log.level", "info")
}

// LoadConfig 读取 config/<filename>.yaml，并允许 FORUM_* 环境变量覆盖
func LoadConfig(filename string, paths ...string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("FORUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// 没有配置文件时只用默认值 + 环境变量
			return v, nil
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Database.Driver == "" {
		return nil, errors.New("database driver required")
	}
	if c.Auth.Secret == "" {
		return nil, errors.New("auth secret required")
	}
	return &c, nil
}

func Load(filename string) (*Config, error) {
	v, err := LoadConfig(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(v)
}
