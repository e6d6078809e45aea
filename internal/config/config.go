package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Notify    NotifyConfig    `mapstructure:"notify"`
}

type ServerConfig struct {
	Port       string `mapstructure:"port"`
	AgentToken string `mapstructure:"agent_token"`
	AdminToken string `mapstructure:"admin_token"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type SchedulerConfig struct {
	TickSeconds      int `mapstructure:"tick_seconds"`
	Parallelism      int `mapstructure:"parallelism"`
	FailureThreshold int `mapstructure:"failure_threshold"`
}

type QueueConfig struct {
	DedupWindowSeconds int     `mapstructure:"dedup_window_seconds"`
	MaxRetries         int     `mapstructure:"max_retries"`
	BackoffMultiplier  float64 `mapstructure:"backoff_multiplier"`
	BaseDelaySeconds   int     `mapstructure:"base_delay_seconds"`
	RetentionDays      int     `mapstructure:"retention_days"`
}

type NotifyConfig struct {
	DiscordWebhook string `mapstructure:"discord_webhook"`
	SlackWebhook   string `mapstructure:"slack_webhook"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (s SchedulerConfig) TickInterval() time.Duration {
	return time.Duration(s.TickSeconds) * time.Second
}

func (q QueueConfig) DedupWindow() time.Duration {
	return time.Duration(q.DedupWindowSeconds) * time.Second
}

func (q QueueConfig) BaseDelay() time.Duration {
	return time.Duration(q.BaseDelaySeconds) * time.Second
}

func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("sitewarden")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("env", "development")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.agent_token", "")
	viper.SetDefault("server.admin_token", "")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "sitewarden")
	viper.SetDefault("database.password", "sitewarden")
	viper.SetDefault("database.name", "sitewarden")
	viper.SetDefault("database.ssl_mode", "disable")

	viper.SetDefault("scheduler.tick_seconds", 30)
	viper.SetDefault("scheduler.parallelism", 8)
	viper.SetDefault("scheduler.failure_threshold", 3)

	viper.SetDefault("queue.dedup_window_seconds", 300)
	viper.SetDefault("queue.max_retries", 3)
	viper.SetDefault("queue.backoff_multiplier", 2.0)
	viper.SetDefault("queue.base_delay_seconds", 60)
	viper.SetDefault("queue.retention_days", 30)

	viper.SetDefault("notify.discord_webhook", "")
	viper.SetDefault("notify.slack_webhook", "")
}
