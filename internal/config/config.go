package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1780
	defaultPollInterval   = 1000
	defaultMaxPerSecond   = 20
	defaultMaxPerMinute   = 300
	defaultBanDuration    = 30
	defaultRedisAddr      = "localhost:6379"
	defaultStoreBackend   = BackendFile
	defaultStorePath      = "games_data.json"
	defaultStoreKey       = "whospies:rooms"
	defaultMaxRetries     = 5
	defaultOpTimeout      = 5
	defaultRoundDuration  = 600
	defaultIdleTimeout    = 60
	defaultCleanupSeconds = 60
	defaultLogLevel       = "info"
)

// 存储后端
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Store  StoreConfig  `yaml:"store"`
	Game   GameConfig   `yaml:"game"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host           string          `yaml:"host"`
	Port           int             `yaml:"port"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	PollInterval   int             `yaml:"poll_interval"` // WebSocket 推送轮询间隔（毫秒）
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig 按 IP 的请求速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 超限后封禁时长（秒）
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StoreConfig 共享存储配置
type StoreConfig struct {
	Backend    string `yaml:"backend"`     // memory | file | redis
	Path       string `yaml:"path"`        // file 后端的文件路径
	Key        string `yaml:"key"`         // redis 后端的键名
	TTL        int    `yaml:"ttl"`         // redis 键过期时间（小时），0 表示不过期
	MaxRetries int    `yaml:"max_retries"` // 版本冲突重试次数
	OpTimeout  int    `yaml:"op_timeout"`  // 单次事务超时（秒）
}

// GameConfig 游戏配置
type GameConfig struct {
	RoundDuration   int      `yaml:"round_duration"`   // 每局时长（秒）
	AnonymousVotes  bool     `yaml:"anonymous_votes"`  // 匿名投票
	Locations       []string `yaml:"locations"`        // 自定义地点列表，为空时使用内置列表
	IdleTimeout     int      `yaml:"idle_timeout"`     // 房间闲置超时（分钟）
	CleanupInterval int      `yaml:"cleanup_interval"` // 清理间隔（秒）
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// PollIntervalDuration 返回推送轮询间隔
func (c *ServerConfig) PollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// TTLDuration 返回 redis 键过期时间
func (c *StoreConfig) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Hour
}

// OpTimeoutDuration 返回单次事务超时
func (c *StoreConfig) OpTimeoutDuration() time.Duration {
	return time.Duration(c.OpTimeout) * time.Second
}

// RoundDurationTime 返回每局时长
func (c *GameConfig) RoundDurationTime() time.Duration {
	return time.Duration(c.RoundDuration) * time.Second
}

// IdleTimeoutDuration 返回房间闲置超时
func (c *GameConfig) IdleTimeoutDuration() time.Duration {
	return time.Duration(c.IdleTimeout) * time.Minute
}

// CleanupIntervalDuration 返回清理间隔
func (c *GameConfig) CleanupIntervalDuration() time.Duration {
	return time.Duration(c.CleanupInterval) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.PollInterval == 0 {
		c.Server.PollInterval = defaultPollInterval
	}
	if c.Server.RateLimit.MaxPerSecond == 0 {
		c.Server.RateLimit.MaxPerSecond = defaultMaxPerSecond
	}
	if c.Server.RateLimit.MaxPerMinute == 0 {
		c.Server.RateLimit.MaxPerMinute = defaultMaxPerMinute
	}
	if c.Server.RateLimit.BanDuration == 0 {
		c.Server.RateLimit.BanDuration = defaultBanDuration
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreBackend
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}
	if c.Store.Key == "" {
		c.Store.Key = defaultStoreKey
	}
	if c.Store.MaxRetries == 0 {
		c.Store.MaxRetries = defaultMaxRetries
	}
	if c.Store.OpTimeout == 0 {
		c.Store.OpTimeout = defaultOpTimeout
	}
	if c.Game.RoundDuration == 0 {
		c.Game.RoundDuration = defaultRoundDuration
	}
	if c.Game.IdleTimeout == 0 {
		c.Game.IdleTimeout = defaultIdleTimeout
	}
	if c.Game.CleanupInterval == 0 {
		c.Game.CleanupInterval = defaultCleanupSeconds
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

// applyEnv 环境变量覆盖配置文件
func (c *Config) applyEnv() {
	setString(&c.Server.Host, "SERVER_HOST")
	setInt(&c.Server.Port, "SERVER_PORT")
	if v := os.Getenv("SERVER_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")
	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.Path, "STORE_PATH")
	setString(&c.Store.Key, "STORE_KEY")
	setInt(&c.Game.RoundDuration, "GAME_ROUND_DURATION")
	if v := os.Getenv("GAME_ANONYMOUS_VOTES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Game.AnonymousVotes = b
		}
	}
	if v := os.Getenv("GAME_LOCATIONS"); v != "" {
		c.Game.Locations = splitList(v)
	}
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
