// Package config 提供了统一的配置加载与管理能力：TOML 文件 + APP_ 前缀环境变量覆盖、
// 结构体校验、文件变更热更新与脱敏打印。
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/wyfcoding/simplex/logging"
)

// Config 全局顶级配置结构.
type Config struct {
	Version   string          `mapstructure:"version"   toml:"version"`
	Server    ServerConfig    `mapstructure:"server"    toml:"server"`
	Log       LogConfig       `mapstructure:"log"       toml:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"   toml:"tracing"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   toml:"metrics"`
	Cache     CacheConfig     `mapstructure:"cache"     toml:"cache"`
	Data      DataConfig      `mapstructure:"data"      toml:"data"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" toml:"ratelimit"`
	Snowflake SnowflakeConfig `mapstructure:"snowflake" toml:"snowflake"`
	Solver    SolverConfig    `mapstructure:"solver"    toml:"solver"`
}

// ServerConfig 定义服务器运行时的基础网络与环境参数.
type ServerConfig struct {
	Name        string `mapstructure:"name"        toml:"name"        validate:"required"`
	Environment string `mapstructure:"environment" toml:"environment" validate:"oneof=dev test prod"`
	HTTP        struct {
		Addr              string        `mapstructure:"addr"                toml:"addr"`
		Timeout           time.Duration `mapstructure:"timeout"             toml:"timeout"`
		ReadTimeout       time.Duration `mapstructure:"read_timeout"        toml:"read_timeout"`
		ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" toml:"read_header_timeout"`
		WriteTimeout      time.Duration `mapstructure:"write_timeout"       toml:"write_timeout"`
		IdleTimeout       time.Duration `mapstructure:"idle_timeout"        toml:"idle_timeout"`
		MaxHeaderBytes    int           `mapstructure:"max_header_bytes"    toml:"max_header_bytes"`
		MaxBodyBytes      int64         `mapstructure:"max_body_bytes"      toml:"max_body_bytes"`
		Port              int           `mapstructure:"port"                toml:"port"                validate:"required,min=1,max=65535"`
	} `mapstructure:"http" toml:"http"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level         string        `mapstructure:"level"          toml:"level"`
	Output        string        `mapstructure:"output"         toml:"output"      validate:"omitempty,oneof=stdout file both"`
	File          string        `mapstructure:"file"           toml:"file"`
	MaxSize       int           `mapstructure:"max_size"       toml:"max_size"`    // 单个文件最大大小 (MB)
	MaxBackups    int           `mapstructure:"max_backups"    toml:"max_backups"` // 最大备份数
	MaxAge        int           `mapstructure:"max_age"        toml:"max_age"`     // 最大保留天数
	Compress      bool          `mapstructure:"compress"       toml:"compress"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold" toml:"slow_threshold"` // HTTP 慢请求阈值
}

// TracingConfig 分布式链路追踪（OpenTelemetry）配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" validate:"min=0,max=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
// Port 非空时在独立端口暴露，否则挂载到主 HTTP 服务的 Path 上。
type MetricsConfig struct {
	Port    string `mapstructure:"port"    toml:"port"`
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// CacheConfig 求解结果缓存策略.
type CacheConfig struct {
	Enabled           bool          `mapstructure:"enabled"            toml:"enabled"`
	Prefix            string        `mapstructure:"prefix"             toml:"prefix"`
	DefaultExpiration time.Duration `mapstructure:"default_expiration" toml:"default_expiration"`
}

// DataConfig 汇集缓存后端的数据源配置.
type DataConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"    toml:"redis"`
	BigCache BigCacheConfig `mapstructure:"bigcache" toml:"bigcache"`
}

// RedisConfig 定义 Redis 连接与池化参数. Addrs 为空表示不启用 Redis.
type RedisConfig struct {
	Password     string        `mapstructure:"password"       toml:"password"`
	Addrs        []string      `mapstructure:"addrs"          toml:"addrs"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"   toml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"  toml:"write_timeout"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"   toml:"dial_timeout"`
	DB           int           `mapstructure:"db"             toml:"db"`
	PoolSize     int           `mapstructure:"pool_size"      toml:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" toml:"min_idle_conns"`
}

// BigCacheConfig 高性能本地内存缓存参数.
type BigCacheConfig struct {
	LifeWindow       time.Duration `mapstructure:"life_window"         toml:"life_window"`
	CleanWindow      time.Duration `mapstructure:"clean_window"        toml:"clean_window"`
	Shards           int           `mapstructure:"shards"              toml:"shards"`
	MaxEntrySize     int           `mapstructure:"max_entry_size"      toml:"max_entry_size"`
	HardMaxCacheSize int           `mapstructure:"hard_max_cache_size" toml:"hard_max_cache_size"`
	Verbose          bool          `mapstructure:"verbose"             toml:"verbose"`
}

// RateLimitConfig 定义限流参数. Backend 为 redis 时按窗口在 Redis 中计数.
type RateLimitConfig struct {
	Backend string        `mapstructure:"backend" toml:"backend" validate:"omitempty,oneof=local redis"`
	Rate    int           `mapstructure:"rate"    toml:"rate"`
	Burst   int           `mapstructure:"burst"   toml:"burst"`
	Window  time.Duration `mapstructure:"window"  toml:"window"`
	Enabled bool          `mapstructure:"enabled" toml:"enabled"`
}

// SnowflakeConfig 分布式 ID 生成器参数.
type SnowflakeConfig struct {
	StartTime string `mapstructure:"start_time" toml:"start_time"`
	Type      string `mapstructure:"type"       toml:"type"       validate:"omitempty,oneof=snowflake sonyflake"`
	MachineID int64  `mapstructure:"machine_id" toml:"machine_id"`
}

// SolverConfig 求解服务的输入限制与默认行为. 0 表示不限制.
type SolverConfig struct {
	MaxIterations    int           `mapstructure:"max_iterations"    toml:"max_iterations"    validate:"min=0"`
	MaxVariables     int           `mapstructure:"max_variables"     toml:"max_variables"     validate:"min=0"`
	MaxConstraints   int           `mapstructure:"max_constraints"   toml:"max_constraints"   validate:"min=0"`
	MaxConcurrent    int           `mapstructure:"max_concurrent"    toml:"max_concurrent"    validate:"min=0"`
	DefaultDirection string        `mapstructure:"default_direction" toml:"default_direction" validate:"omitempty,oneof=max maximize min minimize"`
	Timeout          time.Duration `mapstructure:"timeout"           toml:"timeout"`
}

var (
	mu        sync.RWMutex
	vInstance = viper.New()
	onReload  []func(*Config)
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	mu.Lock()
	onReload = append(onReload, hook)
	mu.Unlock()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "simplex")
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("cache.prefix", "simplex:")
	v.SetDefault("cache.default_expiration", 10*time.Minute)
	v.SetDefault("ratelimit.backend", "local")
	v.SetDefault("ratelimit.window", time.Second)
	v.SetDefault("snowflake.type", "snowflake")
	v.SetDefault("snowflake.machine_id", 1)
	v.SetDefault("solver.max_variables", 200)
	v.SetDefault("solver.max_constraints", 200)
	v.SetDefault("solver.default_direction", "maximize")
}

// Load 读取配置文件并校验，随后监听文件变化自动热更新.
func Load(path string, conf any) error {
	v := viper.New()
	if err := read(v, path, conf); err != nil {
		return err
	}

	mu.Lock()
	vInstance = v
	mu.Unlock()

	validate := validator.New()
	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		if err := v.Unmarshal(conf); err != nil {
			slog.Error("reload config unmarshal failed", "error", err)
			return
		}
		if err := validate.Struct(conf); err != nil {
			slog.Error("reload config validation failed", "error", err)
			return
		}
		slog.Info("config hot-reloaded and validated successfully")

		if cfg, ok := conf.(*Config); ok {
			logging.SetLevel(cfg.Log.Level)
			mu.RLock()
			hooks := append([]func(*Config){}, onReload...)
			mu.RUnlock()
			for _, hook := range hooks {
				hook(cfg)
			}
		}
	})
	v.WatchConfig()

	return nil
}

// LoadOnce 读取并校验配置但不监听变化，适用于 CLI 与测试.
func LoadOnce(path string, conf any) error {
	return read(viper.New(), path, conf)
}

func read(v *viper.Viper, path string, conf any) error {
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, ok := conf.(*Config); ok {
		setDefaults(v)
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}
	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := validator.New().Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	masked, err := MaskedJSON(conf)
	if err != nil {
		slog.Error("failed to mask config for printing", "error", err)
		return
	}
	slog.Info("Current effective configuration", "config", masked)
}

// MaskedJSON 返回敏感字段（password、secret、token 等）被替换后的配置 JSON.
func MaskedJSON(conf any) (string, error) {
	data, err := json.Marshal(conf)
	if err != nil {
		return "", err
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		return "", err
	}

	mask(configMap)

	out, err := json.MarshalIndent(configMap, "  ", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}

		if slice, ok := val.([]any); ok {
			for _, item := range slice {
				if itemMap, ok := item.(map[string]any); ok {
					mask(itemMap)
				}
			}
			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}

// GetViper 返回最近一次 Load 使用的 Viper 实例.
func GetViper() *viper.Viper {
	mu.RLock()
	defer mu.RUnlock()
	return vInstance
}
