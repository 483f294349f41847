package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置定义 ====================

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Task     TaskConfig     `mapstructure:"task"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// JWTConfig 令牌配置
type JWTConfig struct {
	SecretKey      string        `mapstructure:"secret_key"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Issuer         string        `mapstructure:"issuer"`
}

// TaskConfig 定时任务配置
type TaskConfig struct {
	LowStockEnabled   bool   `mapstructure:"low_stock_enabled"`
	LowStockCron      string `mapstructure:"low_stock_cron"`
	LowStockThreshold int    `mapstructure:"low_stock_threshold"`
}

// ==================== 加载 ====================

// Load 读取 config.yaml 并叠加环境变量（前缀 ERP_，点号换下划线）
func Load(path string) *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 默认值
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("jwt.secret_key", "wellness-erp-secret-change-in-production")
	v.SetDefault("jwt.access_token_ttl", 12*time.Hour)
	v.SetDefault("jwt.issuer", "wellness-erp")
	v.SetDefault("task.low_stock_enabled", true)
	v.SetDefault("task.low_stock_cron", "0 7 * * *")
	v.SetDefault("task.low_stock_threshold", 5)

	if err := v.ReadInConfig(); err != nil {
		// 允许纯环境变量启动
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("读取配置文件失败: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("解析配置失败: %v", err)
	}
	return &cfg
}
