package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	MySQL    MySQLConfig    `mapstructure:"mysql"`    // MySQL配置
	Redis    RedisConfig    `mapstructure:"redis"`    // Redis配置
	Cache    CacheConfig    `mapstructure:"cache"`    // 缓存键配置
	Dedup    DedupConfig    `mapstructure:"dedup"`    // 去重层配置
	Omission OmissionConfig `mapstructure:"omission"` // 遗漏引擎配置
	LLM      LLMConfig      `mapstructure:"llm"`      // 大模型接入配置
	Sources  []SourceConfig `mapstructure:"sources"`  // 采集源列表
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// MySQLConfig MySQL数据库配置
type MySQLConfig struct {
	DSN              string        `mapstructure:"dsn"`                 // 写库DSN
	ReadDSN          string        `mapstructure:"read_dsn"`            // 读库DSN，可空（空则读写共用）
	MaxOpenConns     int           `mapstructure:"max_open_conns"`      // 写池最大打开连接数
	MaxIdleConns     int           `mapstructure:"max_idle_conns"`      // 写池最大空闲连接数
	ReadMaxOpenConns int           `mapstructure:"read_max_open_conns"` // 读池最大打开连接数
	ReadMaxIdleConns int           `mapstructure:"read_max_idle_conns"` // 读池最大空闲连接数
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`   // 连接最大存活时间
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`     // host:port
	Password string `mapstructure:"password"` // 密码，可空
	DB       int    `mapstructure:"db"`       // 库序号
}

// CacheConfig 缓存键配置
type CacheConfig struct {
	Prefix string `mapstructure:"prefix"` // 键命名空间前缀，默认 drawsync:
}

// DedupConfig 去重层配置
type DedupConfig struct {
	SnapshotPath string `mapstructure:"snapshot_path"` // 本地已见集合快照文件路径
}

// OmissionConfig 遗漏引擎配置
type OmissionConfig struct {
	BootstrapCap int `mapstructure:"bootstrap_cap"` // 引导扫描最多回看的期数
}

// LLMConfig 大模型接入配置
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"` // OpenAI兼容端点基础地址
	APIKey  string `mapstructure:"api_key"`  // 密钥（建议走 .env）
	Model   string `mapstructure:"model"`    // 模型名
	Proxy   string `mapstructure:"proxy"`    // 代理地址，可空
}

// SourceConfig 单个采集源配置
type SourceConfig struct {
	Name     string            `mapstructure:"name"`      // 源名称
	URL      string            `mapstructure:"url"`       // 拉取地址
	Parser   string            `mapstructure:"parser"`    // 解析器标识：universal/keno
	Interval time.Duration     `mapstructure:"interval"`  // 轮询间隔（500ms~2s）
	SkipTLS  bool              `mapstructure:"skip_tls"`  // 跳过证书校验
	Headers  map[string]string `mapstructure:"headers"`   // 自定义请求头
	Disabled bool              `mapstructure:"disabled"`  // 临时停用
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)

	// 4. 关键配置缺失直接拒绝启动
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate 启动前的关键配置校验。缺密钥这类问题如果放到运行期，
// 表现是每轮预测静默401，必须在这里一次性报清楚。
func validate(cfg *Config) error {
	if cfg.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn 未配置：请在 config/config.yaml 或环境变量 MYSQL_DSN 中设置")
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr 未配置：请在 config/config.yaml 或环境变量 REDIS_ADDR 中设置")
	}
	if cfg.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url 未配置：请在 config/config.yaml 或环境变量 LLM_BASE_URL 中设置")
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key 未配置：请在 .env 或环境变量 LLM_API_KEY 中设置")
	}
	return nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQL.DSN = v
	}
	if v := os.Getenv("MYSQL_READ_DSN"); v != "" {
		cfg.MySQL.ReadDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_PROXY"); v != "" {
		cfg.LLM.Proxy = v
	}
}
