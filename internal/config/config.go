package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Config 保存页面翻译器的所有配置
type Config struct {
	SourceLang string `mapstructure:"source_lang"`
	TargetLang string `mapstructure:"target_lang"`

	// MaxConcurrentTranslations 同时在途的翻译请求上限
	MaxConcurrentTranslations int `mapstructure:"max_concurrent_translations"`
	// BatchMaxSize 单个分组合并文本的最大字符数
	BatchMaxSize int `mapstructure:"batch_max_size"`
	// Separator 合并片段时使用的固定分隔符
	Separator string `mapstructure:"separator"`
	// TranslationTimeout 单个分组的翻译超时时间（秒）
	TranslationTimeout int `mapstructure:"translation_timeout"`

	CacheDir  string `mapstructure:"cache_dir"`
	UseCache  bool   `mapstructure:"use_cache"`
	StatsPath string `mapstructure:"stats_path"`

	// DisplayMode 渲染层的显示模式（"replace" 或 "bilingual"），
	// 仅由外部渲染协作方消费
	DisplayMode string `mapstructure:"display_mode"`

	Debug   bool   `mapstructure:"debug"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Values 调度与批处理在每次决策时读取的配置快照
type Values struct {
	MaxConcurrentTranslations int
	BatchMaxSize              int
	Separator                 string
}

// Provider 提供动态配置读取。每次调用 Get 都返回当前值的快照，
// 因此运行期间的配置修改会立即对新的准入决策生效。
type Provider interface {
	Get() Values
}

// ConstantProvider 是值固定不变的 Provider 实现
type ConstantProvider struct {
	values Values
}

// NewConstantProvider 创建固定值的配置提供者
func NewConstantProvider(values Values) *ConstantProvider {
	p := &ConstantProvider{values: values}
	p.values.applyDefaults()
	return p
}

// Get 返回固定的配置值
func (p *ConstantProvider) Get() Values {
	return p.values
}

// DynamicProvider 是可在运行时更新的 Provider 实现
type DynamicProvider struct {
	mu     sync.RWMutex
	values Values
}

// NewDynamicProvider 创建可更新的配置提供者
func NewDynamicProvider(values Values) *DynamicProvider {
	values.applyDefaults()
	return &DynamicProvider{values: values}
}

// Get 返回当前配置值的快照
func (p *DynamicProvider) Get() Values {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values
}

// Set 替换当前配置值；对新的准入决策立即生效
func (p *DynamicProvider) Set(values Values) {
	values.applyDefaults()
	p.mu.Lock()
	p.values = values
	p.mu.Unlock()
}

func (v *Values) applyDefaults() {
	if v.MaxConcurrentTranslations <= 0 {
		v.MaxConcurrentTranslations = DefaultMaxConcurrent
	}
	if v.BatchMaxSize <= 0 {
		v.BatchMaxSize = DefaultBatchMaxSize
	}
	if v.Separator == "" {
		v.Separator = DefaultSeparator
	}
}

// 默认值
const (
	DefaultMaxConcurrent      = 6
	DefaultBatchMaxSize       = 1000
	DefaultSeparator          = "\n@@\n"
	DefaultTranslationTimeout = 60
)

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigName(".page-translator")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PAGETRANSLATOR")

	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.CacheDir == "" {
		config.CacheDir = getDefaultCacheDir()
	}
	if config.StatsPath == "" {
		config.StatsPath = filepath.Join(config.CacheDir, "speed_stats.json")
	}

	return &config, nil
}

// Values 返回配置中供调度与批处理使用的部分
func (c *Config) Values() Values {
	v := Values{
		MaxConcurrentTranslations: c.MaxConcurrentTranslations,
		BatchMaxSize:              c.BatchMaxSize,
		Separator:                 c.Separator,
	}
	v.applyDefaults()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_lang", "auto")
	v.SetDefault("target_lang", "zh")
	v.SetDefault("max_concurrent_translations", DefaultMaxConcurrent)
	v.SetDefault("batch_max_size", DefaultBatchMaxSize)
	v.SetDefault("separator", DefaultSeparator)
	v.SetDefault("translation_timeout", DefaultTranslationTimeout)
	v.SetDefault("use_cache", true)
	v.SetDefault("display_mode", "replace")
	v.SetDefault("debug", false)
	v.SetDefault("model", "gpt-4o-mini")
}

func getDefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".page-translator-cache"
	}
	return filepath.Join(home, ".page-translator", "cache")
}
