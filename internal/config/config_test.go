package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults Without File", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, "auto", cfg.SourceLang)
		assert.Equal(t, "zh", cfg.TargetLang)
		assert.Equal(t, DefaultMaxConcurrent, cfg.MaxConcurrentTranslations)
		assert.Equal(t, DefaultBatchMaxSize, cfg.BatchMaxSize)
		assert.Equal(t, DefaultSeparator, cfg.Separator)
		assert.Equal(t, DefaultTranslationTimeout, cfg.TranslationTimeout)
		assert.True(t, cfg.UseCache)
		assert.Equal(t, "replace", cfg.DisplayMode)
		assert.NotEmpty(t, cfg.CacheDir)
		assert.NotEmpty(t, cfg.StatsPath)
	})

	t.Run("Load From File", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := `target_lang: ja
max_concurrent_translations: 3
batch_max_size: 500
debug: true
model: gpt-4o
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "ja", cfg.TargetLang)
		assert.Equal(t, 3, cfg.MaxConcurrentTranslations)
		assert.Equal(t, 500, cfg.BatchMaxSize)
		assert.True(t, cfg.Debug)
		assert.Equal(t, "gpt-4o", cfg.Model)
		// 文件未显式覆盖的项回落到默认值
		assert.Equal(t, DefaultSeparator, cfg.Separator)
	})

	t.Run("Invalid File", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(":::not yaml"), 0644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestConfigValues(t *testing.T) {
	cfg := &Config{
		MaxConcurrentTranslations: 4,
		BatchMaxSize:              200,
		Separator:                 "##",
	}

	v := cfg.Values()
	assert.Equal(t, 4, v.MaxConcurrentTranslations)
	assert.Equal(t, 200, v.BatchMaxSize)
	assert.Equal(t, "##", v.Separator)
}

func TestProviderDefaults(t *testing.T) {
	t.Run("Zero Values Get Defaults", func(t *testing.T) {
		p := NewConstantProvider(Values{})

		v := p.Get()
		assert.Equal(t, DefaultMaxConcurrent, v.MaxConcurrentTranslations)
		assert.Equal(t, DefaultBatchMaxSize, v.BatchMaxSize)
		assert.Equal(t, DefaultSeparator, v.Separator)
	})

	t.Run("Negative Ceiling Gets Default", func(t *testing.T) {
		p := NewConstantProvider(Values{MaxConcurrentTranslations: -1})
		assert.Equal(t, DefaultMaxConcurrent, p.Get().MaxConcurrentTranslations)
	})
}

func TestDynamicProvider(t *testing.T) {
	p := NewDynamicProvider(Values{MaxConcurrentTranslations: 2})
	assert.Equal(t, 2, p.Get().MaxConcurrentTranslations)

	// 更新对后续的 Get 立即可见
	p.Set(Values{MaxConcurrentTranslations: 8, BatchMaxSize: 100, Separator: "@"})
	v := p.Get()
	assert.Equal(t, 8, v.MaxConcurrentTranslations)
	assert.Equal(t, 100, v.BatchMaxSize)
	assert.Equal(t, "@", v.Separator)

	// Set 传入零值同样回落到默认
	p.Set(Values{})
	assert.Equal(t, DefaultMaxConcurrent, p.Get().MaxConcurrentTranslations)
}
