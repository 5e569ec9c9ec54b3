package translator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CacheEntry 表示缓存条目
type CacheEntry struct {
	Value      string    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

// FileCache 是基于文件系统的缓存实现。
// 键为任意文本（通常是分组的合并文本），文件名取键的 SHA-256。
type FileCache struct {
	cacheDir string
	mutex    sync.RWMutex
}

// NewFileCache 创建一个新的基于文件的缓存
func NewFileCache(cacheDir string) *FileCache {
	return &FileCache{
		cacheDir: cacheDir,
	}
}

func cacheFileName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:]) + ".json"
}

// Get 从缓存中获取值
func (c *FileCache) Get(key string) (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	filePath := filepath.Join(c.cacheDir, cacheFileName(key))

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}

	return entry.Value, true
}

// Set 将值存储到缓存中
func (c *FileCache) Set(key string, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return fmt.Errorf("创建缓存目录失败: %w", err)
	}

	entry := CacheEntry{
		Value:      value,
		CreatedAt:  time.Now(),
		AccessedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化缓存条目失败: %w", err)
	}

	filePath := filepath.Join(c.cacheDir, cacheFileName(key))
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("写入缓存文件失败: %w", err)
	}

	return nil
}

// Clear 清除缓存
func (c *FileCache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("读取缓存目录失败: %w", err)
	}

	for _, entry := range entries {
		if err := os.Remove(filepath.Join(c.cacheDir, entry.Name())); err != nil {
			return fmt.Errorf("删除缓存文件失败 %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// MemoryCache 是内存中的缓存实现
type MemoryCache struct {
	cache map[string]CacheEntry
	mutex sync.RWMutex
}

// NewMemoryCache 创建一个新的内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string]CacheEntry),
	}
}

// Get 从缓存中获取值
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, ok := c.cache[key]
	if !ok {
		return "", false
	}

	return entry.Value, true
}

// Set 将值存储到缓存中
func (c *MemoryCache) Set(key string, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = CacheEntry{
		Value:      value,
		CreatedAt:  time.Now(),
		AccessedAt: time.Now(),
	}

	return nil
}

// Clear 清除缓存
func (c *MemoryCache) Clear() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]CacheEntry)

	return nil
}
