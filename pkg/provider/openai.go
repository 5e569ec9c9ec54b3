package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider 基于 OpenAI Chat Completion API 的翻译提供商。
// 同时实现平面文本与结构化批量两种请求方式。
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	sourceLang string
	targetLang string
	logger     *zap.Logger
}

// NewOpenAIProvider 创建 OpenAI 翻译提供商
func NewOpenAIProvider(apiKey, baseURL, model, sourceLang, targetLang string, logger *zap.Logger) *OpenAIProvider {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		// go-openai 的 API 后缀以斜杠开头，去掉结尾斜杠避免双斜杠
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		sourceLang: sourceLang,
		targetLang: targetLang,
		logger:     logger,
	}
}

// Translate 在给定文档上下文中翻译一段文本
func (p *OpenAIProvider) Translate(ctx context.Context, docContext string, text string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Output only the translation, keeping every line that consists solely of separator characters unchanged and in place.\n\nDocument context: %s\n\nText:\n%s",
		p.sourceLang, p.targetLang, docContext, text)

	content, err := p.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return content, nil
}

// TranslateBatch 按原顺序翻译一组文本。请求与响应都使用 JSON
// 数组编码，结果按索引一一对应，不依赖文本内分隔符。
func (p *OpenAIProvider) TranslateBatch(ctx context.Context, docContext string, texts []string) ([]string, error) {
	encoded, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("编码批量请求失败: %w", err)
	}

	prompt := fmt.Sprintf(
		"Translate each string in the following JSON array from %s to %s. Reply with a JSON array of the same length, translations in the same order, and nothing else.\n\nDocument context: %s\n\n%s",
		p.sourceLang, p.targetLang, docContext, string(encoded))

	content, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var results []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &results); err != nil {
		return nil, fmt.Errorf("解析批量响应失败: %w", err)
	}
	if len(results) != len(texts) {
		return nil, fmt.Errorf("批量响应数量不一致: got %d, want %d", len(results), len(texts))
	}
	return results, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}

	p.logger.Debug("sending translation request",
		zap.String("model", p.model),
		zap.Int("promptLength", len(prompt)))

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		p.logger.Debug("translation request failed", zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("响应中没有候选结果")
	}

	return resp.Choices[0].Message.Content, nil
}
