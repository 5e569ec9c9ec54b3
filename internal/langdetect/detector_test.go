package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"Chinese", "这是一个中文句子", "zh"},
		{"Chinese With Punctuation", "你好，世界！", "zh"},
		{"Japanese Kana", "これはテストです", "ja"},
		{"Japanese Mixed Kanji And Kana", "日本語のテキストです", "ja"},
		{"Korean", "안녕하세요 세계", "ko"},
		{"Russian", "Это русский текст", "ru"},
		{"English", "This is an English sentence", "en"},
		{"Numbers Only", "12345 67890", "unknown"},
		{"Empty", "", "unknown"},
		{"Whitespace", "   \n\t", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Detect(tt.text))
		})
	}
}

func TestDetectMixedContent(t *testing.T) {
	d := NewDetector()

	// 中文为主、夹杂少量英文时仍判为中文
	assert.Equal(t, "zh", d.Detect("这段文字包含少量的 API 英文缩写但整体是中文内容"))

	// 英文为主时判为英文
	assert.Equal(t, "en", d.Detect("Mostly English text with 一 character"))
}
