package langdetect

import (
	"unicode"
)

// Detector 基于 Unicode 书写系统统计的轻量语言检测器。
// 只需要区分"文本是否已经是目标语言"，不追求精确的语言识别。
type Detector struct{}

// NewDetector 创建语言检测器
func NewDetector() *Detector {
	return &Detector{}
}

// Detect 返回文本的语言代码；无法判断时返回 "unknown"
func (d *Detector) Detect(text string) string {
	var han, kana, hangul, cyrillic, latin, letters int

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}

	if letters == 0 {
		return "unknown"
	}

	// 假名的出现优先于汉字判断，日文文本通常混用两者
	if kana*10 >= letters {
		return "ja"
	}
	if han*2 >= letters {
		return "zh"
	}
	if hangul*2 >= letters {
		return "ko"
	}
	if cyrillic*2 >= letters {
		return "ru"
	}
	if latin*2 >= letters {
		return "en"
	}

	return "unknown"
}
