package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nerdneilsfield/go-page-translator/pkg/translator"
)

// printSummary 翻译结束后输出统计摘要
func printSummary(s translator.StatusSnapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"指标", "值"})
	t.AppendRows([]table.Row{
		{"总字符数", s.TotalCharacters},
		{"已完成字符数", s.CompletedCharacters},
		{"完成进度", fmt.Sprintf("%.1f%%", s.ProgressPercentage)},
		{"平均速度", fmt.Sprintf("%d 字/秒", s.AverageSpeed)},
	})
	t.Render()
}
