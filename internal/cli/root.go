package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/nerdneilsfield/go-page-translator/internal/config"
	"github.com/nerdneilsfield/go-page-translator/internal/document"
	"github.com/nerdneilsfield/go-page-translator/internal/langdetect"
	"github.com/nerdneilsfield/go-page-translator/internal/logger"
	"github.com/nerdneilsfield/go-page-translator/pkg/provider"
	"github.com/nerdneilsfield/go-page-translator/pkg/translator"
)

var (
	// 命令行标志变量
	cfgFile     string
	sourceLang  string
	targetLang  string
	modelName   string
	debugMode   bool
	noCache     bool
	bilingual   bool
	showVersion bool

	// statusInterval 状态快照的采样间隔
	statusInterval = 500 * time.Millisecond
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "page-translator [flags] input.html output.html",
		Short: "把 HTML 页面中的文本批量翻译为目标语言",
		Long: `page-translator 收集页面中零散的文本片段，合并为大小受限的分组，
在有界并发下调用翻译提供商，并把译文写回原位置。
翻译过程中会持续显示进度、速度与预计剩余时间。`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("page-translator %s (%s) built at %s\n", version, commit, buildDate)
				return nil
			}
			return runTranslate(args[0], args[1])
		},
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")
	rootCmd.Flags().StringVarP(&sourceLang, "source", "s", "", "源语言")
	rootCmd.Flags().StringVarP(&targetLang, "target", "t", "", "目标语言")
	rootCmd.Flags().StringVarP(&modelName, "model", "m", "", "翻译模型")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "输出调试日志")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "禁用翻译缓存")
	rootCmd.Flags().BoolVar(&bilingual, "bilingual", false, "双语模式：保留原文并追加译文")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "显示版本信息")

	return rootCmd
}

func runTranslate(inputPath, outputPath string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	applyFlags(cfg)

	log := logger.NewLogger(cfg.Debug)
	defer func() {
		_ = log.Sync()
	}()

	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("打开输入文件失败: %w", err)
	}
	defer input.Close()

	page, err := document.LoadPage(input)
	if err != nil {
		return fmt.Errorf("解析页面失败: %w", err)
	}

	batcher, scheduler := buildPipeline(cfg, page, log)

	// 投喂片段；排队过长时暂停并让已有分组先行派发
	count := 0
	page.EachTextNode(func(text string, origin *html.Node) {
		batcher.AddFragment(text, origin)
		count++
		if count%50 == 0 {
			batcher.FlushAll()
			for !scheduler.CanAcceptMore() {
				time.Sleep(50 * time.Millisecond)
			}
		}
	})
	batcher.FlushAll()

	log.Info("dispatch started",
		zap.Int("fragments", count),
		zap.String("input", inputPath))

	done := make(chan struct{})
	go func() {
		batcher.Wait()
		close(done)
	}()
	pollStatus(batcher, done)

	result, err := page.Html()
	if err != nil {
		return fmt.Errorf("序列化页面失败: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(result), 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}

	printSummary(batcher.Status())
	return nil
}

// buildPipeline 按配置组装批处理器及其协作方
func buildPipeline(cfg *config.Config, page *document.Page, log *zap.Logger) (*translator.Batcher, *translator.Scheduler) {
	store := translator.NewFileStore(cfg.CacheDir)
	stats := translator.NewSpeedTracker(store, log)
	provider := provider.NewOpenAIProvider(
		cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.SourceLang, cfg.TargetLang, log)

	cfgProvider := config.NewDynamicProvider(cfg.Values())
	scheduler := translator.NewScheduler(cfgProvider, stats, log)

	mode := cfg.DisplayMode
	if bilingual {
		mode = "bilingual"
	}

	opts := []translator.BatcherOption{
		translator.WithDetector(langdetect.NewDetector(), cfg.TargetLang),
		translator.WithRenderer(document.NewNodeRenderer(mode)),
		translator.WithDocContext(page.Title()),
		translator.WithTimeout(time.Duration(cfg.TranslationTimeout) * time.Second),
		translator.WithLogger(log),
	}
	if cfg.UseCache && !noCache {
		opts = append(opts, translator.WithCache(translator.NewFileCache(cfg.CacheDir)))
	}

	return translator.NewBatcher(provider, scheduler, cfgProvider, opts...), scheduler
}

// pollStatus 以固定间隔采样状态快照并刷新单行进度显示
func pollStatus(batcher *translator.Batcher, done <-chan struct{}) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	line := color.New(color.FgCyan)
	for {
		select {
		case <-done:
			fmt.Println()
			return
		case <-ticker.C:
			s := batcher.Status()
			line.Printf("\r进度 %5.1f%%  活跃 %d/%d  排队 %d  速度 %d 字/秒  剩余约 %ds   ",
				s.ProgressPercentage, s.Active, s.Ceiling, s.Pending,
				s.AverageSpeed, s.EstimatedRemainingTimeSeconds)
		}
	}
}
