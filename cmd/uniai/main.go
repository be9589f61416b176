// =============================================================================
// UniAI 命令行入口
// =============================================================================
// 通过统一接口调用各家模型，便于联调与排查
//
// 使用方法:
//
//	uniai chat -provider google "你好"         # 一次性对话
//	uniai chat -stream -provider glm < q.txt    # 流式输出，提示语来自标准输入
//	uniai embed -provider aliyun 文本一 文本二  # 计算向量
//	uniai models                                # 列出各服务商模型
//	uniai version                               # 显示版本信息
// =============================================================================
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/uniai"
	"github.com/BaSui01/uniai/config"
	"github.com/BaSui01/uniai/internal/telemetry"
	"github.com/BaSui01/uniai/llm"
	"github.com/BaSui01/uniai/llm/factory"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	// Ctrl-C 取消正在进行的请求，流式输出随之关闭
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "chat":
		err = runChat(ctx, os.Args[2:], pipedStdin(), os.Stdout)
	case "embed":
		err = runEmbed(ctx, os.Args[2:], os.Stdout)
	case "models":
		err = runModels(os.Args[2:], os.Stdout)
	case "version":
		printVersion(os.Stdout)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// pipedStdin 仅在标准输入被重定向时返回它，终端交互时返回 nil。
func pipedStdin() io.Reader {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return nil
	}
	return os.Stdin
}

// =============================================================================
// 🔧 运行环境
// =============================================================================

// app 单次命令共享的调度器与日志。
type app struct {
	ai     *uniai.UniAI
	logger *zap.Logger
	otel   *telemetry.Providers
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.NewLoader().
		WithConfigPath(configPath).
		WithValidator(func(c *config.Config) error { return c.Validate() }).
		Load()
	if err != nil {
		return nil, err
	}

	logger := initLogger(cfg.Log)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger,
		telemetry.WithServiceVersion(Version),
		telemetry.WithProviders(configuredProviders(cfg)))
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	opts := []uniai.Option{uniai.WithLogger(logger)}
	if tp := otelProviders.TracerProvider(); tp != nil {
		opts = append(opts, uniai.WithTracerProvider(tp))
	}
	ai, err := uniai.New(cfg, opts...)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &app{ai: ai, logger: logger, otel: otelProviders}, nil
}

// configuredProviders 返回配置了凭证的服务商。
func configuredProviders(cfg *config.Config) []llm.Provider {
	var tags []llm.Provider
	for _, tag := range llm.ChatProviders() {
		if factory.Configured(tag, cfg.Providers) {
			tags = append(tags, tag)
		}
	}
	return tags
}

func (a *app) Close() {
	if err := a.ai.Close(); err != nil {
		a.logger.Warn("close uniai", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.otel.Shutdown(ctx); err != nil {
		a.logger.Debug("telemetry shutdown", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "UniAI %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `UniAI - unified chat and embedding client

Usage:
  uniai <command> [options] [text...]

Commands:
  chat      Send a chat request, prompt from args or stdin
  embed     Compute embeddings for each argument
  models    List known models per provider
  version   Show version information
  help      Show this help message

Options for 'chat':
  -config <path>        Path to configuration file (YAML)
  -provider <tag>       openai, anthropic, deepseek, iflytek, baidu, google,
                        glm, moonshot, aliyun, xai, ark, other
  -model <name>         Model name, defaults per provider
  -system <text>        System prompt
  -stream               Print the reply as it arrives
  -temperature <f>      Sampling temperature
  -top <f>              Nucleus sampling
  -max <n>              Maximum reply length
  -img <ref>            Attach an image (url, file or data uri), repeatable

Options for 'embed':
  -config, -provider, -model, -dimensions <n>

Environment:
  UNIAI_PROVIDERS_<TAG>_KEYS=key1,key2 and other UNIAI_* overrides

Examples:
  uniai chat -provider anthropic "Explain SSE in one sentence"
  echo "hello" | uniai chat -stream -provider google
  uniai embed -provider glm "first" "second"
  uniai models -provider openai`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	// 解析日志级别
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	// 构建配置
	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         "json",
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	// 构建 logger
	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
