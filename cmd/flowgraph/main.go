// =============================================================================
// FlowGraph 主入口
// =============================================================================
// 工作流 DSL 工具链入口点，包含校验、格式化、格式转换与存储管理
//
// 使用方法:
//
//	flowgraph validate pipeline.flow        # 解析并校验
//	flowgraph fmt pipeline.flow             # 输出规范化 DSL
//	flowgraph convert pipeline.flow --to json
//	flowgraph store add pipeline.flow       # 存入工作流库
//	flowgraph store list
//	flowgraph version                       # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/flowgraph-io/flowgraph"
	"github.com/flowgraph-io/flowgraph/config"
	"github.com/flowgraph-io/flowgraph/internal/cache"
	"github.com/flowgraph-io/flowgraph/internal/metrics"
	"github.com/flowgraph-io/flowgraph/workflow"
	"github.com/flowgraph-io/flowgraph/workflow/dsl"
	"github.com/flowgraph-io/flowgraph/workflow/store"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		runValidate(os.Args[2:])
	case "fmt":
		runFmt(os.Args[2:])
	case "convert":
		runConvert(os.Args[2:])
	case "store":
		runStore(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// ✅ validate 命令
// =============================================================================

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	format := fs.String("format", "text", "Output format: text, json")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowgraph validate [--format text|json] <file>")
		os.Exit(1)
	}

	wf, err := loadWorkflowFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	eng, err := flowgraph.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	result := eng.Validate(wf)

	if *format == "json" {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
	} else {
		if result.Valid {
			fmt.Printf("%s: valid (%d nodes, %d dependencies)\n",
				fs.Arg(0), len(wf.Nodes), len(wf.Dependencies))
		} else {
			for _, verr := range result.Errors {
				fmt.Printf("%s: [%s] %s\n", fs.Arg(0), verr.Code, verr.Message)
			}
		}
	}

	if !result.Valid {
		os.Exit(1)
	}
}

// =============================================================================
// 🖋️ fmt 命令
// =============================================================================

func runFmt(args []string) {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	write := fs.Bool("write", false, "Rewrite the file in place instead of printing")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowgraph fmt [--write] <file>")
		os.Exit(1)
	}

	path := fs.Arg(0)
	wf, err := loadWorkflowFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out := dsl.Generate(wf)
	if *write {
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Print(out)
}

// =============================================================================
// 🔄 convert 命令
// =============================================================================

func runConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	to := fs.String("to", "json", "Target format: dsl, json, yaml")
	output := fs.String("o", "", "Output file (default stdout)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowgraph convert [--to dsl|json|yaml] [-o out] <file>")
		os.Exit(1)
	}

	wf, err := loadWorkflowFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var out string
	switch *to {
	case "dsl", "flow":
		out = dsl.Generate(wf)
	case "json":
		out, err = wf.ToJSON()
	case "yaml", "yml":
		out, err = wf.ToYAML()
	default:
		fmt.Fprintf(os.Stderr, "Unknown target format: %s\n", *to)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(out), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Print(out)
}

// =============================================================================
// 🗄️ store 命令
// =============================================================================

func runStore(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: flowgraph store <add|get|list|delete> [options]")
		os.Exit(1)
	}

	sub := args[0]
	fs := flag.NewFlagSet("store "+sub, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	format := fs.String("format", "dsl", "Output format for get: dsl, json, yaml")
	fs.Parse(args[1:])

	loader := config.NewLoader()
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	ctx := context.Background()

	switch sub {
	case "add":
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "Usage: flowgraph store add [--config path] <file>")
			os.Exit(1)
		}
		wf, err := loadWorkflowFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if result := eng.Validate(wf); !result.Valid {
			for _, verr := range result.Errors {
				fmt.Fprintf(os.Stderr, "%s: [%s] %s\n", fs.Arg(0), verr.Code, verr.Message)
			}
			os.Exit(1)
		}
		id, err := eng.Save(ctx, wf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(id)

	case "get":
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "Usage: flowgraph store get [--config path] [--format dsl|json|yaml] <id>")
			os.Exit(1)
		}
		wf, err := eng.Load(ctx, fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		var out string
		switch *format {
		case "json":
			out, err = wf.ToJSON()
		case "yaml", "yml":
			out, err = wf.ToYAML()
		default:
			out = dsl.Generate(wf)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(out)

	case "list":
		flows, err := eng.List(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, wf := range flows {
			fmt.Printf("%s\t%s\t%d nodes\n", wf.ID, wf.Name, len(wf.Nodes))
		}

	case "delete":
		if fs.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "Usage: flowgraph store delete [--config path] <id>")
			os.Exit(1)
		}
		if err := eng.Delete(ctx, fs.Arg(0)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown store subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// buildEngine 根据配置装配引擎：存储驱动、可选缓存与可选指标
func buildEngine(cfg *config.Config, logger *zap.Logger) (*flowgraph.Engine, error) {
	opts := []flowgraph.Option{flowgraph.WithLogger(logger)}

	switch cfg.Store.Driver {
	case "sqlite":
		s, err := store.NewSQLStore(cfg.Store.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		opts = append(opts, flowgraph.WithStore(s))
	default:
		// 内存存储仅在进程生命周期内有效
		logger.Warn("using in-memory store, workflows will not persist")
	}

	if cfg.Cache.Enabled {
		c, err := cache.New(cache.Config{
			Addr:       cfg.Cache.Addr,
			Password:   cfg.Cache.Password,
			DB:         cfg.Cache.DB,
			DefaultTTL: cfg.Cache.DefaultTTL,
			PoolSize:   cfg.Cache.PoolSize,
		}, logger)
		if err != nil {
			logger.Warn("cache not available, continuing without it", zap.Error(err))
		} else {
			opts = append(opts, flowgraph.WithCache(c, cfg.Cache.DefaultTTL))
		}
	}

	if cfg.Metrics.Enabled {
		opts = append(opts, flowgraph.WithMetrics(metrics.NewCollector(cfg.Metrics.Namespace, logger)))
	}

	return flowgraph.New(opts...)
}

// =============================================================================
// 📄 文件加载
// =============================================================================

// loadWorkflowFile 按扩展名加载工作流文件：.json / .yaml / .yml 走交换格式，
// 其余一律按 DSL 解析
func loadWorkflowFile(path string) (*workflow.Workflow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return workflow.LoadJSONFile(path)
	case ".yaml", ".yml":
		return workflow.LoadYAMLFile(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return dsl.Parse(string(data))
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("FlowGraph %s\n", flowgraph.Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`FlowGraph - Workflow DSL Toolchain

Usage:
  flowgraph <command> [options]

Commands:
  validate  Parse a workflow file and run structural validation
  fmt       Print (or rewrite) a workflow in canonical DSL form
  convert   Convert a workflow between dsl, json and yaml
  store     Manage the workflow store
  version   Show version information
  help      Show this help message

Options for 'validate':
  --format <text|json>   Output format

Options for 'fmt':
  --write                Rewrite the file in place

Options for 'convert':
  --to <dsl|json|yaml>   Target format
  -o <path>              Output file (default stdout)

Store subcommands:
  store add <file>       Parse and save a workflow, prints its id
  store get <id>         Print a stored workflow
  store list             List stored workflows
  store delete <id>      Delete a stored workflow

Examples:
  flowgraph validate pipeline.flow
  flowgraph fmt --write pipeline.flow
  flowgraph convert pipeline.flow --to yaml
  flowgraph store add --config /etc/flowgraph/config.yaml pipeline.flow
  flowgraph store list
  flowgraph version`)
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

	// 构建配置
	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         cfg.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
	} else {
		zapConfig.Encoding = "json"
	}

	// 构建 logger
	var buildOpts []zap.Option
	if cfg.EnableCaller {
		buildOpts = append(buildOpts, zap.AddCaller())
	}
	logger, err := zapConfig.Build(buildOpts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
