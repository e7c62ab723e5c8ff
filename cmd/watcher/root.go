package main

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shuakami/watcher/v2"
	"github.com/shuakami/watcher/v2/ignored"
)

// 版本号在构建时通过 -ldflags 注入
var version = "dev"

// rootCmd 是所有子命令的入口
var rootCmd = &cobra.Command{
	Use:                "watcher",
	Short:              "Watch directories and report batched file changes.",
	Long:               `Watcher reports debounced batches of file changes, skipping anything matched by the ignored rules.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(checkCmd)

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringArray("ignore", nil, "Glob of paths to ignore (repeatable; WATCHER_IGNORE takes whitespace-separated globs)")
	rootCmd.PersistentFlags().StringArray("ignore-regexp", nil, "Regular expression of paths to ignore (repeatable; WATCHER_IGNORE_REGEXP takes whitespace-separated values)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug or info or warn or error")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fatal("Error binding root flags", err)
	}

	watchCmd.Flags().Duration("aggregate-timeout", watcher.DefaultDebounce, "Quiet period before a batch is emitted")
	watchCmd.Flags().Int("workers", watcher.DefaultWorkerCount, "Number of concurrent hashing workers")
	if err := viper.BindPFlags(watchCmd.Flags()); err != nil {
		fatal("Error binding watch flags", err)
	}
}

// initConfig 读取 WATCHER_ 前缀的环境变量
func initConfig() {
	viper.SetEnvPrefix("WATCHER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig 合并配置文件、命令行参数与环境变量
//
// 命令行参数与环境变量优先于配置文件。
func loadConfig(cmd *cobra.Command) (watcher.ConfigWatcher, error) {
	var cfg watcher.ConfigWatcher
	if path := viper.GetString("config"); path != "" {
		loaded, err := watcher.LoadConfigFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	spec, err := resolveIgnored(cfg.Ignored, stringsFlag(cmd, "ignore"), stringsFlag(cmd, "ignore-regexp"))
	if err != nil {
		return cfg, err
	}
	cfg.Ignored = spec

	if viper.IsSet("aggregate-timeout") {
		cfg.Debounce = viper.GetDuration("aggregate-timeout")
	}
	if viper.IsSet("workers") {
		cfg.WorkerCount = viper.GetInt("workers")
	}

	logger, err := newLogger(viper.GetString("log-level"))
	if err != nil {
		return cfg, err
	}
	cfg.Logger = logger
	return cfg, nil
}

// resolveIgnored 命令行给出了忽略规则时使用命令行的规则，否则使用配置文件中的规则
func resolveIgnored(fromFile ignored.Ignored, globs, regexps []string) (ignored.Ignored, error) {
	if len(globs) == 0 && len(regexps) == 0 {
		return fromFile, nil
	}
	items := make([]ignored.Ignored, 0, len(globs)+len(regexps))
	for _, g := range globs {
		items = append(items, ignored.Glob(g))
	}
	for _, src := range regexps {
		re, err := regexp.Compile(src)
		if err != nil {
			return ignored.Ignored{}, fmt.Errorf("invalid --ignore-regexp %q: %w", src, err)
		}
		items = append(items, ignored.Regexp(re))
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return ignored.List(items...), nil
}

// stringsFlag 优先使用可重复的命令行参数（含逗号的通配符不会被拆开），
// 否则通过 viper 读取 WATCHER_* 环境变量，多个值以空白分隔。
func stringsFlag(cmd *cobra.Command, name string) []string {
	if changed(cmd, name) {
		values, err := cmd.Flags().GetStringArray(name)
		if err == nil {
			return values
		}
	}
	return viper.GetStringSlice(name)
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// fatal 输出错误并退出
func fatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}
