package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/shuakami/watcher/v2/ignored"
)

var (
	ignoredColor = color.New(color.FgYellow, color.Bold)
	keptColor    = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// checkCmd 报告每个路径是否会被忽略
var checkCmd = &cobra.Command{
	Use:   "check PATH...",
	Short: "Show whether each path is ignored",
	Long: `Compile the ignored rules and report, for each path, whether the watcher would skip it.

Paths are matched as given, relative to the watch root; "\" is treated as "/".
Exits with status 1 when the rules do not compile.

Examples:
  watcher check --ignore '**/node_modules' web/node_modules/react/index.js src/main.go
  watcher check --config watcher.yaml dist/bundle.js`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runCheck(cmd.OutOrStdout(), cfg.Ignored, args)
	},
}

// runCheck 每个路径输出一行；返回的错误只可能是规则编译错误
func runCheck(out io.Writer, spec ignored.Ignored, paths []string) error {
	pred, err := ignored.Compile(spec)
	if err != nil {
		_, _ = errorColor.Fprintf(out, "invalid ignored %s\n", spec)
		return err
	}

	_, _ = fmt.Fprintf(out, "ignored: %s\n", spec)
	for _, p := range paths {
		if pred.Match(p) {
			_, _ = ignoredColor.Fprintf(out, "%-8s %s\n", "ignored", p)
		} else {
			_, _ = keptColor.Fprintf(out, "%-8s %s\n", "watched", p)
		}
	}
	return nil
}
