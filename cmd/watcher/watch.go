package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/shuakami/watcher/v2"
)

var (
	changeColor = color.New(color.FgGreen)
	removeColor = color.New(color.FgRed)
	statsColor  = color.New(color.FgHiBlack)
)

// watchCmd 持续输出变更批次，直到收到中断信号
var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Watch paths and print batched changes",
	Long: `Watch the given paths (default: current directory) and print one block per batch.

Paths may be doublestar globs such as "services/*/src". Ignored rules come from
--ignore/--ignore-regexp, WATCHER_IGNORE / WATCHER_IGNORE_REGEXP, or the "ignored"
key of --config. The environment variables hold whitespace-separated values (commas
are kept, so "{a,b}" stays one glob); repeat the flag to pass several values.

Examples:
  # Watch the current directory, skipping dependencies and build output
  watcher watch --ignore '**/node_modules' --ignore dist

  # Watch two trees with a longer quiet period
  watcher watch --aggregate-timeout 200ms ./api ./web

  # Same rules from the environment
  WATCHER_IGNORE='**/node_modules dist' watcher watch

  # Use a config file
  watcher watch --config watcher.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.WatchPaths = args
		}
		if len(cfg.WatchPaths) == 0 {
			cfg.WatchPaths = []string{"."}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd.OutOrStdout(), cfg)
	},
}

// runWatch 输出批次直到 ctx 结束
func runWatch(ctx context.Context, out io.Writer, cfg watcher.ConfigWatcher) error {
	w, err := watcher.NewWatcher(cfg)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return err
	}

	for {
		select {
		case batch, ok := <-w.Batches:
			if !ok {
				return nil
			}
			printBatch(out, batch)
		case <-ctx.Done():
			w.Stop()
			// Stop 会先把剩余事件 flush 进 Batches 再关闭
			for batch := range w.Batches {
				printBatch(out, batch)
			}
			s := w.Stats()
			_, _ = statsColor.Fprintf(out, "events=%d ignored=%d coalesced=%d unchanged=%d batches=%d\n",
				s.Events, s.Ignored, s.Coalesced, s.Unchanged, s.Batches)
			return nil
		}
	}
}

func printBatch(out io.Writer, batch watcher.Batch) {
	_, _ = fmt.Fprintf(out, "%s\n", batch.At.Format("15:04:05.000"))
	for _, c := range batch.Changes {
		_, _ = changeColor.Fprintf(out, "  %-8s %s\n", opLabel(c), c.Path)
	}
	for _, p := range batch.Removals {
		_, _ = removeColor.Fprintf(out, "  %-8s %s\n", "remove", p)
	}
}

func opLabel(c watcher.Change) string {
	switch {
	case c.IsDirectory:
		return "dir"
	case c.Op.Has(fsnotify.Create):
		return "create"
	default:
		return "change"
	}
}
