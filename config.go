package watcher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shuakami/watcher/v2/ignored"
)

// ConfigWatcher 定义监控器的配置信息
//
// WatchPaths：需要监控的文件或目录，支持 doublestar 通配符（如 "services/*/src"）
// Ignored：忽略规则，判定时使用相对于监听根目录的路径
// Debounce：合并时长；最后一个事件之后这段时间内无新事件才发出 Batch
// WorkerCount：计算文件哈希时的最大并发数
// Logger：日志输出，为 nil 时丢弃日志
type ConfigWatcher struct {
	WatchPaths  []string
	Ignored     ignored.Ignored
	Debounce    time.Duration
	WorkerCount int
	Logger      *slog.Logger
}

// Duration 在 YAML 中既可以写成 Go 的时长字符串（"50ms"），也可以写成毫秒整数
type Duration time.Duration

// UnmarshalYAML 实现 yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	if node.Tag == "!!int" {
		var ms int64
		if err := node.Decode(&ms); err != nil {
			return err
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML 实现 yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// fileConfig 是配置文件的结构
//
//	watch:
//	  - ./src
//	ignored:
//	  - "**/node_modules"
//	  - regexp: '\.tmp$'
//	aggregateTimeout: 50ms
//	workers: 8
type fileConfig struct {
	Watch            []string        `yaml:"watch"`
	Ignored          ignored.Ignored `yaml:"ignored"`
	AggregateTimeout Duration        `yaml:"aggregateTimeout"`
	Workers          int             `yaml:"workers"`
}

// LoadConfig 从 YAML 读取配置，未知字段视为错误
//
// 忽略规则在这里只做形状检查，通配符的语法错误在 NewWatcher 编译时报告。
// 返回的配置未填充默认值，由 NewWatcher 处理。
func LoadConfig(r io.Reader) (ConfigWatcher, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fc fileConfig
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return ConfigWatcher{}, fmt.Errorf("invalid watcher config: %w", err)
	}
	if fc.Workers < 0 {
		return ConfigWatcher{}, fmt.Errorf("invalid watcher config: workers must not be negative, got %d", fc.Workers)
	}
	if fc.AggregateTimeout < 0 {
		return ConfigWatcher{}, fmt.Errorf("invalid watcher config: aggregateTimeout must not be negative, got %s", time.Duration(fc.AggregateTimeout))
	}

	return ConfigWatcher{
		WatchPaths:  fc.Watch,
		Ignored:     fc.Ignored,
		Debounce:    time.Duration(fc.AggregateTimeout),
		WorkerCount: fc.Workers,
	}, nil
}

// LoadConfigFile 打开 path 并调用 LoadConfig
func LoadConfigFile(path string) (ConfigWatcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return ConfigWatcher{}, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadConfig(f)
	if err != nil {
		return ConfigWatcher{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
