package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/shuakami/watcher/v2/ignored"
)

const (
	// DefaultDebounce 默认的合并时长
	DefaultDebounce = 20 * time.Millisecond
	// DefaultWorkerCount 计算文件哈希的并发上限
	DefaultWorkerCount = 32

	aggBuffer   = 4096
	batchBuffer = 64
)

// ErrNoWatchPaths 表示 WatchPaths 为空或全部通配符都没有匹配到路径
var ErrNoWatchPaths = errors.New("no watch paths")

// Change 表示一次合并后的文件变更
//
// Path：变更文件的完整路径
// Op：合并窗口内该路径上发生的全部操作（按位或）
// Size、ModTime、Hash：变更后的文件信息，目录不计算哈希
// IsDirectory：是否为目录
type Change struct {
	Path        string
	Op          fsnotify.Op
	Size        int64
	ModTime     time.Time
	Hash        string
	IsDirectory bool
}

// Batch 是一次合并窗口结束后发出的变更集合，对应一次重新构建
//
// Changes 与 Removals 均按路径排序
type Batch struct {
	Changes  []Change
	Removals []string
	At       time.Time
}

// Stats 是 Watcher 的运行计数
//
// Events：收到的 fsnotify 事件数
// Ignored：被忽略规则过滤掉的事件数
// Coalesced：在合并窗口内被合并的事件数
// Unchanged：内容未变化而被丢弃的写事件数
// Batches：已发出的 Batch 数
type Stats struct {
	Events    uint64
	Ignored   uint64
	Coalesced uint64
	Unchanged uint64
	Batches   uint64
}

type fileState struct {
	size    int64
	modTime time.Time
	hash    string
}

// watchRoot 记录一个监听根路径；base 是计算相对路径时的基准目录
type watchRoot struct {
	path  string
	base  string
	isDir bool
}

// Watcher 监听文件系统变化，按忽略规则过滤后合并为 Batch
//
// ignore：当前生效的忽略判定，SetIgnored 时原子替换
// mu：保护 files（每个文件和目录最近一次的状态）
// aggMu、aggMap、aggTimer：事件合并（防抖），窗口内无新事件时 flush
// workerPool：flush 时并发计算哈希的令牌池
// Batches：向外部暴露的变更批次通道
type Watcher struct {
	cfg       ConfigWatcher
	logger    *slog.Logger
	fsWatcher *fsnotify.Watcher
	ignore    atomic.Pointer[ignored.Predicate]
	roots     atomic.Pointer[[]watchRoot]

	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	wg       sync.WaitGroup

	mu    sync.RWMutex
	files map[string]fileState

	aggChan  chan fsnotify.Event
	aggMu    sync.Mutex
	aggMap   map[string]fsnotify.Op
	aggTimer *time.Timer

	workerPool chan struct{}

	Batches chan Batch

	events        atomic.Uint64
	ignoredEvents atomic.Uint64
	coalesced     atomic.Uint64
	unchanged     atomic.Uint64
	batches       atomic.Uint64
}

// NewWatcher 根据给定配置创建一个新的 Watcher
//
// 先编译 cfg.Ignored，编译失败时直接返回错误，不会创建任何 fsnotify 资源。
// 若 cfg.Debounce <= 0，则使用 DefaultDebounce；若 cfg.WorkerCount <= 0，则使用 DefaultWorkerCount。
func NewWatcher(cfg ConfigWatcher) (*Watcher, error) {
	pred, err := ignored.Compile(cfg.Ignored)
	if err != nil {
		return nil, fmt.Errorf("failed to compile ignored: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	timer := time.NewTimer(cfg.Debounce)
	timer.Stop()

	w := &Watcher{
		cfg:        cfg,
		logger:     logger.With("component", "watcher"),
		fsWatcher:  fsw,
		stopChan:   make(chan struct{}),
		files:      make(map[string]fileState),
		aggChan:    make(chan fsnotify.Event, aggBuffer),
		aggMap:     make(map[string]fsnotify.Op),
		aggTimer:   timer,
		workerPool: make(chan struct{}, cfg.WorkerCount),
		Batches:    make(chan Batch, batchBuffer),
	}
	w.ignore.Store(&pred)
	return w, nil
}

// Start 解析监听路径并启动后台 goroutine
//
// WatchPaths 中不存在且含通配符的项通过 doublestar 展开。被忽略的目录整体跳过，不会加入 fsnotify。
// 监听根目录原子发布，Start 期间并发调用 IsIgnored 是安全的。
func (w *Watcher) Start() error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watcher already started")
	}

	roots, err := resolveWatchPaths(w.cfg.WatchPaths)
	if err != nil {
		return err
	}
	w.roots.Store(&roots)

	for _, root := range roots {
		if !root.isDir {
			if err := w.fsWatcher.Add(root.path); err != nil {
				return fmt.Errorf("failed to watch file %s: %w", root.path, err)
			}
			w.recordInitial(root.path)
			continue
		}
		if err := w.addTree(root.path, false); err != nil {
			return fmt.Errorf("failed to walk watch path %s: %w", root.path, err)
		}
	}

	w.wg.Add(2)
	go w.runAggregator()
	go w.runFsNotify()

	w.logger.Info("watching", "roots", len(roots), "ignored", w.cfg.Ignored.String())
	return nil
}

// Stop 停止监控
//
// 关闭底层 fsnotify.Watcher，等待后台 goroutine 退出，flush 一次剩余事件后关闭 Batches。
// 可重复调用。
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		_ = w.fsWatcher.Close()
		w.wg.Wait()
		w.aggTimer.Stop()
		w.flushAgg(true)
		close(w.Batches)
	})
}

// SetIgnored 重新编译忽略规则并替换当前规则
//
// 编译失败时保留原规则并返回错误。
func (w *Watcher) SetIgnored(spec ignored.Ignored) error {
	pred, err := ignored.Compile(spec)
	if err != nil {
		return fmt.Errorf("failed to compile ignored: %w", err)
	}
	w.ignore.Store(&pred)
	w.logger.Info("ignored reloaded", "ignored", spec.String())
	return nil
}

// IsIgnored 判断路径是否被当前规则忽略
//
// 判定时使用相对于所属监听根目录的路径；监听根目录本身从不被忽略。
func (w *Watcher) IsIgnored(path string) bool {
	rel, ok := w.relPath(path)
	if !ok {
		return false
	}
	pred := w.ignore.Load()
	if pred == nil {
		return false
	}
	return pred.Match(rel)
}

// Stats 返回运行计数，并发安全
func (w *Watcher) Stats() Stats {
	return Stats{
		Events:    w.events.Load(),
		Ignored:   w.ignoredEvents.Load(),
		Coalesced: w.coalesced.Load(),
		Unchanged: w.unchanged.Load(),
		Batches:   w.batches.Load(),
	}
}

// relPath 返回 path 相对于最近的监听根目录的路径
func (w *Watcher) relPath(path string) (string, bool) {
	best := ""
	var roots []watchRoot
	if p := w.roots.Load(); p != nil {
		roots = *p
	}
	for _, root := range roots {
		if len(root.base) > len(best) && withinDir(root.base, path) {
			best = root.base
		}
	}
	if best == "" {
		return path, true
	}
	rel, err := filepath.Rel(best, path)
	if err != nil || rel == "." {
		return "", false
	}
	return rel, true
}

func withinDir(dir, path string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// addTree 递归添加 dir 下所有未被忽略的目录
//
// synthesize 为 true 时（新建目录），为其中已存在的文件补发 Create 事件，
// 避免目录加入监听之前写入的文件被漏掉。
func (w *Watcher) addTree(dir string, synthesize bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			w.logger.Warn("walk failed", "path", p, "error", err)
			return nil
		}
		if p != dir && w.IsIgnored(p) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if e := w.fsWatcher.Add(p); e != nil {
				w.logger.Warn("cannot watch dir", "path", p, "error", e)
			}
		}
		if p != dir || !synthesize {
			w.recordInitial(p)
		}
		if synthesize && p != dir {
			w.queueAgg(fsnotify.Event{Name: p, Op: fsnotify.Create})
		}
		return nil
	})
}

func (w *Watcher) recordInitial(path string) {
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	if _, ok := w.files[path]; !ok {
		w.files[path] = fileState{size: fi.Size(), modTime: fi.ModTime()}
	}
	w.mu.Unlock()
}

// runFsNotify 不断读取 fsnotify 的事件，过滤后投递到合并队列
func (w *Watcher) runFsNotify() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.events.Add(1)
			if w.IsIgnored(ev.Name) {
				w.ignoredEvents.Add(1)
				continue
			}
			// 新建目录需要额外 Add
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(ev.Name, true); err != nil {
						w.logger.Warn("cannot watch new dir", "path", ev.Name, "error", err)
					}
				}
			}
			w.queueAgg(ev)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

// queueAgg 将事件放入合并通道，满时阻塞直到 Stop
func (w *Watcher) queueAgg(ev fsnotify.Event) {
	select {
	case w.aggChan <- ev:
	case <-w.stopChan:
	}
}

// runAggregator 合并事件；最后一个事件之后 Debounce 时间内没有新事件才 flush
func (w *Watcher) runAggregator() {
	defer w.wg.Done()
	for {
		select {
		case ev := <-w.aggChan:
			w.mergeAgg(ev)
			w.aggTimer.Reset(w.cfg.Debounce)

		case <-w.aggTimer.C:
			w.flushAgg(false)

		case <-w.stopChan:
			for {
				select {
				case ev := <-w.aggChan:
					w.mergeAgg(ev)
				default:
					return
				}
			}
		}
	}
}

func (w *Watcher) mergeAgg(ev fsnotify.Event) {
	w.aggMu.Lock()
	op, ok := w.aggMap[ev.Name]
	if ok {
		w.coalesced.Add(1)
	}
	w.aggMap[ev.Name] = op | ev.Op
	w.aggMu.Unlock()
}

// flushAgg 将合并窗口内的事件交给 workerPool 处理，并发出一个 Batch
// final=true 时为 Stop() 阶段最后一次 flush，Batches 满时丢弃而不阻塞
func (w *Watcher) flushAgg(final bool) {
	w.aggMu.Lock()
	pending := w.aggMap
	w.aggMap = make(map[string]fsnotify.Op)
	w.aggMu.Unlock()

	if len(pending) == 0 {
		return
	}

	var (
		resMu    sync.Mutex
		wg       sync.WaitGroup
		changes  []Change
		removals []string
	)
	for p, op := range pending {
		w.workerPool <- struct{}{}
		wg.Add(1)
		go func(fp string, fop fsnotify.Op) {
			defer func() {
				<-w.workerPool
				wg.Done()
			}()
			change, removed, keep := w.handleFileChange(fp, fop)
			if !keep {
				return
			}
			resMu.Lock()
			if removed {
				removals = append(removals, fp)
			} else {
				changes = append(changes, change)
			}
			resMu.Unlock()
		}(p, op)
	}
	wg.Wait()

	if len(changes) == 0 && len(removals) == 0 {
		return
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	sort.Strings(removals)
	batch := Batch{Changes: changes, Removals: removals, At: time.Now()}

	if final {
		select {
		case w.Batches <- batch:
			w.batches.Add(1)
		default:
			w.logger.Warn("batch dropped on stop", "changes", len(changes), "removals", len(removals))
		}
		return
	}
	select {
	case w.Batches <- batch:
		w.batches.Add(1)
	case <-w.stopChan:
		// Stop 之后只做一次非阻塞尝试
		select {
		case w.Batches <- batch:
			w.batches.Add(1)
		default:
			w.logger.Warn("batch dropped on stop", "changes", len(changes), "removals", len(removals))
		}
	}
}

// handleFileChange 更新文件状态表并生成 Change
//
// removed 为 true 表示文件已不存在；keep 为 false 表示该事件应被丢弃（如内容未变化的写入）。
func (w *Watcher) handleFileChange(path string, op fsnotify.Op) (change Change, removed, keep bool) {
	fi, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("stat failed", "path", path, "error", err)
			return Change{}, false, false
		}
		w.mu.Lock()
		_, known := w.files[path]
		delete(w.files, path)
		w.mu.Unlock()
		// 同一窗口内创建又删除的临时文件不需要通知
		return Change{}, true, known
	}

	change = Change{
		Path:        path,
		Op:          op,
		Size:        fi.Size(),
		ModTime:     fi.ModTime(),
		IsDirectory: fi.IsDir(),
	}
	if change.IsDirectory {
		w.mu.Lock()
		w.files[path] = fileState{size: change.Size, modTime: change.ModTime}
		w.mu.Unlock()
		return change, false, true
	}

	h, err := hashFile(path)
	if err != nil {
		// 哈希失败可能只是临时问题，仍然上报变更
		w.logger.Warn("hash failed", "path", path, "error", err)
	}
	change.Hash = h

	w.mu.Lock()
	prev, known := w.files[path]
	w.files[path] = fileState{size: change.Size, modTime: change.ModTime, hash: h}
	w.mu.Unlock()

	if known && h != "" && prev.hash == h && prev.size == change.Size && !op.Has(fsnotify.Create) {
		w.unchanged.Add(1)
		return change, false, false
	}
	return change, false, true
}

// resolveWatchPaths 展开通配符并转换为绝对路径，去除重复项
//
// 已存在的路径按字面量使用，即使含有通配符字符（如 "app/[id]"）；
// 只有不存在且含通配符的路径才交给 doublestar 展开。
func resolveWatchPaths(paths []string) ([]watchRoot, error) {
	var roots []watchRoot
	seen := make(map[string]bool)
	for _, p := range paths {
		matches := []string{p}
		if _, err := os.Stat(p); err != nil && hasGlobMeta(p) {
			m, err := doublestar.FilepathGlob(p)
			if err != nil {
				return nil, fmt.Errorf("invalid watch path pattern %s: %w", p, err)
			}
			matches = m
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve watch path %s: %w", m, err)
			}
			if seen[abs] {
				continue
			}
			fi, err := os.Stat(abs)
			if err != nil {
				return nil, fmt.Errorf("failed to stat watch path %s: %w", m, err)
			}
			seen[abs] = true
			root := watchRoot{path: abs, base: abs, isDir: fi.IsDir()}
			if !root.isDir {
				root.base = filepath.Dir(abs)
			}
			roots = append(roots, root)
		}
	}
	if len(roots) == 0 {
		return nil, ErrNoWatchPaths
	}
	return roots, nil
}

func hasGlobMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// hashFile 计算文件的SHA-256哈希值
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
