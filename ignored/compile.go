package ignored

import (
	"fmt"
	"regexp"
	"strings"
)

// Predicate 判断一个路径是否应被忽略
//
// nil Predicate 表示"没有配置忽略规则"，调用方应视为从不忽略；
// 使用 Match 可以免去判空。Predicate 无内部状态，可以并发调用。
type Predicate func(path string) bool

// Match 对 nil Predicate 返回 false
func (p Predicate) Match(path string) bool {
	if p == nil {
		return false
	}
	return p(path)
}

// NormalizePath 把反斜杠统一替换为 "/"
//
// 与平台无关：在任何系统上 "a\b" 与 "a/b" 都被视为同一路径，
// 这样用 "/" 书写的规则也能匹配 Windows 风格的路径。
func NormalizePath(path string) string {
	if strings.IndexByte(path, '\\') < 0 {
		return path
	}
	return strings.ReplaceAll(path, `\`, "/")
}

func never(string) bool { return false }

// Compile 将原始规则编译为统一的 Predicate
//
//   - Absent：返回 nil, nil
//   - Func：先规范化路径再调用，结果原样返回
//   - Regexp：对规范化后的路径调用 MatchString
//   - Glob：经 TranslateGlob 翻译；空字符串得到恒为 false 的 Predicate
//   - List：各成员独立翻译，任意一个匹配即返回 true；空列表恒为 false
//
// 通配符翻译失败时整个编译失败（不会跳过出错的成员），错误满足 errors.Is(err, ErrGlobTranslation)。
// 不支持的形状返回 *InvalidSpecificationError。
func Compile(spec Ignored) (Predicate, error) {
	switch spec.kind {
	case KindAbsent:
		return nil, nil

	case KindFunc:
		if spec.fn == nil {
			return nil, invalid(nil, -1, "nil predicate function")
		}
		fn := spec.fn
		return func(path string) bool {
			return fn(NormalizePath(path))
		}, nil

	case KindRegexp:
		if spec.re == nil {
			return nil, invalid(nil, -1, "nil regular expression")
		}
		return matchAny([]*regexp.Regexp{spec.re}), nil

	case KindGlob:
		re, err := CompileGlob(spec.glob)
		if err != nil {
			return nil, err
		}
		if re == nil {
			return never, nil
		}
		return matchAny([]*regexp.Regexp{re}), nil

	case KindList:
		regexps, err := compileList(spec.items)
		if err != nil {
			return nil, err
		}
		return matchAny(regexps), nil

	default:
		return nil, invalid(spec.value(), -1, "unknown kind "+spec.kind.String())
	}
}

// MustCompile 与 Compile 相同，出错时 panic；用于包级变量初始化
func MustCompile(spec Ignored) Predicate {
	p, err := Compile(spec)
	if err != nil {
		panic(err)
	}
	return p
}

func compileList(items []Ignored) ([]*regexp.Regexp, error) {
	regexps := make([]*regexp.Regexp, 0, len(items))
	for i, item := range items {
		switch item.kind {
		case KindGlob:
			re, err := CompileGlob(item.glob)
			if err != nil {
				return nil, fmt.Errorf("ignored[%d]: %w", i, err)
			}
			if re != nil {
				regexps = append(regexps, re)
			}
		case KindRegexp:
			if item.re == nil {
				return nil, invalid(nil, i, "nil regular expression")
			}
			regexps = append(regexps, item.re)
		default:
			return nil, invalid(item.value(), i, "list entries must be globs or regular expressions, got "+item.kind.String())
		}
	}
	return regexps, nil
}

// matchAny 按顺序匹配，命中即返回
func matchAny(regexps []*regexp.Regexp) Predicate {
	switch len(regexps) {
	case 0:
		return never
	case 1:
		re := regexps[0]
		return func(path string) bool {
			return re.MatchString(NormalizePath(path))
		}
	}
	return func(path string) bool {
		normalized := NormalizePath(path)
		for _, re := range regexps {
			if re.MatchString(normalized) {
				return true
			}
		}
		return false
	}
}
