package ignored

import (
	"fmt"
	"regexp"
)

// Kind 表示 Ignored 的具体形状
type Kind int

const (
	KindAbsent Kind = iota
	KindGlob
	KindRegexp
	KindFunc
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindGlob:
		return "glob"
	case KindRegexp:
		return "regexp"
	case KindFunc:
		return "func"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Ignored 是用户提供的原始忽略规则
//
// 零值表示未配置（Absent）。通过 Glob、Regexp、Func、List 构造，构造后不可变。
// 列表只能包含通配符和正则，其它成员在 Compile 时报 ErrInvalidSpecification。
type Ignored struct {
	kind  Kind
	glob  string
	re    *regexp.Regexp
	fn    func(string) bool
	items []Ignored
}

// Glob 构造单个通配符规则
func Glob(pattern string) Ignored {
	return Ignored{kind: KindGlob, glob: pattern}
}

// Regexp 构造单个正则规则，正则会直接用于匹配，不会被重新编译
func Regexp(re *regexp.Regexp) Ignored {
	return Ignored{kind: KindRegexp, re: re}
}

// Func 构造自定义判定函数规则
func Func(fn func(path string) bool) Ignored {
	return Ignored{kind: KindFunc, fn: fn}
}

// List 构造混合列表规则，items 会被复制
func List(items ...Ignored) Ignored {
	return Ignored{kind: KindList, items: append([]Ignored(nil), items...)}
}

// Globs 是 List(Glob(p)...) 的简写
func Globs(patterns ...string) Ignored {
	items := make([]Ignored, len(patterns))
	for i, p := range patterns {
		items[i] = Glob(p)
	}
	return Ignored{kind: KindList, items: items}
}

func (ig Ignored) Kind() Kind { return ig.kind }

// IsAbsent 报告是否未配置任何规则
func (ig Ignored) IsAbsent() bool { return ig.kind == KindAbsent }

// Items 返回列表成员的副本；非列表返回 nil
func (ig Ignored) Items() []Ignored {
	if ig.kind != KindList {
		return nil
	}
	return append([]Ignored(nil), ig.items...)
}

// String 返回便于日志输出的描述
func (ig Ignored) String() string {
	switch ig.kind {
	case KindAbsent:
		return "<absent>"
	case KindGlob:
		return fmt.Sprintf("%q", ig.glob)
	case KindRegexp:
		if ig.re == nil {
			return "/<nil>/"
		}
		return "/" + ig.re.String() + "/"
	case KindFunc:
		return "<func>"
	case KindList:
		s := "["
		for i, item := range ig.items {
			if i > 0 {
				s += ", "
			}
			s += item.String()
		}
		return s + "]"
	default:
		return ig.kind.String()
	}
}

// value 返回用于错误报告的原始值
func (ig Ignored) value() any {
	switch ig.kind {
	case KindGlob:
		return ig.glob
	case KindRegexp:
		return ig.re
	case KindFunc:
		return ig.fn
	case KindList:
		return ig.items
	default:
		return nil
	}
}
