package ignored

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// globstarSource 匹配零个或多个完整的路径段
	globstarSource = `(?:[^/]*(?:/|$))*`
	// segmentSource 匹配单个路径段内的任意字符
	segmentSource = `[^/]*`
	// boundarySource 要求匹配在字符串结尾或分隔符处结束
	boundarySource = `(?:$|/)`
	// emptyClassSource 不匹配任何字符
	emptyClassSource = `[^\x00-\x{10FFFF}]`
)

// classRange 是字符类中的一个闭区间，单个字符时 lo == hi
type classRange struct {
	lo, hi rune
}

// TranslateGlob 将一个通配符翻译为带路径边界锚定的正则源码
//
// 支持的语法：
//   - "**" 独占一个路径段时匹配任意层级（包括零层）
//   - "*" 匹配段内任意字符，不跨越 "/"
//   - "?" 匹配段内单个字符
//   - "[abc]"、"[a-z]"、"[!a]"（或 "[^a]"）字符类；与 "*"、"?" 一样只匹配段内字符，
//     任何字符类都不匹配 "/"（"[/]" 什么也不匹配）
//   - "\x" 匹配字面量 x
//
// 其余字符（包括 "{", "}", ","）均按字面量处理，不做花括号展开。
//
// 结果以 "^" 开头、以 "(?:$|/)" 结尾，即只要路径以该模式的完整路径段开头就视为匹配。
// 末尾的分隔符会被去掉，所以 "dist/" 与 "dist" 等价。
// 空字符串返回 ok == false，表示没有匹配器。
func TranslateGlob(glob string) (source string, ok bool, err error) {
	if glob == "" {
		return "", false, nil
	}
	pattern := trimTrailingSeparators(glob)

	var b strings.Builder
	b.Grow(len(pattern)*2 + len(boundarySource) + 1)
	b.WriteByte('^')

	for i := 0; i < len(pattern); {
		switch c := pattern[i]; c {
		case '*':
			start := i
			for i < len(pattern) && pattern[i] == '*' {
				i++
			}
			wholeSegment := (start == 0 || pattern[start-1] == '/') &&
				(i == len(pattern) || pattern[i] == '/')
			if i-start > 1 && wholeSegment {
				b.WriteString(globstarSource)
				if i < len(pattern) {
					i++ // 吞掉紧随其后的 "/"
				}
				continue
			}
			b.WriteString(segmentSource)
		case '?':
			b.WriteString(`[^/]`)
			i++
		case '[':
			class, next, gerr := translateClass(glob, pattern, i)
			if gerr != nil {
				return "", false, gerr
			}
			b.WriteString(class)
			i = next
		case '\\':
			if i+1 >= len(pattern) {
				return "", false, &GlobError{Glob: glob, Offset: i, Reason: "trailing backslash"}
			}
			r, size := utf8.DecodeRuneInString(pattern[i+1:])
			b.WriteString(regexp.QuoteMeta(string(r)))
			i += 1 + size
		default:
			r, size := utf8.DecodeRuneInString(pattern[i:])
			b.WriteString(regexp.QuoteMeta(string(r)))
			i += size
		}
	}

	b.WriteString(boundarySource)
	source = b.String()
	if _, err := regexp.Compile(source); err != nil {
		return "", false, &GlobError{Glob: glob, Offset: -1, Reason: "generated expression does not compile", Err: err}
	}
	return source, true, nil
}

// CompileGlob 翻译并编译一个通配符；空字符串返回 nil
func CompileGlob(glob string) (*regexp.Regexp, error) {
	source, ok, err := TranslateGlob(glob)
	if err != nil || !ok {
		return nil, err
	}
	return regexp.MustCompile(source), nil
}

// translateClass 翻译从 open 开始的 "[...]"，返回正则字符类和 "]" 之后的位置
func translateClass(glob, pattern string, open int) (string, int, error) {
	i := open + 1
	negate := false
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		negate = true
		i++
	}

	var ranges []classRange
	first := true
	for {
		if i >= len(pattern) {
			return "", 0, &GlobError{Glob: glob, Offset: open, Reason: "unterminated bracket expression"}
		}
		if pattern[i] == ']' && !first {
			break
		}
		first = false

		lo, next, err := classRune(glob, pattern, i)
		if err != nil {
			return "", 0, err
		}
		i = next
		r := classRange{lo: lo, hi: lo}

		if i+1 < len(pattern) && pattern[i] == '-' && pattern[i+1] != ']' {
			hi, next, err := classRune(glob, pattern, i+1)
			if err != nil {
				return "", 0, err
			}
			if hi < lo {
				return "", 0, &GlobError{Glob: glob, Offset: i - 1, Reason: "invalid character range"}
			}
			r.hi = hi
			i = next
		}
		ranges = append(ranges, r)
	}

	if !negate {
		ranges = withoutSeparator(ranges)
		if len(ranges) == 0 {
			return emptyClassSource, i + 1, nil
		}
	}

	var b strings.Builder
	b.WriteByte('[')
	if negate {
		b.WriteByte('^')
	}
	for _, r := range ranges {
		writeClassRune(&b, r.lo)
		if r.hi != r.lo {
			b.WriteByte('-')
			writeClassRune(&b, r.hi)
		}
	}
	if negate {
		b.WriteByte('/')
	}
	b.WriteByte(']')
	return b.String(), i + 1, nil
}

// withoutSeparator 从区间中剔除 "/"，必要时把一个区间拆成两个
func withoutSeparator(ranges []classRange) []classRange {
	out := ranges[:0:0]
	for _, r := range ranges {
		if r.lo > '/' || r.hi < '/' {
			out = append(out, r)
			continue
		}
		if r.lo < '/' {
			out = append(out, classRange{lo: r.lo, hi: '/' - 1})
		}
		if r.hi > '/' {
			out = append(out, classRange{lo: '/' + 1, hi: r.hi})
		}
	}
	return out
}

func classRune(glob, pattern string, i int) (rune, int, error) {
	if pattern[i] == '\\' {
		if i+1 >= len(pattern) {
			return 0, 0, &GlobError{Glob: glob, Offset: i, Reason: "trailing backslash"}
		}
		r, size := utf8.DecodeRuneInString(pattern[i+1:])
		return r, i + 1 + size, nil
	}
	r, size := utf8.DecodeRuneInString(pattern[i:])
	return r, i + size, nil
}

func writeClassRune(b *strings.Builder, r rune) {
	switch {
	case r == '\\' || r == ']' || r == '[' || r == '^' || r == '-':
		b.WriteByte('\\')
		b.WriteRune(r)
	case r == utf8.RuneError || !unicode.IsPrint(r):
		b.WriteString(`\x{`)
		b.WriteString(strconv.FormatInt(int64(r), 16))
		b.WriteByte('}')
	default:
		b.WriteRune(r)
	}
}

// trimTrailingSeparators 去掉末尾的 "/"（包括转义的 "\/"），但至少保留一个 "/"
func trimTrailingSeparators(p string) string {
	for len(p) > 1 && p[len(p)-1] == '/' {
		cut := len(p) - 1
		if escapedAt(p, cut) {
			cut--
		}
		if cut == 0 {
			return "/"
		}
		p = p[:cut]
	}
	return p
}

func escapedAt(p string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && p[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
