package ignored

import (
	"fmt"
	"math"
	"regexp"

	"gopkg.in/yaml.v3"
)

// 映射形式的键：{regexp: "..."} 或 {glob: "..."}
const (
	keyRegexp = "regexp"
	keyGlob   = "glob"
)

// FromValue 将动态配置值（如 viper、JSON、YAML 解出的 any）转换为 Ignored
//
// 支持：nil、false、数值 0、string、*regexp.Regexp、func(string) bool、Predicate、
// Ignored、[]string、[]*regexp.Regexp、[]any，以及 {regexp: "..."} / {glob: "..."} 映射。
// 其它类型返回 *InvalidSpecificationError。
func FromValue(v any) (Ignored, error) {
	return fromValue(v, -1, true)
}

func fromValue(v any, index int, top bool) (Ignored, error) {
	switch val := v.(type) {
	case nil:
		if top {
			return Ignored{}, nil
		}
	case bool:
		if top && !val {
			return Ignored{}, nil
		}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		if top && isZeroNumber(val) {
			return Ignored{}, nil
		}
	case Ignored:
		return val, nil
	case string:
		return Glob(val), nil
	case *regexp.Regexp:
		return Regexp(val), nil
	case func(string) bool:
		if top {
			return Func(val), nil
		}
	case Predicate:
		if top {
			return Func(val), nil
		}
	case []string:
		if top {
			return Globs(val...), nil
		}
	case []*regexp.Regexp:
		if top {
			items := make([]Ignored, len(val))
			for i, re := range val {
				items[i] = Regexp(re)
			}
			return List(items...), nil
		}
	case []any:
		if top {
			items := make([]Ignored, 0, len(val))
			for i, item := range val {
				ig, err := fromValue(item, i, false)
				if err != nil {
					return Ignored{}, err
				}
				items = append(items, ig)
			}
			return List(items...), nil
		}
	case map[string]any:
		return fromMapping(val, index)
	case map[any]any:
		converted := make(map[string]any, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				return Ignored{}, invalid(v, index, "mapping keys must be strings")
			}
			converted[key] = item
		}
		return fromMapping(converted, index)
	}
	return Ignored{}, invalid(v, index, fmt.Sprintf("unsupported type %T", v))
}

// isZeroNumber 判断数值是否为 0（含 NaN，与其它配置来源中的"假值"一致）
func isZeroNumber(v any) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int8:
		return n == 0
	case int16:
		return n == 0
	case int32:
		return n == 0
	case int64:
		return n == 0
	case uint:
		return n == 0
	case uint8:
		return n == 0
	case uint16:
		return n == 0
	case uint32:
		return n == 0
	case uint64:
		return n == 0
	case float32:
		return n == 0 || math.IsNaN(float64(n))
	case float64:
		return n == 0 || math.IsNaN(n)
	}
	return false
}

func fromMapping(m map[string]any, index int) (Ignored, error) {
	if len(m) != 1 {
		return Ignored{}, invalid(m, index, "mapping must have exactly one of the keys regexp, glob")
	}
	for key, raw := range m {
		source, ok := raw.(string)
		if !ok {
			return Ignored{}, invalid(m, index, fmt.Sprintf("%s must be a string", key))
		}
		switch key {
		case keyRegexp:
			re, err := regexp.Compile(source)
			if err != nil {
				return Ignored{}, &InvalidSpecificationError{
					Value:  source,
					Index:  index,
					Reason: "bad regular expression: " + err.Error(),
				}
			}
			return Regexp(re), nil
		case keyGlob:
			return Glob(source), nil
		}
	}
	return Ignored{}, invalid(m, index, "mapping must have exactly one of the keys regexp, glob")
}

// UnmarshalYAML 支持标量（通配符）、{regexp|glob: ...} 映射、二者组成的序列以及 null
func (ig *Ignored) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*ig = Ignored{}
		return nil
	}
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if s, ok := raw.(string); ok && node.Kind == yaml.ScalarNode {
		*ig = Glob(s)
		return nil
	}
	parsed, err := FromValue(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*ig = parsed
	return nil
}

// MarshalYAML 与 UnmarshalYAML 对称；函数规则无法序列化
func (ig Ignored) MarshalYAML() (any, error) {
	switch ig.kind {
	case KindAbsent:
		return nil, nil
	case KindGlob:
		return ig.glob, nil
	case KindRegexp:
		if ig.re == nil {
			return nil, invalid(nil, -1, "nil regular expression")
		}
		return map[string]string{keyRegexp: ig.re.String()}, nil
	case KindList:
		out := make([]any, 0, len(ig.items))
		for i, item := range ig.items {
			v, err := item.MarshalYAML()
			if err != nil {
				return nil, fmt.Errorf("ignored[%d]: %w", i, err)
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, invalid(ig.value(), -1, ig.kind.String()+" cannot be marshaled")
	}
}
