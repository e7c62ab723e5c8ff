package ignored

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpecification 表示忽略规则的形状不受支持（如数字、嵌套列表、nil正则）
	ErrInvalidSpecification = errors.New("invalid ignored specification")
	// ErrGlobTranslation 表示通配符无法翻译为正则
	ErrGlobTranslation = errors.New("glob translation failed")
)

// InvalidSpecificationError 携带出错的原始值
//
// Value：不受支持的值本身
// Index：列表中的位置；不在列表中时为 -1
// Reason：简短说明
type InvalidSpecificationError struct {
	Value  any
	Index  int
	Reason string
}

func (e *InvalidSpecificationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid option for 'ignored' at index %d: %s (%#v)", e.Index, e.Reason, e.Value)
	}
	return fmt.Sprintf("invalid option for 'ignored': %s (%#v)", e.Reason, e.Value)
}

func (e *InvalidSpecificationError) Is(target error) bool {
	return target == ErrInvalidSpecification
}

func invalid(value any, index int, reason string) error {
	return &InvalidSpecificationError{Value: value, Index: index, Reason: reason}
}

// GlobError 表示某个通配符翻译失败
//
// Offset 为出错字符在 Glob 中的字节偏移，无法定位时为 -1
type GlobError struct {
	Glob   string
	Offset int
	Reason string
	Err    error
}

func (e *GlobError) Error() string {
	msg := fmt.Sprintf("invalid glob %q", e.Glob)
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GlobError) Unwrap() error { return e.Err }

func (e *GlobError) Is(target error) bool {
	return target == ErrGlobTranslation
}
