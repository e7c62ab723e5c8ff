// Package ignored 把监听配置中的"忽略规则"编译为统一的判定函数。
//
// 忽略规则可以是：单个通配符、单个正则、二者混合的列表、自定义函数，或者不配置。
// Compile 把它们统一编译为 Predicate（func(path string) bool），
// 文件监听器对每个变更路径调用一次即可决定是否忽略。
//
// # 基本用法
//
//	pred, err := ignored.Compile(ignored.List(
//	    ignored.Regexp(regexp.MustCompile(`\.ignore$`)),
//	    ignored.Glob("**/node_modules"),
//	))
//	if err != nil {
//	    // 配置错误，应在监听开始前报告
//	}
//	if pred.Match("web/node_modules/react/index.js") {
//	    // 忽略
//	}
//
// 未配置（ignored.Ignored{}）时 Compile 返回 nil Predicate，Match 对 nil 恒返回 false。
//
// # 边界锚定
//
// 通配符从路径开头匹配，并且必须在完整的路径段处结束：
//
//	"node_modules"   匹配 "node_modules"、"node_modules/x"
//	                 不匹配 "my_node_modules_backup"、"node_modules_old"
//	"**/temp/**"     匹配 "temp/a.js"、"src/temp/a.js"，不匹配 "src/tempo/a.js"
//	"**/.cache"      匹配 ".cache"、"a/.cache"、"a/.cache/b"
//
// 正则规则原样使用，不附加锚定。
//
// # 路径分隔符
//
// 每次调用 Predicate 时都会先把 "\" 替换为 "/"，规则统一用 "/" 书写即可。
//
// # 错误
//
// 编译错误只在 Compile 时出现，判定过程不会出错：
//
//   - ErrInvalidSpecification：不支持的规则形状，如数字、列表中的函数、nil 正则
//   - ErrGlobTranslation：通配符语法错误，如未闭合的 "["；任何一个成员出错都会导致整个编译失败
//
// # 并发
//
// 编译得到的 Predicate 只捕获不可变数据（*regexp.Regexp 本身并发安全），可在多个 goroutine 中同时调用。
package ignored
