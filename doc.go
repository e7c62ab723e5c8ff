// Package watcher 监控文件系统变更，按忽略规则过滤后合并成批次（Batch）发出。
//
// 核心特点：
//   - 递归监控指定路径，监听路径支持 doublestar 通配符
//   - 忽略规则由 ignored 包编译，可以是通配符、正则、二者的列表或自定义函数
//   - 被忽略的目录在遍历时整体跳过，不占用 fsnotify 资源
//   - 通过 Debounce 合并事件，窗口内同一路径只报告一次
//   - 采用 worker 池并发计算文件哈希，内容未变化的写入会被丢弃
//   - 通过 Batches 通道接收变更批次，通过 Stats 查看运行计数
//
// 忽略规则的判定路径：
//   - 使用相对于所属监听根目录的路径，如监听 /repo 时 /repo/web/node_modules 判定为 "web/node_modules"
//   - 分隔符统一为 "/"，所以 "**/node_modules" 在各平台上写法一致
//   - 监听根目录本身不参与判定
//
// 推荐使用方式：
//  1. 配置 ConfigWatcher，或通过 LoadConfigFile 从 YAML 读取
//  2. 通过 NewWatcher 创建 Watcher（忽略规则在这里编译，错误立即返回）
//  3. 调用 Start() 开始监控
//  4. 从 Batches 读取变更批次
//  5. 调用 Stop() 结束监控，Batches 随之关闭
//
// 并发安全：
//   - SetIgnored 原子替换忽略规则，已在进行中的判定不受影响
//   - SetIgnored 不会重新加入之前被跳过的目录
//   - Stats、IsIgnored 可在任意 goroutine 中调用
//
// 注意：
//   - Windows、Linux、macOS 等平台对文件系统事件的支持存在差异
//   - 目录不计算哈希，仅对文件内容做哈希校验
package watcher
