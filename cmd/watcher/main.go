// 命令 watcher 监听目录并输出合并后的文件变更
package main

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal("watcher", err)
	}
}
