// Command monitorctl 通过 RS-232 控制 DELL P4317Q 显示器
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// version 构建时通过 -ldflags "-X main.version=..." 注入
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}
