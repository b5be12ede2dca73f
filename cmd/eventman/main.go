// Command eventman はイベント管理APIサーバーを起動する。
// サブコマンド: serve (デフォルト), worker, migrate [up|down [n]|version], healthcheck
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/eventman/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
