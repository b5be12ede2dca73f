// Command eventctl はeventman APIのコマンドラインクライアント。
package main

import (
	"os"

	"github.com/hitoshi/eventman/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
