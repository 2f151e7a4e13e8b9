// Command taskdeck はタスク管理SPA向けのBFFサーバーを起動する。
//
// サブコマンド:
//
//	serve       HTTPサーバーを起動する（デフォルト）
//	worker      期限切れブラウザセッションのクリーンアップを定期実行する
//	migrate     データベースマイグレーションを適用する
//	healthcheck 稼働中のサーバーの/healthを確認する
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/taskdeck/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
