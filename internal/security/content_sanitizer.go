// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザーが入力したプロジェクト説明・タスク説明・コメント本文から
// HTMLを取り除き、プレーンテキストとしてバックエンドへ送る。
// bluemondayのStrictPolicyで全てのタグを除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力テキストのサニタイズ機能のインターフェース。
// バックエンドへの送信前、およびバックエンドから受け取った値の応答前に使用する。
type TextSanitizer interface {
	// Sanitize は全てのHTMLタグを除去したプレーンテキストを返す。
	// script, styleタグは中身ごと除去する。前後の空白は取り除く。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(text string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに利用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses はエスケープ済みタグを含む入力に対する再適用の上限。
const maxSanitizePasses = 4

// Sanitize はタグを除去したプレーンテキストを返す。
// StrictPolicyはテキストをHTMLエスケープして返すため、JSONで返す値としてはエスケープを戻す。
// エスケープを戻した結果にタグが現れる場合（"&lt;script&gt;"など）は結果が変わらなくなるまで繰り返す。
func (s *textSanitizer) Sanitize(text string) string {
	out := strings.TrimSpace(text)
	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(out)))
		if next == out {
			break
		}
		out = next
	}
	return out
}
