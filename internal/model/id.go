package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID はバックエンドが返す識別子を表す。
// バックエンドは数値IDを返すこともあれば文字列IDを返すこともあるため、どちらも文字列として保持する。
// JSONへの書き出し時は10進整数の形をしたIDを数値に戻す。
type ID string

// MarshalJSON は10進整数（先頭ゼロなし）のIDをJSON数値、それ以外を文字列として書き出す。
func (id ID) MarshalJSON() ([]byte, error) {
	if isDecimalInteger(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON は文字列・数値のどちらのJSON値もIDとして受け付ける。
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String はIDを文字列として返す。
func (id ID) String() string {
	return string(id)
}

// isDecimalInteger はsが先頭ゼロのない10進整数表記かを判定する。
func isDecimalInteger(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}
