package model

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Extra はDTOの名前付きフィールド以外のJSONプロパティを保持する。
// バックエンドとSPAの間で中継するとき、未知のプロパティを落とさずに受け渡す。
type Extra map[string]json.RawMessage

// jsonKeys は構造体のJSONキー（小文字化済み）の集合を返す。
func jsonKeys(t reflect.Type) map[string]struct{} {
	keys := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" || !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		keys[strings.ToLower(name)] = struct{}{}
	}
	return keys
}

// unmarshalWithExtra はdataをvへデコードし、knownに含まれないプロパティをExtraとして返す。
// encoding/jsonと同じく、キーの大文字小文字は区別しない。
func unmarshalWithExtra(data []byte, v any, known map[string]struct{}) (Extra, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	var extra Extra
	for k, raw := range all {
		if _, ok := known[strings.ToLower(k)]; ok {
			continue
		}
		if extra == nil {
			extra = make(Extra)
		}
		extra[k] = raw
	}
	return extra, nil
}

// marshalWithExtra はvをエンコードし、extraのプロパティを追加する。
// 名前付きフィールドと同じキーはextraより名前付きフィールドを優先する。
func marshalWithExtra(v any, extra Extra) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}
