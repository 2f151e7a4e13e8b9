package auth

import "github.com/hitoshi/taskdeck/internal/model"

// State はセッションの状態を表す。Loading、Authenticated、Anonymousのいずれか。
// ルートガードは型switchで全ての状態を扱う。
//
// 遷移: Loading → {Authenticated, Anonymous}（復元完了時）、
// Anonymous → Authenticated（サインイン）、Authenticated → Anonymous（ログアウト・失効）。
type State interface {
	isState()
}

// Loading は永続化トークンからの復元が完了していない状態。
type Loading struct{}

// Authenticated はセッションが確立している状態。
type Authenticated struct {
	Session model.Session
}

// Anonymous はセッションがない状態。
type Anonymous struct{}

func (Loading) isState() {}
func (Authenticated) isState() {}
func (Anonymous) isState() {}
