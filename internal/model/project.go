package model

import (
	"reflect"
)

// Project はバックエンドから取得するプロジェクトを表す。
// 名前付きフィールド以外のプロパティ（title, category, technologies, members, tasks等）はExtraで中継する。
type Project struct {
	ID          ID     `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	OwnerID     ID     `json:"ownerId,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	Extra       Extra  `json:"-"`
}

// Member はプロジェクトのメンバーを表す。
type Member struct {
	ID       ID     `json:"id,omitempty"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Username string `json:"username,omitempty"`
	Extra    Extra  `json:"-"`
}

// Task はバックエンドから取得するタスクを表す。
type Task struct {
	ID          ID     `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	AssignedTo  string `json:"assignedTo"`
	CreatedBy   string `json:"createdBy,omitempty"`
	ProjectID   ID     `json:"projectId,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	Extra       Extra  `json:"-"`
}

// Reactions は絵文字ごとのリアクションしたユーザー（メールアドレス）の一覧。
type Reactions map[string][]string

// Count はリアクションの総数を返す。
func (r Reactions) Count() int {
	n := 0
	for _, users := range r {
		n += len(users)
	}
	return n
}

// Comment はタスクに付与されるコメントを表す。
type Comment struct {
	ID        ID        `json:"id,omitempty"`
	TaskID    ID        `json:"taskId"`
	ParentID  ID        `json:"parentId,omitempty"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt string    `json:"createdAt"`
	Reactions Reactions `json:"reactions,omitempty"`
	Extra     Extra     `json:"-"`
}

// Reaction はコメントへのリアクションの追加リクエスト。
type Reaction struct {
	Reaction string `json:"reaction"`
	User     string `json:"user"`
}

// Invitation はプロジェクトへの招待を表す。
type Invitation struct {
	ID        ID     `json:"id,omitempty"`
	Email     string `json:"email"`
	ProjectID ID     `json:"projectId"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt,omitempty"`
	Extra     Extra  `json:"-"`
}

// InvitationPending は作成直後の招待ステータス。
const InvitationPending = "PENDING"

// DashboardStats はダッシュボードの集計値を表す。
type DashboardStats struct {
	TotalProjects  int `json:"totalProjects"`
	ActiveTasks    int `json:"activeTasks"`
	CompletedTasks int `json:"completedTasks"`
	TeamMembers    int `json:"teamMembers"`
}

type (
	plainProject    Project
	plainMember     Member
	plainTask       Task
	plainComment    Comment
	plainInvitation Invitation
)

var (
	projectKeys    = jsonKeys(reflect.TypeOf(plainProject{}))
	memberKeys     = jsonKeys(reflect.TypeOf(plainMember{}))
	taskKeys       = jsonKeys(reflect.TypeOf(plainTask{}))
	commentKeys    = jsonKeys(reflect.TypeOf(plainComment{}))
	invitationKeys = jsonKeys(reflect.TypeOf(plainInvitation{}))
)

// MarshalJSON は名前付きフィールドとExtraを合わせて書き出す。
func (p Project) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(plainProject(p), p.Extra)
}

// UnmarshalJSON は名前付きフィールド以外のプロパティをExtraに保持する。
func (p *Project) UnmarshalJSON(data []byte) error {
	var v plainProject
	extra, err := unmarshalWithExtra(data, &v, projectKeys)
	if err != nil {
		return err
	}
	*p = Project(v)
	p.Extra = extra
	return nil
}

func (m Member) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(plainMember(m), m.Extra)
}

func (m *Member) UnmarshalJSON(data []byte) error {
	var v plainMember
	extra, err := unmarshalWithExtra(data, &v, memberKeys)
	if err != nil {
		return err
	}
	*m = Member(v)
	m.Extra = extra
	return nil
}

func (t Task) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(plainTask(t), t.Extra)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var v plainTask
	extra, err := unmarshalWithExtra(data, &v, taskKeys)
	if err != nil {
		return err
	}
	*t = Task(v)
	t.Extra = extra
	return nil
}

func (c Comment) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(plainComment(c), c.Extra)
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	var v plainComment
	extra, err := unmarshalWithExtra(data, &v, commentKeys)
	if err != nil {
		return err
	}
	*c = Comment(v)
	c.Extra = extra
	return nil
}

func (i Invitation) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(plainInvitation(i), i.Extra)
}

func (i *Invitation) UnmarshalJSON(data []byte) error {
	var v plainInvitation
	extra, err := unmarshalWithExtra(data, &v, invitationKeys)
	if err != nil {
		return err
	}
	*i = Invitation(v)
	i.Extra = extra
	return nil
}
