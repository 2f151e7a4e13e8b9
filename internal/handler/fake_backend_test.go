package handler

import (
	"context"
	"sync"

	"github.com/hitoshi/taskdeck/internal/model"
)

// fakeBackend はBackendAPIのインメモリ実装。errを設定すると全ての呼び出しがそのエラーを返す。
type fakeBackend struct {
	mu sync.Mutex

	err          error
	sendEmailErr error

	projects    []model.Project
	tasks       []model.Task
	members     []model.Member
	comments    []model.Comment
	invitations []model.Invitation
	stats       model.DashboardStats

	calls        []string
	gotProject   model.Project
	gotTask      model.Task
	gotComment   model.Comment
	gotReaction  model.Reaction
	reacted      *model.Comment
	gotInvite    model.Invitation
	gotMemberID  string
	gotStatus    string
	gotProjectID string
	sentEmails   []string
}

func (f *fakeBackend) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeBackend) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) ListProjects(ctx context.Context) ([]model.Project, error) {
	if err := f.record("ListProjects"); err != nil {
		return nil, err
	}
	return f.projects, nil
}

func (f *fakeBackend) ListProjectsByUser(ctx context.Context, userID string) ([]model.Project, error) {
	if err := f.record("ListProjectsByUser:" + userID); err != nil {
		return nil, err
	}
	return f.projects, nil
}

func (f *fakeBackend) RecentProjects(ctx context.Context) ([]model.Project, error) {
	if err := f.record("RecentProjects"); err != nil {
		return nil, err
	}
	return f.projects, nil
}

func (f *fakeBackend) GetProject(ctx context.Context, id string) (*model.Project, error) {
	if err := f.record("GetProject:" + id); err != nil {
		return nil, err
	}
	return &model.Project{ID: model.ID(id), Name: "Project " + id}, nil
}

func (f *fakeBackend) CreateProject(ctx context.Context, p model.Project) (*model.Project, error) {
	if err := f.record("CreateProject"); err != nil {
		return nil, err
	}
	f.gotProject = p
	p.ID = "100"
	return &p, nil
}

func (f *fakeBackend) UpdateProject(ctx context.Context, id string, p model.Project) (*model.Project, error) {
	if err := f.record("UpdateProject:" + id); err != nil {
		return nil, err
	}
	f.gotProject = p
	p.ID = model.ID(id)
	return &p, nil
}

func (f *fakeBackend) DeleteProject(ctx context.Context, id string) error {
	return f.record("DeleteProject:" + id)
}

func (f *fakeBackend) ListMembers(ctx context.Context, projectID string) ([]model.Member, error) {
	if err := f.record("ListMembers:" + projectID); err != nil {
		return nil, err
	}
	return f.members, nil
}

func (f *fakeBackend) AddMember(ctx context.Context, projectID, memberID string) error {
	if err := f.record("AddMember:" + projectID); err != nil {
		return err
	}
	f.gotMemberID = memberID
	return nil
}

func (f *fakeBackend) ListProjectTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	if err := f.record("ListProjectTasks:" + projectID); err != nil {
		return nil, err
	}
	return f.tasks, nil
}

func (f *fakeBackend) CreateProjectTask(ctx context.Context, projectID string, t model.Task) (*model.Task, error) {
	if err := f.record("CreateProjectTask:" + projectID); err != nil {
		return nil, err
	}
	f.gotTask = t
	t.ID = "200"
	return &t, nil
}

func (f *fakeBackend) ListTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	if err := f.record("ListTasks:" + projectID); err != nil {
		return nil, err
	}
	return f.tasks, nil
}

func (f *fakeBackend) GetTask(ctx context.Context, id string) (*model.Task, error) {
	if err := f.record("GetTask:" + id); err != nil {
		return nil, err
	}
	return &model.Task{ID: model.ID(id), Title: "Task " + id}, nil
}

func (f *fakeBackend) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	if err := f.record("CreateTask"); err != nil {
		return nil, err
	}
	f.gotTask = t
	t.ID = "201"
	return &t, nil
}

func (f *fakeBackend) UpdateTask(ctx context.Context, id string, t model.Task) (*model.Task, error) {
	if err := f.record("UpdateTask:" + id); err != nil {
		return nil, err
	}
	f.gotTask = t
	t.ID = model.ID(id)
	return &t, nil
}

func (f *fakeBackend) UpdateTaskStatus(ctx context.Context, id, status string) (*model.Task, error) {
	if err := f.record("UpdateTaskStatus:" + id); err != nil {
		return nil, err
	}
	f.gotStatus = status
	return &model.Task{ID: model.ID(id), Status: status}, nil
}

func (f *fakeBackend) DeleteTask(ctx context.Context, id string) error {
	return f.record("DeleteTask:" + id)
}

func (f *fakeBackend) ListComments(ctx context.Context, taskID string) ([]model.Comment, error) {
	if err := f.record("ListComments:" + taskID); err != nil {
		return nil, err
	}
	return append([]model.Comment(nil), f.comments...), nil
}

func (f *fakeBackend) CreateComment(ctx context.Context, cm model.Comment) (*model.Comment, error) {
	if err := f.record("CreateComment"); err != nil {
		return nil, err
	}
	f.gotComment = cm
	cm.ID = "300"
	return &cm, nil
}

func (f *fakeBackend) UpdateComment(ctx context.Context, id string, cm model.Comment) (*model.Comment, error) {
	if err := f.record("UpdateComment:" + id); err != nil {
		return nil, err
	}
	f.gotComment = cm
	cm.ID = model.ID(id)
	return &cm, nil
}

func (f *fakeBackend) DeleteComment(ctx context.Context, id string) error {
	return f.record("DeleteComment:" + id)
}

func (f *fakeBackend) ListInvitations(ctx context.Context, projectID string) ([]model.Invitation, error) {
	if err := f.record("ListInvitations:" + projectID); err != nil {
		return nil, err
	}
	return f.invitations, nil
}

func (f *fakeBackend) CreateInvitation(ctx context.Context, inv model.Invitation) (*model.Invitation, error) {
	if err := f.record("CreateInvitation"); err != nil {
		return nil, err
	}
	f.gotInvite = inv
	inv.ID = "400"
	return &inv, nil
}

func (f *fakeBackend) DeleteInvitation(ctx context.Context, id string) error {
	return f.record("DeleteInvitation:" + id)
}

func (f *fakeBackend) SendInvitationEmail(ctx context.Context, toEmail, projectID string) error {
	if err := f.record("SendInvitationEmail"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentEmails = append(f.sentEmails, toEmail)
	f.gotProjectID = projectID
	return f.sendEmailErr
}

func (f *fakeBackend) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	if err := f.record("DashboardStats"); err != nil {
		return nil, err
	}
	s := f.stats
	return &s, nil
}

var _ BackendAPI = (*fakeBackend)(nil)

func (f *fakeBackend) AddReaction(ctx context.Context, commentID string, rc model.Reaction) (*model.Comment, error) {
	if err := f.record("AddReaction:" + commentID); err != nil {
		return nil, err
	}
	f.gotReaction = rc
	return f.reacted, nil
}
