package academy

import (
	"context"

	"alsun-go/internal/model"
)

// Gateway is the backend API surface the service depends on.
// Implemented by api.Client; tests use a scripted mock.
type Gateway interface {
	Login(ctx context.Context, code, password string) (model.User, error)
	ListContent(ctx context.Context, department, division string) ([]model.Content, error)
	UploadContent(ctx context.Context, req model.UploadRequest) error
	DeleteContent(ctx context.Context, id string) error
	ListMessages(ctx context.Context, department, division string) ([]model.Message, error)
	SendMessage(ctx context.Context, msg model.Message) error
	ListUsers(ctx context.Context) ([]model.User, error)
	AddUser(ctx context.Context, u model.NewUser) error
	DeleteUser(ctx context.Context, code string) error
	FetchText(ctx context.Context, filePath string) (string, error)
	FileURL(filePath string) string
}

// SessionStore persists the single active-session snapshot across
// process restarts. Load returns ok=false when nothing usable is stored.
type SessionStore interface {
	SaveSession(user model.User) error
	LoadSession() (model.User, bool, error)
	ClearSession() error
}
