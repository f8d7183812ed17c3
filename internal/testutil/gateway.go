package testutil

import (
	"context"
	"sync"

	"alsun-go/internal/model"
)

// MockGateway is a scripted academy.Gateway. Every call is counted so
// tests can assert that guards and the cache issued (or suppressed)
// network requests.
type MockGateway struct {
	mu    sync.Mutex
	calls map[string]int

	LoginUser    model.User
	LoginErr     error
	ContentItems []model.Content
	ContentErr   error
	UploadErr    error
	DeleteErr    error
	MessageItems []model.Message
	MessagesErr  error
	SendErr      error
	UserItems    []model.User
	UsersErr     error
	AddUserErr   error
	DelUserErr   error
	Text         string
	TextErr      error

	// SentMessages records every message passed to SendMessage.
	SentMessages []model.Message
	// Uploaded records every upload request.
	Uploaded []model.UploadRequest
}

func NewMockGateway() *MockGateway {
	return &MockGateway{calls: make(map[string]int)}
}

// Calls returns how many times the named method was invoked.
func (g *MockGateway) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

// TotalCalls returns the number of gateway invocations across all methods.
func (g *MockGateway) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.calls {
		total += n
	}
	return total
}

func (g *MockGateway) record(method string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[method]++
}

func (g *MockGateway) Login(_ context.Context, code, password string) (model.User, error) {
	g.record("Login")
	return g.LoginUser, g.LoginErr
}

func (g *MockGateway) ListContent(_ context.Context, department, division string) ([]model.Content, error) {
	g.record("ListContent")
	return g.ContentItems, g.ContentErr
}

func (g *MockGateway) UploadContent(_ context.Context, req model.UploadRequest) error {
	g.record("UploadContent")
	if g.UploadErr == nil {
		g.mu.Lock()
		g.Uploaded = append(g.Uploaded, req)
		g.mu.Unlock()
	}
	return g.UploadErr
}

func (g *MockGateway) DeleteContent(_ context.Context, id string) error {
	g.record("DeleteContent")
	return g.DeleteErr
}

func (g *MockGateway) ListMessages(_ context.Context, department, division string) ([]model.Message, error) {
	g.record("ListMessages")
	return g.MessageItems, g.MessagesErr
}

func (g *MockGateway) SendMessage(_ context.Context, msg model.Message) error {
	g.record("SendMessage")
	if g.SendErr == nil {
		g.mu.Lock()
		g.SentMessages = append(g.SentMessages, msg)
		g.mu.Unlock()
	}
	return g.SendErr
}

func (g *MockGateway) ListUsers(_ context.Context) ([]model.User, error) {
	g.record("ListUsers")
	return g.UserItems, g.UsersErr
}

func (g *MockGateway) AddUser(_ context.Context, u model.NewUser) error {
	g.record("AddUser")
	return g.AddUserErr
}

func (g *MockGateway) DeleteUser(_ context.Context, code string) error {
	g.record("DeleteUser")
	return g.DelUserErr
}

func (g *MockGateway) FetchText(_ context.Context, filePath string) (string, error) {
	g.record("FetchText")
	return g.Text, g.TextErr
}

func (g *MockGateway) FileURL(filePath string) string {
	return "https://academy.test/" + filePath
}
