// Package academy is the service core of the client: it owns the single
// current-session value, applies the session/role guards in front of
// every operation, and routes reads through the scoped response caches.
// Both front ends (CLI and TUI) call through this package, so no path
// can reach the backend without passing the guards.
package academy

import (
	"context"
	"strconv"
	"sync"

	"alsun-go/internal/cache"
	"alsun-go/internal/model"
)

// messageTimeLayout is the timestamp format the backend expects on sent
// messages.
const messageTimeLayout = "2006-01-02 15:04:05"

// Service coordinates the gateway, session store and response caches.
type Service struct {
	gateway  Gateway
	sessions SessionStore
	contents *cache.Store[[]model.Content]
	messages *cache.Store[[]model.Message]
	logger   Logger
	clock    Clock

	mu   sync.Mutex
	user *model.User
}

// NewService creates a Service with the provided dependencies. The two
// cache stores are shared with no one else; the service alone decides
// when entries are invalidated.
func NewService(gateway Gateway, sessions SessionStore, contents *cache.Store[[]model.Content], messages *cache.Store[[]model.Message], logger Logger, clock Clock) *Service {
	return &Service{
		gateway:  gateway,
		sessions: sessions,
		contents: contents,
		messages: messages,
		logger:   logger,
		clock:    clock,
	}
}

// Login validates the credentials locally, authenticates against the
// backend and persists the returned user as the active session.
func (s *Service) Login(ctx context.Context, code, password string) (model.User, error) {
	if code == "" {
		return model.User{}, &ValidationError{Field: "code"}
	}
	if password == "" {
		return model.User{}, &ValidationError{Field: "password"}
	}

	user, err := s.gateway.Login(ctx, code, password)
	if err != nil {
		return model.User{}, err
	}

	if err := s.sessions.SaveSession(user); err != nil {
		// The login itself succeeded; a broken session file only costs
		// the restore on next launch.
		s.logger.Warn("persisting session failed", "error", err)
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.logger.Info("logged in", "code", user.Code, "role", user.Role)
	return user, nil
}

// RestoreSession loads the persisted session snapshot, if any. Malformed
// snapshots are treated as no session.
func (s *Service) RestoreSession() (model.User, bool) {
	user, ok, err := s.sessions.LoadSession()
	if err != nil {
		s.logger.Warn("restoring session failed", "error", err)
		return model.User{}, false
	}
	if !ok || !user.Valid() {
		return model.User{}, false
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.logger.Debug("session restored", "code", user.Code)
	return user, true
}

// Logout clears the session, its persisted snapshot and both response
// caches.
func (s *Service) Logout() error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	s.contents.Clear()
	s.messages.Clear()

	if err := s.sessions.ClearSession(); err != nil {
		return err
	}
	s.logger.Info("logged out")
	return nil
}

// CurrentUser returns the active session user, if any.
func (s *Service) CurrentUser() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// requireSession is the authenticated-guard: every operation except
// Login and RestoreSession passes through it before any network effect.
func (s *Service) requireSession() (model.User, error) {
	user, ok := s.CurrentUser()
	if !ok {
		return model.User{}, ErrNoSession
	}
	return user, nil
}

// requireAdmin composes the authenticated-guard with the role check.
// Authentication is always checked first: a logged-out non-admin gets
// ErrNoSession, not ErrForbidden.
func (s *Service) requireAdmin() (model.User, error) {
	user, err := s.requireSession()
	if err != nil {
		return model.User{}, err
	}
	if !user.IsAdmin() {
		return model.User{}, ErrForbidden
	}
	return user, nil
}

// Content returns the content list for the given scope, from cache when
// a fresh entry exists. An empty department or division fetches
// unscoped and bypasses the cache.
func (s *Service) Content(ctx context.Context, department, division string) ([]model.Content, error) {
	if _, err := s.requireSession(); err != nil {
		return nil, err
	}

	key, scoped := cache.Key(department, division)
	if scoped {
		if items, ok := s.contents.Get(key); ok {
			s.logger.Debug("content cache hit", "scope", key)
			return items, nil
		}
	}

	items, err := s.gateway.ListContent(ctx, department, division)
	if err != nil {
		return nil, err
	}
	if scoped {
		s.contents.Put(key, items)
	}
	return items, nil
}

// Upload sends a new content file. Admin only. The uploader and scope
// come from the session, not the request. On success the content cache
// entry for that scope is invalidated.
func (s *Service) Upload(ctx context.Context, title, filePath, description string) error {
	user, err := s.requireAdmin()
	if err != nil {
		return err
	}
	if title == "" {
		return &ValidationError{Field: "title"}
	}
	if filePath == "" {
		return &ValidationError{Field: "file"}
	}
	if description == "" {
		return &ValidationError{Field: "description"}
	}

	err = s.gateway.UploadContent(ctx, model.UploadRequest{
		Title:       title,
		FilePath:    filePath,
		UploadedBy:  user.Code,
		Department:  user.Department,
		Division:    user.Division,
		Description: description,
	})
	if err != nil {
		return err
	}

	s.invalidateContent(user.Department, user.Division)
	s.logger.Info("content uploaded", "title", title)
	return nil
}

// DeleteContent removes a content record. Admin only. The cache entry
// for the item's scope is invalidated on success.
func (s *Service) DeleteContent(ctx context.Context, id, department, division string) error {
	if _, err := s.requireAdmin(); err != nil {
		return err
	}
	if id == "" {
		return &ValidationError{Field: "id"}
	}

	if err := s.gateway.DeleteContent(ctx, id); err != nil {
		return err
	}

	s.invalidateContent(department, division)
	s.logger.Info("content deleted", "id", id)
	return nil
}

// Messages returns the chat messages for the given scope, from cache
// when a fresh entry exists.
func (s *Service) Messages(ctx context.Context, department, division string) ([]model.Message, error) {
	if _, err := s.requireSession(); err != nil {
		return nil, err
	}

	key, scoped := cache.Key(department, division)
	if scoped {
		if msgs, ok := s.messages.Get(key); ok {
			s.logger.Debug("message cache hit", "scope", key)
			return msgs, nil
		}
	}
	return s.fetchMessages(ctx, department, division)
}

// RefreshMessages always fetches from the backend and repopulates the
// cache. This is the chat poll path.
func (s *Service) RefreshMessages(ctx context.Context, department, division string) ([]model.Message, error) {
	if _, err := s.requireSession(); err != nil {
		return nil, err
	}
	return s.fetchMessages(ctx, department, division)
}

func (s *Service) fetchMessages(ctx context.Context, department, division string) ([]model.Message, error) {
	msgs, err := s.gateway.ListMessages(ctx, department, division)
	if err != nil {
		return nil, err
	}
	if key, scoped := cache.Key(department, division); scoped {
		s.messages.Put(key, msgs)
	}
	return msgs, nil
}

// Send posts a chat message to the session user's scope. The message id
// is the clock's millisecond timestamp and the wall-clock timestamp uses
// the backend's expected layout; both are required by the backend. On
// success the message cache entry for the scope is invalidated.
func (s *Service) Send(ctx context.Context, content string) error {
	user, err := s.requireSession()
	if err != nil {
		return err
	}
	if content == "" {
		return &ValidationError{Field: "message"}
	}

	now := s.clock.Now()
	msg := model.Message{
		ID:         strconv.FormatInt(now.UnixMilli(), 10),
		Content:    content,
		SenderID:   user.Code,
		Department: user.Department,
		Division:   user.Division,
		Timestamp:  now.Format(messageTimeLayout),
	}

	if err := s.gateway.SendMessage(ctx, msg); err != nil {
		return err
	}

	if key, scoped := cache.Key(user.Department, user.Division); scoped {
		s.messages.Invalidate(key)
	}
	s.logger.Info("message sent", "id", msg.ID)
	return nil
}

// Users lists all accounts. Admin only. User management is never cached:
// it is not scoped to a department/division pair.
func (s *Service) Users(ctx context.Context) ([]model.User, error) {
	if _, err := s.requireAdmin(); err != nil {
		return nil, err
	}
	return s.gateway.ListUsers(ctx)
}

// AddUser creates an account. Admin only.
func (s *Service) AddUser(ctx context.Context, u model.NewUser) error {
	if _, err := s.requireAdmin(); err != nil {
		return err
	}
	if u.Code == "" {
		return &ValidationError{Field: "code"}
	}
	if u.Username == "" {
		return &ValidationError{Field: "username"}
	}
	if u.Password == "" {
		return &ValidationError{Field: "password"}
	}
	if u.Role != model.RoleAdmin && u.Role != model.RoleMember {
		return &ValidationError{Field: "role"}
	}

	if err := s.gateway.AddUser(ctx, u); err != nil {
		return err
	}
	s.logger.Info("user added", "code", u.Code, "role", u.Role)
	return nil
}

// RemoveUser deletes an account by code. Admin only.
func (s *Service) RemoveUser(ctx context.Context, code string) error {
	if _, err := s.requireAdmin(); err != nil {
		return err
	}
	if code == "" {
		return &ValidationError{Field: "code"}
	}

	if err := s.gateway.DeleteUser(ctx, code); err != nil {
		return err
	}
	s.logger.Info("user removed", "code", code)
	return nil
}

// FetchText retrieves a stored text file for the text viewer.
func (s *Service) FetchText(ctx context.Context, filePath string) (string, error) {
	if _, err := s.requireSession(); err != nil {
		return "", err
	}
	return s.gateway.FetchText(ctx, filePath)
}

// FileURL returns the absolute URL of a stored file, for the image
// viewer and external handlers.
func (s *Service) FileURL(filePath string) string {
	return s.gateway.FileURL(filePath)
}

func (s *Service) invalidateContent(department, division string) {
	if key, scoped := cache.Key(department, division); scoped {
		s.contents.Invalidate(key)
	}
}
