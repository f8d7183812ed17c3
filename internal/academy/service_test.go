package academy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"alsun-go/internal/academy"
	"alsun-go/internal/cache"
	"alsun-go/internal/model"
	"alsun-go/internal/testutil"
)

type fixture struct {
	svc      *academy.Service
	gateway  *testutil.MockGateway
	sessions *testutil.MemorySessionStore
	clock    *testutil.StubClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := testutil.FixedClock()
	gw := testutil.NewMockGateway()
	sessions := testutil.NewMemorySessionStore()
	svc := academy.NewService(
		gw,
		sessions,
		cache.New[[]model.Content](5*time.Minute, 64, clock),
		cache.New[[]model.Message](5*time.Minute, 64, clock),
		academy.NewNopLogger(),
		clock,
	)
	return &fixture{svc: svc, gateway: gw, sessions: sessions, clock: clock}
}

func (f *fixture) loginAs(t *testing.T, role string) model.User {
	t.Helper()
	f.gateway.LoginUser = model.User{
		Code: "T1", Username: "Ali", Department: "CS", Division: "A", Role: role,
	}
	user, err := f.svc.Login(context.Background(), "T1", "x")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return user
}

func TestService_Login(t *testing.T) {
	t.Run("empty code or password never reaches the network", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Login(context.Background(), "", "secret")
		if !academy.IsValidation(err) {
			t.Errorf("Login(empty code) error = %v, want validation error", err)
		}

		_, err = f.svc.Login(context.Background(), "T1", "")
		if !academy.IsValidation(err) {
			t.Errorf("Login(empty password) error = %v, want validation error", err)
		}

		if n := f.gateway.TotalCalls(); n != 0 {
			t.Errorf("gateway calls = %d, want 0", n)
		}
	})

	t.Run("success sets and persists the session", func(t *testing.T) {
		f := newFixture(t)
		user := f.loginAs(t, model.RoleMember)

		if user.Role != model.RoleMember {
			t.Errorf("Role = %q, want member", user.Role)
		}
		if _, ok := f.svc.CurrentUser(); !ok {
			t.Error("CurrentUser() not set after login")
		}

		persisted, ok, err := f.sessions.LoadSession()
		if err != nil || !ok {
			t.Fatalf("LoadSession() = %v, %v", ok, err)
		}
		if persisted.Code != "T1" {
			t.Errorf("persisted code = %q, want T1", persisted.Code)
		}
	})

	t.Run("gateway failure leaves no session", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.LoginErr = errors.New("boom")

		if _, err := f.svc.Login(context.Background(), "T1", "x"); err == nil {
			t.Fatal("Login() expected error")
		}
		if _, ok := f.svc.CurrentUser(); ok {
			t.Error("session set despite failed login")
		}
	})

	t.Run("session persist failure does not fail the login", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.SaveErr = errors.New("disk full")
		f.gateway.LoginUser = model.User{Code: "T1", Role: model.RoleMember}

		if _, err := f.svc.Login(context.Background(), "T1", "x"); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if _, ok := f.svc.CurrentUser(); !ok {
			t.Error("session not set")
		}
	})
}

func TestService_RestoreSession(t *testing.T) {
	t.Run("restores a persisted session without a login call", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleMember)

		// A fresh service over the same store simulates an app restart.
		f2 := newFixture(t)
		f2.sessions = f.sessions
		svc := academy.NewService(f2.gateway, f.sessions,
			cache.New[[]model.Content](5*time.Minute, 64, f2.clock),
			cache.New[[]model.Message](5*time.Minute, 64, f2.clock),
			academy.NewNopLogger(), f2.clock)

		user, ok := svc.RestoreSession()
		if !ok {
			t.Fatal("RestoreSession() = false, want true")
		}
		if user.Code != "T1" || user.Role != model.RoleMember {
			t.Errorf("restored user = %+v", user)
		}
		if n := f2.gateway.Calls("Login"); n != 0 {
			t.Errorf("Login calls during restore = %d, want 0", n)
		}
	})

	t.Run("malformed snapshot yields no session", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.SaveSession(model.User{Username: "ghost"}) // no code, no role

		if _, ok := f.svc.RestoreSession(); ok {
			t.Error("RestoreSession() accepted malformed snapshot")
		}
	})

	t.Run("load error yields no session", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.LoadErr = errors.New("corrupt")

		if _, ok := f.svc.RestoreSession(); ok {
			t.Error("RestoreSession() = true, want false")
		}
	})
}

func TestService_Guards(t *testing.T) {
	adminOps := map[string]func(*academy.Service) error{
		"Upload": func(s *academy.Service) error {
			return s.Upload(context.Background(), "t", "/tmp/f", "d")
		},
		"DeleteContent": func(s *academy.Service) error {
			return s.DeleteContent(context.Background(), "1", "CS", "A")
		},
		"Users": func(s *academy.Service) error {
			_, err := s.Users(context.Background())
			return err
		},
		"AddUser": func(s *academy.Service) error {
			return s.AddUser(context.Background(), model.NewUser{Code: "U2", Username: "x", Password: "p", Role: "member"})
		},
		"RemoveUser": func(s *academy.Service) error {
			return s.RemoveUser(context.Background(), "U2")
		},
	}

	t.Run("no session blocks before role is considered", func(t *testing.T) {
		for name, op := range adminOps {
			f := newFixture(t)
			if err := op(f.svc); !errors.Is(err, academy.ErrNoSession) {
				t.Errorf("%s without session: error = %v, want ErrNoSession", name, err)
			}
			if n := f.gateway.TotalCalls(); n != 0 {
				t.Errorf("%s without session issued %d gateway calls", name, n)
			}
		}
	})

	t.Run("member session is forbidden with no network call", func(t *testing.T) {
		for name, op := range adminOps {
			f := newFixture(t)
			f.loginAs(t, model.RoleMember)
			before := f.gateway.TotalCalls()

			if err := op(f.svc); !errors.Is(err, academy.ErrForbidden) {
				t.Errorf("%s as member: error = %v, want ErrForbidden", name, err)
			}
			if n := f.gateway.TotalCalls(); n != before {
				t.Errorf("%s as member issued %d gateway calls", name, n-before)
			}
		}
	})

	t.Run("session-gated reads redirect when logged out", func(t *testing.T) {
		f := newFixture(t)

		if _, err := f.svc.Content(context.Background(), "CS", "A"); !errors.Is(err, academy.ErrNoSession) {
			t.Errorf("Content error = %v, want ErrNoSession", err)
		}
		if _, err := f.svc.Messages(context.Background(), "CS", "A"); !errors.Is(err, academy.ErrNoSession) {
			t.Errorf("Messages error = %v, want ErrNoSession", err)
		}
		if err := f.svc.Send(context.Background(), "hi"); !errors.Is(err, academy.ErrNoSession) {
			t.Errorf("Send error = %v, want ErrNoSession", err)
		}
		if n := f.gateway.TotalCalls(); n != 0 {
			t.Errorf("gateway calls = %d, want 0", n)
		}
	})
}

func TestService_ContentCaching(t *testing.T) {
	t.Run("second fetch for same scope is a cache hit", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleMember)
		f.gateway.ContentItems = []model.Content{{ID: "1", Title: "Lecture 1"}}

		first, err := f.svc.Content(context.Background(), "CS", "A")
		if err != nil {
			t.Fatalf("Content() error = %v", err)
		}
		second, err := f.svc.Content(context.Background(), "CS", "A")
		if err != nil {
			t.Fatalf("Content() error = %v", err)
		}

		if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
			t.Errorf("results differ: %v vs %v", first, second)
		}
		if n := f.gateway.Calls("ListContent"); n != 1 {
			t.Errorf("ListContent calls = %d, want 1 (cache hit)", n)
		}
	})

	t.Run("unscoped fetch bypasses the cache", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleMember)

		f.svc.Content(context.Background(), "", "")
		f.svc.Content(context.Background(), "", "")

		if n := f.gateway.Calls("ListContent"); n != 2 {
			t.Errorf("ListContent calls = %d, want 2 (no caching unscoped)", n)
		}
	})

	t.Run("upload invalidates the scope entry", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleAdmin)

		f.svc.Content(context.Background(), "CS", "A")
		if err := f.svc.Upload(context.Background(), "Notes", "/tmp/notes.txt", "week 1"); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		f.svc.Content(context.Background(), "CS", "A")

		if n := f.gateway.Calls("ListContent"); n != 2 {
			t.Errorf("ListContent calls = %d, want 2 (cache invalidated)", n)
		}
	})

	t.Run("delete invalidates the scope entry", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleAdmin)

		f.svc.Content(context.Background(), "CS", "A")
		if err := f.svc.DeleteContent(context.Background(), "1", "CS", "A"); err != nil {
			t.Fatalf("DeleteContent() error = %v", err)
		}
		f.svc.Content(context.Background(), "CS", "A")

		if n := f.gateway.Calls("ListContent"); n != 2 {
			t.Errorf("ListContent calls = %d, want 2 (cache invalidated)", n)
		}
	})

	t.Run("failed delete leaves the cache intact", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleAdmin)
		f.gateway.DeleteErr = errors.New("boom")

		f.svc.Content(context.Background(), "CS", "A")
		f.svc.DeleteContent(context.Background(), "1", "CS", "A")
		f.svc.Content(context.Background(), "CS", "A")

		if n := f.gateway.Calls("ListContent"); n != 1 {
			t.Errorf("ListContent calls = %d, want 1 (failure must not invalidate)", n)
		}
	})

	t.Run("cache entry expires after TTL", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleMember)

		f.svc.Content(context.Background(), "CS", "A")
		f.clock.Advance(6 * time.Minute)
		f.svc.Content(context.Background(), "CS", "A")

		if n := f.gateway.Calls("ListContent"); n != 2 {
			t.Errorf("ListContent calls = %d, want 2 (TTL expiry)", n)
		}
	})
}

func TestService_Upload_Validation(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.RoleAdmin)

	cases := []struct {
		name                        string
		title, filePath, desc, want string
	}{
		{"missing title", "", "/tmp/f", "d", "title"},
		{"missing file", "t", "", "d", "file"},
		{"missing description", "t", "/tmp/f", "", "description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.Upload(context.Background(), tc.title, tc.filePath, tc.desc)
			if !academy.IsValidation(err) {
				t.Fatalf("Upload() error = %v, want validation error", err)
			}
		})
	}
	if n := f.gateway.Calls("UploadContent"); n != 0 {
		t.Errorf("UploadContent calls = %d, want 0", n)
	}
}

func TestService_Upload_UsesSessionIdentity(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.RoleAdmin)

	if err := f.svc.Upload(context.Background(), "Notes", "/tmp/notes.txt", "week 1"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if len(f.gateway.Uploaded) != 1 {
		t.Fatalf("uploaded requests = %d, want 1", len(f.gateway.Uploaded))
	}
	req := f.gateway.Uploaded[0]
	if req.UploadedBy != "T1" || req.Department != "CS" || req.Division != "A" {
		t.Errorf("upload identity = %s/%s/%s, want T1/CS/A", req.UploadedBy, req.Department, req.Division)
	}
}

func TestService_Messages(t *testing.T) {
	t.Run("send invalidates the scope and next fetch refetches once", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleMember) // CS/A scope
		f.gateway.MessageItems = []model.Message{{ID: "1", Content: "old"}}

		f.svc.Messages(context.Background(), "CS", "A")
		if err := f.svc.Send(context.Background(), "hello"); err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		if _, err := f.svc.Messages(context.Background(), "CS", "A"); err != nil {
			t.Fatalf("Messages() error = %v", err)
		}
		if n := f.gateway.Calls("ListMessages"); n != 2 {
			t.Errorf("ListMessages calls = %d, want 2 (exactly one refetch)", n)
		}
	})

	t.Run("sent message carries clock-derived id and timestamp", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleMember)

		if err := f.svc.Send(context.Background(), "hello"); err != nil {
			t.Fatalf("Send() error = %v", err)
		}

		if len(f.gateway.SentMessages) != 1 {
			t.Fatalf("sent messages = %d, want 1", len(f.gateway.SentMessages))
		}
		msg := f.gateway.SentMessages[0]
		// FixedClock is 2024-01-15 10:30:00 UTC.
		if msg.ID != "1705314600000" {
			t.Errorf("ID = %q, want 1705314600000", msg.ID)
		}
		if msg.Timestamp != "2024-01-15 10:30:00" {
			t.Errorf("Timestamp = %q, want 2024-01-15 10:30:00", msg.Timestamp)
		}
		if msg.SenderID != "T1" || msg.Department != "CS" || msg.Division != "A" {
			t.Errorf("message identity = %s/%s/%s", msg.SenderID, msg.Department, msg.Division)
		}
	})

	t.Run("empty message is rejected locally", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleMember)

		if err := f.svc.Send(context.Background(), ""); !academy.IsValidation(err) {
			t.Errorf("Send(empty) error = %v, want validation error", err)
		}
		if n := f.gateway.Calls("SendMessage"); n != 0 {
			t.Errorf("SendMessage calls = %d, want 0", n)
		}
	})

	t.Run("RefreshMessages bypasses and repopulates the cache", func(t *testing.T) {
		f := newFixture(t)
		f.loginAs(t, model.RoleMember)

		f.svc.Messages(context.Background(), "CS", "A")
		f.svc.RefreshMessages(context.Background(), "CS", "A")
		if n := f.gateway.Calls("ListMessages"); n != 2 {
			t.Fatalf("ListMessages calls = %d, want 2 (refresh bypasses cache)", n)
		}

		// The refresh result must be served from cache afterwards.
		f.svc.Messages(context.Background(), "CS", "A")
		if n := f.gateway.Calls("ListMessages"); n != 2 {
			t.Errorf("ListMessages calls = %d, want 2 (refresh repopulates cache)", n)
		}
	})
}

func TestService_Logout(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.RoleMember)
	f.svc.Content(context.Background(), "CS", "A")

	if err := f.svc.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if _, ok := f.svc.CurrentUser(); ok {
		t.Error("session still set after logout")
	}
	if _, ok, _ := f.sessions.LoadSession(); ok {
		t.Error("persisted session still set after logout")
	}

	// Caches are cleared: next read after re-login refetches.
	f.loginAs(t, model.RoleMember)
	f.svc.Content(context.Background(), "CS", "A")
	if n := f.gateway.Calls("ListContent"); n != 2 {
		t.Errorf("ListContent calls = %d, want 2 (cache cleared on logout)", n)
	}
}

func TestService_AddUser_Validation(t *testing.T) {
	f := newFixture(t)
	f.loginAs(t, model.RoleAdmin)

	cases := []model.NewUser{
		{Username: "x", Password: "p", Role: "member"},            // no code
		{Code: "U2", Password: "p", Role: "member"},               // no username
		{Code: "U2", Username: "x", Role: "member"},               // no password
		{Code: "U2", Username: "x", Password: "p", Role: "root"},  // bad role
		{Code: "U2", Username: "x", Password: "p"},                // no role
	}
	for _, u := range cases {
		if err := f.svc.AddUser(context.Background(), u); !academy.IsValidation(err) {
			t.Errorf("AddUser(%+v) error = %v, want validation error", u, err)
		}
	}
	if n := f.gateway.Calls("AddUser"); n != 0 {
		t.Errorf("AddUser calls = %d, want 0", n)
	}
}
