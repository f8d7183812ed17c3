package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"alsun-go/internal/academy"
	"alsun-go/internal/api"
	"alsun-go/internal/model"
)

// Commands run service calls off the update loop. Request deadlines live
// in the HTTP client, so context.Background() is fine here.

func (m *Model) loginCmd(code, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := m.svc.Login(context.Background(), code, password)
		return loginDoneMsg{user: user, err: err}
	}
}

func (m *Model) loadContentCmd() tea.Cmd {
	return func() tea.Msg {
		items, err := m.svc.Content(context.Background(), m.user.Department, m.user.Division)
		return contentMsg{items: items, err: err}
	}
}

func (m *Model) uploadCmd(title, filePath, description string) tea.Cmd {
	return func() tea.Msg {
		return uploadDoneMsg{err: m.svc.Upload(context.Background(), title, filePath, description)}
	}
}

func (m *Model) deleteContentCmd(c model.Content) tea.Cmd {
	return func() tea.Msg {
		return contentDeletedMsg{err: m.svc.DeleteContent(context.Background(), c.ID, c.Department, c.Division)}
	}
}

func (m *Model) loadMessagesCmd(gen int) tea.Cmd {
	return func() tea.Msg {
		msgs, err := m.svc.Messages(context.Background(), m.user.Department, m.user.Division)
		return messagesMsg{msgs: msgs, gen: gen, err: err}
	}
}

func (m *Model) refreshMessagesCmd(gen int) tea.Cmd {
	return func() tea.Msg {
		msgs, err := m.svc.RefreshMessages(context.Background(), m.user.Department, m.user.Division)
		return messagesMsg{msgs: msgs, gen: gen, err: err}
	}
}

func (m *Model) sendCmd(content string) tea.Cmd {
	return func() tea.Msg {
		return sentMsg{err: m.svc.Send(context.Background(), content)}
	}
}

// pollTickCmd schedules the next chat refresh. The generation is baked
// into the message so ticks scheduled before a screen change are
// ignored when they land.
func (m *Model) pollTickCmd(gen int) tea.Cmd {
	return tea.Tick(m.cfg.PollInterval(), func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}

func (m *Model) loadUsersCmd() tea.Cmd {
	return func() tea.Msg {
		users, err := m.svc.Users(context.Background())
		return usersMsg{users: users, err: err}
	}
}

func (m *Model) addUserCmd(u model.NewUser) tea.Cmd {
	return func() tea.Msg {
		return userAddedMsg{err: m.svc.AddUser(context.Background(), u)}
	}
}

func (m *Model) removeUserCmd(code string) tea.Cmd {
	return func() tea.Msg {
		return userRemovedMsg{err: m.svc.RemoveUser(context.Background(), code)}
	}
}

func (m *Model) fetchTextCmd(c model.Content) tea.Cmd {
	return func() tea.Msg {
		text, err := m.svc.FetchText(context.Background(), c.FilePath)
		return textFileMsg{title: c.Title, text: text, err: err}
	}
}

func (m *Model) openExternalCmd(url string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: openExternal(url)}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		return loggedOutMsg{err: m.svc.Logout()}
	}
}

// errText maps service and gateway errors to the short messages the
// status line shows.
func errText(err error) string {
	var vErr *academy.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	if errors.Is(err, academy.ErrNoSession) {
		return "not logged in"
	}
	if errors.Is(err, academy.ErrForbidden) {
		return "admin only"
	}
	if sErr, ok := api.AsServerError(err); ok {
		if sErr.Message != "" {
			return sErr.Message
		}
		return sErr.Error()
	}
	if api.IsUnreachable(err) {
		return "server unreachable"
	}
	return err.Error()
}
