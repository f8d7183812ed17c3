package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"alsun-go/internal/academy"
	"alsun-go/internal/model"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chatViewport.Width = msg.Width - 4
		m.chatViewport.Height = msg.Height - 8
		m.textViewport.Width = msg.Width - 4
		m.textViewport.Height = msg.Height - 6
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case loginDoneMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.user = msg.user
		m.loggedIn = true
		m.railIndex = 0
		m.passInput.SetValue("")
		m.notice = "welcome, " + msg.user.Username
		m.noticeErr = false
		return m.enterScreen(ScreenHome)

	case contentMsg:
		m.loadingContent = false
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.contents = msg.items
		if m.contentIndex >= len(m.contents) {
			m.contentIndex = 0
		}
		return m, nil

	case uploadDoneMsg:
		m.uploading = false
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.titleInput.SetValue("")
		m.fileInput.SetValue("")
		m.descInput.SetValue("")
		m.notice = "content uploaded"
		m.noticeErr = false
		return m.enterScreen(ScreenContentList)

	case contentDeletedMsg:
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.notice = "content deleted"
		m.noticeErr = false
		m.loadingContent = true
		return m, m.loadContentCmd()

	case messagesMsg:
		if msg.gen != m.pollGen {
			// Stale result from a previous chat visit.
			return m, nil
		}
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.chatMessages = msg.msgs
		m.chatViewport.SetContent(m.renderMessages())
		m.chatViewport.GotoBottom()
		return m, nil

	case sentMsg:
		m.sending = false
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.chatInput.SetValue("")
		return m, m.loadMessagesCmd(m.pollGen)

	case pollTickMsg:
		if msg.gen != m.pollGen {
			return m, nil
		}
		return m, tea.Batch(m.refreshMessagesCmd(msg.gen), m.pollTickCmd(msg.gen))

	case usersMsg:
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.users = msg.users
		if m.userIndex >= len(m.users) {
			m.userIndex = 0
		}
		return m, nil

	case userAddedMsg:
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.addingUser = false
		for i := range m.userInputs {
			m.userInputs[i].SetValue("")
		}
		m.notice = "user added"
		m.noticeErr = false
		return m, m.loadUsersCmd()

	case userRemovedMsg:
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.notice = "user removed"
		m.noticeErr = false
		return m, m.loadUsersCmd()

	case textFileMsg:
		if msg.err != nil {
			return m, m.fail(msg.err)
		}
		m.viewerTitle = msg.title
		m.textViewport.SetContent(msg.text)
		m.textViewport.GotoTop()
		m.screen = ScreenTextViewer
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.notice = "opened in external viewer"
			m.noticeErr = false
		}
		return m, nil

	case loggedOutMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		m.loggedIn = false
		m.user = model.User{}
		m.contents = nil
		m.chatMessages = nil
		m.users = nil
		m.pollGen++
		m.railIndex = 0
		m.screen = ScreenLogin
		m.loginFocus = 0
		m.codeInput.Focus()
		m.passInput.Blur()
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	m.notice = ""

	switch m.screen {
	case ScreenLogin:
		return m.updateLogin(msg)
	case ScreenHome:
		return m.updateHome(msg)
	case ScreenContentList:
		return m.updateContentList(msg)
	case ScreenContentUpload:
		return m.updateUpload(msg)
	case ScreenChat:
		return m.updateChat(msg)
	case ScreenUsers:
		return m.updateUsers(msg)
	case ScreenImageViewer, ScreenTextViewer:
		return m.updateViewer(msg)
	}
	return m, nil
}

// enterScreen switches screens and kicks off whatever the target needs.
// Leaving the chat bumps the poll generation so pending ticks die.
func (m *Model) enterScreen(s Screen) (tea.Model, tea.Cmd) {
	if m.screen == ScreenChat && s != ScreenChat {
		m.pollGen++
	}
	m.screen = s

	switch s {
	case ScreenContentList:
		m.loadingContent = true
		return m, m.loadContentCmd()
	case ScreenContentUpload:
		m.uploadFocus = 0
		m.titleInput.Focus()
		m.fileInput.Blur()
		m.descInput.Blur()
		return m, nil
	case ScreenChat:
		m.pollGen++
		m.chatInput.Focus()
		return m, tea.Batch(m.loadMessagesCmd(m.pollGen), m.pollTickCmd(m.pollGen))
	case ScreenUsers:
		m.addingUser = false
		return m, m.loadUsersCmd()
	}
	return m, nil
}

func (m *Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.loginFocus = (m.loginFocus + 1) % 2
		if m.loginFocus == 0 {
			m.codeInput.Focus()
			m.passInput.Blur()
		} else {
			m.codeInput.Blur()
			m.passInput.Focus()
		}
		return m, nil
	case tea.KeyEnter:
		if m.loggingIn {
			return m, nil
		}
		m.loggingIn = true
		return m, m.loginCmd(m.codeInput.Value(), m.passInput.Value())
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.codeInput, cmd = m.codeInput.Update(msg)
	} else {
		m.passInput, cmd = m.passInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := railItems(m.user)
	switch msg.String() {
	case "up", "k":
		if m.railIndex > 0 {
			m.railIndex--
		}
	case "down", "j":
		if m.railIndex < len(items)-1 {
			m.railIndex++
		}
	case "enter":
		item := items[m.railIndex]
		if item.logout {
			return m, m.logoutCmd()
		}
		return m.enterScreen(item.screen)
	case "L":
		return m, m.logoutCmd()
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateContentList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.enterScreen(ScreenHome)
	case "up", "k":
		if m.contentIndex > 0 {
			m.contentIndex--
		}
	case "down", "j":
		if m.contentIndex < len(m.contents)-1 {
			m.contentIndex++
		}
	case "r":
		m.loadingContent = true
		return m, m.loadContentCmd()
	case "d":
		if m.user.IsAdmin() && len(m.contents) > 0 {
			return m, m.deleteContentCmd(m.contents[m.contentIndex])
		}
	case "enter":
		if len(m.contents) > 0 {
			return m.openContent(m.contents[m.contentIndex])
		}
	}
	return m, nil
}

// openContent routes a content item to its viewer by file type.
func (m *Model) openContent(c model.Content) (tea.Model, tea.Cmd) {
	switch model.ViewerFor(c.FileType) {
	case model.ViewerExternal:
		return m, m.openExternalCmd(m.svc.FileURL(c.FilePath))
	case model.ViewerImage:
		m.viewerTitle = c.Title
		m.imageURL = m.svc.FileURL(c.FilePath)
		m.screen = ScreenImageViewer
		return m, nil
	case model.ViewerText:
		return m, m.fetchTextCmd(c)
	default:
		m.notice = "no viewer for ." + c.FileType + " files"
		m.noticeErr = true
		return m, nil
	}
}

func (m *Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inputs := []*textinput.Model{&m.titleInput, &m.fileInput, &m.descInput}

	switch msg.Type {
	case tea.KeyEsc:
		return m.enterScreen(ScreenHome)
	case tea.KeyTab, tea.KeyDown:
		m.uploadFocus = (m.uploadFocus + 1) % len(inputs)
	case tea.KeyShiftTab, tea.KeyUp:
		m.uploadFocus = (m.uploadFocus + len(inputs) - 1) % len(inputs)
	case tea.KeyEnter:
		if m.uploading {
			return m, nil
		}
		m.uploading = true
		return m, m.uploadCmd(m.titleInput.Value(), m.fileInput.Value(), m.descInput.Value())
	default:
		var cmd tea.Cmd
		*inputs[m.uploadFocus], cmd = inputs[m.uploadFocus].Update(msg)
		return m, cmd
	}

	for i, in := range inputs {
		if i == m.uploadFocus {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	return m, nil
}

func (m *Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m.enterScreen(ScreenHome)
	case tea.KeyEnter:
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" || m.sending {
			return m, nil
		}
		m.sending = true
		return m, m.sendCmd(text)
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m *Model) updateUsers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.addingUser {
		return m.updateAddUser(msg)
	}

	switch msg.String() {
	case "esc":
		return m.enterScreen(ScreenHome)
	case "up", "k":
		if m.userIndex > 0 {
			m.userIndex--
		}
	case "down", "j":
		if m.userIndex < len(m.users)-1 {
			m.userIndex++
		}
	case "a":
		m.addingUser = true
		m.userFocus = 0
		for i := range m.userInputs {
			if i == 0 {
				m.userInputs[i].Focus()
			} else {
				m.userInputs[i].Blur()
			}
		}
	case "d":
		if len(m.users) > 0 {
			return m, m.removeUserCmd(m.users[m.userIndex].Code)
		}
	case "r":
		return m, m.loadUsersCmd()
	}
	return m, nil
}

func (m *Model) updateAddUser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.addingUser = false
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.userFocus = (m.userFocus + 1) % userFieldCount
	case tea.KeyShiftTab, tea.KeyUp:
		m.userFocus = (m.userFocus + userFieldCount - 1) % userFieldCount
	case tea.KeyEnter:
		return m, m.addUserCmd(model.NewUser{
			Code:       m.userInputs[0].Value(),
			Username:   m.userInputs[1].Value(),
			Department: m.userInputs[2].Value(),
			Division:   m.userInputs[3].Value(),
			Role:       m.userInputs[4].Value(),
			Password:   m.userInputs[5].Value(),
		})
	default:
		var cmd tea.Cmd
		m.userInputs[m.userFocus], cmd = m.userInputs[m.userFocus].Update(msg)
		return m, cmd
	}

	for i := range m.userInputs {
		if i == m.userFocus {
			m.userInputs[i].Focus()
		} else {
			m.userInputs[i].Blur()
		}
	}
	return m, nil
}

func (m *Model) updateViewer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.screen = ScreenContentList
		return m, nil
	case "o":
		if m.screen == ScreenImageViewer {
			return m, m.openExternalCmd(m.imageURL)
		}
	}

	if m.screen == ScreenTextViewer {
		var cmd tea.Cmd
		m.textViewport, cmd = m.textViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// fail records an error on the status line. A lost session additionally
// drops back to the login screen.
func (m *Model) fail(err error) tea.Cmd {
	m.setError(err)
	if errors.Is(err, academy.ErrNoSession) {
		return m.logoutCmd()
	}
	return nil
}

func (m *Model) setError(err error) {
	m.notice = errText(err)
	m.noticeErr = true
}
