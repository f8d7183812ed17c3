// Package ui is the terminal front end: a bubbletea program with one
// screen per client view. All backend access goes through the service
// core; the UI never talks to the gateway directly.
package ui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"alsun-go/internal/academy"
	"alsun-go/internal/config"
	"alsun-go/internal/model"
)

// Screen types
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenHome
	ScreenContentList
	ScreenContentUpload
	ScreenChat
	ScreenUsers
	ScreenImageViewer
	ScreenTextViewer
)

// Messages
type loginDoneMsg struct {
	user model.User
	err  error
}

type contentMsg struct {
	items []model.Content
	err   error
}

type uploadDoneMsg struct {
	err error
}

type contentDeletedMsg struct {
	err error
}

type messagesMsg struct {
	msgs []model.Message
	gen  int
	err  error
}

type sentMsg struct {
	err error
}

type pollTickMsg struct {
	gen int
}

type usersMsg struct {
	users []model.User
	err   error
}

type userAddedMsg struct {
	err error
}

type userRemovedMsg struct {
	err error
}

type textFileMsg struct {
	title string
	text  string
	err   error
}

type openedMsg struct {
	err error
}

type loggedOutMsg struct {
	err error
}

// railItem is one entry in the home screen's navigation rail.
type railItem struct {
	label  string
	screen Screen
	logout bool
}

// railItems returns the navigation entries for the given user. Upload
// and user management only appear for admins; the guards in the service
// enforce the same rule regardless.
func railItems(user model.User) []railItem {
	items := []railItem{
		{label: "Content", screen: ScreenContentList},
		{label: "Chat", screen: ScreenChat},
	}
	if user.IsAdmin() {
		items = append(items,
			railItem{label: "Upload", screen: ScreenContentUpload},
			railItem{label: "Users", screen: ScreenUsers},
		)
	}
	return append(items, railItem{label: "Log out", logout: true})
}

// Model is the bubbletea model for the whole client UI.
type Model struct {
	svc    *academy.Service
	cfg    *config.Config
	logger *slog.Logger

	screen Screen
	width  int
	height int

	user     model.User
	loggedIn bool

	// Transient status line, cleared on the next action.
	notice    string
	noticeErr bool

	// Login form
	codeInput  textinput.Model
	passInput  textinput.Model
	loginFocus int
	loggingIn  bool

	// Home rail
	railIndex int

	// Content list
	contents       []model.Content
	contentIndex   int
	loadingContent bool

	// Upload form
	titleInput  textinput.Model
	fileInput   textinput.Model
	descInput   textinput.Model
	uploadFocus int
	uploading   bool

	// Chat. pollGen invalidates in-flight ticks when the screen is left:
	// a tick carrying a stale generation is dropped on arrival.
	chatViewport viewport.Model
	chatInput    textinput.Model
	chatMessages []model.Message
	pollGen      int
	sending      bool

	// User management
	users      []model.User
	userIndex  int
	addingUser bool
	userInputs []textinput.Model
	userFocus  int

	// Viewers
	viewerTitle  string
	textViewport viewport.Model
	imageURL     string
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	railStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	faintStyle = lipgloss.NewStyle().Faint(true)

	senderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81"))
)

// userFieldCount matches the add-user form inputs: code, username,
// department, division, role, password.
const userFieldCount = 6

// NewModel creates the UI model. The session, if one was persisted, is
// restored before the first frame so launch lands on Home, not Login.
func NewModel(svc *academy.Service, cfg *config.Config, logger *slog.Logger) *Model {
	codeInput := textinput.New()
	codeInput.Placeholder = "code"
	codeInput.Focus()

	passInput := textinput.New()
	passInput.Placeholder = "password"
	passInput.EchoMode = textinput.EchoPassword

	titleInput := textinput.New()
	titleInput.Placeholder = "title"

	fileInput := textinput.New()
	fileInput.Placeholder = "/path/to/file"

	descInput := textinput.New()
	descInput.Placeholder = "description"

	chatInput := textinput.New()
	chatInput.Placeholder = "Type a message..."
	chatInput.Width = 60

	userInputs := make([]textinput.Model, userFieldCount)
	for i, ph := range []string{"code", "username", "department", "division", "role (admin|member)", "password"} {
		ti := textinput.New()
		ti.Placeholder = ph
		if ph == "password" {
			ti.EchoMode = textinput.EchoPassword
		}
		userInputs[i] = ti
	}

	m := &Model{
		svc:          svc,
		cfg:          cfg,
		logger:       logger,
		screen:       ScreenLogin,
		codeInput:    codeInput,
		passInput:    passInput,
		titleInput:   titleInput,
		fileInput:    fileInput,
		descInput:    descInput,
		chatInput:    chatInput,
		chatViewport: viewport.New(80, 20),
		textViewport: viewport.New(80, 20),
		userInputs:   userInputs,
	}

	if user, ok := svc.RestoreSession(); ok {
		m.user = user
		m.loggedIn = true
		m.screen = ScreenHome
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Run starts the bubbletea program on the alternate screen.
func Run(svc *academy.Service, cfg *config.Config, logger *slog.Logger) error {
	p := tea.NewProgram(NewModel(svc, cfg, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
