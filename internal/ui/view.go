package ui

import (
	"fmt"
	"strings"
)

func (m *Model) View() string {
	var body string
	switch m.screen {
	case ScreenLogin:
		body = m.viewLogin()
	case ScreenHome:
		body = m.viewHome()
	case ScreenContentList:
		body = m.viewContentList()
	case ScreenContentUpload:
		body = m.viewUpload()
	case ScreenChat:
		body = m.viewChat()
	case ScreenUsers:
		body = m.viewUsers()
	case ScreenImageViewer:
		body = m.viewImage()
	case ScreenTextViewer:
		body = m.viewText()
	}
	return body + "\n" + m.statusLine()
}

// statusLine renders the transient notice bar at the bottom.
func (m *Model) statusLine() string {
	if m.notice == "" {
		return ""
	}
	if m.noticeErr {
		return errorStyle.Render(m.notice)
	}
	return noticeStyle.Render(m.notice)
}

func (m *Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Alsun Academy"))
	b.WriteString("\n\n")
	b.WriteString("  " + m.codeInput.View() + "\n")
	b.WriteString("  " + m.passInput.View() + "\n\n")
	if m.loggingIn {
		b.WriteString(faintStyle.Render("  signing in..."))
	} else {
		b.WriteString(faintStyle.Render("  enter: sign in • tab: next field • ctrl+c: quit"))
	}
	return b.String()
}

func (m *Model) viewHome() string {
	items := railItems(m.user)

	var rail strings.Builder
	for i, item := range items {
		cursor := "  "
		label := item.label
		if i == m.railIndex {
			cursor = "> "
			label = selectedStyle.Render(label)
		}
		rail.WriteString(cursor + label + "\n")
	}

	scope := m.user.Department + " / " + m.user.Division
	header := titleStyle.Render("Alsun Academy") + "  " +
		faintStyle.Render(fmt.Sprintf("%s (%s) — %s", m.user.Username, m.user.Role, scope))

	return header + "\n\n" +
		railStyle.Render(strings.TrimRight(rail.String(), "\n")) + "\n\n" +
		faintStyle.Render("enter: open • L: log out • q: quit")
}

func (m *Model) viewContentList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Content — " + m.user.Department + " / " + m.user.Division))
	b.WriteString("\n\n")

	switch {
	case m.loadingContent:
		b.WriteString(faintStyle.Render("  loading..."))
	case len(m.contents) == 0:
		b.WriteString(faintStyle.Render("  no content in this scope"))
	default:
		for i, c := range m.contents {
			line := fmt.Sprintf("%s (.%s) — %s", c.Title, c.FileType, c.UploadedBy)
			if i == m.contentIndex {
				b.WriteString("> " + selectedStyle.Render(line) + "\n")
				if c.Description != "" {
					b.WriteString("    " + faintStyle.Render(c.Description) + "\n")
				}
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
	}

	help := "enter: open • r: refresh • esc: back"
	if m.user.IsAdmin() {
		help = "enter: open • d: delete • r: refresh • esc: back"
	}
	b.WriteString("\n" + faintStyle.Render(help))
	return b.String()
}

func (m *Model) viewUpload() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Upload content"))
	b.WriteString("\n\n")
	b.WriteString("  " + m.titleInput.View() + "\n")
	b.WriteString("  " + m.fileInput.View() + "\n")
	b.WriteString("  " + m.descInput.View() + "\n\n")
	if m.uploading {
		b.WriteString(faintStyle.Render("  uploading..."))
	} else {
		b.WriteString(faintStyle.Render("  enter: upload • tab: next field • esc: back"))
	}
	return b.String()
}

func (m *Model) viewChat() string {
	header := titleStyle.Render("Chat — " + m.user.Department + " / " + m.user.Division)
	return header + "\n" +
		railStyle.Render(m.chatViewport.View()) + "\n" +
		m.chatInput.View() + "\n" +
		faintStyle.Render("enter: send • pgup/pgdn: scroll • esc: back")
}

// renderMessages formats the chat transcript for the viewport.
func (m *Model) renderMessages() string {
	if len(m.chatMessages) == 0 {
		return faintStyle.Render("no messages yet")
	}

	var b strings.Builder
	for _, msg := range m.chatMessages {
		sender := msg.Username
		if sender == "" {
			sender = msg.SenderID
		}
		if msg.SenderID == m.user.Code {
			sender = "you"
		}
		b.WriteString(senderStyle.Render(sender) + " " + faintStyle.Render(msg.Timestamp) + "\n")
		b.WriteString(msg.Content + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) viewUsers() string {
	if m.addingUser {
		return m.viewAddUser()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Users"))
	b.WriteString("\n\n")

	if len(m.users) == 0 {
		b.WriteString(faintStyle.Render("  no users loaded"))
	}
	for i, u := range m.users {
		line := fmt.Sprintf("%s — %s (%s, %s/%s)", u.Code, u.Username, u.Role, u.Department, u.Division)
		if i == m.userIndex {
			b.WriteString("> " + selectedStyle.Render(line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n" + faintStyle.Render("a: add • d: delete • r: refresh • esc: back"))
	return b.String()
}

func (m *Model) viewAddUser() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add user"))
	b.WriteString("\n\n")
	for i := range m.userInputs {
		b.WriteString("  " + m.userInputs[i].View() + "\n")
	}
	b.WriteString("\n" + faintStyle.Render("  enter: create • tab: next field • esc: cancel"))
	return b.String()
}

// viewImage shows the image URL; terminals do not render the bytes, so
// the viewer offers the external handler instead.
func (m *Model) viewImage() string {
	return titleStyle.Render(m.viewerTitle) + "\n\n" +
		"  " + m.imageURL + "\n\n" +
		faintStyle.Render("o: open externally • esc: back")
}

func (m *Model) viewText() string {
	return titleStyle.Render(m.viewerTitle) + "\n" +
		railStyle.Render(m.textViewport.View()) + "\n" +
		faintStyle.Render("up/down: scroll • esc: back")
}
