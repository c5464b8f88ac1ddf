package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"emotic-chat/internal/chat"
	"emotic-chat/internal/identity"
	"emotic-chat/internal/speech"
)

type screen int

const (
	screenLogin screen = iota
	screenChat
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
	focusChat
)

type storeUpdateMsg struct{ update chat.Update }

type spinMsg struct{}

type typeTickMsg struct{}

type transcriptMsg struct {
	t  speech.Transcript
	ok bool
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const sidebarWidth = 28

// MainModel drives the whole client: the login screen, the sidebar of chats,
// the transcript pane with its typing-animation reveal, and the composer.
type MainModel struct {
	store      *chat.Store
	ident      *identity.Provider
	recognizer speech.Recognizer
	speaker    speech.Speaker

	theme Theme

	width  int
	height int
	ready  bool

	screen screen
	focus  focusArea

	// Login screen.
	nameInput textarea.Model
	loginErr  string
	notice    string

	// Chat screen.
	input      textarea.Model
	chatVP     viewport.Model
	sidebarSel int
	msgSel     int

	emoji emojiPicker

	// Typing-animation state for the newest assistant reply.
	animMsgID string
	animShown int

	spinnerPos int

	listening    bool
	transcriptCh <-chan speech.Transcript
}

func New(store *chat.Store, ident *identity.Provider, rec speech.Recognizer, spk speech.Speaker, themeName ThemeName) *MainModel {
	name := textarea.New()
	name.Placeholder = "Your name"
	name.CharLimit = 40
	name.SetHeight(1)
	name.Prompt = " "
	name.ShowLineNumbers = false
	name.Focus()

	ta := textarea.New()
	ta.Placeholder = "Message EmoticAI..."
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.Prompt = " "
	ta.ShowLineNumbers = false

	// Keep textarea styling minimal; the input container is styled instead.
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()
	name.FocusedStyle.CursorLine = lipgloss.NewStyle()

	m := &MainModel{
		store:      store,
		ident:      ident,
		recognizer: rec,
		speaker:    spk,
		theme:      NewTheme(themeName),
		width:      100,
		height:     30,
		screen:     screenLogin,
		focus:      focusInput,
		nameInput:  name,
		input:      ta,
	}
	if u, ok := ident.Current(); ok {
		// A named user survives restarts; skip the login screen.
		store.Initialize(u)
		m.screen = screenChat
		m.input.Focus()
	}
	return m
}

func (m *MainModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitUpdate())
}

func (m *MainModel) waitUpdate() tea.Cmd {
	return func() tea.Msg {
		return storeUpdateMsg{update: <-m.store.Updates()}
	}
}

func (m *MainModel) spinTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg { return spinMsg{} })
}

func (m *MainModel) typeTick() tea.Cmd {
	return tea.Tick(30*time.Millisecond, func(time.Time) tea.Msg { return typeTickMsg{} })
}

func (m *MainModel) waitTranscript() tea.Cmd {
	ch := m.transcriptCh
	return func() tea.Msg {
		t, ok := <-ch
		return transcriptMsg{t: t, ok: ok}
	}
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		return m, nil

	case storeUpdateMsg:
		cmds := []tea.Cmd{m.waitUpdate()}
		if msg.update.Kind == chat.UpdateReply {
			if c, ok := m.store.ActiveChat(); ok && c.ID == msg.update.ChatID && len(c.Messages) > 0 {
				last := c.Messages[len(c.Messages)-1]
				if last.Author == chat.AuthorAssistant {
					m.animMsgID = last.ID
					m.animShown = 0
					m.speaker.Speak(last.Content)
					cmds = append(cmds, m.typeTick())
				}
			}
		}
		m.refreshChat()
		return m, tea.Batch(cmds...)

	case spinMsg:
		if m.store.Loading() {
			m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
			return m, m.spinTick()
		}
		return m, nil

	case typeTickMsg:
		if m.animMsgID == "" {
			return m, nil
		}
		m.animShown += 2
		m.refreshChat()
		if c, ok := m.store.ActiveChat(); ok {
			for _, msg := range c.Messages {
				if msg.ID == m.animMsgID && m.animShown < len([]rune(msg.Content)) {
					return m, m.typeTick()
				}
			}
		}
		m.animMsgID = ""
		return m, nil

	case transcriptMsg:
		if !msg.ok {
			m.listening = false
			m.transcriptCh = nil
			return m, nil
		}
		m.input.SetValue(msg.t.Text)
		if msg.t.Final {
			m.input.CursorEnd()
		}
		return m, m.waitTranscript()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m *MainModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if key == "ctrl+t" {
		m.theme = m.theme.Toggle()
		m.refreshChat()
		return m, nil
	}

	if m.screen == screenLogin {
		return m.handleLoginKey(msg)
	}
	return m.handleChatKey(msg)
}

func (m *MainModel) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		u, created, err := m.ident.Login(m.nameInput.Value())
		if err != nil {
			m.loginErr = "Please enter a name, or press ctrl+g for a guest session."
			return m, nil
		}
		m.loginErr = ""
		if created {
			m.notice = "New account created"
		}
		m.enterChat(u)
		return m, nil
	case "ctrl+g":
		u := m.ident.LoginAsGuest()
		m.loginErr = ""
		m.enterChat(u)
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *MainModel) enterChat(u identity.User) {
	m.store.Initialize(u)
	m.screen = screenChat
	m.focus = focusInput
	m.nameInput.Reset()
	m.input.Focus()
	m.layout()
	m.refreshChat()
}

func (m *MainModel) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.emoji.open {
		switch key {
		case "esc":
			m.emoji.open = false
		case "left", "up":
			m.emoji.move(-1)
		case "right", "down", "tab":
			m.emoji.move(1)
		case "enter":
			m.input.InsertString(m.emoji.pick())
			m.emoji.open = false
		}
		return m, nil
	}

	switch key {
	case "tab":
		m.cycleFocus()
		return m, nil
	case "ctrl+n":
		m.store.CreateChat()
		m.sidebarSel = len(m.store.Chats()) - 1
		m.refreshChat()
		return m, nil
	case "ctrl+x":
		m.store.DeleteAllChats()
		m.sidebarSel = 0
		m.refreshChat()
		return m, nil
	case "ctrl+e":
		m.emoji.open = true
		return m, nil
	case "ctrl+r":
		return m, m.toggleListening()
	case "ctrl+l":
		m.ident.Logout()
		m.screen = screenLogin
		m.nameInput.Focus()
		m.input.Blur()
		return m, nil
	}

	switch m.focus {
	case focusSidebar:
		return m.handleSidebarKey(key)
	case focusChat:
		return m.handleTranscriptKey(msg)
	default:
		return m.handleComposerKey(msg)
	}
}

func (m *MainModel) handleSidebarKey(key string) (tea.Model, tea.Cmd) {
	chats := m.store.Chats()
	switch key {
	case "up", "k":
		if m.sidebarSel > 0 {
			m.sidebarSel--
		}
	case "down", "j":
		if m.sidebarSel < len(chats)-1 {
			m.sidebarSel++
		}
	case "enter":
		if m.sidebarSel >= 0 && m.sidebarSel < len(chats) {
			m.store.SwitchChat(chats[m.sidebarSel].ID)
			m.msgSel = -1
			m.refreshChat()
		}
	case "ctrl+d", "d":
		if m.sidebarSel >= 0 && m.sidebarSel < len(chats) {
			m.store.ClearChat(chats[m.sidebarSel].ID)
			if m.sidebarSel > 0 {
				m.sidebarSel--
			}
			m.refreshChat()
		}
	}
	return m, nil
}

func (m *MainModel) handleTranscriptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c, ok := m.store.ActiveChat()
	switch msg.String() {
	case "up", "k":
		if ok && m.msgSel > 0 {
			m.msgSel--
			m.refreshChat()
			return m, nil
		}
	case "down", "j":
		if ok && m.msgSel < len(c.Messages)-1 {
			m.msgSel++
			m.refreshChat()
			return m, nil
		}
	case "d", "backspace":
		if ok && m.msgSel >= 0 && m.msgSel < len(c.Messages) {
			m.store.DeleteMessage(c.Messages[m.msgSel].ID)
			if m.msgSel > 0 {
				m.msgSel--
			}
			m.refreshChat()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.chatVP, cmd = m.chatVP.Update(msg)
	return m, cmd
}

func (m *MainModel) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		if m.store.Loading() {
			// The composer is gated while a reply is outstanding.
			return m, nil
		}
		content := m.input.Value()
		if strings.TrimSpace(content) == "" {
			return m, nil
		}
		m.input.Reset()
		m.store.SendMessage(context.Background(), content)
		m.refreshChat()
		return m, m.spinTick()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *MainModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.screen == screenLogin {
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}
	if m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	m.chatVP, cmd = m.chatVP.Update(msg)
	return m, cmd
}

func (m *MainModel) toggleListening() tea.Cmd {
	if m.listening {
		m.recognizer.Stop()
		m.listening = false
		m.transcriptCh = nil
		return nil
	}
	ch, err := m.recognizer.Start(context.Background())
	if err != nil {
		// Capability absent; the binding simply does nothing visible.
		return nil
	}
	m.listening = true
	m.transcriptCh = ch
	return m.waitTranscript()
}

func (m *MainModel) cycleFocus() {
	switch m.focus {
	case focusInput:
		m.focus = focusSidebar
		m.input.Blur()
	case focusSidebar:
		m.focus = focusChat
		m.msgSel = -1
	default:
		m.focus = focusInput
		m.input.Focus()
	}
}

func (m *MainModel) layout() {
	chatWidth := m.width - sidebarWidth - 6
	if chatWidth < 20 {
		chatWidth = 20
	}
	chatHeight := m.height - 8
	if chatHeight < 3 {
		chatHeight = 3
	}
	if m.chatVP.Width == 0 {
		m.chatVP = viewport.New(chatWidth, chatHeight)
	} else {
		m.chatVP.Width = chatWidth
		m.chatVP.Height = chatHeight
	}
	m.input.SetWidth(m.width - 6)
	m.nameInput.SetWidth(40)
}

func (m *MainModel) refreshChat() {
	c, ok := m.store.ActiveChat()
	if !ok {
		m.chatVP.SetContent("")
		return
	}
	var b strings.Builder
	for i, msg := range c.Messages {
		b.WriteString(m.renderMessage(msg, i == m.msgSel && m.focus == focusChat))
		b.WriteString("\n")
	}
	m.chatVP.SetContent(b.String())
	m.chatVP.GotoBottom()
}

func (m *MainModel) renderMessage(msg chat.Message, selected bool) string {
	role := m.theme.RoleAI.Render("EmoticAI")
	if msg.Author == chat.AuthorUser {
		role = m.theme.RoleYou.Render("You")
	} else if msg.Content == chat.ErrorReplyText {
		role = m.theme.RoleErr.Render("EmoticAI")
	}

	content := msg.Content
	if msg.ID == m.animMsgID {
		runes := []rune(content)
		if m.animShown < len(runes) {
			content = string(runes[:m.animShown]) + "▌"
		}
	}

	ts := time.UnixMilli(msg.Timestamp).Format("15:04")
	marker := "  "
	if selected {
		marker = m.theme.SidebarActive.Render("▸ ")
	}
	body := lipgloss.NewStyle().Width(m.chatVP.Width - 4).Render(content)
	return fmt.Sprintf("%s%s %s\n%s", marker, role, m.theme.TopBarMeta.Render(ts), body)
}

func (m *MainModel) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.screen == screenLogin {
		return m.viewLogin()
	}
	return m.viewChat()
}

func (m *MainModel) viewLogin() string {
	var b strings.Builder
	b.WriteString(m.theme.TopBarTitle.Render("EmoticAI") + "\n\n")
	b.WriteString(m.theme.PaneTitleF.Render("Sign in to start chatting") + "\n\n")
	b.WriteString(m.theme.InputBoxF.Width(44).Render(m.nameInput.View()) + "\n\n")
	if m.loginErr != "" {
		b.WriteString(m.theme.Warn.Render(m.loginErr) + "\n\n")
	}
	b.WriteString(m.theme.Footer.Render("enter sign in · ctrl+g guest · ctrl+t theme · ctrl+c quit"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}

func (m *MainModel) viewChat() string {
	top := m.renderTopBar()
	main := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderTranscript())
	input := m.renderInput()
	footer := m.renderFooter()

	parts := []string{top, main, input, footer}
	if m.emoji.open {
		parts = []string{top, main, m.emoji.view(m.theme), input, footer}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *MainModel) renderTopBar() string {
	name := "?"
	if u, ok := m.ident.Current(); ok {
		name = u.Name
		if u.IsGuest {
			name += " (guest)"
		}
	}
	left := m.theme.TopBarTitle.Render(" EmoticAI ")
	meta := m.theme.TopBarMeta.Render(fmt.Sprintf("%s · %s theme", name, m.theme.Name))
	if m.store.StorageFull() {
		meta += "  " + m.theme.Warn.Render("storage full, delete some chats")
	}
	if m.listening {
		meta += "  " + m.theme.Spinner.Render("● listening")
	}
	if m.notice != "" {
		meta += "  " + m.theme.TopBarMeta.Render(m.notice)
	}
	return m.theme.TopBar.Render(left + meta)
}

func (m *MainModel) renderSidebar() string {
	chats := m.store.Chats()
	activeID := m.store.ActiveChatID()
	if m.sidebarSel >= len(chats) {
		m.sidebarSel = len(chats) - 1
	}

	var b strings.Builder
	for i, c := range chats {
		line := c.Title
		if len([]rune(line)) > sidebarWidth-4 {
			line = string([]rune(line)[:sidebarWidth-4])
		}
		prefix := "  "
		style := m.theme.SidebarItem
		if c.ID == activeID {
			prefix = "▸ "
			style = m.theme.SidebarActive
		}
		if m.focus == focusSidebar && i == m.sidebarSel {
			line = style.Underline(true).Render(prefix + line)
		} else {
			line = style.Render(prefix + line)
		}
		b.WriteString(line + "\n")
	}

	pane := m.theme.Pane
	title := m.theme.PaneTitle
	if m.focus == focusSidebar {
		pane = m.theme.PaneFocused
		title = m.theme.PaneTitleF
	}
	content := title.Render("Chats") + "\n" + b.String()
	return pane.Width(sidebarWidth).Height(m.chatVP.Height).Render(content)
}

func (m *MainModel) renderTranscript() string {
	pane := m.theme.Pane
	if m.focus == focusChat {
		pane = m.theme.PaneFocused
	}
	body := m.chatVP.View()
	if m.store.Loading() {
		body += "\n" + m.theme.Spinner.Render(spinnerFrames[m.spinnerPos]+" thinking...")
	}
	return pane.Width(m.chatVP.Width + 2).Height(m.chatVP.Height).Render(body)
}

func (m *MainModel) renderInput() string {
	box := m.theme.InputBox
	if m.focus == focusInput {
		box = m.theme.InputBoxF
	}
	return box.Width(m.width - 2).Render(m.input.View())
}

func (m *MainModel) renderFooter() string {
	return m.theme.Footer.Render(
		" enter send · tab focus · ctrl+n new · ctrl+x delete all · ctrl+e emoji · ctrl+r voice · ctrl+t theme · ctrl+l logout · ctrl+c quit",
	)
}
