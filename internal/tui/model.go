// Package tui renders a Dou Dizhu room as a terminal UI: the viewer's hand,
// the other seats' public state, and the currently standing play, driven by
// RoomState snapshots streamed from the server.
package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/doudizhu/internal/client"
	"github.com/lox/doudizhu/protocol"
)

// Styles groups the lipgloss styles the model paints with.
type Styles struct {
	Header   lipgloss.Style
	Log      lipgloss.Style
	HandInfo lipgloss.Style
	Turn     lipgloss.Style
	Error    lipgloss.Style
}

// defaultStyles builds the style set, dropping color entirely when the
// output terminal can't render it (piped output, dumb terminals, NO_COLOR).
func defaultStyles() Styles {
	if termenv.NewOutput(os.Stdout).ColorProfile() == termenv.Ascii {
		return Styles{
			Header:   lipgloss.NewStyle().Bold(true),
			Log:      lipgloss.NewStyle(),
			HandInfo: lipgloss.NewStyle().Bold(true),
			Turn:     lipgloss.NewStyle().Bold(true),
			Error:    lipgloss.NewStyle().Bold(true),
		}
	}

	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		Log: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		HandInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Turn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
	}
}

// serverMsg wraps one message arriving from the client's Receive channel so
// Bubble Tea can treat it as a tea.Msg.
type serverMsg *protocol.Message

// Model is the Bubble Tea model for one connected session.
type Model struct {
	c *client.Client

	userID   uint64
	userName string
	roomID   string

	state *protocol.RoomStateData

	logLines []string
	logView  viewport.Model
	input    textinput.Model
	styles   Styles

	width, height int
	quitting      bool
}

// New constructs a Model bound to an already-created client c.
func New(c *client.Client) *Model {
	vp := viewport.New(100, 16)
	ti := textinput.New()
	ti.Placeholder = "create | join CODE | play C3 C4 C5 | pass | restart | list"
	ti.Focus()
	ti.CharLimit = 200
	ti.Prompt = "> "

	return &Model{
		c:       c,
		logView: vp,
		input:   ti,
		styles:  defaultStyles(),
	}
}

// Init starts listening for inbound server messages.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForServerMsg(m.c))
}

func waitForServerMsg(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-c.Receive
		if !ok {
			return nil
		}
		return serverMsg(msg)
	}
}

// Update handles key presses and inbound server events.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.logView.Width = msg.Width - 2
		m.logView.Height = msg.Height - 8
		m.input.Width = msg.Width - 4

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.c.Close()
			return m, tea.Quit
		case "enter":
			cmd := m.submit()
			return m, cmd
		}

	case serverMsg:
		if msg == nil {
			return m, nil
		}
		m.handleServerMessage((*protocol.Message)(msg))
		return m, waitForServerMsg(m.c)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if line == "" {
		return nil
	}

	fields := strings.Fields(line)
	verb := strings.ToLower(fields[0])

	var err error
	switch verb {
	case "create":
		err = m.c.Send(protocol.MessageTypeCreateRoom, nil)
	case "join":
		if len(fields) < 2 {
			m.logf("usage: join CODE")
			return nil
		}
		err = m.c.Send(protocol.MessageTypeJoinRoom, protocol.JoinRoomData{RoomID: fields[1]})
	case "play":
		err = m.c.Send(protocol.MessageTypePlay, protocol.PlayData{Cards: fields[1:]})
	case "pass":
		err = m.c.Send(protocol.MessageTypePass, nil)
	case "restart":
		err = m.c.Send(protocol.MessageTypeRestartGame, nil)
	case "list":
		err = m.c.Send(protocol.MessageTypeListRooms, nil)
	default:
		m.logf("unknown command: %s", verb)
		return nil
	}
	if err != nil {
		m.logf("send failed: %v", err)
	}
	return nil
}

func (m *Model) handleServerMessage(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MessageTypeWelcome:
		var data protocol.WelcomeData
		if json.Unmarshal(msg.Data, &data) == nil {
			m.userID, m.userName = data.UserID, data.UserName
			m.logf("welcome, %s (id %d)", data.UserName, data.UserID)
		}
	case protocol.MessageTypeRoomCreated:
		var data protocol.RoomCreatedData
		if json.Unmarshal(msg.Data, &data) == nil {
			m.roomID = data.RoomID
			m.logf("room created: %s", data.RoomID)
		}
	case protocol.MessageTypeJoined:
		var data protocol.JoinedData
		if json.Unmarshal(msg.Data, &data) == nil {
			m.roomID = data.RoomID
			m.logf("joined %s as %s (%d/3 seated)", data.RoomID, data.YouName, data.PlayerCount)
		}
	case protocol.MessageTypeRoomsList:
		var data protocol.RoomsListData
		if json.Unmarshal(msg.Data, &data) == nil {
			m.logf("%d room(s) available", len(data.Rooms))
			for _, r := range data.Rooms {
				m.logf("  %s: %d/3 players, started=%v", r.RoomID, r.PlayerCount, r.Started)
			}
		}
	case protocol.MessageTypeRoomState:
		var data protocol.RoomStateData
		if json.Unmarshal(msg.Data, &data) == nil {
			m.state = &data
		}
	case protocol.MessageTypePlayRejected:
		var data protocol.PlayRejectedData
		if json.Unmarshal(msg.Data, &data) == nil {
			m.logf("rejected: %s", data.Reason)
		}
	case protocol.MessageTypeGameOver:
		var data protocol.GameOverData
		if json.Unmarshal(msg.Data, &data) == nil {
			m.logf("game over, winner: %d", data.WinnerID)
		}
	case protocol.MessageTypeRoomInterrupt:
		var data protocol.RoomInterruptedData
		if json.Unmarshal(msg.Data, &data) == nil {
			m.logf("player %d left, %d remaining", data.LeaverID, data.PlayerCount)
		}
	case protocol.MessageTypeGameRestarted:
		m.logf("game restarted")
	case protocol.MessageTypeError:
		var data protocol.ErrorData
		if json.Unmarshal(msg.Data, &data) == nil {
			m.logf("error: %s", data.Message)
		}
	}
}

func (m *Model) logf(format string, args ...interface{}) {
	m.logLines = append(m.logLines, fmt.Sprintf(format, args...))
	m.logView.SetContent(strings.Join(m.logLines, "\n"))
	m.logView.GotoBottom()
}

// View renders the current frame.
func (m *Model) View() string {
	if m.quitting {
		return "bye.\n"
	}

	header := m.styles.Header.Render(fmt.Sprintf(" doudizhu-client — %s ", m.userName))
	body := m.renderRoomState()

	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s\n", header, body, m.logView.View(), m.input.View())
}

func (m *Model) renderRoomState() string {
	if m.state == nil {
		return "not seated in a room yet. try: create | join CODE | list"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "room %s\n", m.state.RoomID)
	for _, seat := range m.state.Seats {
		marker := "  "
		if seat.UserID == m.state.Turn {
			marker = "->"
		}
		landlord := ""
		if seat.IsLandlord {
			landlord = " [landlord]"
		}
		fmt.Fprintf(&b, "%s %s%s — %d cards%s\n", marker, seat.DisplayName, landlord, seat.HandSize, boolStr(seat.Out, " (out)"))
	}

	if m.state.LastPlay != nil {
		fmt.Fprintf(&b, "last play: %s %s (size %d)\n", m.state.LastPlay.Kind, m.state.LastPlay.MainRank, m.state.LastPlay.Size)
	}

	b.WriteString(m.styles.HandInfo.Render(fmt.Sprintf("your hand (%d): %s", len(m.state.YourHand), strings.Join(m.state.YourHand, " "))))
	return b.String()
}

func boolStr(b bool, s string) string {
	if b {
		return s
	}
	return ""
}
