package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/untangl/scoutlink/internal/format/table"
	"github.com/untangl/scoutlink/internal/protocol"
)

const (
	labelWidth   = len("Scouted file") + 2
	infoLifetime = 5 * time.Second
	applyHint    = "[⏎ apply]"
	footerKeys   = "enter apply  ctrl+o select file  ctrl+b base64  ctrl+l copy local  ctrl+y copy share  esc quit"
)

type styledLine struct {
	text  string
	style *lipgloss.Style
	raw   bool // text already carries ANSI escapes; skip style wrapping
}

// View implements tea.Model.
func (m *Model) View() string {
	lines := make([]styledLine, 0, 16)
	lines = append(lines, styledLine{text: defaultTitle, style: styles.Header})
	lines = append(lines, styledLine{})
	for _, row := range table.Format(m.fieldRows(), nil, 2) {
		lines = append(lines, styledLine{text: row, raw: true})
	}
	if info := m.currentInfo(); info != "" {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: info, style: styles.Info})
	}
	if m.showFooter {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: m.healthText(), style: styles.Footer})
		lines = append(lines, styledLine{text: footerKeys, style: styles.Footer})
	}
	// Reserve one row for the error/status line.
	lines = limitHeight(lines, m.height-1, m.width)
	lines = applyWidth(lines, m.width)

	var statusLine styledLine
	if m.errMsg != "" {
		statusLine = styledLine{text: fmt.Sprintf("Error: %s", m.errMsg), style: styles.Error}
	}
	lines = append(lines, applyWidth([]styledLine{statusLine}, m.width)...)
	return renderLines(lines)
}

// fieldRows lists the label/value pairs shown under the title. The links
// only appear while the host has published live data.
func (m *Model) fieldRows() [][]string {
	status, statusStyle := statusText(m.scout.Status())
	rows := [][]string{
		{renderLabel("Pantry ID"), m.pantryField()},
		{renderLabel("Scouted file"), render(styles.Value, m.scoutedFileText())},
		{renderLabel("Upload"), render(statusStyle, status)},
		{renderLabel("Base64"), render(styles.Value, onOff(m.scout.Base64()))},
	}
	if links := m.links.Links(); links.Visible {
		rows = append(rows, []string{renderLabel("Live data"), render(styles.Link, links.LocalURL)})
		if links.ShareVisible {
			rows = append(rows, []string{renderLabel("Share link"), render(styles.Link, links.ShareURL)})
		}
	}
	return rows
}

func (m *Model) pantryField() string {
	line := m.input.View()
	switch {
	case m.loading:
		line += " " + render(styles.Placeholder, "(loading…)")
	case m.pantry.ApplyVisible():
		line += " " + render(styles.Apply, applyHint)
	case !m.pantry.Known():
		line += " " + render(styles.Placeholder, "(unknown)")
	}
	return line
}

func (m *Model) scoutedFileText() string {
	if file := m.scout.File(); file != "" {
		return file
	}
	return "(none)"
}

func (m *Model) healthText() string {
	health := "host connected"
	if m.linkLost {
		health = "host disconnected"
	}
	if m.lastEvent.IsZero() {
		return health + " · no host events yet"
	}
	return health + " · last event " + humanize.RelTime(m.lastEvent, m.now(), "ago", "from now")
}

func statusText(status protocol.UploadStatus) (string, *lipgloss.Style) {
	switch status.Kind {
	case protocol.StatusOK:
		return "✓ ok", styles.StatusOK
	case protocol.StatusUploading:
		return "⟳ uploading…", styles.StatusUploading
	case protocol.StatusError:
		return "✗ " + status.Detail, styles.StatusError
	default:
		return "–", styles.StatusUnset
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func renderLabel(label string) string {
	return render(styles.Label, label)
}

func render(style *lipgloss.Style, value string) string {
	if style == nil || value == "" {
		return value
	}
	return style.Render(value)
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	if m.width > 0 {
		if w := m.width - labelWidth - len(applyHint) - 4; w > 8 {
			m.input.Width = w
		}
	}
	return nil
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = m.now().Add(infoLifetime)
}

func (m *Model) forceClearInfo() {
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && m.now().After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
	return m.infoMsg
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText("…", width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	trimmed = append(trimmed, styledLine{text: truncateText("…", width)})
	return trimmed
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		result[i] = styledLine{
			text:  truncateText(line.text, width),
			style: line.style,
			raw:   line.raw,
		}
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if line.raw || line.style == nil {
			out[i] = line.text
			continue
		}
		out[i] = line.style.Render(line.text)
	}
	return strings.Join(out, "\n")
}

// truncateText cuts text to width cells, keeping ANSI sequences intact.
func truncateText(text string, width int) string {
	if width <= 0 || ansi.StringWidth(text) <= width {
		return text
	}
	return ansi.Truncate(text, width, "…")
}
