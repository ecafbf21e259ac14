package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ekisa-team/llamaterm/internal/backend"
)

const maxModelNameWidth = 40

// View renders the window.
func (m Model) View() string {
	if m.mode == modePicker {
		return m.overlay(m.picker.View())
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("llamaterm"),
		m.field(focusModel, "Model", m.modelInput.View()),
		m.field(focusGPU, "GPU layers", m.gpu.View()),
		m.progressLine(),
		m.viewport.View(),
		m.field(focusMessage, "Message", m.messageInput.View()),
		m.statusBar(),
		m.help.View(m.keys),
	)

	switch {
	case m.warning != "":
		return m.overlay(modalStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			modalTitleStyle.Render("Warning"),
			"",
			m.warning,
			"",
			noticeStyle.Render("press any key"),
		)))
	case m.mode == modeQuitConfirm:
		return m.overlay(modalStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			modalTitleStyle.Render("Save transcript before exit?"),
			"",
			"[S]ave   [D]iscard   [C]ancel",
		)))
	case m.mode == modeSavePrompt:
		return m.overlay(modalStyle.Render(m.pathInput.View()))
	}

	return body
}

func (m Model) field(f focus, label, view string) string {
	style := labelStyle
	if m.focus == f && m.mode == modeNormal {
		style = focusedLabelStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, style.Render(label), view)
}

func (m Model) progressLine() string {
	if !m.showProgress {
		return ""
	}

	line := labelStyle.Render("Loading") + m.progress.ViewAs(m.percent)
	if m.state == backend.StateLoading && m.percent < 1 {
		line += " " + m.spinner.View()
	}
	return line
}

func (m Model) statusBar() string {
	parts := []string{m.state.String()}

	if m.sessionID != "" && m.state != backend.StateStopped {
		id := m.sessionID
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, "session "+id)
	}

	if path := strings.TrimSpace(m.modelInput.Value()); path != "" {
		parts = append(parts, runewidth.Truncate(filepath.Base(path), maxModelNameWidth, "…"))
	}
	parts = append(parts, fmt.Sprintf("%d gpu layers", m.gpu.Value()))

	if m.notice != "" {
		parts = append(parts, noticeStyle.Render(m.notice))
	}

	style := statusStyle
	if m.state == backend.StateReady {
		style = statusReadyStyle
	}
	return style.Render(strings.Join(parts, " · "))
}

// overlay centers content in the window when the size is known.
func (m Model) overlay(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
