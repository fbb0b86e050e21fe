package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/common-nighthawk/go-figure"
	"github.com/dmitrijs2005/bililive/internal/client/models"
)

var banner = figure.NewFigure("bililive", "cybersmall", true).Slicify()

const helpLine = "q quit  r retry  l logout"

// View renders the model into at most height lines of at most width
// runes. The banner is dropped first when the screen is short.
func (m *Model) View(width, height int, now time.Time) []string {
	var body []string
	switch m.phase {
	case PhaseStarting:
		body = []string{"starting..."}
	case PhaseLogin:
		body = m.loginView(now)
	case PhaseRoom:
		body = m.roomView(now)
	}

	if m.notice != "" {
		body = append(body, "", m.notice)
	}
	if m.failed != nil {
		body = append(body, "error: "+m.failed.Error())
	}
	body = append(body, "", helpLine)

	lines := body
	if len(banner)+len(body) <= height {
		lines = append(append([]string(nil), banner...), body...)
	}
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = truncate(l, width)
	}
	return lines
}

func (m *Model) loginView(now time.Time) []string {
	out := []string{"Login: " + m.login.String()}

	switch m.login {
	case models.LoginRequesting:
		out = append(out, "requesting qr code...")
	case models.LoginAwaitingScan:
		out = append(out, "scan with the bilibili app")
		out = append(out, m.qr...)
		hint := "waiting for scan"
		if m.scan == models.StatusScanned {
			hint = "scanned, confirm on your phone"
		}
		left := m.challenge.Remaining(now).Truncate(time.Second)
		out = append(out, fmt.Sprintf("%s (expires in %s)", hint, left))
	case models.LoginConfirmed:
		out = append(out, fmt.Sprintf("confirmed, uid %d", m.uid))
	}
	return out
}

func (m *Model) roomView(now time.Time) []string {
	out := []string{}
	if m.uid != 0 {
		out = append(out, fmt.Sprintf("uid %d", m.uid))
	}

	cur, ok := m.Current()
	if !ok {
		room := "own room"
		if m.roomID != 0 {
			room = fmt.Sprintf("room %d", m.roomID)
		}
		return append(out, "waiting for "+room+"...")
	}

	out = append(out,
		fmt.Sprintf("Room %d  [%s]", cur.RoomID, strings.ToUpper(cur.Status.String())),
		"Title:   "+cur.Title,
		fmt.Sprintf("Viewers: %d", cur.Viewers),
		fmt.Sprintf("Updated: %s ago", now.Sub(cur.CapturedAt).Truncate(time.Second)),
	)
	if !m.offlineAt.IsZero() && cur.Status == models.LiveOffline {
		out = append(out, "Offline since "+m.offlineAt.Format("15:04:05"))
	}

	out = append(out, "", "History:")
	for i := len(m.history) - 1; i >= 0; i-- {
		s := m.history[i]
		out = append(out, fmt.Sprintf("  %s  %-7s %8d", s.CapturedAt.Format("15:04:05"), s.Status, s.Viewers))
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width])
}
