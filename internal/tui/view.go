package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/toast"
)

// Rows taken by the toast box when one is showing.
const toastHeight = 3

func (m *watchModel) recalcLayout() {
	width := max(m.width-2, 20)
	// Header (1) + border (2) + toast (3) + notice (1) + help (1 or more).
	height := max(m.height-7-lipgloss.Height(m.help.View(m.keys)), 3)

	if !m.ready {
		m.listView = viewport.New(width, height)
		m.ready = true
	} else {
		m.listView.Width = width
		m.listView.Height = height
	}
	m.recalcContent()
}

func (m *watchModel) recalcContent() {
	if !m.ready {
		return
	}
	m.listView.SetContent(m.renderList())
}

func (m watchModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top, headerStyle.Render(m.title()), m.renderBadge())
	list := borderStyle.Width(m.listView.Width).Render(m.listView.View())

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	b.WriteString(list)
	b.WriteByte('\n')
	b.WriteString(m.renderToast())
	b.WriteByte('\n')
	b.WriteString(m.renderNotice())
	b.WriteByte('\n')
	b.WriteString(statusBarStyle.Width(m.width).Render(m.help.View(m.keys)))
	return b.String()
}

func (m watchModel) title() string {
	if !m.signedIn {
		return "Signed out (press o to sign in)"
	}
	if m.view == toast.ViewJobApplicants {
		if m.jobID == "" {
			return "Waiting for applicants"
		}
		name := m.jobID
		for _, a := range m.apps {
			if a.Job != nil && a.Job.Title != "" {
				name = a.Job.Title
				break
			}
		}
		return fmt.Sprintf("Applicants for %s (%d)", name, len(m.visible()))
	}

	counts := filter.Counts(m.apps)
	return fmt.Sprintf("My Applications [%s] (%d)  pending %d · accepted %d · rejected %d",
		m.filter, len(m.visible()),
		counts[model.StatusPending], counts[model.StatusAccepted], counts[model.StatusRejected])
}

func (m watchModel) renderBadge() string {
	if m.role != model.RoleApplicant || m.badge == 0 {
		return ""
	}
	return " " + badgeStyle.Render(fmt.Sprintf("%d new", m.badge))
}

func (m watchModel) renderToast() string {
	n, ok := m.activeToast()
	if !ok {
		return strings.Repeat("\n", toastHeight-1)
	}
	text := n.Message() + "   enter open · c close"
	return toastBox(n.Variant()).Width(max(m.width-4, 20)).Render(text)
}

func (m watchModel) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	if m.failed {
		return errorLineStyle.Render("⚠ " + m.notice)
	}
	return itemSubtitleStyle.Render(m.notice)
}

func (m watchModel) renderList() string {
	if !m.signedIn {
		return "  (signed out)"
	}
	apps := m.visible()
	if len(apps) == 0 {
		if m.view == toast.ViewJobApplicants && m.jobID == "" {
			return "  (new applicants will appear as notifications)"
		}
		return "  (no applications)"
	}

	var b strings.Builder
	for i, a := range apps {
		titleSt := itemTitleStyle
		subtitleSt := itemSubtitleStyle
		prefix := "  "
		if i == m.cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(m.itemTitle(a)))
		if m.unread(a) {
			b.WriteString(unreadStyle.Render(" ●"))
		}
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(statusStyle(a.Status).Render(strings.ToUpper(string(a.Status))))
		b.WriteString(subtitleSt.Render(" · applied " + a.AppliedAt.Local().Format("2006-01-02 15:04")))
		if a.StatusUpdatedAt != nil {
			b.WriteString(subtitleSt.Render(" · decided " + a.StatusUpdatedAt.Local().Format("2006-01-02 15:04")))
		}
		b.WriteByte('\n')

		if i < len(apps)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m watchModel) itemTitle(a model.Application) string {
	if m.view == toast.ViewJobApplicants {
		return "Applicant " + a.ApplicantID
	}
	if a.Job == nil {
		return "Job " + a.JobID
	}
	if a.Job.Company != "" {
		return a.Job.Title + " @ " + a.Job.Company
	}
	return a.Job.Title
}

func (m watchModel) unread(a model.Application) bool {
	if m.view == toast.ViewJobApplicants {
		return !a.IsSeenByEmployer
	}
	return a.UnseenByApplicant()
}
