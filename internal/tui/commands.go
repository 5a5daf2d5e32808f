package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/code-samurai/learner-client/internal/lesson"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/code-samurai/learner-client/internal/review"
	"github.com/code-samurai/learner-client/internal/services"
)

// ===== MESSAGES =====

type pingMsg struct{ err error }

type authDoneMsg struct{ err error }

type logoutDoneMsg struct{ err error }

type profileSavedMsg struct{ err error }

type lessonStartedMsg struct {
	controller *lesson.Controller
	err        error
}

type gradedMsg struct {
	controller *lesson.Controller
	ticket     lesson.GradeTicket
	result     models.GradeResult
	err        error
}

type finishedMsg struct {
	controller *lesson.Controller
	summary    lesson.Summary
	err        error
}

type exportedMsg struct {
	path string
	err  error
}

// ===== COMMANDS =====
// Everything that may block runs inside a tea.Cmd and reports back as a message.

func (a *App) pingCmd() tea.Cmd {
	return func() tea.Msg {
		if a.deps.Pinger == nil {
			return pingMsg{}
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.deps.Timeout)
		defer cancel()
		return pingMsg{err: a.deps.Pinger.Ping(ctx)}
	}
}

func (a *App) loginCmd(creds models.Credentials) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: a.deps.Store.LogIn(context.Background(), creds)}
	}
}

func (a *App) registerCmd(reg models.Registration) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: a.deps.Store.Register(context.Background(), reg)}
	}
}

func (a *App) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		userID := a.deps.Store.Snapshot().ID
		err := a.deps.Store.LogOut(ctx)
		if err == nil && a.deps.Feed != nil {
			a.deps.Feed.Reset(ctx, userID)
		}
		return logoutDoneMsg{err: err}
	}
}

func (a *App) saveProfileCmd(update models.ProfileUpdate) tea.Cmd {
	return func() tea.Msg {
		return profileSavedMsg{err: a.deps.Store.UpdateProfile(context.Background(), update)}
	}
}

func (a *App) startLessonCmd(opts services.LessonOptions) tea.Cmd {
	return func() tea.Msg {
		c, err := a.deps.Lessons.Start(context.Background(), opts)
		return lessonStartedMsg{controller: c, err: err}
	}
}

func gradeCmd(grader lesson.Grader, c *lesson.Controller, problem models.Problem, ticket lesson.GradeTicket) tea.Cmd {
	return func() tea.Msg {
		result, err := grader.Grade(context.Background(), problem, ticket.Text)
		return gradedMsg{controller: c, ticket: ticket, result: result, err: err}
	}
}

func (a *App) finishCmd(c *lesson.Controller) tea.Cmd {
	return func() tea.Msg {
		summary, err := a.deps.Lessons.Finish(context.Background(), c)
		return finishedMsg{controller: c, summary: summary, err: err}
	}
}

func (a *App) exportCmd(attemptID string, summary lesson.Summary, results []models.QuestionResult, format review.Format) tea.Cmd {
	return func() tea.Msg {
		path, err := a.deps.Exporter.Export(context.Background(), attemptID, summary, results, format)
		return exportedMsg{path: path, err: err}
	}
}
