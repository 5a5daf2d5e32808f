// Package tui is the terminal front end: landing, login and signup forms,
// the course overview, the lesson flow, the account page and lesson review.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/code-samurai/learner-client/internal/content"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/code-samurai/learner-client/internal/review"
	"github.com/code-samurai/learner-client/internal/services"
	"github.com/code-samurai/learner-client/internal/session"
	"github.com/code-samurai/learner-client/internal/utils"
)

type screen int

const (
	screenLanding screen = iota
	screenLogin
	screenRegister
	screenCourse
	screenLesson
	screenAccount
	screenReview
)

// Pinger checks that the server is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the UI drives
type Deps struct {
	Store    *session.Store
	Lessons  *services.LessonService
	Feed     *services.ProblemFeed
	Exporter *review.Exporter
	Pinger   Pinger
	Logger   utils.Logger
	Timeout  time.Duration
	// Language is the name of the initially selected course language
	Language string
	// Lesson, when set, opens that lesson at start-up instead of the landing page
	Lesson *services.LessonOptions
}

// App is the root bubbletea model
type App struct {
	deps   Deps
	logger utils.Logger

	screen screen
	width  int
	height int
	online bool
	notice string

	languages []content.Language
	language  int
	units     []content.Unit
	unit      int

	login    *form
	register *form
	account  *form

	lesson *lessonView
	review *reviewView
}

var _ tea.Model = (*App)(nil)

func New(deps Deps) *App {
	if deps.Logger == nil {
		deps.Logger = utils.NewDiscardLogger()
	}
	if deps.Timeout == 0 {
		deps.Timeout = 5 * time.Second
	}

	a := &App{
		deps:      deps,
		logger:    deps.Logger.With("component", "tui"),
		online:    true,
		width:     80,
		languages: content.Languages(),
		language:  content.DefaultLanguageIndex,
		units:     content.Units(),
	}
	for i, l := range a.languages {
		if l.Name == deps.Language {
			a.language = i
		}
	}
	return a
}

func (a *App) Init() tea.Cmd {
	if a.deps.Lesson != nil {
		return tea.Batch(a.pingCmd(), textinput.Blink, a.openLesson(*a.deps.Lesson))
	}
	return tea.Batch(a.pingCmd(), textinput.Blink)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil

	case pingMsg:
		a.online = msg.err == nil
		if msg.err != nil {
			a.logger.Warn("Server unreachable", "error", msg.err)
		}
		return a, nil

	case authDoneMsg:
		return a.handleAuthDone(msg)

	case logoutDoneMsg:
		if msg.err != nil {
			a.notice = services.UserMessage(msg.err)
			return a, nil
		}
		a.notice = "Logged out."
		a.screen = screenLanding
		return a, nil

	case profileSavedMsg:
		if a.account != nil {
			a.account.busy = false
			a.account.err = services.UserMessage(msg.err)
			if msg.err == nil {
				a.account.info = "Profile saved."
			}
		}
		return a, nil

	case lessonStartedMsg:
		return a.handleLessonStarted(msg)

	case gradedMsg:
		return a.handleGraded(msg)

	case finishedMsg:
		return a.handleFinished(msg)

	case exportedMsg:
		if msg.err != nil {
			a.logger.LogError(msg.err, "Review export failed")
		}
		if a.review != nil {
			a.review.exportErr = services.UserMessage(msg.err)
			a.review.exportPath = msg.path
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)
	}

	return a.forward(msg)
}

// forward passes non-key messages such as cursor blinks to the active input
func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		cmd, _ = a.login.update(msg)
	case screenRegister:
		cmd, _ = a.register.update(msg)
	case screenAccount:
		if a.account != nil {
			cmd, _ = a.account.update(msg)
		}
	case screenLesson:
		if a.lesson != nil {
			a.lesson.input, cmd = a.lesson.input.Update(msg)
		}
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.screen {
	case screenLanding:
		return a.updateLanding(msg)
	case screenLogin:
		return a.updateLogin(msg)
	case screenRegister:
		return a.updateRegister(msg)
	case screenCourse:
		return a.updateCourse(msg)
	case screenLesson:
		return a.updateLesson(msg)
	case screenAccount:
		return a.updateAccount(msg)
	case screenReview:
		return a.updateReview(msg)
	}
	return a, nil
}

func (a *App) goTo(s screen) {
	a.screen = s
	a.notice = ""
}

// ===== LANDING & AUTH =====

func (a *App) updateLanding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.goTo(screenCourse)
	case "l":
		return a, a.openLogin()
	case "s":
		return a, a.openRegister()
	case "q", "esc":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) openLogin() tea.Cmd {
	if a.deps.Store.LoggedIn() {
		a.notice = services.UserMessage(session.ErrAlreadyLoggedIn)
		return nil
	}
	a.login = newForm("Log in",
		field{label: "Username", limit: 32},
		field{label: "Password", password: true, limit: 128},
	)
	a.goTo(screenLogin)
	return textinput.Blink
}

func (a *App) openRegister() tea.Cmd {
	if a.deps.Store.LoggedIn() {
		a.notice = services.UserMessage(session.ErrAlreadyLoggedIn)
		return nil
	}
	a.register = newForm("Create your profile",
		field{label: "Username", limit: 32},
		field{label: "Password", password: true, limit: 128},
		field{label: "Email (optional)", limit: 254},
		field{label: "Phone (optional)", limit: 20},
	)
	a.goTo(screenRegister)
	return textinput.Blink
}

func (a *App) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		a.goTo(screenLanding)
		return a, nil
	}
	if a.login.busy {
		return a, nil
	}
	cmd, submit := a.login.update(msg)
	if !submit {
		return a, cmd
	}

	a.login.busy, a.login.err = true, ""
	return a, a.loginCmd(models.Credentials{
		Username: a.login.value(0),
		Password: a.login.inputs[1].Value(),
	})
}

func (a *App) updateRegister(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		a.goTo(screenLanding)
		return a, nil
	}
	if a.register.busy {
		return a, nil
	}
	cmd, submit := a.register.update(msg)
	if !submit {
		return a, cmd
	}

	a.register.busy, a.register.err = true, ""
	return a, a.registerCmd(models.Registration{
		Username: a.register.value(0),
		Password: a.register.inputs[1].Value(),
		Email:    a.register.value(2),
		Phone:    a.register.value(3),
	})
}

func (a *App) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	var f *form
	switch a.screen {
	case screenLogin:
		f = a.login
	case screenRegister:
		f = a.register
	default:
		return a, nil
	}
	f.busy = false

	if msg.err != nil {
		f.err = services.UserMessage(msg.err)
		return a, nil
	}

	user := a.deps.Store.Snapshot()
	a.goTo(screenCourse)
	a.notice = fmt.Sprintf("Welcome, %s!", user.Username)
	return a, nil
}

// ===== COURSE =====

func (a *App) updateCourse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.unit > 0 {
			a.unit--
		}
	case "down", "j":
		if a.unit < len(a.units)-1 {
			a.unit++
		}
	case "tab":
		a.language = (a.language + 1) % len(a.languages)
	case "enter":
		return a, a.openLesson(services.LessonOptions{})
	case "p":
		return a, a.openLesson(services.LessonOptions{Practice: true})
	case "f":
		return a, a.openLesson(services.LessonOptions{FastForwardUnit: a.units[a.unit].Number})
	case "r":
		return a, a.openLesson(services.LessonOptions{Remote: true})
	case "a":
		a.openAccount()
		return a, textinput.Blink
	case "l":
		return a, a.openLogin()
	case "s":
		return a, a.openRegister()
	case "o":
		if !a.deps.Store.LoggedIn() {
			a.notice = services.UserMessage(session.ErrNotLoggedIn)
			return a, nil
		}
		return a, a.logoutCmd()
	case "esc", "q":
		a.goTo(screenLanding)
	}
	return a, nil
}

// ===== ACCOUNT =====

func (a *App) openAccount() {
	user := a.deps.Store.Snapshot()
	a.account = newForm("Edit profile",
		field{label: "Email", value: user.Email, limit: 254},
		field{label: "Phone", value: user.Phone, limit: 20},
		field{label: "Bio", value: user.Bio, limit: 280},
	)
	a.goTo(screenAccount)
}

func (a *App) updateAccount(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		a.goTo(screenCourse)
		return a, nil
	}
	if !a.deps.Store.LoggedIn() || a.account.busy {
		return a, nil
	}
	cmd, submit := a.account.update(msg)
	if !submit {
		return a, cmd
	}

	user := a.deps.Store.Snapshot()
	update := models.ProfileUpdate{}
	if v := a.account.value(0); v != user.Email {
		update.Email = &v
	}
	if v := a.account.value(1); v != user.Phone {
		update.Phone = &v
	}
	if v := a.account.value(2); v != user.Bio {
		update.Bio = &v
	}

	a.account.busy, a.account.err, a.account.info = true, "", ""
	return a, a.saveProfileCmd(update)
}

// ===== VIEW =====

func (a *App) View() string {
	user := a.deps.Store.Snapshot()
	top := topBar(a.width, user, a.deps.Store.Streak(), a.languages[a.language], a.online)

	var body string
	switch a.screen {
	case screenLanding:
		body = a.viewLanding()
	case screenLogin:
		body = a.login.view()
	case screenRegister:
		body = a.register.view()
	case screenCourse:
		body = a.viewCourse(user)
	case screenLesson:
		body = a.viewLesson()
	case screenAccount:
		body = a.viewAccount(user)
	case screenReview:
		body = a.viewReview()
	}
	if a.notice != "" {
		body += "\n\n" + styleInfo.Render(a.notice)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		styleBody.Render(body),
		bottomBar(a.width, a.hints()),
	)
}

func (a *App) viewLanding() string {
	return styleTitle.Render("The free, fun, and effective way to learn a programming language!") +
		"\n\n" + styleSubtle.Render("Bite-sized lessons, streaks and a course that grows with you.")
}

func (a *App) viewCourse(user models.User) string {
	unit := a.units[a.unit]
	main := styleTitle.Render(fmt.Sprintf("Unit %d", unit.Number)) + "\n" +
		unit.Description + "\n\n" + renderTiles(unit)
	return lipgloss.JoinHorizontal(lipgloss.Top, sideBar(a.units, a.unit, user.Progress.Unit), "  ", main)
}

func (a *App) viewAccount(user models.User) string {
	if !user.LoggedIn {
		return styleError.Render(services.UserMessage(session.ErrNotLoggedIn))
	}
	info := fmt.Sprintf("%s\n%s\n\nLevel %d  •  %d XP\nUnit %d  •  Sector %d  •  Task %d\nFriends: %d\n\n",
		styleTitle.Render(user.Username),
		styleSubtle.Render("id "+user.ID),
		user.Level.Level, user.Level.XP,
		user.Progress.Unit, user.Progress.Sector, user.Progress.Task,
		len(user.Friends))
	return info + a.account.view()
}

func (a *App) hints() []keyHint {
	switch a.screen {
	case screenLanding:
		return []keyHint{{"enter", "start"}, {"l", "log in"}, {"s", "sign up"}, {"q", "quit"}}
	case screenLogin, screenRegister:
		return []keyHint{{"tab", "next field"}, {"enter", "submit"}, {"esc", "back"}}
	case screenCourse:
		hints := []keyHint{{"↑/↓", "unit"}, {"enter", "lesson"}, {"p", "practice"}, {"f", "fast-forward"}, {"r", "server lesson"}, {"tab", "language"}, {"a", "account"}}
		if a.deps.Store.LoggedIn() {
			return append(hints, keyHint{"o", "log out"})
		}
		return append(hints, keyHint{"l", "log in"})
	case screenAccount:
		return []keyHint{{"tab", "next field"}, {"enter", "save"}, {"esc", "back"}}
	case screenLesson:
		return a.lessonHints()
	case screenReview:
		return []keyHint{{"←/→", "browse"}, {"x", "export xlsx"}, {"c", "export csv"}, {"esc", "back"}}
	}
	return nil
}
