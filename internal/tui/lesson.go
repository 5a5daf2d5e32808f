package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/code-samurai/learner-client/internal/lesson"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/code-samurai/learner-client/internal/services"
)

// lessonView is the UI state around one lesson.Controller
type lessonView struct {
	c       *lesson.Controller
	opts    services.LessonOptions
	input   textinput.Model
	cursor  int
	loading bool
	loadErr string
	notice  string

	finishing bool
	finishErr string
	summary   *lesson.Summary
}

func newAnswerInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Type your code..."
	ti.Prompt = "› "
	ti.CharLimit = 2000
	ti.Width = 60
	ti.Focus()
	return ti
}

func (a *App) openLesson(opts services.LessonOptions) tea.Cmd {
	a.lesson = &lessonView{opts: opts, loading: true, input: newAnswerInput()}
	a.goTo(screenLesson)
	return a.startLessonCmd(opts)
}

func (a *App) handleLessonStarted(msg lessonStartedMsg) (tea.Model, tea.Cmd) {
	l := a.lesson
	if l == nil || !l.loading {
		return a, nil
	}
	l.loading = false
	if msg.err != nil {
		a.logger.LogError(msg.err, "Failed to start lesson", "remote", l.opts.Remote)
		l.loadErr = services.UserMessage(msg.err)
		return a, nil
	}
	l.c = msg.controller
	l.resetCursor()
	return a, textinput.Blink
}

func (l *lessonView) resetCursor() {
	l.cursor = 0
	l.input.Reset()
	l.notice = ""
}

// ===== KEYS =====

func (a *App) updateLesson(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := a.lesson
	key := msg.String()

	if l.loading {
		return a, nil
	}
	if l.loadErr != "" {
		a.goTo(screenCourse)
		return a, nil
	}

	c := l.c
	if c.QuitRequested() {
		switch key {
		case "y", "Y":
			if err := c.ConfirmQuit(); err == nil {
				a.leaveLesson()
			}
		case "n", "N", "esc":
			c.CancelQuit()
		}
		return a, nil
	}

	switch c.State() {
	case lesson.FastForwardStart:
		switch key {
		case "enter":
			_ = c.ConfirmStart()
		case "esc":
			a.requestQuit()
		}
		return a, nil

	case lesson.Answering:
		return a.updateAnswering(msg)

	case lesson.AnswerShown:
		if key == "enter" {
			if err := c.Continue(); err != nil {
				return a, nil
			}
			l.resetCursor()
			if c.State().IsTerminal() {
				l.finishing = true
				return a, a.finishCmd(c)
			}
		} else if key == "esc" {
			a.requestQuit()
		}
		return a, nil
	}

	// terminal screens
	switch key {
	case "r":
		if l.finishErr != "" && !l.finishing {
			l.finishing, l.finishErr = true, ""
			return a, a.finishCmd(c)
		}
	case "v":
		if l.summary != nil {
			a.openReview()
		}
	case "enter", "esc":
		if !l.finishing {
			a.goTo(screenCourse)
		}
	}
	return a, nil
}

func (a *App) updateAnswering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := a.lesson
	c := l.c
	key := msg.String()
	problem, _ := c.Current()

	switch key {
	case "esc":
		a.requestQuit()
		return a, nil
	case "tab":
		if err := c.Skip(); err != nil {
			l.notice = services.UserMessage(err)
			return a, nil
		}
		a.deps.Lessons.AnswerRecorded(context.Background(), c)
		return a, nil
	}

	switch problem.Kind {
	case models.SingleChoice:
		switch key {
		case "up", "k":
			// the first arrow press selects the highlighted choice
			if c.Selected() >= 0 && l.cursor > 0 {
				l.cursor--
			}
			_ = c.SelectChoice(l.cursor)
		case "down", "j":
			if c.Selected() >= 0 && l.cursor < len(problem.Choices)-1 {
				l.cursor++
			}
			_ = c.SelectChoice(l.cursor)
		case "enter":
			return a, a.check()
		default:
			if n, err := strconv.Atoi(key); err == nil && c.SelectChoice(n-1) == nil {
				l.cursor = n - 1
			}
		}
		return a, nil

	case models.TokenAssembly:
		switch key {
		case "left", "h":
			if l.cursor > 0 {
				l.cursor--
			}
		case "right", "l":
			if l.cursor < len(problem.Tokens)-1 {
				l.cursor++
			}
		case " ":
			a.toggleToken(l.cursor)
		case "backspace":
			if picked := c.Picked(); len(picked) > 0 {
				_ = c.UnpickToken(picked[len(picked)-1])
			}
		case "enter":
			return a, a.check()
		default:
			if n, err := strconv.Atoi(key); err == nil {
				a.toggleToken(n - 1)
			}
		}
		return a, nil

	case models.FreeText:
		if key == "enter" {
			return a, a.submitFreeText(problem)
		}
		var cmd tea.Cmd
		l.input, cmd = l.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) toggleToken(i int) {
	c := a.lesson.c
	err := c.PickToken(i)
	if errors.Is(err, lesson.ErrTokenAlreadyUsed) {
		err = c.UnpickToken(i)
	}
	if err == nil {
		a.lesson.cursor = i
	}
}

func (a *App) check() tea.Cmd {
	c := a.lesson.c
	if _, err := c.Check(); err != nil {
		a.lesson.notice = services.UserMessage(err)
		return nil
	}
	return a.answerRecorded()
}

// answerRecorded announces the graded answer and finishes the attempt when
// that answer ended it
func (a *App) answerRecorded() tea.Cmd {
	l := a.lesson
	a.deps.Lessons.AnswerRecorded(context.Background(), l.c)
	if !l.c.State().IsTerminal() {
		return nil
	}
	l.resetCursor()
	l.finishing = true
	return a.finishCmd(l.c)
}

func (a *App) submitFreeText(problem models.Problem) tea.Cmd {
	l := a.lesson
	ticket, err := l.c.BeginFreeText(l.input.Value())
	if err != nil {
		if errors.Is(err, lesson.ErrEmptyAnswer) {
			l.notice = "Type an answer first."
		} else {
			l.notice = services.UserMessage(err)
		}
		return nil
	}
	l.notice = ""
	return gradeCmd(a.deps.Lessons.Grader(), l.c, problem, ticket)
}

func (a *App) handleGraded(msg gradedMsg) (tea.Model, tea.Cmd) {
	l := a.lesson
	if l == nil || l.c != msg.controller {
		return a, nil
	}
	if !l.c.CompleteFreeText(msg.ticket, msg.result, msg.err) {
		return a, nil
	}
	if msg.err != nil {
		a.logger.Warn("Grading failed", "problem_id", msg.ticket.ProblemID, "error", msg.err)
		l.notice = services.UserMessage(msg.err)
		return a, nil
	}
	return a, a.answerRecorded()
}

func (a *App) handleFinished(msg finishedMsg) (tea.Model, tea.Cmd) {
	l := a.lesson
	if l == nil || l.c != msg.controller {
		return a, nil
	}
	l.finishing = false
	if msg.err != nil {
		a.logger.LogError(msg.err, "Failed to apply lesson outcome", "attempt_id", l.c.ID())
		l.finishErr = services.UserMessage(msg.err)
		return a, nil
	}
	summary := msg.summary
	l.summary = &summary
	return a, nil
}

// requestQuit leaves at once when nothing was answered, otherwise asks first
func (a *App) requestQuit() {
	c := a.lesson.c
	if !c.RequestQuit() && c.State() == lesson.Quit {
		a.leaveLesson()
	}
}

func (a *App) leaveLesson() {
	a.deps.Lessons.Quit(context.Background(), a.lesson.c)
	a.goTo(screenCourse)
	a.notice = "Lesson discarded."
}

// ===== VIEW =====

func (a *App) viewLesson() string {
	l := a.lesson
	switch {
	case l.loading:
		return styleSubtle.Render("Picking your problems...")
	case l.loadErr != "":
		return styleError.Render("Couldn't start the lesson: "+l.loadErr) + "\n\n" + styleSubtle.Render("Press any key to go back.")
	}

	c := l.c
	if c.QuitRequested() {
		return styleTitle.Render("Wait, don't go!") + "\n\nYou'll lose your progress if you quit now. Quit? (y/n)"
	}

	var b strings.Builder
	switch c.State() {
	case lesson.FastForwardStart:
		b.WriteString(styleTitle.Render(fmt.Sprintf("Jump to Unit %d?", c.FastForwardUnit())))
		b.WriteString(fmt.Sprintf("\n\nAnswer %d questions correctly. You can make %d mistakes.", c.Required(), lesson.MaxHearts))
		return b.String()
	case lesson.Answering, lesson.AnswerShown:
		b.WriteString(a.lessonHeader())
		b.WriteString("\n\n")
	default:
		return a.viewLessonEnd()
	}

	problem, _ := c.Current()
	if problem.Title != "" {
		b.WriteString(styleSubtle.Render(problem.Title) + "\n")
	}
	b.WriteString(styleTitle.Render(problem.Prompt))
	b.WriteString("\n\n")

	if c.State() == lesson.AnswerShown {
		b.WriteString(viewResult(c))
		return b.String()
	}

	switch problem.Kind {
	case models.SingleChoice:
		for i, choice := range problem.Choices {
			line := fmt.Sprintf("%d. %s", i+1, choice)
			if i == c.Selected() {
				b.WriteString(styleCursor.Render("● "+line) + "\n")
			} else {
				b.WriteString("○ " + line + "\n")
			}
		}
	case models.TokenAssembly:
		b.WriteString("Your answer: " + problem.JoinTokens(c.Picked()) + "\n\n")
		b.WriteString(viewTokens(problem, c.Picked(), l.cursor))
	case models.FreeText:
		b.WriteString(l.input.View() + "\n")
		switch {
		case c.Grading():
			b.WriteString(styleSubtle.Render("Checking your answer..."))
		case c.RetryPending():
			b.WriteString(styleError.Render("Couldn't check your answer. Press enter to try again."))
		}
	}

	if l.notice != "" {
		b.WriteString("\n" + styleError.Render(l.notice))
	}
	return b.String()
}

func (a *App) lessonHeader() string {
	c := a.lesson.c
	header := fmt.Sprintf("Problem %d/%d  •  %d correct", c.Cursor()+1, c.Required(), c.Correct())
	if c.Practice() {
		header += "  •  practice"
	}
	if hearts, tracked := c.Hearts(); tracked {
		shown := hearts
		if shown < 0 {
			shown = 0
		}
		header += "  " + styleHeart.Render(strings.Repeat("♥", shown)+strings.Repeat("♡", lesson.MaxHearts-shown))
	}
	return styleSubtle.Render(header)
}

func viewTokens(problem models.Problem, picked []int, cursor int) string {
	used := make(map[int]bool, len(picked))
	for _, p := range picked {
		used[p] = true
	}
	tiles := make([]string, 0, len(problem.Tokens))
	for i, t := range problem.Tokens {
		label := fmt.Sprintf("%d %s", i+1, t)
		style := styleTile
		if i == cursor {
			style = styleTilePick
		}
		if used[i] {
			label = styleSubtle.Render(label)
		}
		tiles = append(tiles, style.Render(label))
	}
	return strings.Join(tiles, " ")
}

func viewResult(c *lesson.Controller) string {
	result, ok := c.LastResult()
	if !ok {
		return ""
	}

	var b strings.Builder
	switch result.Outcome {
	case models.OutcomeCorrect:
		b.WriteString(styleCorrect.Render("Nicely done!"))
	case models.OutcomeIncorrect:
		b.WriteString(styleIncorrect.Render("Not quite."))
	case models.OutcomeSkipped:
		b.WriteString(styleSkipped.Render("Skipped."))
	}
	b.WriteString("\n")
	if result.Response != "" {
		b.WriteString("Your answer: " + result.Response + "\n")
	}
	if result.Expected != "" && result.Outcome != models.OutcomeCorrect {
		b.WriteString("Correct answer: " + result.Expected + "\n")
	}
	if result.Explanation != "" {
		b.WriteString(styleSubtle.Render(result.Explanation) + "\n")
	}
	return b.String()
}

func (a *App) viewLessonEnd() string {
	l := a.lesson
	c := l.c

	var title string
	switch c.State() {
	case lesson.LessonComplete:
		title = "Lesson complete!"
	case lesson.FastForwardPass:
		title = fmt.Sprintf("You made it! Unit %d unlocked.", c.FastForwardUnit())
	case lesson.FastForwardFail:
		title = "Out of hearts. Keep practising and try again."
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(title) + "\n\n")

	switch {
	case l.finishing:
		b.WriteString(styleSubtle.Render("Saving your progress..."))
	case l.finishErr != "":
		b.WriteString(styleError.Render(l.finishErr) + "\n" + styleSubtle.Render("Press r to retry."))
	case l.summary != nil:
		s := l.summary
		b.WriteString(fmt.Sprintf("Correct    %d\nAccuracy   %d%%\nTime       %s\n", s.Correct, s.Accuracy, s.Time))
		if c.State() == lesson.LessonComplete && !c.Practice() {
			b.WriteString(styleCorrect.Render(fmt.Sprintf("\n+%d XP", lesson.LessonReward.XP)))
		}
	}
	return b.String()
}

func (a *App) lessonHints() []keyHint {
	l := a.lesson
	if l == nil || l.loading || l.loadErr != "" {
		return nil
	}
	c := l.c
	if c.QuitRequested() {
		return []keyHint{{"y", "quit"}, {"n", "keep going"}}
	}
	switch c.State() {
	case lesson.FastForwardStart:
		return []keyHint{{"enter", "start"}, {"esc", "back"}}
	case lesson.AnswerShown:
		return []keyHint{{"enter", "continue"}, {"esc", "quit"}}
	case lesson.Answering:
		problem, _ := c.Current()
		switch problem.Kind {
		case models.SingleChoice:
			return []keyHint{{"↑/↓", "choose"}, {"enter", "check"}, {"tab", "skip"}, {"esc", "quit"}}
		case models.TokenAssembly:
			return []keyHint{{"←/→", "move"}, {"space", "pick"}, {"backspace", "undo"}, {"enter", "check"}, {"tab", "skip"}}
		default:
			return []keyHint{{"enter", "check"}, {"tab", "skip"}, {"esc", "quit"}}
		}
	}
	if l.summary != nil {
		return []keyHint{{"v", "review"}, {"enter", "continue"}}
	}
	if l.finishErr != "" {
		return []keyHint{{"r", "retry"}}
	}
	return nil
}
