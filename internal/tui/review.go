package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/code-samurai/learner-client/internal/review"
)

type reviewView struct {
	browser    *review.Browser
	exportPath string
	exportErr  string
}

func (a *App) openReview() {
	a.review = &reviewView{browser: review.NewBrowser(a.lesson.c.Results())}
	a.goTo(screenReview)
}

func (a *App) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r := a.review
	switch msg.String() {
	case "left", "h":
		r.browser.Prev()
	case "right", "l":
		r.browser.Next()
	case "x", "c":
		if a.deps.Exporter == nil {
			r.exportErr = "Export is not configured."
			return a, nil
		}
		format := review.FormatExcel
		if msg.String() == "c" {
			format = review.FormatCSV
		}
		r.exportErr, r.exportPath = "", ""
		c := a.lesson.c
		return a, a.exportCmd(c.ID(), *a.lesson.summary, c.Results(), format)
	case "esc", "q":
		a.goTo(screenLesson)
	}
	return a, nil
}

func (a *App) viewReview() string {
	r := a.review
	current, ok := r.browser.Current()
	if !ok {
		return styleSubtle.Render("Nothing to review.")
	}

	tally := r.browser.Tally()
	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("Review %d/%d", r.browser.Position(), r.browser.Len())))
	b.WriteString(styleSubtle.Render(fmt.Sprintf("   %d correct  %d incorrect  %d skipped",
		tally[models.OutcomeCorrect], tally[models.OutcomeIncorrect], tally[models.OutcomeSkipped])))
	b.WriteString("\n\n")
	b.WriteString(current.Question + "\n\n")

	switch current.Outcome {
	case models.OutcomeCorrect:
		b.WriteString(styleCorrect.Render("correct"))
	case models.OutcomeIncorrect:
		b.WriteString(styleIncorrect.Render("incorrect"))
	default:
		b.WriteString(styleSkipped.Render("skipped"))
	}
	b.WriteString("\n")
	if current.Response != "" {
		b.WriteString("Your answer: " + current.Response + "\n")
	}
	if current.Expected != "" {
		b.WriteString("Expected:    " + current.Expected + "\n")
	}
	if current.Explanation != "" {
		b.WriteString(styleSubtle.Render(current.Explanation) + "\n")
	}

	switch {
	case r.exportErr != "":
		b.WriteString("\n" + styleError.Render(r.exportErr))
	case r.exportPath != "":
		b.WriteString("\n" + styleInfo.Render("Saved to "+r.exportPath))
	}
	return b.String()
}
