package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/code-samurai/learner-client/internal/content"
	"github.com/code-samurai/learner-client/internal/models"
)

type keyHint struct {
	Key  string
	Desc string
}

var tileIcons = map[content.TileType]string{
	content.TileBook:        "📖",
	content.TileStar:        "★",
	content.TileDumbbell:    "🏋",
	content.TileTrophy:      "🏆",
	content.TileTreasure:    "💰",
	content.TileFastForward: "⏩",
}

// topBar shows the brand, the selected language and, when logged in, the
// learner's XP, level and streak
func topBar(width int, user models.User, streak int, language content.Language, online bool) string {
	left := styleTitle.Render("code samurai") + "  " + language.Name

	var right string
	if user.LoggedIn {
		right = fmt.Sprintf("%s  lvl %d  %d XP  🔥 %d", user.Username, user.Level.Level, user.Level.XP, streak)
	} else {
		right = fmt.Sprintf("guest  %d XP  🔥 %d", user.Level.XP, streak)
	}
	if !online {
		right += "  " + styleError.Render("offline")
	}

	return styleBar.Width(width).Render(spread(left, right, width-2))
}

// bottomBar renders key hints
func bottomBar(width int, hints []keyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, styleBarKey.Render(h.Key)+" "+h.Desc)
	}
	return styleBar.Width(width).Render(strings.Join(parts, "  •  "))
}

// sideBar lists the course units and highlights the selected one
func sideBar(units []content.Unit, selected, unlocked int) string {
	var b strings.Builder
	b.WriteString(styleSubtle.Render("UNITS"))
	b.WriteString("\n\n")
	for i, u := range units {
		line := fmt.Sprintf("Unit %d", u.Number)
		if u.Number > unlocked+1 {
			line += " 🔒"
		}
		if i == selected {
			b.WriteString(styleCursor.Render("› " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return styleSide.Render(b.String())
}

func renderTiles(unit content.Unit) string {
	var b strings.Builder
	for _, t := range unit.Tiles {
		b.WriteString(fmt.Sprintf("  %s  %s\n", tileIcons[t.Type], t.Description))
	}
	return b.String()
}

func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
