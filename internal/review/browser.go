package review

import "github.com/code-samurai/learner-client/internal/models"

// Browser pages through a finished attempt's results one at a time
type Browser struct {
	results []models.QuestionResult
	index   int
}

func NewBrowser(results []models.QuestionResult) *Browser {
	return &Browser{results: append([]models.QuestionResult(nil), results...)}
}

func (b *Browser) Len() int { return len(b.results) }

// Current returns the result under the cursor
func (b *Browser) Current() (models.QuestionResult, bool) {
	if len(b.results) == 0 {
		return models.QuestionResult{}, false
	}
	return b.results[b.index], true
}

// Position is 1-based for display
func (b *Browser) Position() int {
	if len(b.results) == 0 {
		return 0
	}
	return b.index + 1
}

// Next moves forward and reports whether the cursor moved
func (b *Browser) Next() bool {
	if b.index+1 >= len(b.results) {
		return false
	}
	b.index++
	return true
}

// Prev moves back and reports whether the cursor moved
func (b *Browser) Prev() bool {
	if b.index == 0 {
		return false
	}
	b.index--
	return true
}

// Tally counts results per outcome
func (b *Browser) Tally() map[models.Outcome]int {
	tally := make(map[models.Outcome]int, 3)
	for _, r := range b.results {
		tally[r.Outcome]++
	}
	return tally
}
