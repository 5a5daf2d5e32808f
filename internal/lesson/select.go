package lesson

import (
	"math/rand"

	"github.com/code-samurai/learner-client/internal/models"
)

// ProblemsPerLesson is how many problems one attempt draws
const ProblemsPerLesson = 3

// drawIndices picks n distinct indices from [0, size) uniformly at random.
// The draw order is the presentation order.
func drawIndices(rng *rand.Rand, size, n int) []int {
	perm := rng.Perm(size)
	return perm[:n]
}

// ChooseProblems draws ProblemsPerLesson distinct problems from pool
func ChooseProblems(rng *rand.Rand, pool []models.Problem) ([]models.Problem, []int, error) {
	if len(pool) < ProblemsPerLesson {
		return nil, nil, ErrPoolTooSmall
	}

	indices := drawIndices(rng, len(pool), ProblemsPerLesson)
	problems := make([]models.Problem, len(indices))
	for i, idx := range indices {
		problems[i] = pool[idx]
	}
	return problems, indices, nil
}
