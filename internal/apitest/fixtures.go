package apitest

import (
	"github.com/code-samurai/learner-client/internal/content"
	"github.com/code-samurai/learner-client/internal/models"
)

// Task is a server-side problem. Keywords grade free-text answers: an answer
// is correct when it contains every keyword, ignoring case.
type Task struct {
	Problem     models.Problem
	Keywords    []string
	Explanation string
}

var freeTextRubrics = map[string]Task{
	"da37a6e6029f4462bf4815893f462845": {
		Keywords:    []string{"String", `"code samurai"`, "System.out.println"},
		Explanation: "Declare the String first, then pass the variable to System.out.println.",
	},
	"f2d7a6f58d8c41eb9bd2726306620065": {
		Keywords:    []string{"6", "9", "System.out.println"},
		Explanation: "Compare the two ints (or use Math.max) and print the result with System.out.println.",
	},
}

// DefaultTasks serves the built-in lesson pool, with rubrics for the
// free-text problems
func DefaultTasks() []Task {
	pool := content.ProblemPool()
	tasks := make([]Task, 0, len(pool))
	for _, p := range pool {
		task := freeTextRubrics[p.ID]
		task.Problem = p
		tasks = append(tasks, task)
	}
	return tasks
}
