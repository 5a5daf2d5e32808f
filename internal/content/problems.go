package content

import "github.com/code-samurai/learner-client/internal/models"

var problemPool = []models.Problem{
	{
		ID:           "71de7dad2c8941c2b82b6321a4768342",
		Kind:         models.SingleChoice,
		Prompt:       "Which of the following is a correct way to declare integer value of 5?",
		Choices:      []string{`int n = "5";`, `int 5;`, `int n = 5;`},
		CorrectIndex: 2,
	},
	{
		ID:           "1f5b9287c0e5439198b2642c8c09dc69",
		Kind:         models.TokenAssembly,
		Prompt:       `Build a line of code, which properly declares a String object of value "Hello world"`,
		Tokens:       []string{";", "String text", "'Hello", `world"`, "=", "String[] text", `"Hello`},
		CorrectOrder: []int{1, 4, 6, 3, 0},
	},
	{
		ID:           "4af4cd88173c42e2b91a71574e7dec1c",
		Kind:         models.TokenAssembly,
		Prompt:       `Build a line of code, which properly declares a Float object that has the same value as another Float object called "floatValue"`,
		Tokens:       []string{"Float value", "Float floatValue", "=", "new Float()", ";", "floatValue", "float"},
		CorrectOrder: []int{0, 2, 5, 4},
	},
	{
		ID:     "da37a6e6029f4462bf4815893f462845",
		Kind:   models.FreeText,
		Prompt: `Write code which declares a String object of value "code samurai", and then prints it into console.`,
	},
	{
		ID:     "f2d7a6f58d8c41eb9bd2726306620065",
		Kind:   models.FreeText,
		Prompt: "Write code which declares two integer objects of values 6 and 9 respectively, and then prints the greater value.",
	},
	{
		ID:           "2063901565d84f2b8367c4950bc9f0f9",
		Kind:         models.SingleChoice,
		Prompt:       "Which of the following Java, most certainly, is NOT?",
		Choices:      []string{"a low level language", "a functional language", "a slow language"},
		CorrectIndex: 0,
	},
}

// ProblemPool returns a copy of the built-in lesson pool.
func ProblemPool() []models.Problem {
	out := make([]models.Problem, len(problemPool))
	copy(out, problemPool)
	return out
}
