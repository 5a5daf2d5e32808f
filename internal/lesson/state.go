package lesson

// State is the position of an attempt in the lesson flow
type State int

const (
	SelectingProblems State = iota
	FastForwardStart
	Answering
	AnswerShown
	LessonComplete
	FastForwardPass
	FastForwardFail
	Quit
)

var stateNames = map[State]string{
	SelectingProblems: "selecting_problems",
	FastForwardStart:  "fast_forward_start",
	Answering:         "answering",
	AnswerShown:       "answer_shown",
	LessonComplete:    "lesson_complete",
	FastForwardPass:   "fast_forward_pass",
	FastForwardFail:   "fast_forward_fail",
	Quit:              "quit",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether the attempt reached an end screen
func (s State) IsTerminal() bool {
	return s == LessonComplete || s == FastForwardPass || s == FastForwardFail
}

// IsOver reports whether no further answers are accepted
func (s State) IsOver() bool {
	return s.IsTerminal() || s == Quit
}
