package lesson

import (
	"fmt"
	"math"
	"time"
)

// Summary is what the completion screen shows
type Summary struct {
	State     State
	Correct   int
	Incorrect int
	Skipped   int
	// Accuracy is a rounded percentage of graded answers that were correct
	Accuracy int
	Elapsed  time.Duration
	Time     string
}

// FormatDuration renders d as mm:ss, or hh:mm:ss once it reaches an hour
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	seconds := total % 60
	minutes := (total / 60) % 60
	hours := total / 3600
	if hours == 0 {
		return fmt.Sprintf("%02d:%02d", minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func accuracy(correct, incorrect int) int {
	graded := correct + incorrect
	if graded == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(graded) * 100))
}
