package models

import "time"

// Level is the learner's experience record.
type Level struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// CourseProgress locates the learner inside the course tree.
type CourseProgress struct {
	Course int `json:"course"` // language
	Unit   int `json:"unit"`
	Sector int `json:"sector"`
	Level  int `json:"level"`
	Task   int `json:"task"`
}

// User is the process-wide session record. It is never written to durable
// storage by the client.
type User struct {
	LoggedIn bool `json:"-"`

	ID       string `json:"id"`
	Username string `json:"username"`
	// PasswordHash stays empty: the client never hashes nor keeps passwords.
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Bio          string `json:"bio"`

	Friends []string `json:"friends"`

	Level    Level          `json:"level"`
	Progress CourseProgress `json:"progress"`

	AuthToken string `json:"-"`

	// ActiveDays holds the local dates (YYYY-MM-DD) a lesson was finished on.
	ActiveDays []string `json:"-"`
}

// EmptyUser returns the logged-out defaults. Progress is zeroed.
func EmptyUser() User {
	return User{
		Friends:    []string{},
		ActiveDays: []string{},
	}
}

// Clone returns a deep copy so callers can't mutate shared slices.
func (u User) Clone() User {
	c := u
	c.Friends = append([]string{}, u.Friends...)
	c.ActiveDays = append([]string{}, u.ActiveDays...)
	return c
}

// Streak counts consecutive active days ending today (or yesterday, so a
// streak is not lost before the learner had a chance to practice today).
func (u User) Streak(now time.Time) int {
	days := make(map[string]bool, len(u.ActiveDays))
	for _, d := range u.ActiveDays {
		days[d] = true
	}

	day := now
	if !days[day.Format(DayLayout)] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for days[day.Format(DayLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// DayLayout is the format of ActiveDays entries.
const DayLayout = "2006-01-02"

// Credentials are captured from the login form on submit.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=4,max=128"`
}

// Registration is captured from the signup form on submit.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=4,max=128"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
}

// ProfileUpdate holds the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Bio   *string `json:"bio,omitempty" validate:"omitempty,max=280"`
}
