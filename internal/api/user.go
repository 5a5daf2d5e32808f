package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/code-samurai/learner-client/internal/models"
)

// Profile is the wire shape of a user record
type Profile struct {
	ID       string                `json:"id"`
	Username string                `json:"username"`
	Email    string                `json:"email"`
	Phone    *string               `json:"phone"`
	Bio      string                `json:"bio"`
	Friends  []string              `json:"friends"`
	Level    models.Level          `json:"level"`
	Progress models.CourseProgress `json:"progress"`
}

// ProfileFromUser builds the update payload for u
func ProfileFromUser(u models.User) Profile {
	p := Profile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Bio:      u.Bio,
		Friends:  append([]string{}, u.Friends...),
		Level:    u.Level,
		Progress: u.Progress,
	}
	if u.Phone != "" {
		phone := u.Phone
		p.Phone = &phone
	}
	return p
}

// Apply copies the profile fields onto u, leaving session fields alone
func (p Profile) Apply(u models.User) models.User {
	out := u.Clone()
	if p.ID != "" {
		out.ID = p.ID
	}
	out.Username = p.Username
	out.Email = p.Email
	out.Phone = ""
	if p.Phone != nil {
		out.Phone = *p.Phone
	}
	out.Bio = p.Bio
	out.Friends = append([]string{}, p.Friends...)
	out.Level = p.Level
	out.Progress = p.Progress
	return out
}

// FetchProfile loads the profile of userID
func (c *Client) FetchProfile(ctx context.Context, token, userID string) (Profile, error) {
	const op = "fetch_profile"

	if userID == "" {
		return Profile{}, &Error{Kind: KindTransport, Op: op, Err: errors.New("empty user id")}
	}

	resp, err := c.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/user/" + url.PathEscape(userID),
		token:  token,
		want:   http.StatusOK,
	})
	if err != nil {
		return Profile{}, err
	}

	var profile Profile
	if err := decodeJSON(op, resp.body, &profile); err != nil {
		return Profile{}, err
	}
	if profile.Friends == nil {
		profile.Friends = []string{}
	}
	return profile, nil
}

// UpdateProfile stores profile, progress and level on the server
func (c *Client) UpdateProfile(ctx context.Context, token string, profile Profile) error {
	_, err := c.do(ctx, call{
		op:     "update_profile",
		method: http.MethodPut,
		path:   "/user",
		token:  token,
		body:   profile,
		want:   http.StatusOK,
	})
	return err
}
