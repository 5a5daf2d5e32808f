package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/code-samurai/learner-client/internal/models"
)

// Session is what a successful login yields
type Session struct {
	UserID string
	Token  string
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Authenticate logs in. The token comes from the Authorization response
// header and the body is the user id.
func (c *Client) Authenticate(ctx context.Context, creds models.Credentials) (Session, error) {
	const op = "authenticate"

	resp, err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/user/login",
		body:   creds,
		want:   http.StatusOK,
	})
	if err != nil {
		return Session{}, err
	}

	token := resp.header.Get("Authorization")
	userID := strings.Trim(strings.TrimSpace(string(resp.body)), `"`)
	if token == "" {
		return Session{}, decodeError(op, errors.New("missing Authorization header"))
	}
	if userID == "" {
		return Session{}, decodeError(op, errors.New("empty user id"))
	}

	return Session{UserID: userID, Token: token}, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	_, err := c.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		path:   "/user/register",
		body: registerRequest{
			Username: reg.Username,
			Password: reg.Password,
			Email:    reg.Email,
			Phone:    reg.Phone,
		},
		want: http.StatusCreated,
	})
	return err
}

// Logout invalidates token on the server
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, call{
		op:     "logout",
		method: http.MethodPost,
		path:   "/user/logout",
		token:  token,
		want:   http.StatusOK,
	})
	return err
}
