package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/code-samurai/learner-client/internal/api"
	"github.com/code-samurai/learner-client/internal/apitest"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*api.Client, *apitest.Server) {
	t.Helper()
	fake := apitest.NewServer(nil, nil)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, api.WithTimeout(2*time.Second)), fake
}

func registerAndLogin(t *testing.T, client *api.Client) api.Session {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, client.Register(ctx, models.Registration{
		Username: "samurai",
		Password: "katana",
		Email:    "samurai@example.com",
	}))
	session, err := client.Authenticate(ctx, models.Credentials{Username: "samurai", Password: "katana"})
	require.NoError(t, err)
	return session
}

func TestRequestHeaders(t *testing.T) {
	client, fake := newTestAPI(t)

	require.NoError(t, client.Ping(context.Background()))

	req, ok := fake.LastRequest("/test")
	require.True(t, ok)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	_, err := uuid.Parse(req.Header.Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	client, fake := newTestAPI(t)

	t.Run("success returns token and id", func(t *testing.T) {
		session := registerAndLogin(t, client)
		assert.NotEmpty(t, session.UserID)
		assert.Contains(t, session.Token, "Bearer ")

		req, ok := fake.LastRequest("/user/login")
		require.True(t, ok)
		var body map[string]string
		require.NoError(t, json.Unmarshal(req.Body, &body))
		assert.Equal(t, "samurai", body["username"])
		assert.NotContains(t, body, "password_hash")
	})

	t.Run("wrong password is a status error", func(t *testing.T) {
		_, err := client.Authenticate(context.Background(), models.Credentials{Username: "samurai", Password: "wrong"})
		require.Error(t, err)
		assert.True(t, api.IsStatus(err))
		assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
	})

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		err := client.Register(context.Background(), models.Registration{Username: "samurai", Password: "katana"})
		assert.True(t, api.IsStatus(err))
		assert.Equal(t, http.StatusConflict, api.StatusCode(err))
	})
}

func TestProfileRoundTrip(t *testing.T) {
	client, _ := newTestAPI(t)
	ctx := context.Background()
	session := registerAndLogin(t, client)

	profile, err := client.FetchProfile(ctx, session.Token, session.UserID)
	require.NoError(t, err)
	assert.Equal(t, "samurai", profile.Username)
	assert.Nil(t, profile.Phone)
	assert.NotNil(t, profile.Friends)

	user := profile.Apply(models.EmptyUser())
	assert.Equal(t, "", user.Phone)

	user.Bio = "sharpening"
	user.Level = models.Level{Level: 2, XP: 6}
	require.NoError(t, client.UpdateProfile(ctx, session.Token, api.ProfileFromUser(user)))

	profile, err = client.FetchProfile(ctx, session.Token, session.UserID)
	require.NoError(t, err)
	assert.Equal(t, "sharpening", profile.Bio)
	assert.Equal(t, models.Level{Level: 2, XP: 6}, profile.Level)
}

func TestLogoutSendsBearerToken(t *testing.T) {
	client, fake := newTestAPI(t)
	session := registerAndLogin(t, client)

	require.NoError(t, client.Logout(context.Background(), session.Token))
	assert.Equal(t, 0, fake.ActiveTokens())

	req, ok := fake.LastRequest("/user/logout")
	require.True(t, ok)
	assert.Equal(t, session.Token, req.Header.Get("Authorization"))

	_, err := client.FetchProfile(context.Background(), session.Token, session.UserID)
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
}

func TestFetchNextProblemExcludesCompleted(t *testing.T) {
	client, fake := newTestAPI(t)

	completed := []string{"f2d7a6f58d8c41eb9bd2726306620065"}
	problem, err := client.FetchNextProblem(context.Background(), "", completed)
	require.NoError(t, err)
	assert.NotEqual(t, "f2d7a6f58d8c41eb9bd2726306620065", problem.ID)

	req, ok := fake.LastRequest("/task/next")
	require.True(t, ok)
	var sent []string
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, completed, sent)
}

func TestFetchFirstProblem(t *testing.T) {
	client, _ := newTestAPI(t)

	problem, err := client.FetchFirstProblem(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, problem.ID)
	assert.NotEmpty(t, problem.Prompt)
}

func TestSubmitAnswer(t *testing.T) {
	client, _ := newTestAPI(t)
	ctx := context.Background()

	result, err := client.SubmitAnswer(ctx, "", models.Answer{
		TaskID: "f2d7a6f58d8c41eb9bd2726306620065",
		Text:   `int a = 6; int b = 9; System.out.println(Math.max(a, b));`,
	})
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.NotEmpty(t, result.Explanation)
	assert.NotEmpty(t, result.ResourceID)

	result, err = client.SubmitAnswer(ctx, "", models.Answer{
		TaskID: "f2d7a6f58d8c41eb9bd2726306620065",
		Text:   `print(max(6, 9))`,
	})
	require.NoError(t, err)
	assert.False(t, result.Correct)
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		client := api.NewClient(url, api.WithTimeout(time.Second))
		err := client.Ping(context.Background())
		assert.True(t, api.IsTransport(err))
		assert.False(t, api.IsStatus(err))
	})

	t.Run("timeout is transport", func(t *testing.T) {
		fake := apitest.NewServer(nil, nil)
		fake.DelayPath("/answer", time.Second)
		srv := httptest.NewServer(fake.Handler())
		defer srv.Close()

		client := api.NewClient(srv.URL, api.WithTimeout(50*time.Millisecond))
		_, err := client.SubmitAnswer(context.Background(), "", models.Answer{TaskID: "x", Text: "y"})
		assert.True(t, api.IsTransport(err))
	})

	t.Run("status", func(t *testing.T) {
		client, fake := newTestAPI(t)
		fake.FailWith("/answer", http.StatusServiceUnavailable)

		_, err := client.SubmitAnswer(context.Background(), "", models.Answer{TaskID: "x", Text: "y"})
		assert.True(t, api.IsStatus(err))
		assert.Equal(t, http.StatusServiceUnavailable, api.StatusCode(err))
	})

	t.Run("decode", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"explanation": 42`))
		}))
		defer srv.Close()

		client := api.NewClient(srv.URL)
		_, err := client.SubmitAnswer(context.Background(), "", models.Answer{TaskID: "x", Text: "y"})
		assert.True(t, api.IsDecode(err))
	})
}
