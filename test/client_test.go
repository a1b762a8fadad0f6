//go:build integration_test || all_tests

package test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/golang-jwt/jwt/v5"

	"github.com/2beens/fittrack/internal/auth"
)

type testUser struct {
	ID       int
	Username string
	Password string
	Tokens   auth.TokenPair
}

func (s *IntegrationTestSuite) do(method, path, token string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequest(method, serverEndpoint+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(req)
}

func (s *IntegrationTestSuite) send(req *http.Request) (int, []byte) {
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) login(username, password string) (int, auth.TokenPair) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req, err := http.NewRequest(http.MethodPost, serverEndpoint+"/auth/token", strings.NewReader(form.Encode()))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, body := s.send(req)
	var pair auth.TokenPair
	if status == http.StatusOK {
		s.Require().NoError(json.Unmarshal(body, &pair))
	}
	return status, pair
}

// newUser registers a random user and logs it in.
func (s *IntegrationTestSuite) newUser() *testUser {
	user := &testUser{
		Username: gofakeit.Username() + gofakeit.DigitN(6),
		Password: gofakeit.Password(true, true, true, false, false, 14),
	}
	status, body := s.do(http.MethodPost, "/auth/", "", auth.RegisterParams{
		Username: user.Username,
		Email:    gofakeit.DigitN(8) + gofakeit.Email(),
		Password: user.Password,
	})
	s.Require().Equal(http.StatusCreated, status, string(body))

	status, user.Tokens = s.login(user.Username, user.Password)
	s.Require().Equal(http.StatusOK, status)

	claims, err := parseUnverified(user.Tokens.AccessToken)
	s.Require().NoError(err)
	user.ID = claims.UserID
	return user
}

func parseUnverified(token string) (*auth.Claims, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
