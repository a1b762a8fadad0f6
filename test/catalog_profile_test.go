//go:build integration_test || all_tests

package test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2beens/fittrack/internal/catalog"
	"github.com/2beens/fittrack/internal/profile"
)

func (s *IntegrationTestSuite) TestCatalog() {
	status, body := s.do(http.MethodGet, "/exercise/fetchall", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var all []catalog.Exercise
	s.Require().NoError(json.Unmarshal(body, &all))
	s.Len(all, len(seedExercises))

	status, body = s.do(http.MethodGet, "/exercise/search?characters=PRESS", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var found []catalog.Exercise
	s.Require().NoError(json.Unmarshal(body, &found))
	s.Require().Len(found, 2)
	s.Equal("Bench press", found[0].ExerciseName)
	s.Equal("Overhead press", found[1].ExerciseName)

	status, body = s.do(http.MethodGet, "/exercise/search?characters=zzz", "", nil)
	s.Equal(http.StatusOK, status)
	s.Equal("[]", string(body))
}

func (s *IntegrationTestSuite) TestProfile() {
	user := s.newUser()
	profilePath := fmt.Sprintf("/profile/%d", user.ID)

	status, body := s.do(http.MethodGet, profilePath, user.Tokens.AccessToken, nil)
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(fmt.Sprintf(`{"user_id":%d,"age":null,"weight":null,"height":null}`, user.ID), string(body))

	age, weight := 33, 81.5
	status, _ = s.do(
		http.MethodPut,
		fmt.Sprintf("/profile/update/%d", user.ID),
		user.Tokens.AccessToken,
		profile.UpdateParams{Age: &age, Weight: &weight},
	)
	s.Require().Equal(http.StatusOK, status)

	status, body = s.do(http.MethodGet, profilePath, user.Tokens.AccessToken, nil)
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(fmt.Sprintf(`{"user_id":%d,"age":33,"weight":81.5,"height":null}`, user.ID), string(body))

	negative := -1
	status, _ = s.do(
		http.MethodPut,
		fmt.Sprintf("/profile/update/%d", user.ID),
		user.Tokens.AccessToken,
		profile.UpdateParams{Height: &negative},
	)
	s.Equal(http.StatusUnprocessableEntity, status)

	other := s.newUser()
	status, _ = s.do(http.MethodGet, profilePath, other.Tokens.AccessToken, nil)
	s.Equal(http.StatusForbidden, status)
}
