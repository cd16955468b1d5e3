package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/judo-tournament/brackets"
	"github.com/Dosada05/judo-tournament/models"
	"github.com/Dosada05/judo-tournament/repositories"
	"github.com/Dosada05/judo-tournament/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTournamentService struct {
	services.TournamentService
	created    services.CreateTournamentInput
	filter     repositories.ListTournamentsFilter
	tatami     int
	err        error
	leaderErr  error
	tournament *models.Tournament
}

func (s *stubTournamentService) Create(ctx context.Context, input services.CreateTournamentInput) (*models.Tournament, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Tournament{ID: "t1", CompetitionID: input.CompetitionID, CategoryID: input.CategoryID, AthleteIDs: input.AthleteIDs}, nil
}

func (s *stubTournamentService) Get(ctx context.Context, id string) (*models.Tournament, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tournament, nil
}

func (s *stubTournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	s.filter = filter
	return []models.Tournament{}, s.err
}

func (s *stubTournamentService) Leaderboard(ctx context.Context, id string) ([]services.LeaderboardEntry, error) {
	if s.leaderErr != nil {
		return nil, s.leaderErr
	}
	return []services.LeaderboardEntry{{Place: 1, AthleteID: "a1"}, {Place: 2, AthleteID: "a2"}}, nil
}

func (s *stubTournamentService) ReserveTatami(ctx context.Context, id string, tatamiNumber int) error {
	s.tatami = tatamiNumber
	if tatamiNumber < 1 {
		return services.ErrInvalidTatamiNumber
	}
	return s.err
}

func (s *stubTournamentService) Delete(ctx context.Context, id string) error {
	return s.err
}

type stubMatchService struct {
	services.MatchService
	input services.UpdateMatchInput
	err   error
}

func (s *stubMatchService) Get(ctx context.Context, id string) (*models.Match, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Match{ID: id}, nil
}

func (s *stubMatchService) Update(ctx context.Context, id string, input services.UpdateMatchInput) (*models.Match, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Match{ID: id, WinnerAthleteID: input.WinnerAthleteID}, nil
}

func newTestRouter(ts services.TournamentService, ms services.MatchService) http.Handler {
	th := NewTournamentHandler(ts)
	mh := NewMatchHandler(ms)
	r := chi.NewRouter()
	r.Post("/tournaments", th.CreateHandler)
	r.Get("/tournaments", th.ListHandler)
	r.Get("/tournaments/{tournamentID}", th.GetByIDHandler)
	r.Get("/tournaments/{tournamentID}/leaderboard", th.LeaderboardHandler)
	r.Patch("/tournaments/{tournamentID}/tatami", th.ReserveTatamiHandler)
	r.Delete("/tournaments/{tournamentID}", th.DeleteHandler)
	r.Get("/matches/{matchID}", mh.GetByIDHandler)
	r.Patch("/matches/{matchID}", mh.UpdateHandler)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env map[string]json.RawMessage
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestTournamentHandler_Create(t *testing.T) {
	ts := &stubTournamentService{}
	router := newTestRouter(ts, &stubMatchService{})

	rec, env := do(t, router, http.MethodPost, "/tournaments",
		`{"competition_id":"c1","category_id":"-73","athlete_ids":["a1","a2","a3"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, env, "tournament")
	assert.Equal(t, []string{"a1", "a2", "a3"}, ts.created.AthleteIDs)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestTournamentHandler_CreateBadBody(t *testing.T) {
	router := newTestRouter(&stubTournamentService{}, &stubMatchService{})

	tests := map[string]string{
		"empty":         ``,
		"malformed":     `{"competition_id":`,
		"unknown field": `{"competition_id":"c1","seed":1}`,
		"wrong type":    `{"athlete_ids":"a1"}`,
		"two values":    `{}{}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec, env := do(t, router, http.MethodPost, "/tournaments", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, env, "error")
		})
	}
}

func TestTournamentHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrNoAthletes, http.StatusBadRequest},
		{services.ErrDuplicateAthlete, http.StatusBadRequest},
		{services.ErrTournamentConflict, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", services.ErrTournamentVersionConflict), http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			router := newTestRouter(&stubTournamentService{err: tt.err}, &stubMatchService{})
			rec, _ := do(t, router, http.MethodPost, "/tournaments", `{"competition_id":"c1","category_id":"x","athlete_ids":[]}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTournamentHandler_Get(t *testing.T) {
	router := newTestRouter(&stubTournamentService{tournament: &models.Tournament{ID: "t1"}}, &stubMatchService{})
	rec, env := do(t, router, http.MethodGet, "/tournaments/t1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var tournament models.Tournament
	require.NoError(t, json.Unmarshal(env["tournament"], &tournament))
	assert.Equal(t, "t1", tournament.ID)

	router = newTestRouter(&stubTournamentService{err: services.ErrTournamentNotFound}, &stubMatchService{})
	rec, _ = do(t, router, http.MethodGet, "/tournaments/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTournamentHandler_ListFilters(t *testing.T) {
	ts := &stubTournamentService{}
	router := newTestRouter(ts, &stubMatchService{})

	rec, _ := do(t, router, http.MethodGet, "/tournaments?competition_id=c1&finished=true&offset=40", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ts.filter.CompetitionID)
	assert.Equal(t, "c1", *ts.filter.CompetitionID)
	assert.Nil(t, ts.filter.CategoryID)
	require.NotNil(t, ts.filter.Finished)
	assert.True(t, *ts.filter.Finished)
	assert.Equal(t, defaultListLimit, ts.filter.Limit)
	assert.Equal(t, 40, ts.filter.Offset)

	rec, _ = do(t, router, http.MethodGet, "/tournaments?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, router, http.MethodGet, "/tournaments?finished=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTournamentHandler_Leaderboard(t *testing.T) {
	router := newTestRouter(&stubTournamentService{}, &stubMatchService{})
	rec, env := do(t, router, http.MethodGet, "/tournaments/t1/leaderboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var board []services.LeaderboardEntry
	require.NoError(t, json.Unmarshal(env["leaderboard"], &board))
	assert.Len(t, board, 2)

	router = newTestRouter(&stubTournamentService{leaderErr: services.ErrTournamentNotFinished}, &stubMatchService{})
	rec, env = do(t, router, http.MethodGet, "/tournaments/t1/leaderboard", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env["error"]), "not finished")
}

func TestTournamentHandler_TatamiAndDelete(t *testing.T) {
	ts := &stubTournamentService{}
	router := newTestRouter(ts, &stubMatchService{})

	rec, _ := do(t, router, http.MethodPatch, "/tournaments/t1/tatami", `{"tatami_number":3}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 3, ts.tatami)

	rec, _ = do(t, router, http.MethodPatch, "/tournaments/t1/tatami", `{"tatami_number":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, router, http.MethodDelete, "/tournaments/t1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMatchHandler_Update(t *testing.T) {
	ms := &stubMatchService{}
	router := newTestRouter(&stubTournamentService{}, ms)

	rec, env := do(t, router, http.MethodPatch, "/matches/m1", `{"winner_athlete_id":"a1","is_over":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ms.input.WinnerAthleteID)
	assert.Equal(t, "a1", *ms.input.WinnerAthleteID)
	require.NotNil(t, ms.input.IsOver)
	assert.True(t, *ms.input.IsOver)
	assert.Nil(t, ms.input.IsStarted)
	assert.Contains(t, env, "match")
}

func TestMatchHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrMatchNotFound, http.StatusNotFound},
		{services.ErrAthleteNotInMatch, http.StatusBadRequest},
		{fmt.Errorf("round 1 match 0: %w", brackets.ErrSlotAlreadyOccupied), http.StatusConflict},
		{fmt.Errorf("round 0 match 2: %w", brackets.ErrUnplayableMatch), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			router := newTestRouter(&stubTournamentService{}, &stubMatchService{err: tt.err})
			rec, _ := do(t, router, http.MethodPatch, "/matches/m1", `{"winner_athlete_id":"a1"}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	router := newTestRouter(&stubTournamentService{}, &stubMatchService{err: services.ErrMatchNotFound})
	rec, _ := do(t, router, http.MethodGet, "/matches/m1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://judo.example")

	assert.True(t, originChecker([]string{"*"})(req))
	assert.True(t, originChecker([]string{"https://judo.example"})(req))
	assert.False(t, originChecker([]string{"https://other.example"})(req))
}
