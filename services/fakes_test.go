package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/judo-tournament/models"
	"github.com/Dosada05/judo-tournament/realtime"
	"github.com/Dosada05/judo-tournament/repositories"
	"github.com/Dosada05/judo-tournament/storage"
)

// memoryDB backs both fake repositories. WithinTx snapshots the data and
// restores it when fn fails, which is enough to observe rollbacks.
type memoryDB struct {
	mu          sync.Mutex
	tournaments map[string]models.Tournament
	matches     map[string]models.Match
	seq         int
	failUpsert  error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		tournaments: make(map[string]models.Tournament),
		matches:     make(map[string]models.Match),
	}
}

func (db *memoryDB) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	db.mu.Lock()
	tournaments := make(map[string]models.Tournament, len(db.tournaments))
	for k, v := range db.tournaments {
		tournaments[k] = v
	}
	matches := make(map[string]models.Match, len(db.matches))
	for k, v := range db.matches {
		matches[k] = v
	}
	db.mu.Unlock()

	if err := fn(nil); err != nil {
		db.mu.Lock()
		db.tournaments, db.matches = tournaments, matches
		db.mu.Unlock()
		return err
	}
	return nil
}

type fakeTournamentRepo struct{ db *memoryDB }

func (r fakeTournamentRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.tournaments {
		if other.CompetitionID == t.CompetitionID && other.CategoryID == t.CategoryID {
			return repositories.ErrTournamentConflict
		}
	}
	r.db.seq++
	t.Version = 1
	t.CreatedAt = time.Unix(int64(r.db.seq), 0).UTC()
	t.UpdatedAt = t.CreatedAt
	stored := *t
	stored.Matches = nil
	r.db.tournaments[t.ID] = stored
	return nil
}

func (r fakeTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Tournament, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return &t, nil
}

func (r fakeTournamentRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Tournament, error) {
	return r.GetByID(ctx, exec, id)
}

func (r fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Tournament, 0)
	for _, t := range r.db.tournaments {
		if filter.CompetitionID != nil && t.CompetitionID != *filter.CompetitionID {
			continue
		}
		if filter.Finished != nil && t.Finished != *filter.Finished {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeTournamentRepo) UpdateBrackets(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.tournaments[t.ID]
	if !ok || stored.Version != t.Version {
		return repositories.ErrTournamentVersionConflict
	}
	stored.MainBracket, stored.Recovery1, stored.Recovery2 = t.MainBracket, t.Recovery1, t.Recovery2
	stored.Finished = t.Finished
	stored.Version++
	t.Version = stored.Version
	r.db.tournaments[t.ID] = stored
	return nil
}

func (r fakeTournamentRepo) UpdateTatami(ctx context.Context, id string, tatamiNumber int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.TatamiNumber = &tatamiNumber
	r.db.tournaments[id] = t
	return nil
}

func (r fakeTournamentRepo) UpdateResultsKey(ctx context.Context, exec repositories.SQLExecutor, id string, resultsKey *string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	t, ok := r.db.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.ResultsKey = resultsKey
	r.db.tournaments[id] = t
	return nil
}

func (r fakeTournamentRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.db.tournaments, id)
	return nil
}

type fakeMatchRepo struct{ db *memoryDB }

func (r fakeMatchRepo) UpsertMany(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failUpsert != nil {
		return r.db.failUpsert
	}
	for _, m := range matches {
		stored, ok := r.db.matches[m.ID]
		if !ok {
			r.db.seq++
			stored = *m
			stored.CreatedAt = time.Unix(int64(r.db.seq), 0).UTC()
		} else {
			stored.WhiteAthleteID, stored.RedAthleteID, stored.WinnerAthleteID = m.WhiteAthleteID, m.RedAthleteID, m.WinnerAthleteID
			stored.LoserRecovered = m.LoserRecovered
			stored.MatchType = m.MatchType
		}
		r.db.matches[m.ID] = stored
	}
	return nil
}

func (r fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.Match, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return &m, nil
}

func (r fakeMatchRepo) ListByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) ([]models.Match, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range r.db.matches {
		if m.TournamentID == tournamentID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r fakeMatchRepo) UpdateDetails(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	stored, ok := r.db.matches[m.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	stored.IsStarted, stored.IsOver, stored.Scores = m.IsStarted, m.IsOver, m.Scores
	r.db.matches[m.ID] = stored
	return nil
}

func (r fakeMatchRepo) DeleteByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, m := range r.db.matches {
		if m.TournamentID == tournamentID {
			delete(r.db.matches, id)
		}
	}
	return nil
}

type recordingHub struct {
	mu       sync.Mutex
	messages []realtime.Message
}

func (h *recordingHub) BroadcastToRoom(roomID string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, message.(realtime.Message))
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.messages))
	for i, m := range h.messages {
		out[i] = m.Type
	}
	return out
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte)}
}

func (u *memoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.fail {
		return nil, errors.New("bucket unavailable")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.example.org/" + key
}

type testEnv struct {
	db          *memoryDB
	hub         *recordingHub
	uploader    *memoryUploader
	tournaments TournamentService
	matches     MatchService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemoryDB()
	hub := &recordingHub{}
	uploader := newMemoryUploader()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locks := NewTournamentLocks()

	tournamentRepo := fakeTournamentRepo{db: db}
	matchRepo := fakeMatchRepo{db: db}
	return &testEnv{
		db:          db,
		hub:         hub,
		uploader:    uploader,
		tournaments: NewTournamentService(db, tournamentRepo, matchRepo, locks, hub, uploader, logger),
		matches:     NewMatchService(db, tournamentRepo, matchRepo, locks, hub, uploader, logger),
	}
}
