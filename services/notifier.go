package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Dosada05/judo-tournament/models"
	"github.com/Dosada05/judo-tournament/realtime"
	"github.com/Dosada05/judo-tournament/repositories"
	"github.com/Dosada05/judo-tournament/storage"
)

// Broadcaster pushes messages to the websocket clients of a room.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type BracketUpdate struct {
	TournamentID string `json:"tournament_id"`
	MatchID      string `json:"match_id"`
	Version      int    `json:"version"`
	Finished     bool   `json:"finished"`
}

type TournamentResults struct {
	TournamentID string             `json:"tournament_id"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
	ResultsURL   string             `json:"results_url,omitempty"`
}

type resultsArchive struct {
	Tournament  *models.Tournament `json:"tournament"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	ArchivedAt  time.Time          `json:"archived_at"`
}

// resultsPublisher tells spectators about stored decisions and archives the
// results of finished tournaments. Failures are logged: the decision they
// follow is already committed.
type resultsPublisher struct {
	hub            Broadcaster
	uploader       storage.FileUploader
	tournamentRepo repositories.TournamentRepository
	logger         *slog.Logger
}

func (p *resultsPublisher) bracketUpdated(t *models.Tournament, matchID string) {
	if p.hub == nil {
		return
	}
	room := realtime.TournamentRoom(t.ID)
	p.hub.BroadcastToRoom(room, realtime.Message{
		Type: realtime.MessageBracketUpdated,
		Payload: BracketUpdate{
			TournamentID: t.ID,
			MatchID:      matchID,
			Version:      t.Version,
			Finished:     t.Finished,
		},
		RoomID: room,
	})
}

func (p *resultsPublisher) tournamentFinished(ctx context.Context, t *models.Tournament, leaderboard []LeaderboardEntry) {
	results := TournamentResults{TournamentID: t.ID, Leaderboard: leaderboard}
	if url, ok := p.archive(ctx, t, leaderboard); ok {
		results.ResultsURL = url
	}

	if p.hub == nil {
		return
	}
	room := realtime.TournamentRoom(t.ID)
	p.hub.BroadcastToRoom(room, realtime.Message{
		Type:    realtime.MessageTournamentFinished,
		Payload: results,
		RoomID:  room,
	})
}

func (p *resultsPublisher) archive(ctx context.Context, t *models.Tournament, leaderboard []LeaderboardEntry) (string, bool) {
	if p.uploader == nil {
		return "", false
	}
	logger := p.logger.With(slog.String("tournament_id", t.ID))

	body, err := json.Marshal(resultsArchive{Tournament: t, Leaderboard: leaderboard, ArchivedAt: time.Now().UTC()})
	if err != nil {
		logger.ErrorContext(ctx, "failed to encode results archive", slog.Any("error", err))
		return "", false
	}

	key := storage.ResultsKey(t.ID)
	result, err := p.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.WarnContext(ctx, "failed to upload results archive", slog.Any("error", err))
		return "", false
	}
	if err := p.tournamentRepo.UpdateResultsKey(ctx, nil, t.ID, &result.Key); err != nil {
		logger.WarnContext(ctx, "failed to store results archive key", slog.Any("error", err))
		return "", false
	}
	t.ResultsKey = &result.Key
	logger.InfoContext(ctx, "results archived", slog.String("key", result.Key))
	return result.Location, true
}

func (p *resultsPublisher) deleteArchive(ctx context.Context, t *models.Tournament) {
	if p.uploader == nil || t.ResultsKey == nil {
		return
	}
	if err := p.uploader.Delete(ctx, *t.ResultsKey); err != nil {
		p.logger.WarnContext(ctx, "failed to delete results archive",
			slog.String("tournament_id", t.ID), slog.Any("error", err))
	}
}

func (p *resultsPublisher) publicURL(t *models.Tournament) *string {
	if p.uploader == nil || t.ResultsKey == nil {
		return nil
	}
	url := p.uploader.GetPublicURL(*t.ResultsKey)
	if url == "" {
		return nil
	}
	return &url
}
