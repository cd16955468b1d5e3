package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type MatchType string

const (
	MatchTypeMain         MatchType = "main"
	MatchTypeQuarterFinal MatchType = "quarter_final"
	MatchTypeSemiFinal    MatchType = "semi_final"
	MatchTypeFinal12      MatchType = "final_1_2"
	MatchTypeRecovery     MatchType = "recovery"
	MatchTypeFinal35      MatchType = "final_3_5"
)

// MatchScores holds the scoreboard of a match as entered by the table
// officials. The service stores it verbatim.
type MatchScores struct {
	FinalTime      *int `json:"final_time,omitempty"`
	WhiteIppon     int  `json:"white_ippon"`
	WhiteWazaari   int  `json:"white_wazaari"`
	WhitePenalties int  `json:"white_penalties"`
	RedIppon       int  `json:"red_ippon"`
	RedWazaari     int  `json:"red_wazaari"`
	RedPenalties   int  `json:"red_penalties"`
}

func (s MatchScores) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *MatchScores) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = MatchScores{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("match scores: unsupported source type %T", src)
	}
}

// Match is a stored bout. White holds slot 0 of the bracket match, red slot 1.
type Match struct {
	ID              string      `json:"id" db:"id"`
	TournamentID    string      `json:"tournament_id" db:"tournament_id"`
	WhiteAthleteID  *string     `json:"white_athlete_id,omitempty" db:"white_athlete_id"`
	RedAthleteID    *string     `json:"red_athlete_id,omitempty" db:"red_athlete_id"`
	WinnerAthleteID *string     `json:"winner_athlete_id,omitempty" db:"winner_athlete_id"`
	LoserRecovered  bool        `json:"loser_recovered" db:"loser_recovered"`
	IsStarted       bool        `json:"is_started" db:"is_started"`
	IsOver          bool        `json:"is_over" db:"is_over"`
	MatchType       MatchType   `json:"match_type" db:"match_type"`
	Scores          MatchScores `json:"match_scores" db:"match_scores"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}
