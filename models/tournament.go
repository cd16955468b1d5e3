package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BracketRefs is the stored shape of a bracket: rounds of slots, each slot
// either null or the id of a match row. It is kept in a JSONB column.
type BracketRefs [][]*string

func (b BracketRefs) Value() (driver.Value, error) {
	if b == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(b)
}

func (b *BracketRefs) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*b = BracketRefs{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("bracket refs: unsupported source type %T", src)
	}
	var refs BracketRefs
	if err := json.Unmarshal(raw, &refs); err != nil {
		return fmt.Errorf("bracket refs: %w", err)
	}
	if refs == nil {
		refs = BracketRefs{}
	}
	*b = refs
	return nil
}

// Tournament is one category of a competition played as an elimination
// bracket with two recovery brackets.
type Tournament struct {
	ID            string      `json:"id" db:"id"`
	CompetitionID string      `json:"competition_id" db:"competition_id"`
	CategoryID    string      `json:"category_id" db:"category_id"`
	AthleteIDs    []string    `json:"athlete_ids" db:"athlete_ids"`
	Finished      bool        `json:"finished" db:"finished"`
	TatamiNumber  *int        `json:"tatami_number,omitempty" db:"tatami_number"`
	Version       int         `json:"version" db:"version"`
	MainBracket   BracketRefs `json:"main_bracket" db:"main_bracket"`
	Recovery1     BracketRefs `json:"recovery_bracket_1" db:"recovery_bracket_1"`
	Recovery2     BracketRefs `json:"recovery_bracket_2" db:"recovery_bracket_2"`
	ResultsKey    *string     `json:"-" db:"results_key"`
	ResultsURL    *string     `json:"results_url,omitempty" db:"-"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}

// ErrEmptyBracketRefs is returned when a tournament row has no main bracket.
var ErrEmptyBracketRefs = errors.New("tournament has no main bracket")
