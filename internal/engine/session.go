package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/mholzi/spyster/internal/content"
)

// Session is the singleton game session one engine instance runs.
type Session struct {
	ID            string
	CreatedAt     time.Time
	Host          string
	Phase         Phase
	ResumePhase   Phase // set only while paused
	Round         int   // 1-based, 0 before the first round
	Rounds        int
	RoundDuration time.Duration
	VoteDuration  time.Duration
	PackID        string
}

func newSession(packID string, rounds int, roundDuration, voteDuration time.Duration) *Session {
	return &Session{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now(),
		Phase:         PhaseLobby,
		Rounds:        rounds,
		RoundDuration: roundDuration,
		VoteDuration:  voteDuration,
		PackID:        packID,
	}
}

// Ballot is one participant's submitted vote.
type Ballot struct {
	Target     string    `json:"target,omitempty"`
	Confidence int       `json:"confidence,omitempty"`
	Abstained  bool      `json:"abstained,omitempty"`
	CastAt     time.Time `json:"cast_at"`
}

// SpyGuess records the spy's location guess for the round.
type SpyGuess struct {
	LocationID string    `json:"location_id"`
	Correct    bool      `json:"correct"`
	At         time.Time `json:"at"`
}

// Round outcome labels.
const (
	OutcomeSpyConvicted      = "spy_convicted"
	OutcomeInnocentConvicted = "innocent_convicted"
	OutcomeNoConviction      = "no_conviction"
	OutcomeSpyGuessed        = "spy_guessed"
	OutcomeSpyGuessFailed    = "spy_guess_failed"
)

// round is the transient per-round state, owned by the phase state
// machine and reset at every round start.
type round struct {
	Location *content.Location
	Spy      string
	Order    []string // turn order, permutation of connected names
	Turn     int      // index into Order; questioner asks Order[(Turn+1)%len]
	Ballots  map[string]Ballot
	Guess    *SpyGuess

	// Final vote data, computed when voting closes and before the
	// phase flips to reveal.
	Tally     map[string]int
	Convicted string
	Outcome   string
	Deltas    map[string]int
	scored    bool
}

func newRound(loc *content.Location, spy string) *round {
	return &round{
		Location: loc,
		Spy:      spy,
		Ballots:  make(map[string]Ballot),
	}
}

func (r *round) questioner() string {
	if len(r.Order) == 0 {
		return ""
	}
	return r.Order[r.Turn%len(r.Order)]
}

func (r *round) answerer() string {
	if len(r.Order) == 0 {
		return ""
	}
	return r.Order[(r.Turn+1)%len(r.Order)]
}

// RoundRecord is one archived round, appended to the session history
// when scoring completes and never mutated afterwards.
type RoundRecord struct {
	Round      int            `json:"round"`
	LocationID string         `json:"location_id"`
	Spy        string         `json:"spy"`
	Convicted  string         `json:"convicted,omitempty"`
	Outcome    string         `json:"outcome"`
	Deltas     map[string]int `json:"deltas"`
}
