package engine

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// Participant is one joined seat. A participant persists across
// disconnects, preserving score and role, until explicitly removed or
// the reconnection window closes.
type Participant struct {
	Name            string
	Token           string
	Connected       bool
	JoinedAt        time.Time
	FirstDisconnect time.Time // set once, never reset within a window
	Score           int

	// Per-round assignment, nil-equivalent outside ROLES/QUESTIONING/VOTE.
	RoleID   string
	RoleName string
	RoleHint string
	IsSpy    bool
}

// TokenPrefix is the only form of the resumption token that may appear
// in logs.
func (p *Participant) TokenPrefix() string {
	if len(p.Token) < 8 {
		return p.Token
	}
	return p.Token[:8]
}

func (p *Participant) clearRole() {
	p.RoleID = ""
	p.RoleName = ""
	p.RoleHint = ""
	p.IsSpy = false
}

// Roster owns the set of seats, keyed by display name. Names are
// unique, case-sensitive and immutable for the session.
type Roster struct {
	participants map[string]*Participant
}

func NewRoster() *Roster {
	return &Roster{participants: make(map[string]*Participant)}
}

// Add creates a seat for name with a fresh resumption token.
func (r *Roster) Add(name string) (*Participant, error) {
	if _, ok := r.participants[name]; ok {
		return nil, newError(ErrNameTaken, "name %q is already taken", name)
	}
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generating resumption token: %w", err)
	}
	p := &Participant{
		Name:      name,
		Token:     token,
		Connected: true,
		JoinedAt:  time.Now(),
	}
	r.participants[name] = p
	return p, nil
}

// Get returns the participant with the given name, or nil.
func (r *Roster) Get(name string) *Participant {
	return r.participants[name]
}

// ByToken returns the participant holding the given resumption token,
// or nil.
func (r *Roster) ByToken(token string) *Participant {
	if token == "" {
		return nil
	}
	for _, p := range r.participants {
		if p.Token == token {
			return p
		}
	}
	return nil
}

// Remove frees the seat. Removing an unknown name is a no-op.
func (r *Roster) Remove(name string) {
	delete(r.participants, name)
}

// Len returns the number of seats, connected or not.
func (r *Roster) Len() int {
	return len(r.participants)
}

// All returns every participant ordered by join time.
func (r *Roster) All() []*Participant {
	out := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// Connected returns the connected participants ordered by join time.
func (r *Roster) Connected() []*Participant {
	all := r.All()
	out := all[:0]
	for _, p := range all {
		if p.Connected {
			out = append(out, p)
		}
	}
	return out
}

// newToken returns 128 bits of hex-encoded entropy from the platform
// CSPRNG.
func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
