package engine

import (
	"sort"

	"github.com/mholzi/spyster/internal/content"
)

// PlayerView is the roster entry every participant may see.
type PlayerView struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Score     int    `json:"score"`
	IsHost    bool   `json:"is_host,omitempty"`
}

// RevealView is the full-transparency block projected from REVEAL
// onwards, once privacy's purpose has ended.
type RevealView struct {
	Spy          string            `json:"spy"`
	LocationID   string            `json:"location_id"`
	LocationName string            `json:"location_name"`
	Ballots      map[string]Ballot `json:"ballots"`
	Guess        *SpyGuess         `json:"guess,omitempty"`
	Tally        map[string]int    `json:"tally"`
	Convicted    string            `json:"convicted,omitempty"`
	Outcome      string            `json:"outcome,omitempty"`
	Deltas       map[string]int    `json:"deltas,omitempty"`
}

// View is the privacy-filtered snapshot built for exactly one named
// participant. It is never shared between participants.
type View struct {
	Type        string         `json:"type"`
	Phase       Phase          `json:"phase"`
	ResumePhase Phase          `json:"resume_phase,omitempty"`
	You         string         `json:"you"`
	IsHost      bool           `json:"is_host,omitempty"`
	Round       int            `json:"round,omitempty"`
	Rounds      int            `json:"rounds"`
	Players     []PlayerView   `json:"players"`
	Timers      map[string]int `json:"timers,omitempty"`

	// Private role information, ROLES through VOTE.
	IsSpy              bool     `json:"is_spy,omitempty"`
	Location           string   `json:"location,omitempty"`
	Atmosphere         string   `json:"atmosphere,omitempty"`
	Role               string   `json:"role,omitempty"`
	RoleHint           string   `json:"role_hint,omitempty"`
	PeerRoles          []string `json:"peer_roles,omitempty"`
	CandidateLocations []string `json:"candidate_locations,omitempty"`

	// Questioning turn state.
	TurnOrder  []string `json:"turn_order,omitempty"`
	Questioner string   `json:"questioner,omitempty"`
	Answerer   string   `json:"answerer,omitempty"`

	// Voting progress: who has acted, without revealing targets.
	Voted    []string `json:"voted,omitempty"`
	YouVoted bool     `json:"you_voted,omitempty"`

	Reveal  *RevealView   `json:"reveal,omitempty"`
	Winners []string      `json:"winners,omitempty"`
	History []RoundRecord `json:"history,omitempty"`
}

// project builds the view of the current state for one participant.
// Deterministic for a fixed state: list orderings are stable, so
// repeated projections within a phase are byte-identical once encoded.
func project(s *Session, rd *round, roster *Roster, pack *content.Pack, target string, timers map[string]int) *View {
	v := &View{
		Type:   "state",
		Phase:  s.Phase,
		You:    target,
		IsHost: target == s.Host,
		Round:  s.Round,
		Rounds: s.Rounds,
		Timers: timers,
	}
	if s.Phase == PhasePaused {
		v.ResumePhase = s.ResumePhase
	}

	for _, p := range roster.All() {
		v.Players = append(v.Players, PlayerView{
			Name:      p.Name,
			Connected: p.Connected,
			Score:     p.Score,
			IsHost:    p.Name == s.Host,
		})
	}

	phase := s.Phase
	if phase == PhasePaused {
		phase = s.ResumePhase
	}

	if rd != nil {
		switch phase {
		case PhaseRoles, PhaseQuestioning, PhaseVote:
			projectRole(v, rd, roster, pack, target)
		case PhaseReveal, PhaseScoring, PhaseEnd:
			v.Reveal = &RevealView{
				Spy:          rd.Spy,
				LocationID:   rd.Location.ID,
				LocationName: rd.Location.Name,
				Ballots:      rd.Ballots,
				Guess:        rd.Guess,
				Tally:        rd.Tally,
				Convicted:    rd.Convicted,
				Outcome:      rd.Outcome,
				Deltas:       rd.Deltas,
			}
		}

		if phase == PhaseQuestioning {
			v.TurnOrder = rd.Order
			v.Questioner = rd.questioner()
			v.Answerer = rd.answerer()
		}
		if phase == PhaseVote {
			v.Voted = actedNames(rd)
			_, v.YouVoted = rd.Ballots[target]
			if rd.Guess != nil && rd.Spy == target {
				v.YouVoted = true
			}
		}
	}

	if phase == PhaseEnd {
		scores := make(map[string]int, roster.Len())
		for _, p := range roster.All() {
			scores[p.Name] = p.Score
		}
		v.Winners = Winners(scores)
	}

	return v
}

// projectRole fills in the private role block. A non-spy never sees
// the spy's identity, the spy never sees the location.
func projectRole(v *View, rd *round, roster *Roster, pack *content.Pack, target string) {
	p := roster.Get(target)
	if p == nil {
		return
	}

	if p.IsSpy {
		v.IsSpy = true
		v.CandidateLocations = pack.LocationNames()
		return
	}

	v.Location = rd.Location.Name
	v.Atmosphere = rd.Location.Atmosphere
	v.Role = p.RoleName
	v.RoleHint = p.RoleHint

	peers := make([]string, 0, len(rd.Location.Roles)-1)
	for _, role := range rd.Location.Roles {
		if role.ID != p.RoleID {
			peers = append(peers, role.Name)
		}
	}
	sort.Strings(peers)
	v.PeerRoles = peers
}

// actedNames lists everyone who has cast a ballot, plus the spy once a
// location guess is in, sorted for stable output.
func actedNames(rd *round) []string {
	names := make([]string, 0, len(rd.Ballots))
	for name := range rd.Ballots {
		names = append(names, name)
	}
	if rd.Guess != nil {
		names = append(names, rd.Spy)
	}
	sort.Strings(names)
	return names
}
