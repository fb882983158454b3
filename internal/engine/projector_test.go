package engine

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/mholzi/spyster/internal/content"
)

// fixedState builds a deterministic mid-round state: Carol is the spy,
// Alice and Bob hold the first two roles of the pack's first location.
func fixedState(t *testing.T) (*Session, *round, *Roster, *content.Pack) {
	t.Helper()
	pack := testCatalog(t).Pack("classic")
	if pack == nil {
		t.Fatal("classic pack missing")
	}
	loc := &pack.Locations[0]

	s := newSession("classic", 3, 5*time.Minute, time.Minute)
	s.Host = "Alice"
	s.Round = 1

	roster := NewRoster()
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		p, err := roster.Add(name)
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		if name == "Carol" {
			p.IsSpy = true
			continue
		}
		p.RoleID = loc.Roles[i].ID
		p.RoleName = loc.Roles[i].Name
		p.RoleHint = loc.Roles[i].Hint
	}

	return s, newRound(loc, "Carol"), roster, pack
}

func TestProjectHidesSpyFromNonSpies(t *testing.T) {
	s, rd, roster, pack := fixedState(t)
	s.Phase = PhaseQuestioning

	for _, name := range []string{"Alice", "Bob"} {
		v := project(s, rd, roster, pack, name, nil)
		if v.IsSpy {
			t.Errorf("%s marked as spy", name)
		}
		if v.Location != rd.Location.Name {
			t.Errorf("%s location = %q, want %q", name, v.Location, rd.Location.Name)
		}
		if v.Role == "" || v.RoleHint == "" {
			t.Errorf("%s missing role assignment", name)
		}
		if len(v.CandidateLocations) != 0 {
			t.Errorf("%s received the spy's candidate list", name)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("encoding view: %v", err)
		}
		if bytes.Contains(raw, []byte(`"spy"`)) {
			t.Errorf("%s's encoded view names the spy: %s", name, raw)
		}
	}
}

func TestProjectHidesLocationFromSpy(t *testing.T) {
	s, rd, roster, pack := fixedState(t)
	s.Phase = PhaseQuestioning

	v := project(s, rd, roster, pack, "Carol", nil)
	if !v.IsSpy {
		t.Error("spy not marked as spy in own view")
	}
	if v.Location != "" || v.Role != "" || v.RoleHint != "" || len(v.PeerRoles) != 0 {
		t.Error("spy view leaks location or role data")
	}
	if len(v.CandidateLocations) != len(pack.Locations) {
		t.Errorf("candidate locations = %d, want %d", len(v.CandidateLocations), len(pack.Locations))
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	s, rd, roster, pack := fixedState(t)
	s.Phase = PhaseVote
	rd.Ballots["Alice"] = Ballot{Target: "Carol", Confidence: 2}

	first, err := json.Marshal(project(s, rd, roster, pack, "Bob", map[string]int{TimerVote: 42}))
	if err != nil {
		t.Fatalf("encoding view: %v", err)
	}
	second, err := json.Marshal(project(s, rd, roster, pack, "Bob", map[string]int{TimerVote: 42}))
	if err != nil {
		t.Fatalf("encoding view: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("repeated projections differ:\n%s\n%s", first, second)
	}
}

func TestProjectVoteProgressHidesTargets(t *testing.T) {
	s, rd, roster, pack := fixedState(t)
	s.Phase = PhaseVote
	rd.Ballots["Bob"] = Ballot{Target: "Carol", Confidence: 3}

	v := project(s, rd, roster, pack, "Alice", nil)
	if len(v.Voted) != 1 || v.Voted[0] != "Bob" {
		t.Errorf("voted = %v, want [Bob]", v.Voted)
	}
	if v.YouVoted {
		t.Error("Alice reported as having voted")
	}
	if v.Reveal != nil {
		t.Error("ballot targets exposed before reveal")
	}

	own := project(s, rd, roster, pack, "Bob", nil)
	if !own.YouVoted {
		t.Error("Bob's own ballot not reflected")
	}
}

func TestProjectRevealIsTransparent(t *testing.T) {
	s, rd, roster, pack := fixedState(t)
	s.Phase = PhaseReveal
	rd.Ballots["Alice"] = Ballot{Target: "Carol", Confidence: 2}
	rd.Tally = map[string]int{"Carol": 1}
	rd.Convicted = "Carol"
	rd.Outcome = OutcomeSpyConvicted

	v := project(s, rd, roster, pack, "Alice", nil)
	if v.Reveal == nil {
		t.Fatal("no reveal block in reveal phase")
	}
	if v.Reveal.Spy != "Carol" {
		t.Errorf("revealed spy = %s, want Carol", v.Reveal.Spy)
	}
	if v.Reveal.LocationID != rd.Location.ID {
		t.Errorf("revealed location = %s, want %s", v.Reveal.LocationID, rd.Location.ID)
	}
	if v.Reveal.Outcome != OutcomeSpyConvicted {
		t.Errorf("revealed outcome = %s, want %s", v.Reveal.Outcome, OutcomeSpyConvicted)
	}
}

func TestProjectPausedUsesStoredPhase(t *testing.T) {
	s, rd, roster, pack := fixedState(t)
	s.Phase = PhasePaused
	s.ResumePhase = PhaseQuestioning
	rd.Order = []string{"Alice", "Bob", "Carol"}

	v := project(s, rd, roster, pack, "Alice", nil)
	if v.Phase != PhasePaused {
		t.Errorf("phase = %s, want %s", v.Phase, PhasePaused)
	}
	if v.ResumePhase != PhaseQuestioning {
		t.Errorf("resume phase = %s, want %s", v.ResumePhase, PhaseQuestioning)
	}
	// Role privacy still applies while paused.
	if v.Location == "" {
		t.Error("non-spy lost role data while paused")
	}
	if len(v.TurnOrder) != 3 {
		t.Error("turn order missing while paused over questioning")
	}
}

func TestProjectEndComputesWinners(t *testing.T) {
	s, rd, roster, pack := fixedState(t)
	s.Phase = PhaseEnd
	roster.Get("Alice").Score = 6
	roster.Get("Bob").Score = 6
	roster.Get("Carol").Score = -1

	v := project(s, rd, roster, pack, "Carol", nil)
	if len(v.Winners) != 2 || v.Winners[0] != "Alice" || v.Winners[1] != "Bob" {
		t.Errorf("winners = %v, want [Alice Bob]", v.Winners)
	}
}
