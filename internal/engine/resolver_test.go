package engine

import (
	"reflect"
	"testing"
)

func ballot(target string, confidence int) Ballot {
	return Ballot{Target: target, Confidence: confidence}
}

func abstention() Ballot {
	return Ballot{Abstained: true}
}

func TestTallyVotes(t *testing.T) {
	ballots := map[string]Ballot{
		"Alice": ballot("Bob", 2),
		"Bob":   ballot("Alice", 1),
		"Carol": ballot("Bob", 3),
		"Dave":  abstention(),
	}
	got := TallyVotes(ballots)
	want := map[string]int{"Bob": 2, "Alice": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tally = %v, want %v", got, want)
	}
}

func TestConvictTieBreaksLexicographically(t *testing.T) {
	tests := []struct {
		name  string
		tally map[string]int
		want  string
	}{
		{"clear majority", map[string]int{"Bob": 3, "Alice": 1}, "Bob"},
		{"two-way tie", map[string]int{"Bob": 2, "Alice": 2}, "Alice"},
		{"three-way tie", map[string]int{"Carol": 1, "Bob": 1, "Alice": 1}, "Alice"},
		{"empty tally", map[string]int{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convict(tt.tally); got != tt.want {
				t.Errorf("convict(%v) = %q, want %q", tt.tally, got, tt.want)
			}
		})
	}
}

func TestResolveSpyConvicted(t *testing.T) {
	ballots := map[string]Ballot{
		"Alice": ballot("Spy", 1),
		"Bob":   ballot("Spy", 2),
		"Carol": ballot("Spy", 3),
		"Spy":   ballot("Alice", 1),
	}
	res := Resolve(ballots, "Spy", nil)

	if res.Outcome != OutcomeSpyConvicted {
		t.Errorf("outcome = %s, want %s", res.Outcome, OutcomeSpyConvicted)
	}
	if res.Convicted != "Spy" {
		t.Errorf("convicted = %s, want Spy", res.Convicted)
	}
	want := map[string]int{"Alice": 2, "Bob": 4, "Carol": 6, "Spy": -1}
	if !reflect.DeepEqual(res.Deltas, want) {
		t.Errorf("deltas = %v, want %v", res.Deltas, want)
	}
}

func TestResolveInnocentConvicted(t *testing.T) {
	ballots := map[string]Ballot{
		"Alice": ballot("Bob", 3),
		"Bob":   ballot("Spy", 1),
		"Carol": ballot("Bob", 2),
		"Spy":   ballot("Bob", 2),
	}
	res := Resolve(ballots, "Spy", nil)

	if res.Outcome != OutcomeInnocentConvicted {
		t.Errorf("outcome = %s, want %s", res.Outcome, OutcomeInnocentConvicted)
	}
	if res.Convicted != "Bob" {
		t.Errorf("convicted = %s, want Bob", res.Convicted)
	}
	// Voters for Bob lose their wager, Bob's correct vote pays double.
	want := map[string]int{"Alice": -3, "Bob": 2, "Carol": -2, "Spy": -2}
	if !reflect.DeepEqual(res.Deltas, want) {
		t.Errorf("deltas = %v, want %v", res.Deltas, want)
	}
}

func TestResolveDoubleAgent(t *testing.T) {
	tests := []struct {
		name    string
		spyVote Ballot
		others  map[string]Ballot
		bonus   bool
	}{
		{
			name:    "full confidence on the convicted innocent",
			spyVote: ballot("Bob", 3),
			others: map[string]Ballot{
				"Alice": ballot("Bob", 2),
				"Carol": ballot("Bob", 1),
			},
			bonus: true,
		},
		{
			name:    "lower confidence earns nothing",
			spyVote: ballot("Bob", 2),
			others: map[string]Ballot{
				"Alice": ballot("Bob", 2),
				"Carol": ballot("Bob", 1),
			},
			bonus: false,
		},
		{
			name:    "target not convicted earns nothing",
			spyVote: ballot("Carol", 3),
			others: map[string]Ballot{
				"Alice": ballot("Bob", 2),
				"Carol": ballot("Bob", 1),
			},
			bonus: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ballots := map[string]Ballot{"Spy": tt.spyVote}
			for name, b := range tt.others {
				ballots[name] = b
			}
			res := Resolve(ballots, "Spy", nil)

			base := -tt.spyVote.Confidence // spy's vote targets an innocent
			want := base
			if tt.bonus {
				want += doubleAgentBonus
			}
			if res.Deltas["Spy"] != want {
				t.Errorf("spy delta = %d, want %d", res.Deltas["Spy"], want)
			}
		})
	}
}

func TestResolveGuessMootsBallots(t *testing.T) {
	ballots := map[string]Ballot{
		"Alice": ballot("Spy", 3),
		"Bob":   ballot("Spy", 3),
	}

	correct := Resolve(ballots, "Spy", &SpyGuess{LocationID: "casino", Correct: true})
	if correct.Outcome != OutcomeSpyGuessed {
		t.Errorf("outcome = %s, want %s", correct.Outcome, OutcomeSpyGuessed)
	}
	want := map[string]int{"Alice": 0, "Bob": 0, "Spy": spyGuessReward}
	if !reflect.DeepEqual(correct.Deltas, want) {
		t.Errorf("deltas = %v, want %v", correct.Deltas, want)
	}

	wrong := Resolve(ballots, "Spy", &SpyGuess{LocationID: "airplane", Correct: false})
	if wrong.Outcome != OutcomeSpyGuessFailed {
		t.Errorf("outcome = %s, want %s", wrong.Outcome, OutcomeSpyGuessFailed)
	}
	if wrong.Deltas["Spy"] != spyGuessPenalty {
		t.Errorf("spy delta = %d, want %d", wrong.Deltas["Spy"], spyGuessPenalty)
	}
}

func TestResolveAllAbstain(t *testing.T) {
	ballots := map[string]Ballot{
		"Alice": abstention(),
		"Bob":   abstention(),
		"Spy":   abstention(),
	}
	res := Resolve(ballots, "Spy", nil)

	if res.Outcome != OutcomeNoConviction {
		t.Errorf("outcome = %s, want %s", res.Outcome, OutcomeNoConviction)
	}
	if res.Convicted != "" {
		t.Errorf("convicted = %q, want nobody", res.Convicted)
	}
	for name, d := range res.Deltas {
		if d != 0 {
			t.Errorf("%s delta = %d, want 0", name, d)
		}
	}
}

func TestWinners(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]int
		want   []string
	}{
		{"single winner", map[string]int{"Alice": 6, "Bob": 4}, []string{"Alice"}},
		{"tied co-winners", map[string]int{"Carol": 4, "Alice": 4, "Bob": 2}, []string{"Alice", "Carol"}},
		{"all negative", map[string]int{"Alice": -2, "Bob": -1}, []string{"Bob"}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Winners(tt.scores); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Winners(%v) = %v, want %v", tt.scores, got, tt.want)
			}
		})
	}
}
