package engine

import "sort"

// Scoring constants. Correct votes pay double the wagered confidence,
// incorrect votes cost the confidence itself.
const (
	doubleAgentBonus = 10
	spyGuessReward   = 10
	spyGuessPenalty  = -5
)

// RoundResult is the pure output of resolving a round's ballots. The
// caller applies Deltas to participant scores; the resolver never
// mutates session or participant state.
type RoundResult struct {
	Tally     map[string]int
	Convicted string
	Outcome   string
	Deltas    map[string]int
}

// TallyVotes counts ballots by target, ignoring abstentions. The spy's
// ballot counts like any other; a spy who took the location-guess path
// has no ballot to count.
func TallyVotes(ballots map[string]Ballot) map[string]int {
	tally := make(map[string]int)
	for _, b := range ballots {
		if b.Abstained || b.Target == "" {
			continue
		}
		tally[b.Target]++
	}
	return tally
}

// convict returns the target with the maximum vote count. Ties break
// by lexicographic order of participant name. With zero non-abstaining
// ballots nobody is convicted.
func convict(tally map[string]int) string {
	names := make([]string, 0, len(tally))
	for name := range tally {
		names = append(names, name)
	}
	sort.Strings(names)

	convicted := ""
	best := 0
	for _, name := range names {
		if tally[name] > best {
			best = tally[name]
			convicted = name
		}
	}
	return convicted
}

// Resolve computes the conviction outcome and per-participant score
// deltas for one round.
func Resolve(ballots map[string]Ballot, spy string, guess *SpyGuess) RoundResult {
	res := RoundResult{
		Tally:  TallyVotes(ballots),
		Deltas: make(map[string]int),
	}
	for name := range ballots {
		res.Deltas[name] = 0
	}
	res.Deltas[spy] += 0

	// A location guess moots every ballot: only the spy scores.
	if guess != nil {
		if guess.Correct {
			res.Outcome = OutcomeSpyGuessed
			res.Deltas[spy] = spyGuessReward
		} else {
			res.Outcome = OutcomeSpyGuessFailed
			res.Deltas[spy] = spyGuessPenalty
		}
		return res
	}

	res.Convicted = convict(res.Tally)
	if res.Convicted == "" {
		res.Outcome = OutcomeNoConviction
		return res
	}
	if res.Convicted == spy {
		res.Outcome = OutcomeSpyConvicted
	} else {
		res.Outcome = OutcomeInnocentConvicted
	}

	for voter, b := range ballots {
		if b.Abstained || b.Target == "" {
			continue
		}
		if b.Target == spy {
			res.Deltas[voter] += 2 * b.Confidence
		} else {
			res.Deltas[voter] += -b.Confidence
		}
	}

	// Double Agent: a spy bold enough to vote at full confidence for a
	// non-self participant who ends up convicted.
	if b, ok := ballots[spy]; ok {
		if !b.Abstained && b.Confidence == 3 && b.Target != spy && b.Target == res.Convicted {
			res.Deltas[spy] += doubleAgentBonus
		}
	}

	return res
}

// Winners returns every participant whose cumulative score equals the
// maximum. Ties produce co-winners. The result is sorted by name.
func Winners(scores map[string]int) []string {
	if len(scores) == 0 {
		return nil
	}
	best := 0
	first := true
	for _, s := range scores {
		if first || s > best {
			best = s
			first = false
		}
	}
	var winners []string
	for name, s := range scores {
		if s == best {
			winners = append(winners, name)
		}
	}
	sort.Strings(winners)
	return winners
}
