package engine

// Phase is one discrete stage of the round/game lifecycle.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseRoles       Phase = "roles"
	PhaseQuestioning Phase = "questioning"
	PhaseVote        Phase = "vote"
	PhaseReveal      Phase = "reveal"
	PhaseScoring     Phase = "scoring"
	PhaseEnd         Phase = "end"
	PhasePaused      Phase = "paused"
)

func (p Phase) String() string {
	return string(p)
}

// transitions is the authoritative edge set. A requested transition not
// listed here fails with ErrInvalidPhaseTransition and leaves the phase
// unchanged. PAUSED may resume into any of the other seven phases; the
// resume target is the phase captured when PAUSED was entered.
var transitions = map[Phase][]Phase{
	PhaseLobby:       {PhaseRoles, PhasePaused},
	PhaseRoles:       {PhaseQuestioning, PhasePaused},
	PhaseQuestioning: {PhaseVote, PhasePaused},
	PhaseVote:        {PhaseReveal, PhasePaused},
	PhaseReveal:      {PhaseScoring, PhasePaused},
	PhaseScoring:     {PhaseRoles, PhaseEnd, PhasePaused},
	PhaseEnd:         {PhaseLobby, PhasePaused},
	PhasePaused: {
		PhaseLobby, PhaseRoles, PhaseQuestioning, PhaseVote,
		PhaseReveal, PhaseScoring, PhaseEnd,
	},
}

// CanTransition reports whether the edge p -> target is legal.
func (p Phase) CanTransition(target Phase) bool {
	for _, t := range transitions[p] {
		if t == target {
			return true
		}
	}
	return false
}
