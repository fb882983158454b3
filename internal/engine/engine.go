// Package engine implements the authoritative game session: the phase
// state machine, timer registry, participant roster, vote resolution,
// per-participant state projection and the reconnection lifecycle.
//
// All mutation is serialized through a single command loop; inbound
// requests and timer callbacks alike post commands and never touch
// shared state directly. Every accepted mutation is followed by a
// broadcast of per-participant projections built from the committed
// state.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/mholzi/spyster/internal/content"
)

// TimerCaller attributes transitions triggered by timer expiry.
const TimerCaller = "[TIMER]"

// Admin actions accepted over the control protocol.
const (
	ActionPauseGame    = "pause_game"
	ActionResumeGame   = "resume_game"
	ActionEndGame      = "end_game"
	ActionSkipToVote   = "skip_to_vote"
	ActionPlayAgain    = "play_again"
	ActionEndSession   = "end_session"
	ActionAdvanceTurn  = "advance_turn"
	ActionNextRound    = "next_round"
	ActionRemovePlayer = "remove_player"
)

// Options configures a new engine instance.
type Options struct {
	Logger        *slog.Logger
	Catalog       *content.Catalog
	PackID        string
	Rounds        int
	RoundDuration time.Duration
	VoteDuration  time.Duration
	MinPlayers    int
}

// Sinks are the engine's outbound callbacks. Broadcast receives one
// encoded state frame per connected participant; Removed fires when a
// seat is forfeited so the transport can drop the connection.
type Sinks struct {
	Broadcast func(frames map[string][]byte)
	Removed   func(name string)
}

// JoinInfo is returned to a participant on join or resume.
type JoinInfo struct {
	Name      string
	Token     string
	SessionID string
	Host      bool
}

// Overview is a summary of the running session for health and ops.
type Overview struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	Phase        Phase     `json:"phase"`
	Round        int       `json:"round"`
	Rounds       int       `json:"rounds"`
	PackID       string    `json:"pack_id"`
	Participants int       `json:"participants"`
	Connected    int       `json:"connected"`
}

// Engine runs exactly one session. Construct with New, drive with Run.
type Engine struct {
	logger *slog.Logger
	opts   Options
	pack   *content.Pack
	sinks  Sinks

	session *Session
	roster  *Roster
	round   *round
	history []RoundRecord
	timers  *TimerRegistry

	cmds chan command
	done chan struct{}

	// Protocol-fixed durations, held as fields so tests can compress
	// time.
	roleDisplayD time.Duration
	revealDelayD time.Duration
	graceD       time.Duration
	windowD      time.Duration
}

type command struct {
	fn    func() error
	reply chan error
}

// New validates the options and constructs an engine in the lobby
// phase. The active pack must exist in the catalog; without it no
// round can ever start.
func New(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Rounds <= 0 {
		opts.Rounds = 3
	}
	if opts.RoundDuration <= 0 {
		opts.RoundDuration = 300 * time.Second
	}
	if opts.VoteDuration <= 0 {
		opts.VoteDuration = voteDuration
	}
	if opts.MinPlayers < 3 {
		opts.MinPlayers = 3
	}

	pack := opts.Catalog.Pack(opts.PackID)
	if pack == nil {
		return nil, newError(ErrContentValidation, "pack %q not found", opts.PackID)
	}

	return &Engine{
		logger:       opts.Logger,
		opts:         opts,
		pack:         pack,
		session:      newSession(opts.PackID, opts.Rounds, opts.RoundDuration, opts.VoteDuration),
		roster:       NewRoster(),
		timers:       NewTimerRegistry(),
		cmds:         make(chan command),
		done:         make(chan struct{}),
		roleDisplayD: roleDisplayDuration,
		revealDelayD: revealDelayDuration,
		graceD:       disconnectGraceDuration,
		windowD:      reconnectWindowDuration,
	}, nil
}

// SetSinks installs the outbound callbacks. Must be called before Run.
func (e *Engine) SetSinks(s Sinks) {
	e.sinks = s
}

// Run drains the command loop until ctx is cancelled. All session
// mutation happens on this goroutine.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.timers.CancelAll()

	e.logger.Info("session created",
		"session_id", e.session.ID, "pack", e.session.PackID, "rounds", e.session.Rounds)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-e.cmds:
			cmd.reply <- cmd.fn()
		}
	}
}

// do posts fn into the command loop and waits for its result.
func (e *Engine) do(fn func() error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case e.cmds <- cmd:
		return <-cmd.reply
	case <-e.done:
		return newError(ErrSessionExpired, "session is shut down")
	}
}

// post is do for timer callbacks: the result is logged, not returned.
func (e *Engine) post(name string, fn func() error) {
	if err := e.do(fn); err != nil {
		e.logger.Debug("timer action rejected", "timer", name, "error", err)
	}
}

// ---- transitions ----

// transition is the single atomic check-and-set every phase change
// goes through. On a guard failure the phase is left unchanged.
func (e *Engine) transition(to Phase, by string) error {
	from := e.session.Phase
	if !from.CanTransition(to) {
		return newError(ErrInvalidPhaseTransition, "cannot go from %s to %s", from, to)
	}
	e.session.Phase = to
	e.logger.Info("phase transition", "from", from, "to", to, "by", by)
	return nil
}

// broadcast builds one projection per connected participant from the
// just-committed state and hands the batch to the sink.
func (e *Engine) broadcast() {
	if e.sinks.Broadcast == nil {
		return
	}
	timers := e.timerView()
	frames := make(map[string][]byte)
	for _, p := range e.roster.Connected() {
		v := project(e.session, e.round, e.roster, e.pack, p.Name, timers)
		data, err := json.Marshal(v)
		if err != nil {
			e.logger.Error("projection encode failed", "participant", p.Name, "error", err)
			continue
		}
		frames[p.Name] = data
	}
	e.sinks.Broadcast(frames)
}

// timerView reports remaining whole seconds for the phase timers,
// rounded up so every client displays the same count within a second.
func (e *Engine) timerView() map[string]int {
	out := make(map[string]int)
	for _, name := range []string{TimerRoleDisplay, TimerRound, TimerVote, TimerRevealDelay} {
		if left, ok := e.timers.Remaining(name); ok {
			out[name] = int(math.Ceil(left.Seconds()))
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ---- join / resume / disconnect ----

// Join seats a new participant in the lobby. The first seat becomes
// the host.
func (e *Engine) Join(name string) (JoinInfo, error) {
	var info JoinInfo
	err := e.do(func() error {
		if err := validateName(name); err != nil {
			return err
		}
		switch e.session.Phase {
		case PhaseLobby:
		case PhaseEnd:
			return newError(ErrGameAlreadyEnded, "the game has ended")
		default:
			return newError(ErrInvalidPhaseTransition, "joins are only accepted in the lobby")
		}

		p, err := e.roster.Add(name)
		if err != nil {
			return err
		}
		if e.session.Host == "" {
			e.session.Host = name
		}
		info = JoinInfo{
			Name:      p.Name,
			Token:     p.Token,
			SessionID: e.session.ID,
			Host:      e.session.Host == name,
		}
		e.logger.Info("participant joined",
			"name", name, "host", info.Host, "token_prefix", p.TokenPrefix())
		e.broadcast()
		return nil
	})
	return info, err
}

// Resume restores a disconnected seat. The reconnect window, once
// started from the first disconnect, keeps running: it is an absolute
// cap, not a per-attempt grace period.
func (e *Engine) Resume(token string) (JoinInfo, error) {
	var info JoinInfo
	err := e.do(func() error {
		p := e.roster.ByToken(token)
		if p == nil {
			return newError(ErrInvalidToken, "unknown or expired resumption token")
		}
		if !p.FirstDisconnect.IsZero() && time.Since(p.FirstDisconnect) > e.windowD {
			return newError(ErrSessionExpired, "the reconnection window has closed")
		}
		p.Connected = true
		e.timers.Cancel(graceTimer(p.Name))
		info = JoinInfo{
			Name:      p.Name,
			Token:     p.Token,
			SessionID: e.session.ID,
			Host:      e.session.Host == p.Name,
		}
		e.logger.Info("participant resumed", "name", p.Name, "token_prefix", p.TokenPrefix())
		e.broadcast()
		return nil
	})
	return info, err
}

// Disconnect flips the seat to disconnected and starts the grace
// timer. The first disconnect timestamp is set once and survives later
// reconnect cycles within the same window.
func (e *Engine) Disconnect(name string) {
	_ = e.do(func() error {
		p := e.roster.Get(name)
		if p == nil || !p.Connected {
			return nil
		}
		p.Connected = false
		if p.FirstDisconnect.IsZero() {
			p.FirstDisconnect = time.Now()
		}
		e.logger.Info("participant disconnected", "name", name)

		e.timers.Start(graceTimer(name), e.graceD, func() {
			e.post(TimerDisconnectGrace, func() error { return e.graceExpired(name) })
		})

		if name == e.session.Host && e.session.Phase != PhasePaused {
			if err := e.pause("host disconnect"); err != nil {
				return err
			}
		}
		// A departure can complete the vote: everyone still connected
		// may already have acted.
		if err := e.maybeCloseVote(); err != nil {
			return err
		}
		e.broadcast()
		return nil
	})
}

func (e *Engine) graceExpired(name string) error {
	p := e.roster.Get(name)
	if p == nil || p.Connected {
		return nil
	}
	if e.timers.Active(windowTimer(name)) {
		return nil
	}
	// The window runs from the first disconnect, not from now.
	left := e.windowD - time.Since(p.FirstDisconnect)
	if left < 0 {
		left = 0
	}
	e.timers.Start(windowTimer(name), left, func() {
		e.post(TimerReconnectWindow, func() error { return e.windowExpired(name) })
	})
	e.logger.Info("reconnect window armed", "name", name, "remaining", left)
	return nil
}

// windowExpired forfeits the seat. Intervening reconnects do not save
// it: the window is absolute from the first disconnect.
func (e *Engine) windowExpired(name string) error {
	p := e.roster.Get(name)
	if p == nil {
		return nil
	}
	e.removeSeat(p, "reconnect window expired")
	if err := e.maybeCloseVote(); err != nil {
		return err
	}
	e.broadcast()
	return nil
}

func (e *Engine) removeSeat(p *Participant, reason string) {
	e.timers.Cancel(graceTimer(p.Name))
	e.timers.Cancel(windowTimer(p.Name))
	e.roster.Remove(p.Name)
	e.logger.Info("participant removed", "name", p.Name, "reason", reason)

	if e.session.Host == p.Name {
		e.session.Host = ""
		if all := e.roster.All(); len(all) > 0 {
			e.session.Host = all[0].Name
			e.logger.Info("host reassigned", "name", e.session.Host)
		}
	}
	if e.sinks.Removed != nil {
		e.sinks.Removed(p.Name)
	}
}

func graceTimer(name string) string  { return TimerDisconnectGrace + ":" + name }
func windowTimer(name string) string { return TimerReconnectWindow + ":" + name }

// ---- game flow ----

// Start begins the first round. Host only, lobby only.
func (e *Engine) Start(name string) error {
	return e.do(func() error {
		if err := e.requireHost(name); err != nil {
			return err
		}
		if e.session.Phase != PhaseLobby {
			return newError(ErrInvalidPhaseTransition, "the game can only start from the lobby")
		}
		return e.startRound(name)
	})
}

// startRound runs LOBBY->ROLES or SCORING->ROLES: picks the spy and
// location, deals roles, resets round state and arms role_display.
func (e *Engine) startRound(by string) error {
	connected := e.roster.Connected()
	if len(connected) < e.opts.MinPlayers {
		return newError(ErrInsufficientPlayers,
			"%d connected, need at least %d", len(connected), e.opts.MinPlayers)
	}

	locIdx, err := randomIndex(len(e.pack.Locations))
	if err != nil {
		return fmt.Errorf("selecting location: %w", err)
	}
	loc := &e.pack.Locations[locIdx]

	if len(connected)-1 > len(loc.Roles) {
		return newError(ErrContentValidation,
			"location %q has %d roles for %d non-spy participants",
			loc.ID, len(loc.Roles), len(connected)-1)
	}

	spyIdx, err := randomIndex(len(connected))
	if err != nil {
		return fmt.Errorf("selecting spy: %w", err)
	}

	roles := make([]content.Role, len(loc.Roles))
	copy(roles, loc.Roles)
	if err := shuffle(roles); err != nil {
		return fmt.Errorf("shuffling roles: %w", err)
	}

	// All validation and randomness succeeded; mutate.
	if err := e.transition(PhaseRoles, by); err != nil {
		return err
	}
	e.session.Round++

	for _, p := range e.roster.All() {
		p.clearRole()
	}
	spy := connected[spyIdx]
	spy.IsSpy = true
	dealt := 0
	for _, p := range connected {
		if p.IsSpy {
			continue
		}
		p.RoleID = roles[dealt].ID
		p.RoleName = roles[dealt].Name
		p.RoleHint = roles[dealt].Hint
		dealt++
	}

	e.round = newRound(loc, spy.Name)
	e.logger.Info("round started",
		"round", e.session.Round, "location", loc.ID, "participants", len(connected))

	e.timers.Start(TimerRoleDisplay, e.roleDisplayD, func() {
		e.post(TimerRoleDisplay, e.beginQuestioning)
	})
	e.broadcast()
	return nil
}

// beginQuestioning runs ROLES->QUESTIONING: randomizes turn order and
// arms the round timer.
func (e *Engine) beginQuestioning() error {
	if err := e.transition(PhaseQuestioning, TimerCaller); err != nil {
		return err
	}

	connected := e.roster.Connected()
	order := make([]string, len(connected))
	for i, p := range connected {
		order[i] = p.Name
	}
	if err := shuffle(order); err != nil {
		return fmt.Errorf("shuffling turn order: %w", err)
	}
	e.round.Order = order
	e.round.Turn = 0

	e.timers.Start(TimerRound, e.session.RoundDuration, func() {
		e.post(TimerRound, func() error { return e.beginVote(TimerCaller) })
	})
	e.broadcast()
	return nil
}

// CallVote lets any connected participant end questioning. The phase
// guard resolves races: the first caller commits, later callers are
// rejected.
func (e *Engine) CallVote(name string) error {
	return e.do(func() error {
		if _, err := e.requireConnected(name); err != nil {
			return err
		}
		return e.beginVote(name)
	})
}

func (e *Engine) beginVote(by string) error {
	if e.session.Phase != PhaseQuestioning {
		return newError(ErrInvalidPhaseTransition, "voting can only be called during questioning")
	}
	if err := e.transition(PhaseVote, by); err != nil {
		return err
	}
	e.timers.Cancel(TimerRound)
	e.timers.Start(TimerVote, e.session.VoteDuration, func() {
		e.post(TimerVote, func() error { return e.closeVote(true) })
	})
	e.broadcast()
	return nil
}

// CastVote records a ballot for the named voter.
func (e *Engine) CastVote(name, target string, confidence int) error {
	return e.do(func() error {
		voter, err := e.requireConnected(name)
		if err != nil {
			return err
		}
		if e.session.Phase != PhaseVote || e.round.Tally != nil {
			return newError(ErrInvalidPhaseTransition, "ballots are only accepted during the vote")
		}
		if e.round.Guess != nil && voter.IsSpy {
			return newError(ErrSpyAlreadyActed, "you already guessed the location")
		}
		if _, dup := e.round.Ballots[name]; dup {
			return newError(ErrAlreadyVoted, "you already cast a ballot")
		}
		if confidence < 1 || confidence > 3 {
			return newError(ErrInvalidTarget, "confidence must be between 1 and 3")
		}
		if target == name {
			return newError(ErrInvalidTarget, "you cannot vote for yourself")
		}
		if e.roster.Get(target) == nil {
			return newError(ErrInvalidTarget, "no participant named %q", target)
		}

		e.round.Ballots[name] = Ballot{Target: target, Confidence: confidence, CastAt: time.Now()}
		e.logger.Info("ballot cast", "voter", name)
		if err := e.maybeCloseVote(); err != nil {
			return err
		}
		e.broadcast()
		return nil
	})
}

// Abstain records an explicit abstention.
func (e *Engine) Abstain(name string) error {
	return e.do(func() error {
		voter, err := e.requireConnected(name)
		if err != nil {
			return err
		}
		if e.session.Phase != PhaseVote || e.round.Tally != nil {
			return newError(ErrInvalidPhaseTransition, "ballots are only accepted during the vote")
		}
		if e.round.Guess != nil && voter.IsSpy {
			return newError(ErrSpyAlreadyActed, "you already guessed the location")
		}
		if _, dup := e.round.Ballots[name]; dup {
			return newError(ErrAlreadyVoted, "you already cast a ballot")
		}
		e.round.Ballots[name] = Ballot{Abstained: true, CastAt: time.Now()}
		if err := e.maybeCloseVote(); err != nil {
			return err
		}
		e.broadcast()
		return nil
	})
}

// GuessLocation is the spy's alternative to voting: name the location
// and end the vote immediately, mooting every ballot.
func (e *Engine) GuessLocation(name, locationID string) error {
	return e.do(func() error {
		p, err := e.requireConnected(name)
		if err != nil {
			return err
		}
		if e.session.Phase != PhaseVote || e.round.Tally != nil {
			return newError(ErrInvalidPhaseTransition, "location guesses are only accepted during the vote")
		}
		if !p.IsSpy {
			return newError(ErrNotSpy, "only the spy can guess the location")
		}
		if e.round.Guess != nil {
			return newError(ErrSpyAlreadyActed, "you already guessed the location")
		}
		if _, voted := e.round.Ballots[name]; voted {
			return newError(ErrSpyAlreadyActed, "you already cast a ballot")
		}
		if e.pack.Location(locationID) == nil {
			return newError(ErrInvalidLocation, "no location with id %q", locationID)
		}

		e.round.Guess = &SpyGuess{
			LocationID: locationID,
			Correct:    locationID == e.round.Location.ID,
			At:         time.Now(),
		}
		e.logger.Info("spy guessed location", "correct", e.round.Guess.Correct)
		if err := e.maybeCloseVote(); err != nil {
			return err
		}
		e.broadcast()
		return nil
	})
}

// maybeCloseVote closes voting as soon as every connected participant
// has cast a ballot or the spy has guessed, whichever happens first.
func (e *Engine) maybeCloseVote() error {
	if e.session.Phase != PhaseVote {
		return nil
	}
	if e.round.Guess == nil {
		for _, p := range e.roster.Connected() {
			if _, ok := e.round.Ballots[p.Name]; !ok {
				return nil
			}
		}
	}
	return e.closeVote(false)
}

// closeVote finalizes the ballot set and computes the tally. The data
// is final from here; the phase itself flips to REVEAL only after the
// reveal_delay, so consumers can stage the reveal.
func (e *Engine) closeVote(timerExpired bool) error {
	if e.session.Phase != PhaseVote {
		return newError(ErrInvalidPhaseTransition, "vote is not open")
	}
	if e.round.Tally != nil {
		return nil // already closing, waiting on reveal_delay
	}
	e.timers.Cancel(TimerVote)

	if timerExpired {
		for _, p := range e.roster.Connected() {
			if _, ok := e.round.Ballots[p.Name]; !ok {
				e.round.Ballots[p.Name] = Ballot{Abstained: true, CastAt: time.Now()}
			}
		}
	}

	e.round.Tally = TallyVotes(e.round.Ballots)
	e.timers.Start(TimerRevealDelay, e.revealDelayD, func() {
		e.post(TimerRevealDelay, e.enterReveal)
	})
	e.logger.Info("vote closed", "ballots", len(e.round.Ballots), "timer_expired", timerExpired)
	return nil
}

func (e *Engine) enterReveal() error {
	if err := e.transition(PhaseReveal, TimerCaller); err != nil {
		return err
	}
	// Hold the reveal on screen before scoring.
	e.timers.Start(TimerRevealDelay, e.revealDelayD, func() {
		e.post(TimerRevealDelay, e.enterScoring)
	})
	e.broadcast()
	return nil
}

// enterScoring resolves the conviction and applies score deltas,
// exactly once per round.
func (e *Engine) enterScoring() error {
	if err := e.transition(PhaseScoring, TimerCaller); err != nil {
		return err
	}
	if !e.round.scored {
		res := Resolve(e.round.Ballots, e.round.Spy, e.round.Guess)
		e.round.Convicted = res.Convicted
		e.round.Outcome = res.Outcome
		e.round.Deltas = res.Deltas
		e.round.scored = true

		for name, delta := range res.Deltas {
			if p := e.roster.Get(name); p != nil {
				p.Score += delta
			}
		}
		e.history = append(e.history, RoundRecord{
			Round:      e.session.Round,
			LocationID: e.round.Location.ID,
			Spy:        e.round.Spy,
			Convicted:  res.Convicted,
			Outcome:    res.Outcome,
			Deltas:     res.Deltas,
		})
		e.logger.Info("round scored",
			"round", e.session.Round, "outcome", res.Outcome, "convicted", res.Convicted)
	}
	e.broadcast()
	return nil
}

func (e *Engine) endGame(by string) error {
	if err := e.transition(PhaseEnd, by); err != nil {
		return err
	}
	for _, p := range e.roster.All() {
		p.clearRole()
	}
	e.broadcast()
	return nil
}

// ---- admin ----

// Admin executes a host control action. target is only used by
// remove_player.
func (e *Engine) Admin(name, action, target string) error {
	return e.do(func() error {
		if err := e.requireHost(name); err != nil {
			return err
		}
		switch action {
		case ActionPauseGame:
			if err := e.pause("host action"); err != nil {
				return err
			}
		case ActionResumeGame:
			if err := e.resume(name); err != nil {
				return err
			}
		case ActionSkipToVote:
			return e.beginVote(name)
		case ActionAdvanceTurn:
			if e.session.Phase != PhaseQuestioning {
				return newError(ErrInvalidPhaseTransition, "turns only advance during questioning")
			}
			e.round.Turn++
		case ActionNextRound:
			if e.session.Phase != PhaseScoring {
				return newError(ErrInvalidPhaseTransition, "the next round starts from the scoreboard")
			}
			if e.session.Round < e.session.Rounds {
				return e.startRound(name)
			}
			return e.endGame(name)
		case ActionEndGame:
			return e.endGame(name)
		case ActionPlayAgain:
			if err := e.transition(PhaseLobby, name); err != nil {
				return err
			}
			e.resetGame()
		case ActionEndSession:
			e.teardown()
		case ActionRemovePlayer:
			p := e.roster.Get(target)
			if p == nil {
				return newError(ErrPlayerNotFound, "no participant named %q", target)
			}
			if target == name {
				return newError(ErrInvalidTarget, "the host cannot remove themselves")
			}
			e.removeSeat(p, "removed by host")
		default:
			return newError(ErrUnknownAction, "unknown admin action %q", action)
		}
		e.broadcast()
		return nil
	})
}

func (e *Engine) pause(reason string) error {
	prev := e.session.Phase
	if err := e.transition(PhasePaused, reason); err != nil {
		return err
	}
	e.session.ResumePhase = prev
	// Phase timers stop here and are not recreated on resume.
	for _, name := range []string{TimerRoleDisplay, TimerRound, TimerVote, TimerRevealDelay} {
		e.timers.Cancel(name)
	}
	e.logger.Info("session paused", "reason", reason, "resume_phase", prev)
	return nil
}

func (e *Engine) resume(by string) error {
	if e.session.Phase != PhasePaused {
		return newError(ErrInvalidPhaseTransition, "the session is not paused")
	}
	target := e.session.ResumePhase
	if err := e.transition(target, by); err != nil {
		return err
	}
	e.session.ResumePhase = ""
	return nil
}

// resetGame keeps the seats but wipes scores, history and round state
// for a fresh game in the same session.
func (e *Engine) resetGame() {
	e.session.Round = 0
	e.round = nil
	e.history = nil
	for _, p := range e.roster.All() {
		p.Score = 0
		p.clearRole()
	}
	e.logger.Info("game reset", "session_id", e.session.ID)
}

// teardown destroys the session and every seat, leaving a fresh empty
// lobby under a new session id.
func (e *Engine) teardown() {
	e.timers.CancelAll()
	for _, p := range e.roster.All() {
		if e.sinks.Removed != nil {
			e.sinks.Removed(p.Name)
		}
	}
	old := e.session.ID
	e.session = newSession(e.opts.PackID, e.opts.Rounds, e.opts.RoundDuration, e.opts.VoteDuration)
	e.roster = NewRoster()
	e.round = nil
	e.history = nil
	e.logger.Info("session torn down", "old_session_id", old, "session_id", e.session.ID)
}

// Reset is the ops-surface session teardown.
func (e *Engine) Reset() error {
	return e.do(func() error {
		e.teardown()
		return nil
	})
}

// ---- queries ----

// Snapshot returns the encoded projection for one participant,
// consistent with the latest committed mutation.
func (e *Engine) Snapshot(name string) ([]byte, error) {
	var data []byte
	err := e.do(func() error {
		if e.roster.Get(name) == nil {
			return newError(ErrPlayerNotFound, "no participant named %q", name)
		}
		v := project(e.session, e.round, e.roster, e.pack, name, e.timerView())
		var err error
		data, err = json.Marshal(v)
		return err
	})
	return data, err
}

// Overview returns the session summary for health and ops endpoints.
func (e *Engine) Overview() (Overview, error) {
	var o Overview
	err := e.do(func() error {
		o = Overview{
			SessionID:    e.session.ID,
			CreatedAt:    e.session.CreatedAt,
			Phase:        e.session.Phase,
			Round:        e.session.Round,
			Rounds:       e.session.Rounds,
			PackID:       e.session.PackID,
			Participants: e.roster.Len(),
			Connected:    len(e.roster.Connected()),
		}
		return nil
	})
	return o, err
}

// ---- helpers ----

func (e *Engine) requireConnected(name string) (*Participant, error) {
	p := e.roster.Get(name)
	if p == nil {
		return nil, newError(ErrPlayerNotFound, "no participant named %q", name)
	}
	if !p.Connected {
		return nil, newError(ErrPlayerNotFound, "%q is disconnected", name)
	}
	return p, nil
}

func (e *Engine) requireHost(name string) error {
	if _, err := e.requireConnected(name); err != nil {
		return err
	}
	if name != e.session.Host {
		return newError(ErrNotHost, "only the host can do that")
	}
	return nil
}

func validateName(name string) error {
	if name == "" || len(name) > 32 {
		return newError(ErrInvalidTarget, "name must be 1-32 characters")
	}
	if strings.TrimSpace(name) != name || strings.HasPrefix(name, "[") {
		return newError(ErrInvalidTarget, "name %q is not allowed", name)
	}
	return nil
}

// randomIndex returns an unbiased index in [0, n) from the platform
// CSPRNG.
func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// shuffle is an unbiased Fisher-Yates over the slice, driven by
// crypto/rand.
func shuffle[T any](s []T) error {
	for i := len(s) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return err
		}
		s[i], s[j] = s[j], s[i]
	}
	return nil
}
