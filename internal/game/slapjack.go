package game

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrNotYourTurn  = errors.New("not your turn")
	ErrNoCards      = errors.New("no cards to play")
	ErrCorruptState = errors.New("game state corrupt")
)

// Slap outcome reasons beyond the pile conditions in rules.go.
const (
	SlapRejectCooldown   = "cooldown"
	SlapRejectEliminated = "eliminated"
)

type Config struct {
	EnableDoubles  bool
	EnableSandwich bool
	BurnPenalty    int
	SlapCooldownMs int
	TurnTimeoutMs  int
	EnableSlapIn   bool
	MaxSlapIns     int
}

// SlapOutcome is the result of a single arbitrated slap attempt.
type SlapOutcome struct {
	PlayerID    string
	Success     bool
	Reason      string
	CardsWon    int
	CardsBurned int
}

type Stats struct {
	TotalSlapAttempts int
	SuccessfulSlaps   map[string]int
	CardsBurned       map[string]int
}

// StatsSnapshot is Stats plus the elapsed duration, safe to hand out.
type StatsSnapshot struct {
	TotalSlapAttempts int            `json:"totalSlaps"`
	SuccessfulSlaps   map[string]int `json:"successfulSlaps"`
	CardsBurned       map[string]int `json:"cardsBurned"`
	DurationMs        int64          `json:"duration"`
}

// Snapshot is the shared view of a game: only the top three pile cards are
// visible (enough for clients to judge doubles and sandwiches).
type Snapshot struct {
	Pile             []Card         `json:"pile"`
	CurrentPlayerID  string         `json:"currentPlayerId"`
	PlayerCardCounts map[string]int `json:"playerCardCounts"`
	CanSlap          bool           `json:"canSlap"`
}

// Game is a single room's slapjack state machine. All mutation goes through
// one mutex, so concurrent plays and slaps resolve in a single total order.
type Game struct {
	mu sync.Mutex

	playerHands    map[string][]Card
	pile           []Card
	turnOrder      []string
	currentTurnIdx int
	rules          *Rules
	cfg            Config

	slapWindowOpen bool
	lastSlapTime   map[string]time.Time
	slapInCounts   map[string]int
	eliminated     map[string]bool

	stats     Stats
	startTime time.Time
}

// NewGame shuffles a fresh deck and deals it round-robin to the given players.
// Turn order follows the slice order.
func NewGame(playerIDs []string, cfg Config) *Game {
	deck := NewDeck()
	deck.Shuffle()
	hands := deck.Deal(len(playerIDs))

	playerHands := make(map[string][]Card, len(playerIDs))
	for i, id := range playerIDs {
		playerHands[id] = hands[i]
	}

	return &Game{
		playerHands:  playerHands,
		pile:         make([]Card, 0, 52),
		turnOrder:    append([]string(nil), playerIDs...),
		rules:        NewRules(cfg.EnableDoubles, cfg.EnableSandwich),
		cfg:          cfg,
		lastSlapTime: make(map[string]time.Time),
		slapInCounts: make(map[string]int),
		eliminated:   make(map[string]bool),
		stats: Stats{
			SuccessfulSlaps: make(map[string]int),
			CardsBurned:     make(map[string]int),
		},
		startTime: time.Now(),
	}
}

// PlayCard moves the front card of playerID's hand onto the pile, opens the
// slap window, and advances the turn.
func (g *Game) PlayCard(playerID string) (Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.currentTurnIdx < 0 || g.currentTurnIdx >= len(g.turnOrder) {
		return Card{}, ErrCorruptState
	}
	if g.turnOrder[g.currentTurnIdx] != playerID {
		return Card{}, ErrNotYourTurn
	}

	hand, ok := g.playerHands[playerID]
	if !ok {
		return Card{}, ErrCorruptState
	}
	if len(hand) == 0 {
		return Card{}, ErrNoCards
	}

	card := g.playCardLocked(playerID, hand)
	return card, nil
}

// AutoPlayCurrent plays the current player's front card on their behalf.
// Identical transition to PlayCard; used when the turn timer expires.
func (g *Game) AutoPlayCurrent() (string, Card, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.currentTurnIdx < 0 || g.currentTurnIdx >= len(g.turnOrder) {
		return "", Card{}, false
	}
	playerID := g.turnOrder[g.currentTurnIdx]
	hand := g.playerHands[playerID]
	if len(hand) == 0 {
		return "", Card{}, false
	}

	card := g.playCardLocked(playerID, hand)
	return playerID, card, true
}

func (g *Game) playCardLocked(playerID string, hand []Card) Card {
	card := hand[0]
	g.playerHands[playerID] = hand[1:]
	g.pile = append(g.pile, card)
	g.slapWindowOpen = true
	g.advanceTurn()
	return card
}

// advanceTurn steps circularly to the next seat holding cards. If every other
// seat is empty it leaves the index unchanged; the winner check handles that.
func (g *Game) advanceTurn() {
	startIdx := g.currentTurnIdx
	for {
		g.currentTurnIdx = (g.currentTurnIdx + 1) % len(g.turnOrder)
		if len(g.playerHands[g.turnOrder[g.currentTurnIdx]]) > 0 {
			return
		}
		if g.currentTurnIdx == startIdx {
			return
		}
	}
}

func (g *Game) CurrentPlayer() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentTurnIdx < 0 || g.currentTurnIdx >= len(g.turnOrder) {
		return ""
	}
	return g.turnOrder[g.currentTurnIdx]
}

// ProcessSlap arbitrates one slap attempt at the given clock reading. The
// mutex makes concurrent attempts a total order: the first valid attempt
// takes the pile and every later attempt is judged against the cleared pile.
func (g *Game) ProcessSlap(playerID string, now time.Time) SlapOutcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stats.TotalSlapAttempts++

	// Cooldown is charged off the last attempt that was allowed through,
	// so hammering during the window keeps failing until it lapses.
	if last, ok := g.lastSlapTime[playerID]; ok {
		if now.Sub(last) < time.Duration(g.cfg.SlapCooldownMs)*time.Millisecond {
			return SlapOutcome{PlayerID: playerID, Reason: SlapRejectCooldown}
		}
	}
	g.lastSlapTime[playerID] = now

	hasCards := len(g.playerHands[playerID]) > 0
	reason := g.rules.CheckSlap(g.pile)

	if !hasCards {
		canSlapIn := g.cfg.EnableSlapIn && g.slapInCounts[playerID] < g.cfg.MaxSlapIns
		if !canSlapIn {
			return SlapOutcome{PlayerID: playerID, Reason: SlapRejectEliminated}
		}
		// Slap-back-in attempts are never charged a burn penalty.
		if reason == SlapReasonInvalid {
			return SlapOutcome{PlayerID: playerID, Reason: string(reason)}
		}
	}

	if reason == SlapReasonInvalid {
		burned := g.applyBurnPenalty(playerID)
		g.stats.CardsBurned[playerID] += burned
		// If the penalty emptied the current player's hand the turn must move
		// on, or the round would wait forever on a seat with nothing to flip.
		if burned > 0 && len(g.playerHands[playerID]) == 0 && g.turnOrder[g.currentTurnIdx] == playerID {
			g.advanceTurn()
		}
		return SlapOutcome{PlayerID: playerID, Reason: string(reason), CardsBurned: burned}
	}

	cardsWon := len(g.pile)
	if !hasCards {
		g.slapInCounts[playerID]++
		delete(g.eliminated, playerID)
	}

	g.playerHands[playerID] = append(g.playerHands[playerID], g.pile...)
	g.pile = make([]Card, 0, 52)
	g.slapWindowOpen = false
	g.stats.SuccessfulSlaps[playerID]++

	// Slap winner leads the next turn.
	for i, id := range g.turnOrder {
		if id == playerID {
			g.currentTurnIdx = i
			break
		}
	}

	return SlapOutcome{
		PlayerID: playerID,
		Success:  true,
		Reason:   string(reason),
		CardsWon: cardsWon,
	}
}

// applyBurnPenalty moves up to BurnPenalty cards from the front of the
// player's hand to the bottom of the pile, preserving the pile's top order.
func (g *Game) applyBurnPenalty(playerID string) int {
	hand := g.playerHands[playerID]
	if len(hand) == 0 {
		return 0
	}

	burn := g.cfg.BurnPenalty
	if burn > len(hand) {
		burn = len(hand)
	}

	burned := make([]Card, burn, burn+len(g.pile))
	copy(burned, hand[:burn])
	g.playerHands[playerID] = hand[burn:]
	g.pile = append(burned, g.pile...)
	return burn
}

// ResolveEliminations marks and returns players newly out of the game: empty
// hand and no valid slap left on the pile. Call after every pile mutation.
func (g *Game) ResolveEliminations() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []string
	for _, playerID := range g.turnOrder {
		if len(g.playerHands[playerID]) > 0 || g.eliminated[playerID] {
			continue
		}
		if !g.rules.IsValidSlap(g.pile) {
			g.eliminated[playerID] = true
			out = append(out, playerID)
		}
	}
	return out
}

// Winner returns the winning player once exactly one player holds cards and
// the pile offers no valid slap, otherwise "".
func (g *Game) Winner() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var holders []string
	for _, playerID := range g.turnOrder {
		if len(g.playerHands[playerID]) > 0 {
			holders = append(holders, playerID)
		}
	}
	if len(holders) == 1 && !g.rules.IsValidSlap(g.pile) {
		return holders[0]
	}
	return ""
}

func (g *Game) PlayerCardCount(playerID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.playerHands[playerID])
}

func (g *Game) CardCounts() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cardCountsLocked()
}

func (g *Game) cardCountsLocked() map[string]int {
	counts := make(map[string]int, len(g.playerHands))
	for id, hand := range g.playerHands {
		counts[id] = len(hand)
	}
	return counts
}

func (g *Game) PileSize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pile)
}

func (g *Game) SlapWindowOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.slapWindowOpen
}

func (g *Game) TurnTimeout() time.Duration {
	return time.Duration(g.cfg.TurnTimeoutMs) * time.Millisecond
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := len(g.pile) - 3
	if start < 0 {
		start = 0
	}
	visible := make([]Card, len(g.pile)-start)
	copy(visible, g.pile[start:])

	return Snapshot{
		Pile:             visible,
		CurrentPlayerID:  g.turnOrder[g.currentTurnIdx],
		PlayerCardCounts: g.cardCountsLocked(),
		CanSlap:          g.rules.IsValidSlap(g.pile),
	}
}

func (g *Game) StatsSnapshot() StatsSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	slaps := make(map[string]int, len(g.stats.SuccessfulSlaps))
	for id, n := range g.stats.SuccessfulSlaps {
		slaps[id] = n
	}
	burned := make(map[string]int, len(g.stats.CardsBurned))
	for id, n := range g.stats.CardsBurned {
		burned[id] = n
	}

	return StatsSnapshot{
		TotalSlapAttempts: g.stats.TotalSlapAttempts,
		SuccessfulSlaps:   slaps,
		CardsBurned:       burned,
		DurationMs:        time.Since(g.startTime).Milliseconds(),
	}
}

// TotalCards counts every card across hands and pile; always 52 in a healthy
// game since cards only ever move.
func (g *Game) TotalCards() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := len(g.pile)
	for _, hand := range g.playerHands {
		total += len(hand)
	}
	return total
}
