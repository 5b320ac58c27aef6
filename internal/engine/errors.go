package engine

import "errors"

// Precondition / state violations. The draft is left untouched and the
// caller gets the specific reason, never a generic bad-request.
var (
	ErrWrongState      = errors.New("draft is not in the right state for this action")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrHeroUsed        = errors.New("hero already picked or banned")
	ErrUnknownHero     = errors.New("unknown hero id")
	ErrChoiceTaken     = errors.New("choice already made")
	ErrRollWinnerFirst = errors.New("roll winner must choose first")
	ErrNoActiveRound   = errors.New("no active round")
	ErrDraftTerminal   = errors.New("draft is already completed or abandoned")
)

// Authorization violations, distinct from state violations so clients
// can tell "wrong time" from "not allowed".
var (
	ErrNotCaptain    = errors.New("caller is not a captain of this draft")
	ErrNotAuthorized = errors.New("caller is not authorized for this action")
)

// Setup and integrity failures.
var (
	ErrNoCaptains   = errors.New("both teams need an assigned captain")
	ErrNoHeroesLeft = errors.New("no heroes available")
)
