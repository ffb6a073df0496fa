// Package gate decides whether location capture is allowed for the current
// shift, based on the checklist configured for the equipment's type.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/maprix/maprix/internal/models"
)

// State is the gate state for one session.
type State string

const (
	Unchecked State = "unchecked"
	Exempt    State = "exempt"
	Pending   State = "pending"
	Satisfied State = "satisfied"
)

// ErrBlocked is returned when capture is attempted while the checklist is pending.
var ErrBlocked = errors.New("checklist required before capturing positions")

// QuestionSource fetches the questions configured for a type.
type QuestionSource interface {
	ChecklistConfig(ctx context.Context, typeID int64) ([]models.ChecklistQuestion, error)
}

// Gate is the per-session access gate. It is never persisted.
type Gate struct {
	mu        sync.Mutex
	state     State
	asset     *models.Asset
	questions []models.ChecklistQuestion
	lastErr   error

	source QuestionSource
}

// New returns an unchecked gate.
func New(source QuestionSource) *Gate {
	return &Gate{state: Unchecked, source: source}
}

// Evaluate resolves the gate for equipment against an already loaded asset
// list. Callers must load assets before calling; evaluating against a partial
// list would wrongly exempt typed equipment.
//
// Lookup failures leave the gate Pending and are returned.
func (g *Gate) Evaluate(ctx context.Context, assets []models.Asset, equipment string) (State, error) {
	asset, ok := models.FindAsset(assets, equipment)
	if !ok || !asset.HasType() {
		g.set(Exempt, assetPtr(asset, ok), nil, nil)
		return Exempt, nil
	}

	questions, err := g.source.ChecklistConfig(ctx, *asset.TypeID)
	if err != nil {
		err = fmt.Errorf("load checklist for type %d: %w", *asset.TypeID, err)
		g.set(Pending, &asset, nil, err)
		return Pending, err
	}
	if len(questions) == 0 {
		g.set(Exempt, &asset, nil, nil)
		return Exempt, nil
	}

	g.set(Pending, &asset, questions, nil)
	return Pending, nil
}

// Fail records a lookup that could not run at all, such as an asset list
// fetch that failed. The gate stays closed until the next Evaluate.
func (g *Gate) Fail(err error) {
	g.set(Pending, nil, nil, err)
}

func assetPtr(a models.Asset, ok bool) *models.Asset {
	if !ok {
		return nil
	}
	return &a
}

func (g *Gate) set(s State, asset *models.Asset, questions []models.ChecklistQuestion, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = s
	g.asset = asset
	g.questions = questions
	g.lastErr = err
}

// Satisfy opens a pending gate after a successful checklist submission.
func (g *Gate) Satisfy() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case Pending:
		if g.questions == nil {
			return fmt.Errorf("gate has no loaded checklist to satisfy")
		}
		g.state = Satisfied
		return nil
	case Satisfied:
		return nil
	default:
		return fmt.Errorf("gate is %s, not pending", g.state)
	}
}

// Reset returns the gate to Unchecked, as on logout.
func (g *Gate) Reset() {
	g.set(Unchecked, nil, nil, nil)
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// CaptureAllowed is true for Exempt and Satisfied.
func (g *Gate) CaptureAllowed() bool {
	s := g.State()
	return s == Exempt || s == Satisfied
}

// Questions returns the checklist loaded while pending.
func (g *Gate) Questions() []models.ChecklistQuestion {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]models.ChecklistQuestion(nil), g.questions...)
}

// Asset returns the resolved asset, or nil for unknown equipment.
func (g *Gate) Asset() *models.Asset {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.asset
}

// Err returns the lookup error that left the gate pending, if any.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}
