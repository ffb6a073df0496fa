// Package operator is the operator-side application state: the active shift,
// its access gate and the submission pipeline, driven by the CLI and the
// console.
package operator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/maprix/maprix/internal/apiclient"
	"github.com/maprix/maprix/internal/checklist"
	"github.com/maprix/maprix/internal/connectivity"
	"github.com/maprix/maprix/internal/dateparse"
	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/geo"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/pipeline"
	"github.com/maprix/maprix/internal/store"
	"github.com/maprix/maprix/internal/suggest"
)

var (
	ErrNoSession       = errors.New("no active shift, start one with maprix login")
	ErrMissingIdentity = errors.New("equipment and operator are required")
	ErrNoChecklist     = errors.New("no checklist pending for this shift")
)

// API is the part of the backend the operator talks to.
type API interface {
	pipeline.Transport
	gate.QuestionSource
	ListAssets(ctx context.Context) ([]models.Asset, error)
	CreateAsset(ctx context.Context, req apiclient.CreateAssetRequest) (*apiclient.CreateAssetResponse, error)
	SubmitChecklist(ctx context.Context, contentType string, body []byte) (*apiclient.StatusResponse, error)
	UpdateBattery(ctx context.Context, equipment, date string) (*models.BatteryUpdate, error)
}

// Prompter asks the operator whether to register unknown equipment.
type Prompter interface {
	ConfirmRegister(ctx context.Context, equipment string, suggestions []string) (bool, error)
}

// Options wires a Controller.
type Options struct {
	Store      *store.Store
	API        API
	Monitor    *connectivity.Monitor
	Locator    geo.Locator
	GPSTimeout time.Duration
	Prompter   Prompter
}

// Controller owns the shift state. Methods are safe for concurrent use.
type Controller struct {
	store      *store.Store
	api        API
	monitor    *connectivity.Monitor
	gate       *gate.Gate
	pipeline   *pipeline.Pipeline
	locator    geo.Locator
	gpsTimeout time.Duration
	prompter   Prompter
	now        func() time.Time

	mu      sync.Mutex
	session *models.Session
}

// New builds a controller. A nil Monitor means always online.
func New(opts Options) *Controller {
	mon := opts.Monitor
	if mon == nil {
		mon = connectivity.New(nil)
	}
	timeout := opts.GPSTimeout
	if timeout <= 0 {
		timeout = geo.DefaultTimeout
	}
	return &Controller{
		store:      opts.Store,
		api:        opts.API,
		monitor:    mon,
		gate:       gate.New(opts.API),
		pipeline:   pipeline.New(opts.Store, opts.API, mon),
		locator:    opts.Locator,
		gpsTimeout: timeout,
		prompter:   opts.Prompter,
		now:        time.Now,
	}
}

// Gate exposes the shift's access gate.
func (c *Controller) Gate() *gate.Gate { return c.gate }

// Monitor exposes the connectivity monitor.
func (c *Controller) Monitor() *connectivity.Monitor { return c.monitor }

// Session returns the active session, or nil.
func (c *Controller) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Controller) requireSession() (models.Session, error) {
	s := c.Session()
	if s == nil {
		return models.Session{}, ErrNoSession
	}
	return *s, nil
}

// Restore reloads a persisted shift and re-evaluates its gate. It returns a
// nil session when no shift is open.
func (c *Controller) Restore(ctx context.Context) (*models.Session, error) {
	sess, err := c.store.GetSession()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()

	assets, err := c.api.ListAssets(ctx)
	if err != nil {
		err = fmt.Errorf("load assets: %w", err)
		c.gate.Fail(err)
		return sess, err
	}
	_, err = c.gate.Evaluate(ctx, assets, sess.Equipment)
	return sess, err
}

// ShiftResult describes a started shift.
type ShiftResult struct {
	Session     models.Session
	Registered  bool
	Suggestions []string
	Gate        gate.State
	Questions   []models.ChecklistQuestion
}

// StartShift opens a shift. The asset list is loaded before anything else;
// unknown equipment is offered for registration without a type. The session
// is persisted even when the gate lookup fails, in which case the gate stays
// closed and the lookup error is returned alongside the result.
func (c *Controller) StartShift(ctx context.Context, equipment, operatorName string) (*ShiftResult, error) {
	equipment = strings.TrimSpace(equipment)
	operatorName = strings.TrimSpace(operatorName)
	if equipment == "" || operatorName == "" {
		return nil, ErrMissingIdentity
	}

	c.gate.Reset()
	res := &ShiftResult{Session: models.Session{Equipment: equipment, Operator: operatorName}}

	assets, lookupErr := c.api.ListAssets(ctx)
	if lookupErr == nil {
		if _, known := models.FindAsset(assets, equipment); !known {
			registered, err := c.offerRegistration(ctx, equipment, assets, res)
			if err != nil {
				return nil, err
			}
			if registered {
				res.Registered = true
				assets = append(assets, models.Asset{Name: equipment})
			}
		}
	}

	if err := c.store.SaveSession(res.Session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	c.mu.Lock()
	c.session = &res.Session
	c.mu.Unlock()

	if lookupErr != nil {
		lookupErr = fmt.Errorf("load assets: %w", lookupErr)
		c.gate.Fail(lookupErr)
		res.Gate = gate.Pending
		return res, lookupErr
	}

	state, err := c.gate.Evaluate(ctx, assets, equipment)
	res.Gate = state
	res.Questions = c.gate.Questions()
	return res, err
}

func (c *Controller) offerRegistration(ctx context.Context, equipment string, assets []models.Asset, res *ShiftResult) (bool, error) {
	res.Suggestions = suggest.Equipment(equipment, assets)
	if c.prompter == nil {
		return false, nil
	}
	ok, err := c.prompter.ConfirmRegister(ctx, equipment, res.Suggestions)
	if err != nil {
		return false, fmt.Errorf("confirm registration: %w", err)
	}
	if !ok {
		slog.Debug("operator: registration declined", "equipment", equipment)
		return false, nil
	}
	if _, err := c.api.CreateAsset(ctx, apiclient.CreateAssetRequest{Name: equipment, Color: models.DefaultAssetColor}); err != nil {
		return false, fmt.Errorf("register %s: %w", equipment, err)
	}
	slog.Debug("operator: registered equipment without type", "equipment", equipment)
	return true, nil
}

// EndShift closes the shift. Queued reports stay queued.
func (c *Controller) EndShift() error {
	if err := c.store.ClearSession(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.gate.Reset()
	return nil
}

// CaptureRequest is one capture. A nil Position asks the locator.
type CaptureRequest struct {
	Observation string
	Position    *geo.Position
}

// CaptureResult describes what happened to a capture.
type CaptureResult struct {
	Report      models.PendingReport
	Outcome     pipeline.Outcome
	DeliveryErr error
}

// Capture records the current position for the shift.
func (c *Controller) Capture(ctx context.Context, req CaptureRequest) (*CaptureResult, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	if !c.gate.CaptureAllowed() {
		if gerr := c.gate.Err(); gerr != nil {
			return nil, fmt.Errorf("%w (%v)", gate.ErrBlocked, gerr)
		}
		return nil, gate.ErrBlocked
	}

	var pos geo.Position
	if req.Position != nil {
		pos = *req.Position
	} else {
		if c.locator == nil {
			return nil, geo.ErrUnavailable
		}
		pos, err = geo.Locate(ctx, c.locator, c.gpsTimeout)
		if err != nil {
			return nil, fmt.Errorf("locate: %w", err)
		}
	}
	if err := pos.Validate(); err != nil {
		return nil, err
	}

	report := models.PendingReport{
		Equipment:   sess.Equipment,
		Operator:    sess.Operator,
		Latitude:    pos.Latitude,
		Longitude:   pos.Longitude,
		Timestamp:   c.now().UTC().Format(time.RFC3339),
		Observation: strings.TrimSpace(req.Observation),
	}
	sub, err := c.pipeline.Submit(ctx, report)
	if err != nil {
		return nil, err
	}
	return &CaptureResult{Report: report, Outcome: sub.Outcome, DeliveryErr: sub.DeliveryErr}, nil
}

// SubmitChecklist validates answers against the pending checklist and sends
// them. Invalid answers never reach the network.
func (c *Controller) SubmitChecklist(ctx context.Context, answers []models.ChecklistAnswer) error {
	sess, err := c.requireSession()
	if err != nil {
		return err
	}
	if c.gate.State() != gate.Pending {
		return ErrNoChecklist
	}
	questions := c.gate.Questions()
	if len(questions) == 0 {
		if gerr := c.gate.Err(); gerr != nil {
			return fmt.Errorf("%w: %v", ErrNoChecklist, gerr)
		}
		return ErrNoChecklist
	}

	merged := checklist.Merge(questions, answers)
	if err := checklist.Validate(merged); err != nil {
		return err
	}
	ct, body, err := checklist.Encode(sess, merged, c.now())
	if err != nil {
		return err
	}
	if _, err := c.api.SubmitChecklist(ctx, ct, body); err != nil {
		return fmt.Errorf("submit checklist: %w", err)
	}
	return c.gate.Satisfy()
}

// Sync drains the pending queue.
func (c *Controller) Sync(ctx context.Context) (*pipeline.SyncResult, error) {
	return c.pipeline.Sync(ctx)
}

// Status is a snapshot for display.
type Status struct {
	Session   *models.Session `json:"sessao"`
	Online    bool            `json:"online"`
	Pending   int             `json:"pendentes"`
	Syncing   bool            `json:"sincronizando"`
	Gate      gate.State      `json:"checklist"`
	GateError string          `json:"erro_checklist,omitempty"`
	Questions int             `json:"perguntas"`
	Batch     *store.Batch    `json:"lote,omitempty"`
}

// Status reports the current shift state.
func (c *Controller) Status() (*Status, error) {
	n, err := c.store.Count()
	if err != nil {
		return nil, fmt.Errorf("count pending: %w", err)
	}
	batch, err := c.store.GetBatch()
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	st := &Status{
		Session:   c.Session(),
		Online:    c.monitor.Online(),
		Pending:   n,
		Syncing:   c.pipeline.Syncing(),
		Gate:      c.gate.State(),
		Questions: len(c.gate.Questions()),
		Batch:     batch,
	}
	if gerr := c.gate.Err(); gerr != nil {
		st.GateError = gerr.Error()
	}
	return st, nil
}

// Pending lists the queued reports in capture order.
func (c *Controller) Pending() ([]models.PendingReport, error) {
	return c.store.PeekAll()
}

// UpdateBattery records the battery manufacture date of the shift's equipment.
// date accepts any form dateparse understands.
func (c *Controller) UpdateBattery(ctx context.Context, date string) (*models.BatteryUpdate, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	iso, err := dateparse.ParseDateFrom(date, c.now())
	if err != nil {
		return nil, err
	}
	resp, err := c.api.UpdateBattery(ctx, sess.Equipment, iso)
	if err != nil {
		return nil, fmt.Errorf("update battery: %w", err)
	}
	return resp, nil
}
