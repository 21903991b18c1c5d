// Package workflow drives the extrapolation lifecycle: load or calculate,
// adjust parameters and recalculate, save, export. It owns the one invariant
// that matters here: the displayed result and its saved flag never diverge.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/drillops/survey-cli/internal/model"
	"github.com/drillops/survey-cli/pkg/dirsurvey"
)

// State is the controller's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateRecalculating
	StateSaving
	StateError
)

var stateNames = map[State]string{
	StateIdle:          "idle",
	StateLoading:       "loading",
	StateReady:         "ready",
	StateRecalculating: "recalculating",
	StateSaving:        "saving",
	StateError:         "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// NewExtrapolationID is the sentinel id meaning "start a fresh calculation"
// rather than "view this saved extrapolation".
const NewExtrapolationID = "new"

// Inputs identify what the controller should load on entry. Either
// ExtrapolationID (view-existing) or SurveyDataID+RunID (calculate-new) must
// be present.
type Inputs struct {
	ExtrapolationID string
	SurveyDataID    string
	RunID           string
}

// MissingInputError is returned when neither initialization mode's
// identifiers are present. No network call is made in that case.
type MissingInputError struct{}

func (e *MissingInputError) Error() string {
	return "workflow: need either an extrapolation id or a survey id and run id"
}

// ErrStaleResponse is returned to a caller whose calculation response arrived
// after a newer one had already been applied. The response is discarded.
var ErrStaleResponse = eris.New("workflow: stale calculation response discarded")

// Notification is a transient success message with an expiry.
type Notification struct {
	Message string
	Until   time.Time
}

const defaultNotificationTTL = 5 * time.Second

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the controller's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithNotificationTTL sets how long a success notification stays visible.
func WithNotificationTTL(d time.Duration) Option {
	return func(c *Controller) {
		c.noticeTTL = d
	}
}

// WithDefaultParams overrides the parameters used for a fresh calculation.
func WithDefaultParams(p model.Params) Option {
	return func(c *Controller) {
		c.params = p
	}
}

// Controller orchestrates one extrapolation session against the calculation
// service. Safe for concurrent use; the lock is never held across a network
// call. Each outgoing calculation carries a sequence number and only the
// newest response is ever applied, so overlapping recalculations resolve
// last-response-wins regardless of arrival order.
type Controller struct {
	client dirsurvey.Client

	mu      sync.Mutex
	inputs  Inputs
	state   State
	params  model.Params
	result  *model.ExtrapolationResult
	saved   bool
	lastErr error
	notice  *Notification

	seq     uint64 // last sequence issued
	applied uint64 // highest sequence whose response was applied

	now       func() time.Time
	noticeTTL time.Duration
}

// New creates a Controller in the Idle state.
func New(client dirsurvey.Client, opts ...Option) *Controller {
	c := &Controller{
		client:    client,
		state:     StateIdle,
		params:    model.DefaultParams(),
		now:       time.Now,
		noticeTTL: defaultNotificationTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load initializes the controller. With an extrapolation id (other than the
// "new" sentinel) it fetches the saved result and seeds the editable
// parameters from it; with a survey and run id it requests a fresh
// calculation using the default parameters.
func (c *Controller) Load(ctx context.Context, inputs Inputs) error {
	viewExisting := inputs.ExtrapolationID != "" && inputs.ExtrapolationID != NewExtrapolationID
	calculateNew := inputs.SurveyDataID != "" && inputs.RunID != ""

	if !viewExisting && !calculateNew {
		return &MissingInputError{}
	}

	c.mu.Lock()
	c.inputs = inputs
	c.state = StateLoading
	defaults := c.params
	var seq uint64
	if !viewExisting {
		seq = c.nextSeq()
	}
	c.mu.Unlock()

	if viewExisting {
		result, err := c.client.Get(ctx, inputs.ExtrapolationID)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.fail(err)
			return err
		}
		c.result = result
		c.params = result.Params
		c.saved = true
		c.state = StateReady
		c.lastErr = nil
		return nil
	}

	result, err := c.client.Calculate(ctx, dirsurvey.CalculateRequest{
		SurveyDataID: inputs.SurveyDataID,
		RunID:        inputs.RunID,
		Params:       defaults,
	})
	return c.applyCalculation(seq, defaults, result, err)
}

// Recalculate requests a fresh calculation with new parameters. The only
// local cross-field check is step ≤ length; everything else is the service's
// call. A successful recalculation always clears the saved flag, even when
// the parameters match the last saved ones.
func (c *Controller) Recalculate(ctx context.Context, params model.Params) error {
	if params.Step > params.Length {
		return eris.Errorf("workflow: step %.2f exceeds length %.2f", params.Step, params.Length)
	}

	c.mu.Lock()
	surveyID, runID := c.inputs.SurveyDataID, c.inputs.RunID
	if (surveyID == "" || runID == "") && c.result != nil {
		surveyID, runID = c.result.SurveyDataID, c.result.RunID
	}
	if surveyID == "" || runID == "" {
		c.mu.Unlock()
		return &MissingInputError{}
	}
	c.state = StateRecalculating
	seq := c.nextSeq()
	c.mu.Unlock()

	result, err := c.client.Calculate(ctx, dirsurvey.CalculateRequest{
		SurveyDataID: surveyID,
		RunID:        runID,
		Params:       params,
	})
	return c.applyCalculation(seq, params, result, err)
}

// Save persists the current in-memory result. It is a no-op when the result
// is already saved or nothing is loaded; in both cases no network call is
// made. On success the in-memory result is replaced with the identified copy
// the service returned.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.saved || c.result == nil {
		c.mu.Unlock()
		return nil
	}
	if c.state == StateSaving {
		c.mu.Unlock()
		return eris.New("workflow: save already in flight")
	}
	req := dirsurvey.CalculateRequest{
		SurveyDataID: c.result.SurveyDataID,
		RunID:        c.result.RunID,
		Params:       c.result.Params,
	}
	if req.SurveyDataID == "" {
		req.SurveyDataID = c.inputs.SurveyDataID
	}
	if req.RunID == "" {
		req.RunID = c.inputs.RunID
	}
	c.state = StateSaving
	c.mu.Unlock()

	saved, err := c.client.Create(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.fail(err)
		return err
	}
	c.result = saved
	c.saved = true
	c.state = StateReady
	c.lastErr = nil
	c.notice = &Notification{
		Message: "Extrapolation saved",
		Until:   c.now().Add(c.noticeTTL),
	}
	zap.L().Info("extrapolation saved",
		zap.String("id", saved.ID),
		zap.String("run_id", saved.RunID),
	)
	return nil
}

// applyCalculation installs a calculation response, or discards it when a
// newer response has already been applied.
func (c *Controller) applyCalculation(seq uint64, params model.Params, result *model.ExtrapolationResult, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.applied {
		zap.L().Debug("discarding stale calculation response",
			zap.Uint64("seq", seq),
			zap.Uint64("applied", c.applied),
		)
		return ErrStaleResponse
	}

	if err != nil {
		// The failed request still consumes its slot so an even older
		// in-flight response cannot overwrite the error's context later.
		c.applied = seq
		c.fail(err)
		return err
	}

	c.applied = seq
	c.result = result
	c.params = params
	c.saved = false
	c.state = StateReady
	c.lastErr = nil
	return nil
}

// fail records an error as page-level state. The last good result stays in
// place so the caller never loses it.
func (c *Controller) fail(err error) {
	c.state = StateError
	c.lastErr = err
}

func (c *Controller) nextSeq() uint64 {
	c.seq++
	return c.seq
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the current in-memory result, which may be nil.
func (c *Controller) Result() *model.ExtrapolationResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Params returns the editable parameter values.
func (c *Controller) Params() model.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// IsSaved reports whether the displayed result matches a persisted one.
func (c *Controller) IsSaved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved
}

// Err returns the error recorded by the most recent failed operation, or nil
// after a subsequent success.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Notification returns the active success notification, or nil once it has
// expired.
func (c *Controller) Notification() *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.notice == nil || c.now().After(c.notice.Until) {
		return nil
	}
	return c.notice
}

// CanRecalculate reports whether a recalculation trigger should be enabled.
func (c *Controller) CanRecalculate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateLoading && c.state != StateRecalculating && c.state != StateSaving && c.state != StateIdle
}

// CanSave reports whether the save trigger should be enabled.
func (c *Controller) CanSave() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result != nil && !c.saved && c.state != StateSaving && c.state != StateRecalculating && c.state != StateLoading
}
