package workflow

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drillops/survey-cli/internal/model"
	"github.com/drillops/survey-cli/pkg/dirsurvey"
)

// fakeClient implements dirsurvey.Client with per-operation hooks and call
// counters.
type fakeClient struct {
	calculateFn func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error)
	createFn    func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error)
	getFn       func(ctx context.Context, id string) (*model.ExtrapolationResult, error)

	calculateCalls atomic.Int32
	createCalls    atomic.Int32
	getCalls       atomic.Int32
}

func (f *fakeClient) Calculate(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
	f.calculateCalls.Add(1)
	return f.calculateFn(ctx, req)
}

func (f *fakeClient) Create(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
	f.createCalls.Add(1)
	return f.createFn(ctx, req)
}

func (f *fakeClient) Get(ctx context.Context, id string) (*model.ExtrapolationResult, error) {
	f.getCalls.Add(1)
	return f.getFn(ctx, id)
}

func (f *fakeClient) ListByRun(ctx context.Context, runID string) ([]model.ExtrapolationResult, error) {
	return nil, nil
}

func (f *fakeClient) Delete(ctx context.Context, id string) error {
	return nil
}

// calculated builds a result as the calculate endpoint would return it.
func calculated(params model.Params) *model.ExtrapolationResult {
	series := model.PointSeries{
		MD:       []float64{0},
		Inc:      []float64{0},
		Azi:      []float64{0},
		Northing: []float64{0},
		Easting:  []float64{0},
		TVD:      []float64{0},
	}
	return &model.ExtrapolationResult{
		SurveyDataID: "s1",
		RunID:        "r1",
		Params:       params,
		Original:     series,
		Combined:     series,
	}
}

func TestLoad_ViewExisting(t *testing.T) {
	// Scenario: loading by id seeds the editable parameters from the saved
	// result and marks it saved.
	saved := calculated(model.Params{Length: 250, Step: 25, InterpStep: 5, Method: model.MethodLinearTrend})
	saved.ID = "abc-123"

	fc := &fakeClient{
		getFn: func(ctx context.Context, id string) (*model.ExtrapolationResult, error) {
			assert.Equal(t, "abc-123", id)
			return saved, nil
		},
	}
	c := New(fc)

	require.NoError(t, c.Load(context.Background(), Inputs{ExtrapolationID: "abc-123"}))

	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, model.MethodLinearTrend, c.Params().Method)
	assert.Equal(t, 250.0, c.Params().Length)
	assert.True(t, c.IsSaved())
	assert.Equal(t, int32(1), fc.getCalls.Load())
	assert.Equal(t, int32(0), fc.calculateCalls.Load())
}

func TestLoad_CalculateNew(t *testing.T) {
	// Scenario: with survey and run ids, the controller calculates with the
	// default parameters and the result starts unsaved.
	fc := &fakeClient{
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			assert.Equal(t, "s1", req.SurveyDataID)
			assert.Equal(t, "r1", req.RunID)
			assert.Equal(t, 200.0, req.Length)
			assert.Equal(t, 10.0, req.Step)
			assert.Equal(t, 10.0, req.InterpStep)
			assert.Equal(t, model.MethodConstant, req.Method)
			return calculated(req.Params), nil
		},
	}
	c := New(fc)

	require.NoError(t, c.Load(context.Background(), Inputs{SurveyDataID: "s1", RunID: "r1"}))

	assert.Equal(t, StateReady, c.State())
	assert.False(t, c.IsSaved())
	assert.NotNil(t, c.Result())
}

func TestLoad_CalculateNewWithConfiguredDefaults(t *testing.T) {
	configured := model.Params{Length: 500, Step: 20, InterpStep: 5, Method: model.MethodCurveFit}

	fc := &fakeClient{
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			assert.Equal(t, configured, req.Params)
			return calculated(req.Params), nil
		},
	}
	c := New(fc, WithDefaultParams(configured))

	require.NoError(t, c.Load(context.Background(), Inputs{SurveyDataID: "s1", RunID: "r1"}))
	assert.Equal(t, configured, c.Params())
}

func TestLoad_NewSentinelMeansCalculate(t *testing.T) {
	fc := &fakeClient{
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			return calculated(req.Params), nil
		},
	}
	c := New(fc)

	require.NoError(t, c.Load(context.Background(), Inputs{
		ExtrapolationID: NewExtrapolationID,
		SurveyDataID:    "s1",
		RunID:           "r1",
	}))
	assert.Equal(t, int32(0), fc.getCalls.Load())
	assert.Equal(t, int32(1), fc.calculateCalls.Load())
}

func TestLoad_MissingInputs(t *testing.T) {
	fc := &fakeClient{}
	c := New(fc)

	err := c.Load(context.Background(), Inputs{RunID: "r1"})
	require.Error(t, err)
	var missing *MissingInputError
	require.ErrorAs(t, err, &missing)

	// No network call of any kind, state untouched.
	assert.Equal(t, int32(0), fc.getCalls.Load())
	assert.Equal(t, int32(0), fc.calculateCalls.Load())
	assert.Equal(t, StateIdle, c.State())
}

func TestRecalculate_ClearsSaved(t *testing.T) {
	// Scenario: recalculating from a loaded saved result clears the saved
	// flag even when only one parameter changed.
	saved := calculated(model.Params{Length: 200, Step: 10, InterpStep: 10, Method: model.MethodLinearTrend})
	saved.ID = "abc-123"

	fc := &fakeClient{
		getFn: func(ctx context.Context, id string) (*model.ExtrapolationResult, error) {
			return saved, nil
		},
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			// Linkage resolved from the loaded result.
			assert.Equal(t, "s1", req.SurveyDataID)
			assert.Equal(t, "r1", req.RunID)
			assert.Equal(t, 300.0, req.Length)
			return calculated(req.Params), nil
		},
	}
	c := New(fc)
	require.NoError(t, c.Load(context.Background(), Inputs{ExtrapolationID: "abc-123"}))
	require.True(t, c.IsSaved())

	params := c.Params()
	params.Length = 300
	require.NoError(t, c.Recalculate(context.Background(), params))

	assert.False(t, c.IsSaved())
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, 300.0, c.Params().Length)
}

func TestRecalculate_SameParamsStillClearsSaved(t *testing.T) {
	saved := calculated(model.DefaultParams())
	saved.ID = "abc-123"

	fc := &fakeClient{
		getFn: func(ctx context.Context, id string) (*model.ExtrapolationResult, error) {
			return saved, nil
		},
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			return calculated(req.Params), nil
		},
	}
	c := New(fc)
	require.NoError(t, c.Load(context.Background(), Inputs{ExtrapolationID: "abc-123"}))

	// Byte-identical parameters: saved must still flip to false.
	require.NoError(t, c.Recalculate(context.Background(), c.Params()))
	assert.False(t, c.IsSaved())
}

func TestRecalculate_StepExceedsLength(t *testing.T) {
	fc := &fakeClient{}
	c := New(fc)

	err := c.Recalculate(context.Background(), model.Params{Length: 10, Step: 50, InterpStep: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds length")
	assert.Equal(t, int32(0), fc.calculateCalls.Load())
}

func TestRecalculate_FailureKeepsLastGoodResult(t *testing.T) {
	good := calculated(model.DefaultParams())
	calls := 0
	fc := &fakeClient{
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			calls++
			if calls == 1 {
				return good, nil
			}
			return nil, &dirsurvey.ServerError{Status: 500, Body: "boom"}
		},
	}
	c := New(fc)
	require.NoError(t, c.Load(context.Background(), Inputs{SurveyDataID: "s1", RunID: "r1"}))

	err := c.Recalculate(context.Background(), c.Params())
	require.Error(t, err)

	assert.Equal(t, StateError, c.State())
	require.Error(t, c.Err())
	// The previously successful result is still there.
	assert.Same(t, good, c.Result())

	// Error is non-terminal: the next success returns to Ready.
	calls = 0
	require.NoError(t, c.Recalculate(context.Background(), c.Params()))
	assert.Equal(t, StateReady, c.State())
	assert.NoError(t, c.Err())
}

func TestRecalculate_StaleResponseDiscarded(t *testing.T) {
	// Two overlapping recalculations: the older response resolves last and
	// must be discarded.
	first := make(chan struct{})
	release := make(chan struct{})

	slow := calculated(model.Params{Length: 100, Step: 10, InterpStep: 10})
	fast := calculated(model.Params{Length: 900, Step: 10, InterpStep: 10})

	fc := &fakeClient{
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			if req.Length == 100 {
				close(first)
				<-release
				return slow, nil
			}
			return fast, nil
		},
	}
	c := New(fc)
	c.mu.Lock()
	c.inputs = Inputs{SurveyDataID: "s1", RunID: "r1"}
	c.state = StateReady
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- c.Recalculate(context.Background(), model.Params{Length: 100, Step: 10, InterpStep: 10})
	}()
	<-first

	// The newer request resolves first and wins.
	require.NoError(t, c.Recalculate(context.Background(), model.Params{Length: 900, Step: 10, InterpStep: 10}))
	close(release)

	err := <-done
	require.ErrorIs(t, err, ErrStaleResponse)

	assert.Same(t, fast, c.Result())
	assert.Equal(t, 900.0, c.Params().Length)
	assert.Equal(t, StateReady, c.State())
}

func TestSave(t *testing.T) {
	// Scenario: saving an unsaved result sends its own parameters and
	// linkage, and the identified copy replaces the in-memory result.
	unsaved := calculated(model.Params{Length: 300, Step: 10, InterpStep: 10, Method: model.MethodCurveFit})

	fc := &fakeClient{
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			return unsaved, nil
		},
		createFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			assert.Equal(t, "s1", req.SurveyDataID)
			assert.Equal(t, "r1", req.RunID)
			assert.Equal(t, 300.0, req.Length)
			assert.Equal(t, model.MethodCurveFit, req.Method)

			persisted := *unsaved
			persisted.ID = "ex-99"
			return &persisted, nil
		},
	}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	c := New(fc, WithClock(func() time.Time { return now }), WithNotificationTTL(3*time.Second))

	require.NoError(t, c.Load(context.Background(), Inputs{SurveyDataID: "s1", RunID: "r1"}))
	require.False(t, c.IsSaved())

	require.NoError(t, c.Save(context.Background()))

	assert.True(t, c.IsSaved())
	assert.Equal(t, "ex-99", c.Result().ID)
	assert.Equal(t, StateReady, c.State())

	// Success notification is visible now and auto-expires.
	notice := c.Notification()
	require.NotNil(t, notice)
	assert.Equal(t, "Extrapolation saved", notice.Message)

	now = now.Add(4 * time.Second)
	assert.Nil(t, c.Notification())
}

func TestSave_NoOpWhenAlreadySaved(t *testing.T) {
	saved := calculated(model.DefaultParams())
	saved.ID = "abc-123"

	fc := &fakeClient{
		getFn: func(ctx context.Context, id string) (*model.ExtrapolationResult, error) {
			return saved, nil
		},
	}
	c := New(fc)
	require.NoError(t, c.Load(context.Background(), Inputs{ExtrapolationID: "abc-123"}))

	// Already saved: zero network calls.
	require.NoError(t, c.Save(context.Background()))
	assert.Equal(t, int32(0), fc.createCalls.Load())
}

func TestSave_NoOpWithoutResult(t *testing.T) {
	fc := &fakeClient{}
	c := New(fc)

	require.NoError(t, c.Save(context.Background()))
	assert.Equal(t, int32(0), fc.createCalls.Load())
}

func TestSave_FailureKeepsResultUnsaved(t *testing.T) {
	fc := &fakeClient{
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			return calculated(req.Params), nil
		},
		createFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			return nil, &dirsurvey.ServerError{Status: 503, Body: "unavailable"}
		},
	}
	c := New(fc)
	require.NoError(t, c.Load(context.Background(), Inputs{SurveyDataID: "s1", RunID: "r1"}))

	require.Error(t, c.Save(context.Background()))
	assert.Equal(t, StateError, c.State())
	assert.False(t, c.IsSaved())
	assert.NotNil(t, c.Result())
}

func TestTriggerGuards(t *testing.T) {
	fc := &fakeClient{
		calculateFn: func(ctx context.Context, req dirsurvey.CalculateRequest) (*model.ExtrapolationResult, error) {
			return calculated(req.Params), nil
		},
	}
	c := New(fc)

	assert.False(t, c.CanRecalculate())
	assert.False(t, c.CanSave())

	require.NoError(t, c.Load(context.Background(), Inputs{SurveyDataID: "s1", RunID: "r1"}))
	assert.True(t, c.CanRecalculate())
	assert.True(t, c.CanSave())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "recalculating", StateRecalculating.String())
	assert.Equal(t, "unknown", State(99).String())
}
