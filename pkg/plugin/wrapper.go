package plugin

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/justyntemme/plugkit/pkg/framework/bus"
	"github.com/justyntemme/plugkit/pkg/framework/debug"
	"github.com/justyntemme/plugkit/pkg/framework/event"
	"github.com/justyntemme/plugkit/pkg/framework/param"
	"github.com/justyntemme/plugkit/pkg/framework/plugin"
	"github.com/justyntemme/plugkit/pkg/framework/process"
)

// BypassKey is the key of the built-in bypass parameter.
const BypassKey = "bypass"

// Wrapper drives one plugin instance for a host adapter. It owns the
// instance's parameter store and event queue.
//
// Lifecycle, parameter and state calls come from the control thread and are
// serialized by an internal mutex that Process never takes. Process runs on
// the audio thread; at most one Process call executes at a time.
type Wrapper struct {
	plugin Plugin
	info   plugin.Info
	cfg    Config
	log    *zap.Logger

	mu             sync.Mutex
	phase          atomic.Int32
	setup          Setup
	latency        int
	snapOnActivate bool

	store  *param.Store
	bypass *param.Parameter
	queue  *event.Queue
	out    *event.Ring[event.Event]

	// audio thread
	inProcess atomic.Bool
	ctx       *process.Context
	input     *process.Buffer
	output    *process.Buffer
	sub       *process.Buffer
	notes     []event.Event
	inCall    []event.Event
	inIdx     int
	inLast    int32
	blockLen  int

	status       atomic.Uint64
	faulted      atomic.Bool
	lastPanic    atomic.Pointer[string]
	meter        *debug.ProcessMeter
	violations   atomic.Uint64
	panics       atomic.Uint64
	droppedNotes atomic.Uint64

	// lifetime count across the contexts built by each configure
	droppedOutput atomic.Uint64
}

// NewWrapper declares the plugin's parameters and builds the store and
// queues. A bad parameter declaration is a *param.ConfigurationError and no
// wrapper is returned.
func NewWrapper(p Plugin, cfg Config) (*Wrapper, error) {
	cfg = cfg.withDefaults()
	info := p.Info()

	logger := cfg.Logger
	if logger == nil {
		logger = debug.Named("plugin")
	}
	logger = logger.With(zap.String("plugin", info.ID))

	params := p.DeclareParameters()
	builtin := cfg.BuiltinBypass && !hasBypass(params)
	if builtin {
		params = append(params[:len(params):len(params)], param.BypassParameter(BypassKey, "Bypass").Build())
	}
	store, err := param.NewStore(params...)
	if err != nil {
		return nil, fmt.Errorf("declare parameters of %s: %w", info.ID, err)
	}

	out := event.NewRing[event.Event](cfg.OutputQueueCapacity)
	w := &Wrapper{
		plugin: p,
		info:   info,
		cfg:    cfg,
		log:    logger,
		store:  store,
		queue:  event.NewQueue(cfg.QueueCapacity, store.Len()),
		out:    out,
		input:  process.NewBuffer(bus.MaxChannels),
		output: process.NewBuffer(bus.MaxChannels),
		sub:    process.NewBuffer(bus.MaxChannels),
		notes:  make([]event.Event, 0, cfg.MaxBlockEvents),
		meter:  debug.NewProcessMeter(),
	}
	if builtin {
		// a plugin that declares its own bypass handles it in Process
		w.bypass = store.Bypass()
	}
	w.status.Store(packStatus(process.Normal))
	logger.Debug("plugin wrapped", zap.Int("parameters", store.Len()))
	return w, nil
}

func hasBypass(params []*param.Parameter) bool {
	for _, p := range params {
		if p != nil && p.Flags&param.IsBypass != 0 {
			return true
		}
	}
	return false
}

// Info returns the plugin metadata.
func (w *Wrapper) Info() plugin.Info { return w.info }

// Parameters returns the instance's parameter store. Reading values is safe
// from any thread; writes should go through SetParameter so they reach the
// audio thread in order.
func (w *Wrapper) Parameters() *param.Store { return w.store }

// LatencySamples returns the plugin's reported latency for the current setup.
func (w *Wrapper) LatencySamples() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latency
}

// SetParameter sets a parameter by key to a normalized value. While the
// wrapper is Activated the change is queued for the start of the next block;
// otherwise it is written directly.
func (w *Wrapper) SetParameter(key string, normalized float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.Phase() == PhaseDestroyed {
		return w.violation("set parameter", key)
	}
	p, ok := w.store.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, key)
	}
	if w.Phase() == PhaseActivated {
		w.queue.Push(event.ParamChange(0, p.Index(), float32(normalized)))
		return nil
	}
	p.SetNormalized(normalized)
	return nil
}

// SetParameterPlain sets a parameter by key to a value in its natural unit.
func (w *Wrapper) SetParameterPlain(key string, plain float64) error {
	p, ok := w.store.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, key)
	}
	return w.SetParameter(key, p.Normalize(plain))
}

// PushEvent queues a timed event for the audio thread. Offsets are relative
// to the next block and must not decrease between pushes. Outside Activated,
// parameter changes are applied directly and note events are dropped.
func (w *Wrapper) PushEvent(e event.Event) event.PushResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e.Kind == event.KindParamChange && (e.Param < 0 || int(e.Param) >= w.store.Len()) {
		return event.Dropped
	}
	if w.Phase() != PhaseActivated {
		if e.Kind == event.KindParamChange {
			w.applyParam(e)
			return event.Accepted
		}
		return event.Dropped
	}
	return w.queue.Push(e)
}

// DrainOutput hands every event the plugin sent since the last call to fn
// and returns how many there were. Offsets are relative to the block that
// sent them.
func (w *Wrapper) DrainOutput(fn func(event.Event)) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for {
		e, ok := w.out.TryPop()
		if !ok {
			return n
		}
		fn(e)
		n++
	}
}

// TailSamples returns the tail length implied by the last process status:
// 0, a sample count, or process.InfiniteTail.
func (w *Wrapper) TailSamples() int {
	return w.loadStatus().TailSamples()
}

// LastStatus returns the status of the most recent process call.
func (w *Wrapper) LastStatus() process.Status {
	return w.loadStatus()
}

// Stats is a snapshot of the wrapper's counters.
type Stats struct {
	Phase         Phase
	Queue         event.Stats
	Process       debug.MeterSnapshot
	LastStatus    process.Status
	Faulted       bool
	Panics        uint64
	Violations    uint64
	DroppedNotes  uint64
	DroppedOutput uint64
}

// Stats returns the current counters. Safe from any thread.
func (w *Wrapper) Stats() Stats {
	return Stats{
		Phase:         w.Phase(),
		Queue:         w.queue.Stats(),
		Process:       w.meter.Snapshot(),
		LastStatus:    w.loadStatus(),
		Faulted:       w.faulted.Load(),
		Panics:        w.panics.Load(),
		Violations:    w.violations.Load(),
		DroppedNotes:  w.droppedNotes.Load(),
		DroppedOutput: w.droppedOutput.Load(),
	}
}

// Meter returns the real-time budget meter fed by Process.
func (w *Wrapper) Meter() *debug.ProcessMeter { return w.meter }

func (w *Wrapper) applyParam(e event.Event) {
	if e.Param < 0 || int(e.Param) >= w.store.Len() {
		return
	}
	w.store.At(int(e.Param)).SetNormalized(float64(e.Value))
}

func packStatus(s process.Status) uint64 {
	return uint64(s.Kind)<<32 | uint64(uint32(s.Tail))
}

func (w *Wrapper) loadStatus() process.Status {
	bits := w.status.Load()
	return process.Status{Kind: process.StatusKind(bits >> 32), Tail: int(uint32(bits))}
}
