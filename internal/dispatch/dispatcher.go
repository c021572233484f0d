// Package dispatch mirrors player actions to the relay without ever blocking
// the frame loop. Calls run on their own goroutines; their outcomes are
// queued and applied by Pump on the loop goroutine.
package dispatch

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/tomz197/furbo/internal/config"
	"github.com/tomz197/furbo/internal/relay"
	"github.com/tomz197/furbo/internal/session"
	"github.com/tomz197/furbo/internal/types"
)

// PendingAction is an action the relay has not resolved yet.
type PendingAction struct {
	ID          uint64
	Kind        types.Kind
	Action      types.Action
	SubmittedAt time.Time
	Epoch       uint64
}

// Reconcile is called on the loop goroutine once per submitted action.
type Reconcile func(PendingAction, types.Outcome)

// Authorizer decides on whose behalf an action may be relayed.
type Authorizer interface {
	Authorize(a types.Action) (types.Identity, error)
}

type entry struct {
	action    PendingAction
	reconcile Reconcile
	once      sync.Once
	slots     *semaphore.Weighted
	cancel    context.CancelFunc
	timer     *clock.Timer
}

type completion struct {
	entry   *entry
	outcome types.Outcome
}

// Dispatcher bounds in-flight relay calls and serialises their outcomes.
// Submit, Pump, InFlight and SetEpoch must be called from one goroutine.
type Dispatcher struct {
	cfg    config.Dispatch
	auth   Authorizer
	client relay.Client
	clock  clock.Clock
	logger *log.Logger
	slots  *semaphore.Weighted
	final  *semaphore.Weighted // Reserved for score actions once slots are full

	nextID  uint64
	epoch   uint64
	pending map[uint64]*entry

	mu   sync.Mutex
	done []completion
}

// New creates a dispatcher admitting at most cfg.MaxPending calls at once.
func New(cfg config.Dispatch, auth Authorizer, client relay.Client, clk clock.Clock, logger *log.Logger) *Dispatcher {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.MaxPending < 1 {
		cfg.MaxPending = 1
	}
	return &Dispatcher{
		cfg:     cfg,
		auth:    auth,
		client:  client,
		clock:   clk,
		logger:  logger,
		slots:   semaphore.NewWeighted(int64(cfg.MaxPending)),
		final:   semaphore.NewWeighted(1),
		pending: make(map[uint64]*entry),
	}
}

// Submit starts relaying a. It fails fast with ErrNotAuthenticated,
// ErrInvalidInput or ErrBackpressure, and in that case the relay is never
// contacted and reconcile is never called. A score action that finds every
// slot taken uses one extra reserved slot.
func (d *Dispatcher) Submit(a types.Action, reconcile Reconcile) (PendingAction, error) {
	if a == nil {
		return PendingAction{}, errorsmod.Wrap(types.ErrInvalidInput, "nil action")
	}
	player, err := d.auth.Authorize(a)
	if err != nil {
		return PendingAction{}, err
	}
	if err := validate(a); err != nil {
		return PendingAction{}, err
	}
	slots := d.slots
	if !slots.TryAcquire(1) {
		if a.Kind() != types.KindScore || !d.final.TryAcquire(1) {
			return PendingAction{}, errorsmod.Wrapf(types.ErrBackpressure, "%s: %d actions in flight", a.Kind(), len(d.pending))
		}
		slots = d.final
	}

	d.nextID++
	e := &entry{
		action: PendingAction{
			ID:          d.nextID,
			Kind:        a.Kind(),
			Action:      a,
			SubmittedAt: d.clock.Now(),
			Epoch:       d.epoch,
		},
		reconcile: reconcile,
		slots:     slots,
	}
	d.pending[e.action.ID] = e

	ctx, cancel := d.clock.WithTimeout(context.Background(), d.cfg.Timeout)
	e.cancel = cancel
	e.timer = d.clock.AfterFunc(d.cfg.Timeout, func() {
		d.post(e, types.Outcome{Err: errorsmod.Wrapf(types.ErrTimeout, "%s #%d after %s", e.action.Kind, e.action.ID, d.cfg.Timeout)})
	})
	d.logger.Debug("submitted", "kind", e.action.Kind, "id", e.action.ID)

	go func() {
		rec, err := d.client.SubmitAction(ctx, player, a)
		if err != nil {
			d.post(e, types.Outcome{Err: classify(ctx, err)})
			return
		}
		d.post(e, types.Outcome{Signature: rec.Signature})
	}()
	return e.action, nil
}

// SubmitFunc adapts the dispatcher for session providers.
func (d *Dispatcher) SubmitFunc() session.SubmitFunc {
	return func(a types.Action, done func(types.Outcome)) error {
		_, err := d.Submit(a, func(_ PendingAction, o types.Outcome) {
			done(o)
		})
		return err
	}
}

// post queues the first outcome reported for e; later ones are dropped.
func (d *Dispatcher) post(e *entry, o types.Outcome) {
	e.once.Do(func() {
		d.mu.Lock()
		d.done = append(d.done, completion{entry: e, outcome: o})
		d.mu.Unlock()
	})
}

// Pump applies queued outcomes in the order they were posted, freeing their
// slots before invoking the reconcile callbacks. It returns how many were
// applied.
func (d *Dispatcher) Pump() int {
	d.mu.Lock()
	batch := d.done
	d.done = nil
	d.mu.Unlock()

	for _, c := range batch {
		e := c.entry
		e.timer.Stop()
		e.cancel()
		delete(d.pending, e.action.ID)
		e.slots.Release(1)

		if c.outcome.Confirmed() {
			d.logger.Debug("confirmed", "kind", e.action.Kind, "id", e.action.ID, "sig", c.outcome.Signature)
		} else {
			d.logger.Warn("action failed", "kind", e.action.Kind, "id", e.action.ID, "err", c.outcome.Err)
		}
		if e.reconcile != nil {
			e.reconcile(e.action, c.outcome)
		}
	}
	return len(batch)
}

// InFlight returns the number of unresolved actions.
func (d *Dispatcher) InFlight() int {
	return len(d.pending)
}

// Capacity returns the in-flight limit for move, shoot and register.
func (d *Dispatcher) Capacity() int {
	return d.cfg.MaxPending
}

// SetEpoch tags later submissions with epoch so stale outcomes can be told
// apart after a reset.
func (d *Dispatcher) SetEpoch(epoch uint64) {
	d.epoch = epoch
}

func validate(a types.Action) error {
	switch act := a.(type) {
	case types.Move:
		if act.Direction < types.DirLeft || act.Direction > types.DirRight {
			return errorsmod.Wrapf(types.ErrInvalidInput, "move direction %d", act.Direction)
		}
		return finite("move", act.ShipX)
	case types.Shoot:
		return finite("shoot", act.ShipX)
	case types.Register:
		return act.Identity.Validate()
	case types.Score:
		if act.Score < 0 || act.DurationMs < 0 {
			return errorsmod.Wrapf(types.ErrInvalidInput, "score %d over %dms", act.Score, act.DurationMs)
		}
		return nil
	default:
		return errorsmod.Wrapf(types.ErrInvalidInput, "unknown action %T", a)
	}
}

func finite(kind string, x float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return errorsmod.Wrapf(types.ErrInvalidInput, "%s: ship x is %v", kind, x)
	}
	return nil
}

// classify maps a client error onto the relay failure taxonomy.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, types.ErrRelayRejected),
		errors.Is(err, types.ErrRelayUnreachable),
		errors.Is(err, types.ErrTimeout):
		return err
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errorsmod.Wrap(types.ErrTimeout, err.Error())
	default:
		return errorsmod.Wrap(types.ErrRelayUnreachable, err.Error())
	}
}
