// Package dutycycle drives the repeating on/off cycle over a fixed device set.
package dutycycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/lightcycle/internal/hue"
)

// Phase is one of the two controller states.
type Phase string

const (
	PhaseOn  Phase = "on"
	PhaseOff Phase = "off"
)

// Other returns the phase that follows p.
func (p Phase) Other() Phase {
	if p == PhaseOn {
		return PhaseOff
	}
	return PhaseOn
}

// Event describes something the controller did, for auditing.
// LightID and Err are set only for per-device failures.
type Event struct {
	Phase     Phase
	Cycle     int
	Attempted int
	Failed    int
	LightID   string
	Err       error
}

// Recorder persists controller events. Errors are logged and otherwise ignored.
type Recorder interface {
	Record(ev Event) error
}

// Config holds the cycle timing.
type Config struct {
	On           time.Duration
	Off          time.Duration // non-positive values are treated as zero
	RateLimitRPS float64       // bridge commands per second, 0 = default 10
}

// Status is a point-in-time view of the controller.
type Status struct {
	Running        bool       `json:"running"`
	Phase          Phase      `json:"phase,omitempty"`
	Cycle          int        `json:"cycle"`
	Devices        int        `json:"devices"`
	LastTransition *time.Time `json:"last_transition,omitempty"` // nil until the first transition
	LastFailures   int        `json:"last_failures"`
	TotalFailures  int        `json:"total_failures"`
}

// Controller is a two-state machine: ON, sleep On, OFF, sleep Off, repeat.
// It starts in ON and only stops when its context is cancelled.
type Controller struct {
	sw       hue.Switch
	devices  []string
	on, off  time.Duration
	clock    Clock
	limiter  *rate.Limiter
	recorder Recorder

	// next and cycle are only touched by the goroutine running Step
	next  Phase
	cycle int

	mu     sync.RWMutex
	status Status
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, typically with a fake in tests.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithRecorder attaches an event recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// New creates a controller for the given light IDs.
func New(sw hue.Switch, devices []string, cfg Config, opts ...Option) *Controller {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 10.0
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	off := cfg.Off
	if off < 0 {
		off = 0
	}

	c := &Controller{
		sw:      sw,
		devices: append([]string(nil), devices...),
		on:      cfg.On,
		off:     off,
		clock:   RealClock{},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		next:    PhaseOn,
		status:  Status{Devices: len(devices)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns a copy of the current status. Safe for concurrent use.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Run loops until ctx is cancelled. Cancellation is not an error.
func (c *Controller) Run(ctx context.Context) error {
	log.Info().
		Int("devices", len(c.devices)).
		Dur("on", c.on).
		Dur("off", c.off).
		Msg("Duty cycle started")

	c.setRunning(true)
	defer c.setRunning(false)

	for {
		if err := c.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info().Msg("Duty cycle stopping")
				return nil
			}
			return err
		}
	}
}

// Step applies the next phase to every device and then sleeps for that phase.
func (c *Controller) Step(ctx context.Context) error {
	phase := c.next
	if phase == PhaseOn {
		c.cycle++
	}

	failed, err := c.apply(ctx, phase)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.status.Phase = phase
	c.status.Cycle = c.cycle
	now := c.clock.Now()
	c.status.LastTransition = &now
	c.status.LastFailures = failed
	c.status.TotalFailures += failed
	c.mu.Unlock()

	event := log.Info()
	if failed > 0 {
		event = log.Warn()
	}
	event.
		Str("phase", string(phase)).
		Int("cycle", c.cycle).
		Int("devices", len(c.devices)).
		Int("failed", failed).
		Msgf("Devices turned %s", phase)

	c.record(Event{Phase: phase, Cycle: c.cycle, Attempted: len(c.devices), Failed: failed})

	c.next = phase.Other()

	wait := c.on
	if phase == PhaseOff {
		wait = c.off
	}
	log.Debug().Dur("sleep_duration", wait).Str("next", string(c.next)).Msg("Duty cycle sleeping")
	return c.clock.Sleep(ctx, wait)
}

// apply switches every device, attempting all of them regardless of earlier
// failures. Only context cancellation aborts the pass.
func (c *Controller) apply(ctx context.Context, phase Phase) (int, error) {
	on := phase == PhaseOn
	failed := 0

	for _, id := range c.devices {
		if err := c.limiter.Wait(ctx); err != nil {
			return failed, err
		}
		if err := c.sw.SetOn(ctx, id, on); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return failed, ctxErr
			}
			failed++
			log.Error().Err(err).Str("light", id).Bool("on", on).Msg("Failed to switch light")
			c.record(Event{Phase: phase, Cycle: c.cycle, LightID: id, Err: err})
		}
	}

	return failed, nil
}

func (c *Controller) record(ev Event) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ev); err != nil {
		log.Warn().Err(err).Str("phase", string(ev.Phase)).Msg("Failed to record duty cycle event")
	}
}

func (c *Controller) setRunning(running bool) {
	c.mu.Lock()
	c.status.Running = running
	c.mu.Unlock()
}
