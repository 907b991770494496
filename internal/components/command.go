package components

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/converge/internal/component"
	"github.com/danmuck/converge/internal/status"
	"github.com/rs/zerolog/log"
)

const (
	KindCommand = "command"

	defaultProbeTimeout = 5 * time.Second
)

var ErrEmptyCommand = errors.New("components: apply command is required")

// CommandSpec describes a unit brought up by one apply command and verified by an
// optional check command. Both are argv slices.
type CommandSpec struct {
	Apply        []string
	Check        []string
	LeaderOnly   bool
	Events       []string
	ProbeTimeout time.Duration
}

// CommandComponent runs Apply on configure and reports Check's outcome as status.
// A non-zero apply exit is remembered and reported as blocked until a later apply succeeds.
type CommandComponent struct {
	spec     CommandSpec
	runner   Runner
	phased   component.Phased
	isLeader func() bool

	mu        sync.Mutex
	applied   bool
	lastApply *ExitError
}

// NewCommandComponent builds a command component. A nil runner runs locally.
func NewCommandComponent(spec CommandSpec, runner Runner, isLeader func() bool) (*CommandComponent, error) {
	if len(spec.Apply) == 0 || strings.TrimSpace(spec.Apply[0]) == "" {
		return nil, ErrEmptyCommand
	}
	if runner == nil {
		runner = LocalRunner{}
	}
	if spec.ProbeTimeout <= 0 {
		spec.ProbeTimeout = defaultProbeTimeout
	}
	c := &CommandComponent{spec: spec, runner: runner, isLeader: isLeader}
	c.phased = component.Phased{IsLeader: isLeader}
	if spec.LeaderOnly {
		c.phased.AppLeader = c.apply
	} else {
		c.phased.Unit = c.apply
	}
	return c, nil
}

func (c *CommandComponent) Configure(ctx context.Context, event component.Event) error {
	return c.phased.Configure(ctx, event)
}

func (c *CommandComponent) apply(ctx context.Context, event component.Event) error {
	if !c.runner.Reachable(ctx) {
		log.Info().Str("target", c.runner.Target()).Msg("components.CommandComponent.apply unreachable, skipping")
		return nil
	}
	out, err := c.runner.Run(ctx, c.spec.Apply[0], c.spec.Apply[1:]...)
	// A killed process also reports an exit error; cancellation is a fault, not a status.
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("apply on %s interrupted: %w", c.runner.Target(), ctx.Err())
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		log.Warn().
			Str("target", c.runner.Target()).
			Int("code", exitErr.Code).
			Str("event", event.Name).
			Msg("components.CommandComponent.apply non-zero exit")
		c.mu.Lock()
		c.lastApply = exitErr
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply on %s: %w", c.runner.Target(), err)
	}
	log.Debug().Str("target", c.runner.Target()).Str("output", firstLine(out)).Msg("components.CommandComponent.apply ok")
	c.mu.Lock()
	c.applied = true
	c.lastApply = nil
	c.mu.Unlock()
	return nil
}

func (c *CommandComponent) Status() status.Status {
	ctx, cancel := context.WithTimeout(context.Background(), c.spec.ProbeTimeout)
	defer cancel()

	if !c.runner.Reachable(ctx) {
		return status.Waiting(fmt.Sprintf("waiting for %s", c.runner.Target()))
	}

	c.mu.Lock()
	applied, lastApply := c.applied, c.lastApply
	c.mu.Unlock()
	if lastApply != nil {
		return status.Blocked(fmt.Sprintf("apply failed (exit %d): %s", lastApply.Code, firstLine(lastApply.Output)))
	}

	if len(c.spec.Check) == 0 {
		if !applied && !c.skipsApply() {
			return status.Waiting("waiting to apply")
		}
		return status.Active("")
	}

	out, err := c.runner.Run(ctx, c.spec.Check[0], c.spec.Check[1:]...)
	if err != nil {
		msg := firstLine(out)
		if msg == "" {
			msg = err.Error()
		}
		return status.Waiting(fmt.Sprintf("check failed: %s; if this persists it may be a configuration error", msg))
	}
	return status.Active("")
}

// skipsApply reports whether this unit never runs apply because only the leader does.
func (c *CommandComponent) skipsApply() bool {
	if !c.spec.LeaderOnly {
		return false
	}
	return c.isLeader == nil || !c.isLeader()
}

func (c *CommandComponent) ReadyForExecution() bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.spec.ProbeTimeout)
	defer cancel()
	return c.runner.Reachable(ctx)
}

func (c *CommandComponent) Events() []string {
	return c.spec.Events
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return s
}
