// Package notify fans orchestrator events out to human-facing channels.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/astralisone/astralis-core/internal/orchestrator"
)

// Notifier receives orchestrator events worth surfacing to humans.
type Notifier interface {
	Notify(evt orchestrator.Event)
}

// ConsoleNotifier writes one line per event to a writer, colorized by kind.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier creates a console notifier. A nil writer uses stderr.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stderr
	}
	return &ConsoleNotifier{out: out}
}

var _ Notifier = (*ConsoleNotifier)(nil)

// Notify writes a formatted line for the event.
func (n *ConsoleNotifier) Notify(evt orchestrator.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, formatEvent(evt))
}

func formatEvent(evt orchestrator.Event) string {
	switch evt.Name {
	case orchestrator.EventOverrideSet:
		if evt.Overridden != nil && *evt.Overridden {
			return fmt.Sprintf("%s task %s overridden by %s: %s",
				color.YellowString("⏸"), evt.TaskID, evt.ActorID, evt.Reason)
		}
		return fmt.Sprintf("%s task %s override cleared by %s",
			color.GreenString("▶"), evt.TaskID, evt.ActorID)
	case orchestrator.EventReprocessRequested:
		return fmt.Sprintf("%s task %s reprocess requested by %s",
			color.CyanString("↻"), evt.TaskID, evt.RequestedBy)
	case orchestrator.EventEvaluationCompleted:
		if evt.Suppressed {
			return fmt.Sprintf("%s task %s evaluation suppressed", color.YellowString("·"), evt.TaskID)
		}
		return fmt.Sprintf("%s task %s evaluated: %s", color.GreenString("✓"), evt.TaskID, evt.Action)
	case orchestrator.EventEvaluationFailed:
		return fmt.Sprintf("%s task %s evaluation failed: %s", color.RedString("✗"), evt.TaskID, evt.Error)
	default:
		return fmt.Sprintf("· task %s: %s", evt.TaskID, evt.Name)
	}
}

// Dispatcher subscribes to the event bus and forwards selected events to
// its notifiers until stopped.
type Dispatcher struct {
	bus       orchestrator.EventBus
	notifiers []Notifier
	logger    *orchestrator.DebugLogger

	done chan struct{}
	wg   sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given bus and notifiers.
func NewDispatcher(bus orchestrator.EventBus, logger *orchestrator.DebugLogger, notifiers ...Notifier) *Dispatcher {
	if logger == nil {
		logger = orchestrator.NopLogger()
	}
	return &Dispatcher{
		bus:       bus,
		notifiers: notifiers,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start subscribes to the notification-worthy event streams.
func (d *Dispatcher) Start() {
	names := []orchestrator.EventName{
		orchestrator.EventOverrideSet,
		orchestrator.EventReprocessRequested,
		orchestrator.EventEvaluationCompleted,
		orchestrator.EventEvaluationFailed,
	}
	for _, name := range names {
		ch, cancel := d.bus.Subscribe(name)
		d.wg.Add(1)
		go d.forward(ch, cancel)
	}
}

func (d *Dispatcher) forward(ch <-chan orchestrator.Event, cancel func()) {
	defer d.wg.Done()
	defer cancel()
	for {
		select {
		case <-d.done:
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			for _, n := range d.notifiers {
				n.Notify(evt)
			}
		}
	}
}

// Close stops forwarding and waits for in-flight notifications to drain.
func (d *Dispatcher) Close() {
	close(d.done)
	d.wg.Wait()
}
