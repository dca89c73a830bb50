// Package signals watches the .astralis/signals directory for control files
// dropped by external tooling and translates them into orchestrator calls.
//
// Signal files are YAML and named by operation:
//
//	override-<taskID>   set or clear a task override
//	reprocess-<taskID>  request re-evaluation of a task
//
// Processed files are removed; malformed files are removed and logged.
package signals

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/astralisone/astralis-core/internal/orchestrator"
)

// OverrideSetter applies override changes to tasks.
type OverrideSetter interface {
	SetOverride(taskID string, overridden bool, reason, actorID string) (*orchestrator.OverrideResult, error)
}

// Reprocessor accepts reprocess requests for tasks.
type Reprocessor interface {
	RequestReprocess(taskID, requestedBy, reason string) (*orchestrator.ReprocessAck, error)
}

// overrideSignal is the YAML body of an override-<taskID> file.
type overrideSignal struct {
	Overridden bool   `yaml:"overridden"`
	Reason     string `yaml:"reason"`
	ActorID    string `yaml:"actor_id"`
}

// reprocessSignal is the YAML body of a reprocess-<taskID> file.
type reprocessSignal struct {
	RequestedBy string `yaml:"requested_by"`
	Reason      string `yaml:"reason"`
}

// Watcher monitors a signals directory and dispatches control files.
type Watcher struct {
	signalsDir string
	overrides  OverrideSetter
	reprocess  Reprocessor
	logger     *orchestrator.DebugLogger

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher rooted at projectDir/.astralis/signals.
func NewWatcher(projectDir string, overrides OverrideSetter, reprocess Reprocessor, logger *orchestrator.DebugLogger) (*Watcher, error) {
	if logger == nil {
		logger = orchestrator.NopLogger()
	}

	signalsDir := filepath.Join(projectDir, ".astralis", "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating signals directory: %w", err)
	}

	w := &Watcher{
		signalsDir: signalsDir,
		overrides:  overrides,
		reprocess:  reprocess,
		logger:     logger,
		done:       make(chan struct{}),
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(signalsDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", signalsDir, err)
	}
	w.watcher = fsw

	return w, nil
}

// Start begins watching. Any signal files already present are processed first
// so signals dropped while the watcher was down are not lost.
func (w *Watcher) Start() {
	w.Sweep()

	w.wg.Add(1)
	go w.watch()
}

// Sweep processes all signal files currently in the directory.
func (w *Watcher) Sweep() {
	entries, err := os.ReadDir(w.signalsDir)
	if err != nil {
		w.logger.Log("signal sweep failed: %v", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.process(filepath.Join(w.signalsDir, entry.Name()))
	}
}

func (w *Watcher) watch() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0 {
				w.process(event.Name)
			}
		case <-w.watcher.Errors:
			// Keep watching; Sweep covers anything missed.
		}
	}
}

// process dispatches a single signal file and removes it.
func (w *Watcher) process(path string) {
	base := filepath.Base(path)

	var err error
	switch {
	case strings.HasPrefix(base, "override-"):
		err = w.handleOverride(path, strings.TrimPrefix(base, "override-"))
	case strings.HasPrefix(base, "reprocess-"):
		err = w.handleReprocess(path, strings.TrimPrefix(base, "reprocess-"))
	default:
		// Not a recognized signal; leave it alone.
		return
	}

	if err != nil {
		w.logger.Log("signal %s: %v", base, err)
	}
	os.Remove(path)
}

func (w *Watcher) handleOverride(path, taskID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var sig overrideSignal
	if err := yaml.Unmarshal(data, &sig); err != nil {
		return fmt.Errorf("parsing override signal: %w", err)
	}

	result, err := w.overrides.SetOverride(taskID, sig.Overridden, sig.Reason, sig.ActorID)
	if err != nil {
		return err
	}
	w.logger.Log("signal override %s: %s", taskID, result.Message)
	return nil
}

func (w *Watcher) handleReprocess(path, taskID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var sig reprocessSignal
	if err := yaml.Unmarshal(data, &sig); err != nil {
		return fmt.Errorf("parsing reprocess signal: %w", err)
	}

	ack, err := w.reprocess.RequestReprocess(taskID, sig.RequestedBy, sig.Reason)
	if err != nil {
		return err
	}
	w.logger.Log("signal reprocess %s: %s", taskID, ack.Message)
	return nil
}

// SignalsDir returns the watched directory path.
func (w *Watcher) SignalsDir() string {
	return w.signalsDir
}

// Close stops watching and waits for the watch loop to exit.
func (w *Watcher) Close() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
	w.wg.Wait()
}
