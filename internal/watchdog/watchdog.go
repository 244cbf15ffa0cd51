package watchdog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/logging"
)

// Check reports a component's health. A nil error means healthy.
type Check func() error

// Watchdog runs housekeeping jobs and health checks on a fixed interval.
type Watchdog struct {
	checkInterval time.Duration

	mu         sync.Mutex
	components map[string]*ComponentHealth
	jobs       []job
	onChange   func(healthy bool)
	healthy    atomic.Bool

	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

type ComponentHealth struct {
	Name      string
	check     Check
	IsHealthy atomic.Bool
	failures  int
}

type job struct {
	name string
	fn   func()
}

func NewWatchdog(checkInterval time.Duration) *Watchdog {
	w := &Watchdog{
		checkInterval: checkInterval,
		components:    make(map[string]*ComponentHealth),
	}
	w.healthy.Store(true)
	return w
}

// RegisterComponent adds a health check. Components start healthy.
func (w *Watchdog) RegisterComponent(name string, check Check) {
	comp := &ComponentHealth{Name: name, check: check}
	comp.IsHealthy.Store(true)

	w.mu.Lock()
	w.components[name] = comp
	w.mu.Unlock()
}

// Every adds a job that runs once per interval.
func (w *Watchdog) Every(name string, fn func()) {
	w.mu.Lock()
	w.jobs = append(w.jobs, job{name: name, fn: fn})
	w.mu.Unlock()
}

// OnChange is called whenever overall health flips.
func (w *Watchdog) OnChange(fn func(healthy bool)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

func (w *Watchdog) Start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	go w.monitorLoop()
}

func (w *Watchdog) monitorLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.RunOnce()
		}
	}
}

// RunOnce runs every job and check a single time.
func (w *Watchdog) RunOnce() {
	w.mu.Lock()
	jobs := append([]job(nil), w.jobs...)
	components := make([]*ComponentHealth, 0, len(w.components))
	for _, comp := range w.components {
		components = append(components, comp)
	}
	onChange := w.onChange
	w.mu.Unlock()

	for _, j := range jobs {
		w.runJob(j)
	}

	healthy := true
	for _, comp := range components {
		if !w.checkComponent(comp) {
			healthy = false
		}
	}

	if w.healthy.Swap(healthy) != healthy && onChange != nil {
		onChange(healthy)
	}
}

func (w *Watchdog) runJob(j job) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Watchdog: job %s panicked: %v", j.name, r)
		}
	}()
	j.fn()
}

func (w *Watchdog) checkComponent(comp *ComponentHealth) bool {
	err := comp.check()
	if err == nil {
		if !comp.IsHealthy.Swap(true) {
			logging.Info("Watchdog: %s recovered", comp.Name)
		}
		comp.failures = 0
		return true
	}

	comp.failures++
	if comp.IsHealthy.Swap(false) {
		logging.Error("Watchdog: %s unhealthy: %v", comp.Name, err)
	} else {
		logging.Debug("Watchdog: %s still unhealthy (%d checks): %v", comp.Name, comp.failures, err)
	}
	return false
}

func (w *Watchdog) IsHealthy(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if comp, exists := w.components[name]; exists {
		return comp.IsHealthy.Load()
	}
	return false
}

// Healthy reports whether every component passed its last check.
func (w *Watchdog) Healthy() bool {
	return w.healthy.Load()
}

func (w *Watchdog) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stop)
	<-w.done
}

func (w *Watchdog) GetStatus() map[string]bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	status := make(map[string]bool, len(w.components))
	for name, comp := range w.components {
		status[name] = comp.IsHealthy.Load()
	}
	return status
}
