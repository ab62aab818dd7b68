// Package engineloop is the host loop: it owns the window, ticks every
// registered scene at a configured rate, and drains profiler output.
// Adapted from the teacher's engine package, with the render loop's
// compute/shadow/light-culling/draw-call phases replaced by the scene
// ECS's own tick(dt) contract (acquire each viewport's swap-chain texture,
// run the scene's Update DAG, present).
package engineloop

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ovis-games/ovis-ecs/profiler"
	"github.com/ovis-games/ovis-ecs/scene"
	"github.com/ovis-games/ovis-ecs/window"
)

// Loop coordinates the tick goroutine and window message processing.
type Loop struct {
	tickRateChannel chan time.Duration

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickRate time.Duration

	scenesMu sync.RWMutex
	scenes   map[int]*scene.Scene

	renderFrameLimit time.Duration
}

// Option configures a Loop at construction, following the teacher's
// functional-options idiom.
type Option func(*Loop)

// WithProfiling enables or disables FPS/GC profiling output to the log.
func WithProfiling(enabled bool) Option {
	return func(l *Loop) { l.profilingEnabled = enabled }
}

// WithTickRate sets the scene tick rate in frames per second. Values <= 0
// fall back to the default (60Hz).
func WithTickRate(fps float64) Option {
	return func(l *Loop) {
		if fps <= 0 {
			fps = 60
		}
		l.tickRate = time.Second / time.Duration(fps)
	}
}

// WithWindow attaches a pre-configured window rather than letting the loop
// run headless (e.g. for the synthetic-scene example).
func WithWindow(w window.Window) Option {
	return func(l *Loop) { l.window = w }
}

// WithScene registers a scene at the given z-index key during
// construction. Scenes tick in ascending key order each frame.
func WithScene(key int, s *scene.Scene) Option {
	return func(l *Loop) { l.scenes[key] = s }
}

// WithRenderFrameLimit sets a minimum wall-clock duration per tick: after
// each tick the loop sleeps for whatever remains of 1/fps. Pass 0 to
// disable the sleep (default).
func WithRenderFrameLimit(fps float64) Option {
	return func(l *Loop) {
		if fps <= 0 {
			l.renderFrameLimit = 0
			return
		}
		l.renderFrameLimit = time.Second / time.Duration(fps)
	}
}

// New builds a Loop. Call Run to block until the window closes (or, for a
// headless loop, until Quit is called).
func New(opts ...Option) *Loop {
	l := &Loop{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]*scene.Scene),
		profiler:        profiler.NewProfiler(),
		tickRate:        time.Second / 60,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddScene registers a scene at the given z-index key.
func (l *Loop) AddScene(key int, s *scene.Scene) {
	l.scenesMu.Lock()
	defer l.scenesMu.Unlock()
	l.scenes[key] = s
}

// RemoveScene removes the scene registered at key.
func (l *Loop) RemoveScene(key int) {
	l.scenesMu.Lock()
	defer l.scenesMu.Unlock()
	delete(l.scenes, key)
}

// Window returns the loop's window, or nil for a headless loop.
func (l *Loop) Window() window.Window {
	return l.window
}

// Run starts the tick goroutine and blocks processing window messages.
// For a headless loop (no window attached), Run blocks until Quit is
// called. Unlike the teacher's engine (which splits a fixed-rate logic
// tick from an uncapped render loop with its own draw-call phases), a
// single tick loop drives everything here: each scene's Update DAG does
// both simulation and rendering jobs, so there is no separate phase left
// for a second goroutine to own.
func (l *Loop) Run() {
	l.running = true
	l.wg.Add(1)
	go l.runTicks()

	if l.window != nil {
		l.window.ProcessMessages()
		l.Quit()
		return
	}
	<-l.quitChannel
}

// Quit signals the tick goroutine to stop. Safe to call multiple times.
func (l *Loop) Quit() {
	l.quitOnce.Do(func() {
		l.running = false
		close(l.quitChannel)
	})
}

// SetTickRate changes the tick rate; if the loop is already running, the
// change is picked up by the running tick goroutine on its next select.
func (l *Loop) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if !l.running {
		l.tickRate = newRate
		return
	}

	select {
	case l.tickRateChannel <- newRate:
	default:
		select {
		case <-l.tickRateChannel:
		default:
		}
		l.tickRateChannel <- newRate
	}
}

func (l *Loop) runTicks() {
	defer l.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("engineloop: tick goroutine recovered from panic: %v", r)
			l.Quit()
		}
	}()

	ticker := time.NewTicker(l.tickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-l.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(lastTick)
			lastTick = now
			l.tickScenes(dt)

			if l.profilingEnabled && l.profiler != nil {
				l.profiler.Tick()
			}

			if l.renderFrameLimit > 0 {
				if remaining := l.renderFrameLimit - time.Since(now); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		case newRate := <-l.tickRateChannel:
			ticker.Reset(newRate)
			l.tickRate = newRate
		}
	}
}

func (l *Loop) tickScenes(dt time.Duration) {
	for _, key := range l.sortedSceneKeys() {
		s := l.scenes[key]
		viewports := s.State().Viewports()
		for _, vid := range viewports {
			if vp, ok := s.State().Viewport(vid); ok {
				if err := vp.AcquireFrame(); err != nil {
					log.Printf("engineloop: viewport %s: acquire frame: %v", vp.Label, err)
				}
			}
		}

		if err := s.Tick(dt); err != nil {
			log.Printf("engineloop: scene %d tick: %v", key, err)
		}

		for _, vid := range viewports {
			if vp, ok := s.State().Viewport(vid); ok {
				vp.Present()
			}
		}
	}
}

func (l *Loop) sortedSceneKeys() []int {
	l.scenesMu.RLock()
	defer l.scenesMu.RUnlock()

	keys := make([]int, 0, len(l.scenes))
	for k := range l.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

