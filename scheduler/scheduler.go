// Package scheduler implements the per-frame dependency-scheduled job
// executor: a bounded worker pool consuming a DAG of jobs with per-frame
// resets, per-viewport fan-out, and deterministic completion signalling.
// This is the hardest component in the system.
package scheduler

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/ovis-games/ovis-ecs/common"
	"github.com/ovis-games/ovis-ecs/errs"
	"github.com/ovis-games/ovis-ecs/id"
	"github.com/ovis-games/ovis-ecs/job"
	"github.com/ovis-games/ovis-ecs/resource"
	"github.com/ovis-games/ovis-ecs/scenestate"
)

const (
	workerQueueSize   = 4096
	workerTaskTimeout = 30 * time.Second
)

// PipelineResolver resolves the render pipeline to seed into a per-viewport
// job invocation's SystemResources. The scheduler only caches whatever this
// returns — it never constructs a pipeline itself.
type PipelineResolver func(jobID id.JobId, viewportID id.ViewportId) *wgpu.RenderPipeline

type pipelineKey struct {
	job      id.JobId
	viewport id.ViewportId
}

// compiledJob is one job's scheduler-internal bookkeeping: its classified
// predecessor counts, successor indices, and the per-frame atomic counter
// the saturation rule reads.
type compiledJob struct {
	job *job.Job

	regularPredecessors     int
	perViewportPredecessors int
	successors              []int

	dependenciesFinished atomic.Int64
}

// Scheduler builds an immutable DAG from all registered jobs of one Kind
// and executes it once per tick(dt) call.
type Scheduler struct {
	kind     job.Kind
	jobs     []*compiledJob
	jobIndex map[id.JobId]int
	roots    []int

	regularJobCount     int
	perViewportJobCount int

	state *scenestate.SceneState

	workers     worker.DynamicWorkerPool
	workerCount int
	taskCounter atomic.Int64

	pipelineMu       sync.RWMutex
	pipelineResolver PipelineResolver
	pipelineCache    map[pipelineKey]*wgpu.RenderPipeline

	frameMu sync.Mutex

	// currentViewports/currentViewportCount are set once at the top of
	// RunJobs (a single writer) before the ready queue is populated, and
	// only read by workers after they dequeue a task — the queue's own
	// synchronization (the worker pool's internal mutex) is what the
	// frame-protocol's ordering guarantee relies on, exactly as described
	// for game_time/delta_time.
	currentViewports     []id.ViewportId
	currentViewportCount int
	gameTime             time.Duration
	deltaTime            time.Duration

	expectedTotal int
	jobsFinished  atomic.Int64
	resultSent    atomic.Bool
	resultCh      chan error

	// inFlight counts (job, viewport) invocations submitted but not yet
	// returned from runOne this frame. RunJobs waits on it after receiving
	// from resultCh, even on error, so that no task from the errored frame
	// is still reading/mutating resultCh/jobsFinished/resultSent by the
	// time the next RunJobs call resets them — those fields are only safe
	// to reassign once this frame's worker goroutines have fully drained.
	inFlight sync.WaitGroup
}

// Option configures a Scheduler at construction, following the module's
// functional-options idiom.
type Option func(*Scheduler)

// WithWorkerCount overrides the default worker pool size (available
// hardware parallelism, fallback 4).
func WithWorkerCount(n int) Option {
	return func(s *Scheduler) {
		s.workerCount = common.Coalesce(n, s.workerCount)
	}
}

// WithPipelineResolver installs the function used to seed
// SystemResources.Pipeline for per-viewport jobs. Call RebuildPipelineCache
// after installing or whenever the viewport set changes.
func WithPipelineResolver(resolver PipelineResolver) Option {
	return func(s *Scheduler) {
		s.pipelineResolver = resolver
	}
}

func defaultWorkerCount() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 4
}

// New builds a Scheduler over every job of kind registered in registry,
// validating the DAG (no cycles, no unordered double-write pairs) before
// returning. A validation failure is a Configuration error and the
// Scheduler is not constructed.
func New(registry *job.Registry, kind job.Kind, state *scenestate.SceneState, opts ...Option) (*Scheduler, error) {
	jobs := registry.JobsOfKind(kind)

	jobIndex := make(map[id.JobId]int, len(jobs))
	for i, j := range jobs {
		jobIndex[j.ID] = i
	}

	compiled := make([]*compiledJob, len(jobs))
	for i, j := range jobs {
		compiled[i] = &compiledJob{job: j}
	}
	for i, j := range jobs {
		for pred := range j.Predecessors {
			predIdx, ok := jobIndex[pred]
			if !ok {
				continue
			}
			compiled[predIdx].successors = append(compiled[predIdx].successors, i)
			if compiled[predIdx].job.PerViewport {
				compiled[i].perViewportPredecessors++
			} else {
				compiled[i].regularPredecessors++
			}
		}
	}

	var roots []int
	regularJobCount, perViewportJobCount := 0, 0
	for i, cj := range compiled {
		if len(cj.job.Predecessors) == 0 {
			roots = append(roots, i)
		}
		if cj.job.PerViewport {
			perViewportJobCount++
		} else {
			regularJobCount++
		}
	}

	if err := detectCycle(compiled); err != nil {
		return nil, err
	}
	if err := validateResourceAccess(compiled); err != nil {
		return nil, err
	}

	s := &Scheduler{
		kind:                kind,
		jobs:                compiled,
		jobIndex:            jobIndex,
		roots:               roots,
		regularJobCount:     regularJobCount,
		perViewportJobCount: perViewportJobCount,
		state:               state,
		workerCount:         defaultWorkerCount(),
		pipelineCache:       make(map[pipelineKey]*wgpu.RenderPipeline),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.workers = worker.NewDynamicWorkerPool(s.workerCount, workerQueueSize, workerTaskTimeout)

	return s, nil
}

// detectCycle runs Kahn's algorithm over the compiled job list, failing if
// it cannot fully order the graph — the scheduler-construction cycle check
// the source left undone.
func detectCycle(compiled []*compiledJob) error {
	indegree := make([]int, len(compiled))
	for i, cj := range compiled {
		indegree[i] = cj.regularPredecessors + cj.perViewportPredecessors
	}

	queue := make([]int, 0, len(compiled))
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, succ := range compiled[n].successors {
			indegree[succ]--
			if indegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if visited != len(compiled) {
		return errs.New(errs.Configuration, errs.Here(), "job dependency graph contains a cycle")
	}
	return nil
}

// validateResourceAccess enforces "two jobs sharing a resource must be
// connected by a path in the DAG if both declare write access" — a
// read/write or read/read overlap is left to the per-resource RWMutex,
// which is safe regardless of DAG ordering; only double-write pairs need
// a deterministic order.
func validateResourceAccess(compiled []*compiledJob) error {
	n := len(compiled)
	descendants := make([][]bool, n)
	for i := 0; i < n; i++ {
		descendants[i] = reachableFrom(compiled, i)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			rid, shared := sharedWriteResource(compiled[i].job, compiled[j].job)
			if !shared {
				continue
			}
			if descendants[i][j] || descendants[j][i] {
				continue
			}
			return errs.New(errs.Configuration, errs.Here(), fmt.Sprintf(
				"jobs %s and %s both write resource %s with no DAG path connecting them",
				compiled[i].job.ID, compiled[j].job.ID, rid))
		}
	}
	return nil
}

func reachableFrom(compiled []*compiledJob, start int) []bool {
	visited := make([]bool, len(compiled))
	queue := append([]int(nil), compiled[start].successors...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		queue = append(queue, compiled[n].successors...)
	}
	return visited
}

func sharedWriteResource(a, b *job.Job) (id.ResourceId, bool) {
	for _, accA := range a.ResourceAccess {
		if accA.Mode != job.Write && accA.Mode != job.ReadWrite {
			continue
		}
		for _, accB := range b.ResourceAccess {
			if accB.Resource != accA.Resource {
				continue
			}
			if accB.Mode == job.Write || accB.Mode == job.ReadWrite {
				return accA.Resource, true
			}
		}
	}
	return id.ResourceId{}, false
}

// RebuildPipelineCache recomputes the (job, viewport) -> render pipeline
// map via the configured PipelineResolver. Call this between frames
// whenever the viewport set changes; a no-op if no resolver was
// configured.
func (s *Scheduler) RebuildPipelineCache() {
	if s.pipelineResolver == nil {
		return
	}
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()

	cache := make(map[pipelineKey]*wgpu.RenderPipeline)
	for _, cj := range s.jobs {
		if !cj.job.PerViewport {
			continue
		}
		for _, vid := range s.state.Viewports() {
			cache[pipelineKey{job: cj.job.ID, viewport: vid}] = s.pipelineResolver(cj.job.ID, vid)
		}
	}
	s.pipelineCache = cache
}

func (s *Scheduler) resolvePipeline(jobID id.JobId, vid id.ViewportId) *wgpu.RenderPipeline {
	s.pipelineMu.RLock()
	defer s.pipelineMu.RUnlock()
	return s.pipelineCache[pipelineKey{job: jobID, viewport: vid}]
}

// Close stops the worker pool. Per the Design Notes, the reference design
// parks workers forever; this implementation observes a shutdown signal
// instead so a scene can be dropped cleanly.
func (s *Scheduler) Close() {
	s.workers.Stop()
}

type lockedResource struct {
	storage resource.Storage
	mode    job.AccessMode
}

// lockResources acquires every resource a job declares access to, in
// ascending ResourceId order, establishing a single global lock order so
// two jobs running concurrently (unordered by the DAG, touching disjoint
// or read-shared resources) can never deadlock against each other.
func lockResources(state *scenestate.SceneState, access []job.ResourceAccess) []lockedResource {
	sorted := append([]job.ResourceAccess(nil), access...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Resource.Raw() < sorted[j].Resource.Raw() })

	locked := make([]lockedResource, 0, len(sorted))
	for _, a := range sorted {
		storage, ok := state.ResourceStorage(a.Resource)
		if !ok {
			continue
		}
		if a.Mode == job.Read {
			storage.RLock()
		} else {
			storage.Lock()
		}
		locked = append(locked, lockedResource{storage: storage, mode: a.Mode})
	}
	return locked
}

func unlockResources(locked []lockedResource) {
	for i := len(locked) - 1; i >= 0; i-- {
		l := locked[i]
		if l.mode == job.Read {
			l.storage.RUnlock()
		} else {
			l.storage.Unlock()
		}
	}
}

// RunJobs executes one frame of this Scheduler's DAG: it resets the
// per-frame counters, snapshots the live viewport set, enqueues every
// root job (fanning per-viewport roots out across the snapshot), and
// blocks until either every job has finished or one has returned an
// error. A failing job does not cancel its siblings — the rest of the
// frame still completes best-effort — so on error RunJobs waits for every
// task already submitted this frame to finish before returning, ensuring
// none of them is still touching resultCh/jobsFinished/resultSent once
// the next RunJobs call resets those fields for the next frame. Only one
// frame runs at a time; a second call blocks until the first returns.
func (s *Scheduler) RunJobs(gameTime, deltaTime time.Duration) error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	for _, cj := range s.jobs {
		cj.dependenciesFinished.Store(0)
	}
	s.jobsFinished.Store(0)
	s.resultSent.Store(false)
	s.resultCh = make(chan error, 1)

	s.currentViewports = s.state.Viewports()
	s.currentViewportCount = len(s.currentViewports)
	s.gameTime = gameTime
	s.deltaTime = deltaTime
	s.expectedTotal = s.regularJobCount + s.perViewportJobCount*s.currentViewportCount

	if len(s.jobs) == 0 || s.expectedTotal == 0 {
		return nil
	}

	for _, rootIdx := range s.roots {
		s.enqueue(rootIdx)
	}
	// With no live viewports, a job whose predecessors are all per-viewport
	// has a required count of zero and no predecessor invocation to release
	// it, so it is enqueued here alongside the roots.
	if s.currentViewportCount == 0 {
		for i, cj := range s.jobs {
			if cj.regularPredecessors == 0 && cj.perViewportPredecessors > 0 {
				s.enqueue(i)
			}
		}
	}

	err := <-s.resultCh
	s.inFlight.Wait()
	return err
}

// enqueue submits every (job, viewport) invocation required for jobIdx:
// once, with no viewport, if the job is not per-viewport; once per
// viewport in the current frame's snapshot otherwise. A per-viewport job
// with zero live viewports is simply never invoked, which is consistent
// with the saturation formula (its contribution to every successor's
// required count is also zero).
func (s *Scheduler) enqueue(jobIdx int) {
	cj := s.jobs[jobIdx]
	if !cj.job.PerViewport {
		s.submit(jobIdx, id.ViewportId{}, false)
		return
	}
	for _, vid := range s.currentViewports {
		s.submit(jobIdx, vid, true)
	}
}

func (s *Scheduler) submit(jobIdx int, vid id.ViewportId, hasViewport bool) {
	taskID := int(s.taskCounter.Add(1))
	s.inFlight.Add(1)
	s.workers.SubmitTask(worker.Task{
		ID: taskID,
		Do: func() (any, error) {
			s.runOne(jobIdx, vid, hasViewport)
			return nil, nil
		},
	})
}

// runOne's deferred inFlight.Done only fires once this invocation (and the
// successor-enqueuing loop at its end, each of which calls inFlight.Add via
// submit) has fully returned, so the counter never dips to zero while a
// descendant still needs to be submitted.
func (s *Scheduler) runOne(jobIdx int, vid id.ViewportId, hasViewport bool) {
	defer s.inFlight.Done()

	cj := s.jobs[jobIdx]

	sys := scenestate.SystemResources{GameTime: s.gameTime, DeltaTime: s.deltaTime}
	if hasViewport {
		sys.ViewportID = vid
		if vp, ok := s.state.Viewport(vid); ok {
			sys.Viewport = vp
		}
		sys.Pipeline = s.resolvePipeline(cj.job.ID, vid)
	}

	locked := lockResources(s.state, cj.job.ResourceAccess)
	err := cj.job.Function(sys, s.state)
	unlockResources(locked)

	if err != nil {
		wrapped := errs.AsJobRuntime(errs.Here(), err)
		if s.resultSent.CompareAndSwap(false, true) {
			s.resultCh <- wrapped
		}
		return
	}

	if finished := s.jobsFinished.Add(1); int(finished) == s.expectedTotal {
		if s.resultSent.CompareAndSwap(false, true) {
			s.resultCh <- nil
		}
	}

	for _, succIdx := range cj.successors {
		succ := s.jobs[succIdx]
		newCount := succ.dependenciesFinished.Add(1)
		required := int64(succ.regularPredecessors) + int64(succ.perViewportPredecessors)*int64(s.currentViewportCount)
		if newCount == required {
			s.enqueue(succIdx)
		}
	}
}
