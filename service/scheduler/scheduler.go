package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/housepower/redwatch/common"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/service/aggregator"
	"github.com/housepower/redwatch/service/metrics"
	"github.com/housepower/redwatch/service/sentinel"
	"github.com/housepower/redwatch/service/topology"
	"github.com/pkg/errors"
)

type State int32

const (
	StateIdle State = iota
	StatePolling
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePolling:
		return "POLLING"
	case StateSleeping:
		return "SLEEPING"
	case StateStopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}

type Observer interface {
	ObserveAll(ctx context.Context, endpoints []model.SentinelEndpoint, timeout time.Duration) []sentinel.Result
}

type Prober interface {
	ProbeAll(ctx context.Context, topo *model.ClusterTopology, timeout time.Duration) map[string]model.NodeMetrics
}

// Sink receives every snapshot of a cycle once it is collected.
type Sink interface {
	Update(snap model.ClusterSnapshot)
}

// Options is everything a scheduler needs; nothing is read from globals.
type Options struct {
	Endpoints         []model.SentinelEndpoint
	Interval          time.Duration
	SentinelTimeout   time.Duration
	NodeTimeout       time.Duration
	CycleTimeout      time.Duration
	StoreWriteTimeout time.Duration
	Writers           int

	Observer Observer
	Prober   Prober
	Store    repository.SnapshotStore
	Live     Sink             // optional
	Metrics  *metrics.Metrics // optional
	Now      func() time.Time // optional
}

func (o *Options) validate() error {
	if len(o.Endpoints) == 0 {
		return errors.New("no sentinel endpoint configured")
	}
	if o.Observer == nil || o.Prober == nil || o.Store == nil {
		return errors.New("observer, prober and store are required")
	}
	if o.Interval <= 0 || o.SentinelTimeout <= 0 || o.NodeTimeout <= 0 || o.CycleTimeout <= 0 || o.StoreWriteTimeout <= 0 {
		return errors.New("interval and timeouts must be positive")
	}
	return nil
}

type Scheduler struct {
	opts     Options
	clusters []string
	groups   map[string][]model.SentinelEndpoint
	resolver *topology.Resolver
	pool     *common.WorkerPool

	mu    sync.Mutex
	state State
}

func New(opts Options) (*Scheduler, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	clusters, groups := model.ClusterEndpoints(opts.Endpoints)
	return &Scheduler{
		opts:     opts,
		clusters: clusters,
		groups:   groups,
		resolver: topology.NewResolver(),
		pool:     common.NewWorkerPool(common.MaxInt(opts.Writers, 1), 2*len(clusters)),
		state:    StateIdle,
	}, nil
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStopped {
		return
	}
	s.state = state
}

// Clusters returns the monitored cluster names in configuration order.
func (s *Scheduler) Clusters() []string {
	return append([]string(nil), s.clusters...)
}

// Run polls until ctx is canceled, then waits for queued writes and stops.
func (s *Scheduler) Run(ctx context.Context) {
	log.Logger.Infof("scheduler started, %d clusters, interval %v", len(s.clusters), s.opts.Interval)
	defer s.stop()
	for {
		if ctx.Err() != nil {
			return
		}
		s.setState(StatePolling)
		start := s.opts.Now()
		s.RunCycle(ctx, start)
		elapsed := s.opts.Now().Sub(start)
		s.opts.Metrics.ObserveCycle(elapsed)

		s.setState(StateSleeping)
		sleep := s.opts.Interval - elapsed
		if sleep < 0 {
			log.Logger.Warnf("cycle took %v, longer than the refresh interval %v", elapsed, s.opts.Interval)
			sleep = 0
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Scheduler) stop() {
	s.pool.Close()
	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	log.Logger.Infof("scheduler stopped")
}

// RunCycle polls every cluster once and persists the snapshots. Clusters still
// running at the cycle deadline are recorded DOWN with a timeout cause.
func (s *Scheduler) RunCycle(ctx context.Context, pollTime time.Time) []model.ClusterSnapshot {
	pollTime = pollTime.Truncate(model.PollTimePrecision)
	cycleCtx, cancel := context.WithTimeout(ctx, s.opts.CycleTimeout)
	defer cancel()

	results := make(chan model.ClusterSnapshot, len(s.clusters))
	for _, cluster := range s.clusters {
		go func(cluster string) {
			results <- s.pipeline(cycleCtx, cluster, pollTime)
		}(cluster)
	}

	collected := make(map[string]model.ClusterSnapshot, len(s.clusters))
LOOP:
	for len(collected) < len(s.clusters) {
		select {
		case snap := <-results:
			collected[snap.Cluster] = snap
		case <-cycleCtx.Done():
			break LOOP
		}
	}

	if ctx.Err() != nil {
		log.Logger.Infof("cycle at %v interrupted by shutdown, %d of %d clusters finished",
			pollTime, len(collected), len(s.clusters))
		return nil
	}

	snaps := make([]model.ClusterSnapshot, 0, len(s.clusters))
	for _, cluster := range s.clusters {
		snap, ok := collected[cluster]
		if !ok {
			log.Logger.Warnf("cluster %s did not finish within %v", cluster, s.opts.CycleTimeout)
			snap = aggregator.TimedOut(cluster, pollTime, nil)
		}
		snaps = append(snaps, snap)
		s.opts.Metrics.ObserveSnapshot(&snap)
		if s.opts.Live != nil {
			s.opts.Live.Update(snap)
		}
		log.Logger.Debugf("cluster %s: %s %v", cluster, snap.Health, snap.Causes)
	}
	s.persist(snaps)
	return snaps
}

func (s *Scheduler) pipeline(ctx context.Context, cluster string, pollTime time.Time) model.ClusterSnapshot {
	endpoints := s.groups[cluster]
	results := s.opts.Observer.ObserveAll(ctx, endpoints, s.opts.SentinelTimeout)
	observations := make([]model.SentinelObservation, 0, len(results))
	for _, r := range results {
		observations = append(observations, model.ObservationOf(r.Endpoint, r.View, r.Err))
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return aggregator.TimedOut(cluster, pollTime, observations)
	}
	topo, err := s.resolver.Resolve(cluster, results)
	if err != nil {
		log.Logger.Warnf("resolve cluster %s failed: %v", cluster, err)
		return aggregator.Failed(cluster, pollTime, err, observations)
	}
	nodes := s.opts.Prober.ProbeAll(ctx, &topo, s.opts.NodeTimeout)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		// probes were cut short by the cycle deadline, not by the nodes
		return aggregator.TimedOut(cluster, pollTime, observations)
	}
	return aggregator.Aggregate(cluster, &topo, nodes, observations, pollTime)
}

// persist hands the snapshots to the writer pool and waits for them at most
// StoreWriteTimeout. Writes still running after that finish in the background.
func (s *Scheduler) persist(snaps []model.ClusterSnapshot) {
	deadline := time.NewTimer(s.opts.StoreWriteTimeout)
	defer deadline.Stop()

	var pending []<-chan struct{}
	for _, snap := range snaps {
		snap := snap
		done, err := s.pool.TrySubmit(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.StoreWriteTimeout)
			defer cancel()
			if err := s.opts.Store.Append(ctx, snap); err != nil {
				log.Logger.Errorf("store event: append snapshot %s failed: %v", snap.ID, err)
				s.opts.Metrics.StoreWriteFailed()
			}
		})
		if err != nil {
			log.Logger.Errorf("store event: submit snapshot %s failed: %v", snap.ID, err)
			s.opts.Metrics.StoreWriteFailed()
			continue
		}
		pending = append(pending, done)
	}

	for i, done := range pending {
		select {
		case <-done:
		case <-deadline.C:
			log.Logger.Errorf("store event: %d snapshot writes still running after %v",
				len(pending)-i, s.opts.StoreWriteTimeout)
			return
		}
	}
}
