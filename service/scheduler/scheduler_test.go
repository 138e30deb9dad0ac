package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/service/aggregator"
	"github.com/housepower/redwatch/service/metrics"
	"github.com/housepower/redwatch/service/sentinel"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObserver struct {
	masters map[string]string        // sentinel addr -> reported master
	hang    map[string]bool          // clusters whose sentinels never answer in time
	down    map[string]bool          // sentinel addrs that refuse connections
}

func (f *fakeObserver) ObserveAll(ctx context.Context, endpoints []model.SentinelEndpoint, timeout time.Duration) []sentinel.Result {
	results := make([]sentinel.Result, 0, len(endpoints))
	for _, e := range endpoints {
		r := sentinel.Result{Endpoint: e}
		switch {
		case f.hang[e.Cluster]:
			<-ctx.Done()
			r.Err = &model.ProbeError{Kind: model.Unreachable, Addr: e.Addr(), Err: ctx.Err()}
		case f.down[e.Addr()]:
			r.Err = &model.ProbeError{Kind: model.Unreachable, Addr: e.Addr(), Err: errors.New("connection refused")}
		default:
			r.View = model.RawSentinelView{
				Endpoint:   e,
				MasterAddr: f.masters[e.Addr()],
				Replicas:   []string{"10.0.0.2:6379"},
			}
		}
		results = append(results, r)
	}
	return results
}

type fakeProber struct {
	down map[string]bool
}

func (f *fakeProber) ProbeAll(ctx context.Context, topo *model.ClusterTopology, timeout time.Duration) map[string]model.NodeMetrics {
	out := make(map[string]model.NodeMetrics)
	for _, addr := range topo.Addrs() {
		if f.down[addr] {
			out[addr] = model.UnreachableNode(addr, topo.RoleOf(addr), errors.New("timeout"))
			continue
		}
		out[addr] = model.NodeMetrics{Addr: addr, Role: topo.RoleOf(addr), Reachable: true, Keys: model.Int64(7)}
	}
	return out
}

type fakeStore struct {
	repository.SnapshotStore
	mu    sync.Mutex
	snaps []model.ClusterSnapshot
	err   error
	delay time.Duration
}

func (s *fakeStore) Append(ctx context.Context, snap model.ClusterSnapshot) error {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *fakeStore) stored() []model.ClusterSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ClusterSnapshot(nil), s.snaps...)
}

type fakeSink struct {
	mu    sync.Mutex
	snaps map[string]model.ClusterSnapshot
}

func (s *fakeSink) Update(snap model.ClusterSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Cluster] = snap
}

func endpoints() []model.SentinelEndpoint {
	return []model.SentinelEndpoint{
		{Host: "10.0.1.1", Port: 26379, Cluster: "cacheA"},
		{Host: "10.0.1.2", Port: 26379, Cluster: "cacheA"},
		{Host: "10.0.1.3", Port: 26379, Cluster: "cacheA"},
		{Host: "10.0.1.4", Port: 26379, Cluster: "cacheA"},
		{Host: "10.0.2.1", Port: 26379, Cluster: "cacheB"},
	}
}

func observer() *fakeObserver {
	return &fakeObserver{
		masters: map[string]string{
			"10.0.1.1:26379": "10.0.0.1:6379",
			"10.0.1.2:26379": "10.0.0.1:6379",
			"10.0.1.3:26379": "10.0.0.1:6379",
			"10.0.1.4:26379": "10.0.0.1:6379",
			"10.0.2.1:26379": "10.0.0.5:6379",
		},
		hang: map[string]bool{},
		down: map[string]bool{},
	}
}

func options(obs *fakeObserver, prober *fakeProber, store *fakeStore) Options {
	return Options{
		Endpoints:         endpoints(),
		Interval:          50 * time.Millisecond,
		SentinelTimeout:   100 * time.Millisecond,
		NodeTimeout:       100 * time.Millisecond,
		CycleTimeout:      200 * time.Millisecond,
		StoreWriteTimeout: 200 * time.Millisecond,
		Writers:           2,
		Observer:          obs,
		Prober:            prober,
		Store:             store,
		Metrics:           metrics.New(),
	}
}

var pollTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRunCycleHealthy(t *testing.T) {
	store := &fakeStore{}
	sink := &fakeSink{snaps: map[string]model.ClusterSnapshot{}}
	opts := options(observer(), &fakeProber{}, store)
	opts.Live = sink
	s, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, []string{"cacheA", "cacheB"}, s.Clusters())

	snaps := s.RunCycle(context.Background(), pollTime)
	require.Len(t, snaps, 2)
	for _, snap := range snaps {
		assert.Equal(t, model.HealthHealthy, snap.Health, snap.Cluster)
		assert.Equal(t, pollTime, snap.PollTime)
	}
	assert.Equal(t, "10.0.0.1:6379", snaps[0].MasterAddr())
	assert.Len(t, snaps[0].Sentinels, 4)
	assert.Len(t, store.stored(), 2)
	assert.Len(t, sink.snaps, 2)
}

func TestRunCyclePollTimePrecision(t *testing.T) {
	store := &fakeStore{}
	s, err := New(options(observer(), &fakeProber{}, store))
	require.NoError(t, err)

	snaps := s.RunCycle(context.Background(), pollTime.Add(999600*time.Microsecond))
	require.Len(t, snaps, 2)
	want := pollTime.Add(999 * time.Millisecond)
	for _, snap := range snaps {
		assert.True(t, want.Equal(snap.PollTime), snap.PollTime)
		assert.Equal(t, aggregator.SnapshotID(snap.Cluster, want), snap.ID)
	}
	for _, snap := range store.stored() {
		assert.True(t, want.Equal(snap.PollTime))
	}
}

func TestRunCyclePartialAgreement(t *testing.T) {
	obs := observer()
	obs.masters["10.0.1.4:26379"] = "10.0.0.2:6379"
	s, err := New(options(obs, &fakeProber{}, &fakeStore{}))
	require.NoError(t, err)

	snaps := s.RunCycle(context.Background(), pollTime)
	assert.Equal(t, "10.0.0.1:6379", snaps[0].MasterAddr())
	assert.Equal(t, 0.75, snaps[0].Topology.AgreementRatio)
	assert.Equal(t, model.HealthDegraded, snaps[0].Health)
}

func TestRunCycleNoQuorum(t *testing.T) {
	obs := observer()
	for _, e := range endpoints() {
		if e.Cluster == "cacheA" {
			obs.down[e.Addr()] = true
		}
	}
	s, err := New(options(obs, &fakeProber{}, &fakeStore{}))
	require.NoError(t, err)

	snaps := s.RunCycle(context.Background(), pollTime)
	assert.Equal(t, model.HealthDown, snaps[0].Health)
	assert.Nil(t, snaps[0].Topology)
	assert.Equal(t, []model.Cause{model.CauseNoQuorum}, snaps[0].Causes)
	for _, o := range snaps[0].Sentinels {
		assert.False(t, o.Reachable)
	}
	assert.Equal(t, model.HealthHealthy, snaps[1].Health)
}

func TestRunCycleReplicaDown(t *testing.T) {
	s, err := New(options(observer(), &fakeProber{down: map[string]bool{"10.0.0.2:6379": true}}, &fakeStore{}))
	require.NoError(t, err)

	snaps := s.RunCycle(context.Background(), pollTime)
	assert.Equal(t, model.HealthDegraded, snaps[0].Health)
	m, ok := snaps[0].Node("10.0.0.2:6379")
	require.True(t, ok)
	assert.False(t, m.Reachable)
	assert.Nil(t, m.Keys)
}

func TestRunCycleTimeout(t *testing.T) {
	obs := observer()
	obs.hang["cacheB"] = true
	store := &fakeStore{}
	opts := options(obs, &fakeProber{}, store)
	s, err := New(opts)
	require.NoError(t, err)

	start := time.Now()
	snaps := s.RunCycle(context.Background(), pollTime)
	assert.Less(t, time.Since(start), opts.CycleTimeout+opts.StoreWriteTimeout+200*time.Millisecond)

	require.Len(t, snaps, 2)
	assert.Equal(t, model.HealthHealthy, snaps[0].Health)
	assert.Equal(t, model.HealthDown, snaps[1].Health)
	assert.Equal(t, []model.Cause{model.CauseCycleTimeout}, snaps[1].Causes)
	assert.Len(t, store.stored(), 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.CycleTimeouts.WithLabelValues("cacheB")))
}

func TestRunCycleStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	opts := options(observer(), &fakeProber{}, store)
	s, err := New(opts)
	require.NoError(t, err)

	snaps := s.RunCycle(context.Background(), pollTime)
	assert.Len(t, snaps, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(opts.Metrics.StoreWriteFailures))

	// the next cycle is not affected
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	s.RunCycle(context.Background(), pollTime.Add(time.Minute))
	assert.Len(t, store.stored(), 2)
}

func TestRunCycleSlowStore(t *testing.T) {
	store := &fakeStore{delay: 2 * time.Second}
	opts := options(observer(), &fakeProber{}, store)
	opts.StoreWriteTimeout = 100 * time.Millisecond
	s, err := New(opts)
	require.NoError(t, err)

	start := time.Now()
	s.RunCycle(context.Background(), pollTime)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRun(t *testing.T) {
	store := &fakeStore{}
	s, err := New(options(observer(), &fakeProber{}, store))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool {
		return len(store.stored()) >= 6
	}, 2*time.Second, 10*time.Millisecond)
	state := s.State()
	assert.True(t, state == StatePolling || state == StateSleeping, state.String())

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, StateStopped, s.State())

	snaps := store.stored()
	for i := 2; i < len(snaps); i++ {
		assert.False(t, snaps[i].PollTime.Before(snaps[i-2].PollTime))
	}
}

func TestNewValidates(t *testing.T) {
	opts := options(observer(), &fakeProber{}, &fakeStore{})
	opts.Endpoints = nil
	_, err := New(opts)
	assert.Error(t, err)

	opts = options(observer(), &fakeProber{}, &fakeStore{})
	opts.CycleTimeout = 0
	_, err = New(opts)
	assert.Error(t, err)

	opts = options(observer(), &fakeProber{}, nil)
	opts.Store = nil
	_, err = New(opts)
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "POLLING", StatePolling.String())
	assert.Equal(t, "SLEEPING", StateSleeping.String())
	assert.Equal(t, "STOPPED", StateStopped.String())
}
