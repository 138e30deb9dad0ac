package prober

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/housepower/redwatch/common"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Prober collects liveness and metrics from the data nodes of a topology.
type Prober struct {
	dial      common.RedisDialer
	passwords map[string]string
}

// NewProber builds a prober. passwords is keyed by cluster name, with "*"
// used for clusters that have no entry of their own.
func NewProber(passwords map[string]string) *Prober {
	return NewProberWithDialer(common.ConnectRedis, passwords)
}

func NewProberWithDialer(dial common.RedisDialer, passwords map[string]string) *Prober {
	return &Prober{dial: dial, passwords: passwords}
}

func (p *Prober) password(cluster string) string {
	if pw, ok := p.passwords[cluster]; ok {
		return pw
	}
	return p.passwords["*"]
}

// ProbeAll probes the master and every replica concurrently, each bounded by
// timeout. It never fails: a node that does not answer in time is reported
// unreachable.
func (p *Prober) ProbeAll(ctx context.Context, topo *model.ClusterTopology, timeout time.Duration) map[string]model.NodeMetrics {
	addrs := topo.Addrs()
	metrics := make([]model.NodeMetrics, len(addrs))

	var g errgroup.Group
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			metrics[i] = p.Probe(ctx, addr, topo.RoleOf(addr), p.password(topo.Cluster), timeout)
			return nil
		})
	}
	_ = g.Wait()

	result := make(map[string]model.NodeMetrics, len(metrics))
	for _, m := range metrics {
		result[m.Addr] = m
	}
	fillReplicaLag(result, topo)
	return result
}

// Probe queries one node. The exchange is abandoned as soon as timeout passes.
func (p *Prober) Probe(ctx context.Context, addr string, role model.Role, password string, timeout time.Duration) model.NodeMetrics {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exit := make(chan model.NodeMetrics, 1)
	go func() {
		m, err := p.probe(ctx, addr, role, password, timeout)
		if err != nil {
			log.Logger.Warnf("node-[%s] probe failed: %v", addr, err)
			m = model.UnreachableNode(addr, role, err)
		}
		exit <- m
	}()

	select {
	case <-ctx.Done():
		err := &model.ProbeError{Kind: model.Unreachable, Addr: addr, Err: errors.Wrap(ctx.Err(), "probe")}
		log.Logger.Warnf("node-[%s] probe abandoned: %v", addr, err)
		return model.UnreachableNode(addr, role, err)
	case m := <-exit:
		return m
	}
}

func (p *Prober) probe(ctx context.Context, addr string, role model.Role, password string, timeout time.Duration) (model.NodeMetrics, error) {
	conn, err := p.dial(ctx, addr, password, timeout)
	if err != nil {
		return model.NodeMetrics{}, &model.ProbeError{Kind: model.Unreachable, Addr: addr, Err: err}
	}
	defer conn.Close()

	start := time.Now()
	if _, err = redis.String(conn.Do("PING")); err != nil {
		return model.NodeMetrics{}, common.ProbeError(addr, errors.Wrap(err, "ping"))
	}
	latency := common.Millis(time.Since(start))

	info, err := redis.String(conn.Do("INFO"))
	if err != nil {
		return model.NodeMetrics{}, common.ProbeError(addr, errors.Wrap(err, "info"))
	}
	keys, err := redis.Int64(conn.Do("DBSIZE"))
	if err != nil {
		return model.NodeMetrics{}, common.ProbeError(addr, errors.Wrap(err, "dbsize"))
	}
	if err = ctx.Err(); err != nil {
		return model.NodeMetrics{}, &model.ProbeError{Kind: model.Unreachable, Addr: addr, Err: err}
	}

	m := model.NodeMetrics{
		Addr:      addr,
		Role:      role,
		Reachable: true,
		LatencyMs: model.Float64(latency),
		Keys:      model.Int64(keys),
	}
	fields := common.ParseInfo(info)
	if n, ok := common.InfoInt64(fields, "connected_clients"); ok {
		m.ConnectedClients = model.Int64(n)
	}
	if n, ok := common.InfoInt64(fields, "used_memory"); ok {
		m.UsedMemory = model.Int64(n)
	}
	m.UsedMemoryHuman = fields["used_memory_human"]
	m.ReportedRole = fields["role"]
	m.MasterLinkStatus = fields["master_link_status"]
	offsetKey := "slave_repl_offset"
	if role == model.RoleMaster {
		offsetKey = "master_repl_offset"
	}
	if n, ok := common.InfoInt64(fields, offsetKey); ok {
		m.ReplOffset = model.Int64(n)
	}
	return m, nil
}

// fillReplicaLag sets the replication lag of reachable replicas, measured in
// bytes behind the master offset. Nothing is set when the master is down.
func fillReplicaLag(metrics map[string]model.NodeMetrics, topo *model.ClusterTopology) {
	master, ok := metrics[topo.MasterAddr]
	if !ok || !master.Reachable || master.ReplOffset == nil {
		return
	}
	for _, addr := range topo.Replicas {
		m, ok := metrics[addr]
		if !ok || !m.Reachable || m.ReplOffset == nil {
			continue
		}
		m.ReplicaLag = model.Int64(common.MaxInt64(*master.ReplOffset-*m.ReplOffset, 0))
		metrics[addr] = m
	}
}
