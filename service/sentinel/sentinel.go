package sentinel

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/housepower/redwatch/common"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/pkg/errors"
)

// Observer asks sentinels what they currently believe about a cluster.
type Observer struct {
	dial common.RedisDialer
	now  func() time.Time
}

func NewObserver() *Observer {
	return &Observer{dial: common.ConnectRedis, now: time.Now}
}

func NewObserverWithDialer(dial common.RedisDialer) *Observer {
	return &Observer{dial: dial, now: time.Now}
}

// Result pairs an endpoint with what it answered.
type Result struct {
	Endpoint model.SentinelEndpoint
	View     model.RawSentinelView
	Err      error
}

// Observe returns within timeout whatever happens on the wire. All failures
// come back as *model.ProbeError.
func (o *Observer) Observe(ctx context.Context, endpoint model.SentinelEndpoint, timeout time.Duration) (model.RawSentinelView, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exit := make(chan Result, 1)
	go func() {
		view, err := o.observe(ctx, endpoint, timeout)
		exit <- Result{Endpoint: endpoint, View: view, Err: err}
	}()

	select {
	case <-ctx.Done():
		return model.RawSentinelView{}, &model.ProbeError{
			Kind: model.Unreachable,
			Addr: endpoint.Addr(),
			Err:  errors.Wrap(ctx.Err(), "observe"),
		}
	case r := <-exit:
		return r.View, r.Err
	}
}

// ObserveAll queries every endpoint concurrently. Results keep the order of endpoints.
func (o *Observer) ObserveAll(ctx context.Context, endpoints []model.SentinelEndpoint, timeout time.Duration) []Result {
	results := make([]Result, len(endpoints))
	done := make(chan int, len(endpoints))
	for i := range endpoints {
		go func(i int) {
			view, err := o.Observe(ctx, endpoints[i], timeout)
			if err != nil {
				log.Logger.Warnf("sentinel-[%s] observe %s failed: %v", endpoints[i].Addr(), endpoints[i].Cluster, err)
			}
			results[i] = Result{Endpoint: endpoints[i], View: view, Err: err}
			done <- i
		}(i)
	}
	for range endpoints {
		<-done
	}
	return results
}

func (o *Observer) observe(ctx context.Context, endpoint model.SentinelEndpoint, timeout time.Duration) (model.RawSentinelView, error) {
	addr := endpoint.Addr()
	conn, err := o.dial(ctx, addr, endpoint.Password, timeout)
	if err != nil {
		return model.RawSentinelView{}, &model.ProbeError{Kind: model.Unreachable, Addr: addr, Err: err}
	}
	defer conn.Close()

	fail := func(err error, what string) (model.RawSentinelView, error) {
		return model.RawSentinelView{}, common.ProbeError(addr, errors.Wrap(err, what))
	}

	view := model.RawSentinelView{Endpoint: endpoint}

	reply, err := conn.Do("SENTINEL", "get-master-addr-by-name", endpoint.Cluster)
	if err != nil {
		return fail(err, "get-master-addr-by-name")
	}
	if reply == nil {
		return model.RawSentinelView{}, &model.ProbeError{
			Kind: model.MasterUnknown,
			Addr: addr,
			Err:  errors.Errorf("master %s is not monitored", endpoint.Cluster),
		}
	}
	hostPort, err := redis.Strings(reply, nil)
	if err != nil || len(hostPort) != 2 {
		return model.RawSentinelView{}, &model.ProbeError{
			Kind: model.Protocol,
			Addr: addr,
			Err:  errors.Errorf("invalid master address reply %v", reply),
		}
	}
	view.MasterAddr = net.JoinHostPort(hostPort[0], hostPort[1])

	master, err := redis.StringMap(conn.Do("SENTINEL", "master", endpoint.Cluster))
	if err != nil {
		return fail(err, "sentinel master")
	}
	others, _ := strconv.Atoi(master["num-other-sentinels"])
	view.SentinelsMonitoring = others + 1
	view.Quorum, _ = strconv.Atoi(master["quorum"])
	view.MasterFlags = master["flags"]

	replicas, err := o.instances(conn, "replicas", endpoint.Cluster)
	if err != nil && common.IsReplyError(err) {
		// sentinels older than 5.0 only know the old name
		replicas, err = o.instances(conn, "slaves", endpoint.Cluster)
	}
	if err != nil {
		return fail(err, "sentinel replicas")
	}
	view.Replicas = replicas

	peers, err := o.instances(conn, "sentinels", endpoint.Cluster)
	if err != nil {
		return fail(err, "sentinel sentinels")
	}
	view.Peers = peers

	info, err := redis.String(conn.Do("INFO", "sentinel"))
	if err != nil {
		return fail(err, "info sentinel")
	}
	m := common.ParseInfo(info)
	if tilt, ok := common.InfoInt64(m, "sentinel_tilt"); ok {
		view.Tilt = tilt != 0
	}
	if n, ok := common.InfoInt64(m, "sentinel_masters"); ok {
		view.MastersMonitored = int(n)
	}
	if n, ok := common.InfoInt64(m, "sentinel_running_scripts"); ok {
		view.RunningScripts = int(n)
	}

	if err = ctx.Err(); err != nil {
		return fail(err, "observe")
	}
	view.ObservedAt = o.now()
	return view, nil
}

// instances lists the ip:port of every entry of SENTINEL <sub> <name>.
func (o *Observer) instances(conn redis.Conn, sub, name string) ([]string, error) {
	values, err := redis.Values(conn.Do("SENTINEL", sub, name))
	if err != nil {
		return nil, err
	}
	addrs := make([]string, 0, len(values))
	for i := range values {
		m, err := redis.StringMap(values[i], nil)
		if err != nil {
			return nil, err
		}
		ip, port := m["ip"], m["port"]
		if ip == "" || port == "" {
			continue
		}
		addrs = append(addrs, net.JoinHostPort(ip, port))
	}
	return common.ArrayDistinct(addrs), nil
}

// Masters lists the names of every master a sentinel monitors.
func (o *Observer) Masters(ctx context.Context, addr, password string, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := o.dial(ctx, addr, password, timeout)
	if err != nil {
		return nil, &model.ProbeError{Kind: model.Unreachable, Addr: addr, Err: err}
	}
	defer conn.Close()

	values, err := redis.Values(conn.Do("SENTINEL", "masters"))
	if err != nil {
		return nil, common.ProbeError(addr, errors.Wrap(err, "sentinel masters"))
	}
	var names []string
	for i := range values {
		m, err := redis.StringMap(values[i], nil)
		if err != nil {
			return nil, common.ProbeError(addr, errors.Wrap(err, "sentinel masters"))
		}
		if name := strings.TrimSpace(m["name"]); name != "" {
			names = append(names, name)
		}
	}
	return common.ArrayDistinct(names), nil
}

// Discover expands each seed into one endpoint per master the seed monitors.
// The seed's Cluster is ignored. Seeds that cannot be listed are logged and
// skipped; the error is returned only when no seed answered.
func (o *Observer) Discover(ctx context.Context, seeds []model.SentinelEndpoint, timeout time.Duration) ([]model.SentinelEndpoint, error) {
	var endpoints []model.SentinelEndpoint
	var lastErr error
	answered := 0
	for _, seed := range seeds {
		names, err := o.Masters(ctx, seed.Addr(), seed.Password, timeout)
		if err != nil {
			log.Logger.Warnf("discover masters from sentinel %s failed: %v", seed.Addr(), err)
			lastErr = err
			continue
		}
		answered++
		log.Logger.Infof("sentinel %s monitors %v", seed.Addr(), names)
		for _, name := range names {
			endpoints = append(endpoints, model.SentinelEndpoint{
				Host:     seed.Host,
				Port:     seed.Port,
				Cluster:  name,
				Password: seed.Password,
			})
		}
	}
	if answered == 0 && lastErr != nil {
		return nil, lastErr
	}
	return endpoints, nil
}
