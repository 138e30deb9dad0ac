package topology

import (
	"sort"
	"sync"

	"github.com/housepower/redwatch/common"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/service/sentinel"
)

// Resolve merges what the sentinels of one cluster reported into a single
// topology. Only views without an error take part in the vote. A sentinel that
// answered without knowing the master counts as responding but has no vote,
// so it lowers the agreement ratio. The master with the most votes wins; a tie
// goes to previousMaster when it is among the tied addresses, otherwise to the
// smallest address.
func Resolve(cluster string, results []sentinel.Result, previousMaster string) (model.ClusterTopology, error) {
	votes := make(map[string]int)
	var responding int
	var tilt bool
	for _, r := range results {
		if r.Err != nil {
			if model.KindOf(r.Err) == model.MasterUnknown {
				responding++
			}
			continue
		}
		responding++
		if r.View.MasterAddr == "" {
			continue
		}
		votes[r.View.MasterAddr]++
		tilt = tilt || r.View.Tilt
	}
	if len(votes) == 0 {
		return model.ClusterTopology{}, &model.ResolutionError{Kind: model.NoQuorum, Cluster: cluster}
	}

	winner := elect(votes, previousMaster)

	var replicas []string
	for _, r := range results {
		if r.Err != nil || r.View.MasterAddr != winner {
			continue
		}
		replicas = append(replicas, r.View.Replicas...)
	}
	replicas = common.ArrayDistinct(replicas)
	for i := 0; i < len(replicas); i++ {
		if replicas[i] == winner {
			replicas = append(replicas[:i], replicas[i+1:]...)
			i--
		}
	}

	return model.ClusterTopology{
		Cluster:        cluster,
		MasterAddr:     winner,
		Replicas:       replicas,
		SentinelsAgree: votes[winner],
		Responding:     responding,
		Configured:     len(results),
		AgreementRatio: float64(votes[winner]) / float64(responding),
		Tilt:           tilt,
		Candidates:     votes,
	}, nil
}

func elect(votes map[string]int, previousMaster string) string {
	var best int
	var tied []string
	for addr, n := range votes {
		switch {
		case n > best:
			best = n
			tied = []string{addr}
		case n == best:
			tied = append(tied, addr)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	for _, addr := range tied {
		if addr == previousMaster {
			return addr
		}
	}
	sort.Strings(tied)
	return tied[0]
}

// Resolver remembers the last elected master of every cluster so ties lean
// towards the master already in place.
type Resolver struct {
	mu      sync.Mutex
	masters map[string]string
}

func NewResolver() *Resolver {
	return &Resolver{masters: make(map[string]string)}
}

func (r *Resolver) Resolve(cluster string, results []sentinel.Result) (model.ClusterTopology, error) {
	r.mu.Lock()
	previous := r.masters[cluster]
	r.mu.Unlock()

	topo, err := Resolve(cluster, results, previous)
	if err != nil {
		return topo, err
	}

	r.mu.Lock()
	r.masters[cluster] = topo.MasterAddr
	r.mu.Unlock()
	return topo, nil
}

func (r *Resolver) PreviousMaster(cluster string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.masters[cluster]
}
