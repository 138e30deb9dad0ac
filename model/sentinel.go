package model

import "time"

// RawSentinelView is what a single sentinel reported about one cluster.
type RawSentinelView struct {
	Endpoint            SentinelEndpoint
	MasterAddr          string
	MasterFlags         string
	Replicas            []string
	Peers               []string
	Tilt                bool
	SentinelsMonitoring int
	Quorum              int
	MastersMonitored    int
	RunningScripts      int
	ObservedAt          time.Time
}

// SentinelObservation is the per-endpoint summary kept with a snapshot.
type SentinelObservation struct {
	Addr             string    `json:"addr"`
	Reachable        bool      `json:"reachable"`
	ErrorKind        ErrorKind `json:"error_kind,omitempty"`
	Error            string    `json:"error,omitempty"`
	MasterAddr       string    `json:"master_addr,omitempty"`
	Tilt             bool      `json:"tilt"`
	MastersMonitored int       `json:"masters_monitored,omitempty"`
	RunningScripts   int       `json:"running_scripts,omitempty"`
}

func ObservationOf(endpoint SentinelEndpoint, view RawSentinelView, err error) SentinelObservation {
	obs := SentinelObservation{Addr: endpoint.Addr()}
	if err != nil {
		obs.ErrorKind = KindOf(err)
		obs.Error = err.Error()
		// a sentinel that answered but does not know the master is still alive
		obs.Reachable = obs.ErrorKind == MasterUnknown
		return obs
	}
	obs.Reachable = true
	obs.MasterAddr = view.MasterAddr
	obs.Tilt = view.Tilt
	obs.MastersMonitored = view.MastersMonitored
	obs.RunningScripts = view.RunningScripts
	return obs
}
