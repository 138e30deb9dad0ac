package model

import "time"

// PollTimePrecision is the finest poll time every store can hold exactly.
const PollTimePrecision = time.Millisecond

type Health string

const (
	HealthHealthy  Health = "HEALTHY"
	HealthDegraded Health = "DEGRADED"
	HealthDown     Health = "DOWN"
)

type Role string

const (
	RoleMaster  Role = "master"
	RoleReplica Role = "replica"
)

// Cause explains why a snapshot is not HEALTHY.
type Cause string

const (
	CauseNoQuorum           Cause = "no_quorum"
	CauseCycleTimeout       Cause = "cycle_timeout"
	CauseMasterUnreachable  Cause = "master_unreachable"
	CausePartialAgreement   Cause = "partial_agreement"
	CauseReplicaUnreachable Cause = "replica_unreachable"
	CauseTilt               Cause = "tilt"
)
