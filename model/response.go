package model

type ClusterListRsp struct {
	Clusters []string `json:"clusters"`
}

type SnapshotListRsp struct {
	Offset    int               `json:"offset"`
	Limit     int               `json:"limit"`
	Snapshots []ClusterSnapshot `json:"snapshots"`
}

type NodeRowListRsp struct {
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
	Rows   []NodeRow `json:"rows"`
}

type VersionRsp struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	GitCommit string `json:"git_commit"`
}
