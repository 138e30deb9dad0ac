package local

const (
	LocalPersistentName string = "local"

	SNAPSHOT_DIR_DEFAULT  string = "data"
	SNAPSHOT_FILE_DEFAULT string = "snapshots.jsonl"
)
