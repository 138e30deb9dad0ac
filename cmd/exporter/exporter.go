package exporter

import (
	"context"
	"io"

	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Export streams the node rows of q to w, one JSON object per line, and
// returns how many rows were written.
func Export(ctx context.Context, store repository.SnapshotStore, q model.HistoryQuery, w io.Writer) (int, error) {
	it, err := store.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	enc := json.NewEncoder(w)
	n := 0
	for it.Next() {
		snap := it.Snapshot()
		for _, row := range snap.Rows() {
			if err = enc.Encode(row); err != nil {
				return n, errors.Wrap(err, "")
			}
			n++
		}
	}
	return n, it.Err()
}
