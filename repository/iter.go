package repository

import (
	"context"

	"github.com/housepower/redwatch/model"
	"github.com/pkg/errors"
)

// SliceIter iterates snapshots already held in memory. Filtering and
// pagination happen while walking, so nothing is copied up front.
type SliceIter struct {
	ctx     context.Context
	snaps   []model.ClusterSnapshot
	q       model.HistoryQuery
	pos     int
	skipped int
	emitted int
	cur     model.ClusterSnapshot
	err     error
}

func NewSliceIter(ctx context.Context, snaps []model.ClusterSnapshot, q model.HistoryQuery) *SliceIter {
	return &SliceIter{ctx: ctx, snaps: snaps, q: q}
}

func (it *SliceIter) Next() bool {
	if it.err != nil || (it.q.Limit > 0 && it.emitted >= it.q.Limit) {
		return false
	}
	for it.pos < len(it.snaps) {
		if err := it.ctx.Err(); err != nil {
			it.err = QueryFailure(errors.Wrap(err, "query"))
			return false
		}
		snap := &it.snaps[it.pos]
		it.pos++
		if !it.q.Match(snap) {
			continue
		}
		if it.skipped < it.q.Offset {
			it.skipped++
			continue
		}
		it.cur = *snap
		if it.q.Node != "" {
			it.cur = it.cur.WithOnlyNode(it.q.Node)
		}
		it.emitted++
		return true
	}
	return false
}

func (it *SliceIter) Snapshot() model.ClusterSnapshot {
	return it.cur
}

func (it *SliceIter) Err() error {
	return it.err
}

func (it *SliceIter) Close() error {
	it.pos = len(it.snaps)
	return nil
}

// Rows is the subset of *sql.Rows and clickhouse driver.Rows the row iterator needs.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// PayloadScanner reads the payload column of the current row.
type PayloadScanner func(src Rows) (string, error)

func ScanString(src Rows) (string, error) {
	var payload string
	err := src.Scan(&payload)
	return payload, err
}

// RowsIter decodes a single payload column per row. Filters are expected to
// be applied by the query itself; only the node projection and, when the
// backend cannot express it, the offset happen here.
type RowsIter struct {
	q    model.HistoryQuery
	src  Rows
	scan PayloadScanner
	skip int
	cur  model.ClusterSnapshot
	err  error
}

func NewRowsIter(src Rows, q model.HistoryQuery, skip int) *RowsIter {
	return &RowsIter{src: src, q: q, skip: skip, scan: ScanString}
}

func (it *RowsIter) WithScanner(scan PayloadScanner) *RowsIter {
	if scan != nil {
		it.scan = scan
	}
	return it
}

func (it *RowsIter) Next() bool {
	if it.err != nil {
		return false
	}
	for it.src.Next() {
		payload, err := it.scan(it.src)
		if err != nil {
			it.err = QueryFailure(errors.Wrap(err, "scan snapshot"))
			return false
		}
		if it.skip > 0 {
			it.skip--
			continue
		}
		snap, err := DecodeSnapshot([]byte(payload))
		if err != nil {
			it.err = QueryFailure(err)
			return false
		}
		if it.q.Node != "" {
			snap = snap.WithOnlyNode(it.q.Node)
		}
		it.cur = snap
		return true
	}
	if err := it.src.Err(); err != nil {
		it.err = QueryFailure(errors.Wrap(err, "iterate snapshots"))
	}
	return false
}

func (it *RowsIter) Snapshot() model.ClusterSnapshot {
	return it.cur
}

func (it *RowsIter) Err() error {
	return it.err
}

func (it *RowsIter) Close() error {
	return it.src.Close()
}
