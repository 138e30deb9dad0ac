package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const MAX_QUERY_LIMIT int = 10000

// SnapshotQueryReq is the query string of the history endpoints. Start and
// End accept RFC3339 or unix seconds.
type SnapshotQueryReq struct {
	Cluster string `form:"cluster"`
	Start   string `form:"start"`
	End     string `form:"end"`
	Node    string `form:"node"`
	Offset  int    `form:"offset"`
	Limit   int    `form:"limit"`
}

func (req *SnapshotQueryReq) HistoryQuery() (HistoryQuery, error) {
	q := HistoryQuery{
		Cluster: strings.TrimSpace(req.Cluster),
		Node:    strings.TrimSpace(req.Node),
		Offset:  req.Offset,
		Limit:   req.Limit,
	}
	var err error
	if q.Start, err = ParseTime(req.Start); err != nil {
		return q, errors.Wrap(err, "start")
	}
	if q.End, err = ParseTime(req.End); err != nil {
		return q, errors.Wrap(err, "end")
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return q, errors.Errorf("end %s is before start %s", req.End, req.Start)
	}
	if q.Offset < 0 || q.Limit < 0 {
		return q, errors.Errorf("offset and limit must not be negative")
	}
	if q.Limit == 0 || q.Limit > MAX_QUERY_LIMIT {
		q.Limit = MAX_QUERY_LIMIT
	}
	return q, nil
}

// ParseTime accepts RFC3339 or unix seconds. An empty string is the zero time.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid time %q, expect RFC3339 or unix seconds", s)
	}
	return t.UTC(), nil
}
