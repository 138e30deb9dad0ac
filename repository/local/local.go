package local

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/pkg/errors"
)

// LocalPersistent appends one JSON line per snapshot to a file and keeps every
// snapshot in memory ordered by poll time. The in-memory slice is only ever
// appended to or replaced, so a reader holding an older slice header never
// sees it change.
type LocalPersistent struct {
	Config LocalConfig

	wlock sync.Mutex // serializes file writes
	lock  sync.RWMutex
	data  []model.ClusterSnapshot
	fd    *os.File
	torn  bool
}

func NewLocalPersistent() *LocalPersistent {
	return &LocalPersistent{}
}

func (lp *LocalPersistent) UnmarshalConfig(configMap map[string]interface{}) interface{} {
	var config LocalConfig
	if !repository.DecodeConfig(LocalPersistentName, configMap, &config) {
		return nil
	}
	return config
}

func (lp *LocalPersistent) Init(config interface{}) error {
	if config == nil {
		config = LocalConfig{}
	}
	lp.Config = config.(LocalConfig)
	lp.Config.Normalize()

	if err := os.MkdirAll(lp.Config.DataDir, 0755); err != nil {
		return errors.Wrapf(err, "")
	}
	if err := lp.load(); err != nil {
		return err
	}
	fd, err := os.OpenFile(lp.Config.Path(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrapf(err, "")
	}
	lp.fd = fd
	if lp.torn {
		if _, err = fd.Write([]byte{'\n'}); err != nil {
			return errors.Wrapf(err, "")
		}
	}
	return nil
}

func (lp *LocalPersistent) Append(ctx context.Context, snap model.ClusterSnapshot) error {
	if err := ctx.Err(); err != nil {
		return repository.WriteFailure(errors.Wrap(err, "append"))
	}
	line, err := repository.EncodeSnapshot(&snap)
	if err != nil {
		return repository.WriteFailure(err)
	}
	// keep the decoded copy so memory holds exactly what the file holds
	stored, err := repository.DecodeSnapshot(line)
	if err != nil {
		return repository.WriteFailure(err)
	}

	lp.wlock.Lock()
	defer lp.wlock.Unlock()
	if lp.fd == nil {
		return repository.WriteFailure(errors.New("local persistent is closed"))
	}
	if err = lp.writeLine(line); err != nil {
		return repository.WriteFailure(err)
	}

	lp.lock.Lock()
	lp.data = insert(lp.data, stored)
	lp.lock.Unlock()
	return nil
}

func (lp *LocalPersistent) writeLine(line []byte) error {
	buf := make([]byte, 0, len(line)+1)
	buf = append(append(buf, line...), '\n')
	num, err := lp.fd.Write(buf)
	if err != nil {
		return errors.Wrapf(err, "")
	}
	if num != len(buf) {
		return errors.Errorf("didn't write enough data")
	}
	if !lp.Config.NoSync {
		if err = lp.fd.Sync(); err != nil {
			return errors.Wrapf(err, "")
		}
	}
	return nil
}

func (lp *LocalPersistent) view() []model.ClusterSnapshot {
	lp.lock.RLock()
	defer lp.lock.RUnlock()
	return lp.data
}

func (lp *LocalPersistent) Query(ctx context.Context, q model.HistoryQuery) (repository.SnapshotIter, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.QueryFailure(errors.Wrap(err, "query"))
	}
	return repository.NewSliceIter(ctx, lp.view(), q), nil
}

func (lp *LocalPersistent) Latest(ctx context.Context, cluster string) (model.ClusterSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.ClusterSnapshot{}, repository.QueryFailure(errors.Wrap(err, "latest"))
	}
	data := lp.view()
	for i := len(data) - 1; i >= 0; i-- {
		if data[i].Cluster == cluster {
			return data[i], nil
		}
	}
	return model.ClusterSnapshot{}, repository.ErrRecordNotFound
}

// Purge rewrites the file without the expired snapshots. The old file is
// kept as <file>.last until the next purge. The data file is replaced by a
// single rename, so a failed purge leaves the store as it was.
func (lp *LocalPersistent) Purge(ctx context.Context, before time.Time) (int64, error) {
	lp.wlock.Lock()
	defer lp.wlock.Unlock()
	if lp.fd == nil {
		return 0, repository.WriteFailure(errors.New("local persistent is closed"))
	}

	data := lp.view()
	idx := sort.Search(len(data), func(i int) bool {
		return !data[i].PollTime.Before(before)
	})
	if idx == 0 {
		return 0, nil
	}
	kept := append([]model.ClusterSnapshot(nil), data[idx:]...)

	localFile := lp.Config.Path()
	tmpFile := localFile + ".tmp"
	if err := dump(tmpFile, kept); err != nil {
		_ = os.Remove(tmpFile)
		return 0, repository.WriteFailure(err)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpFile)
		return 0, repository.WriteFailure(errors.Wrap(err, "purge"))
	}
	// opened before the rename, the descriptor follows the file to its new name
	fd, err := os.OpenFile(tmpFile, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		_ = os.Remove(tmpFile)
		return 0, repository.WriteFailure(errors.Wrapf(err, ""))
	}
	lastFile := fmt.Sprintf("%s.last", localFile)
	_ = os.Remove(lastFile)
	if err = os.Link(localFile, lastFile); err != nil {
		log.Logger.Warnf("keep %s failed: %v", lastFile, err)
	}
	if err = os.Rename(tmpFile, localFile); err != nil {
		_ = fd.Close()
		_ = os.Remove(tmpFile)
		return 0, repository.WriteFailure(errors.Wrapf(err, ""))
	}
	_ = lp.fd.Close()
	lp.fd = fd

	lp.lock.Lock()
	lp.data = kept
	lp.lock.Unlock()
	return int64(idx), nil
}

func (lp *LocalPersistent) Close() error {
	lp.wlock.Lock()
	defer lp.wlock.Unlock()
	if lp.fd == nil {
		return nil
	}
	err := lp.fd.Close()
	lp.fd = nil
	return errors.Wrapf(err, "")
}

func (lp *LocalPersistent) load() error {
	localFile := lp.Config.Path()
	if _, err := os.Stat(localFile); err != nil {
		// file does not exist
		return nil
	}
	data, err := os.ReadFile(localFile)
	if err != nil {
		return errors.Wrapf(err, "")
	}

	lp.torn = len(data) > 0 && data[len(data)-1] != '\n'
	var snaps []model.ClusterSnapshot
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	var lineno int
	for scanner.Scan() {
		lineno++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		snap, err := repository.DecodeSnapshot(line)
		if err != nil {
			// a crash in the middle of a write leaves a torn last line
			log.Logger.Warnf("skip broken snapshot at %s:%d: %v", localFile, lineno, err)
			continue
		}
		snaps = insert(snaps, snap)
	}
	if err = scanner.Err(); err != nil {
		return errors.Wrapf(err, "")
	}
	lp.data = snaps
	log.Logger.Infof("loaded %d snapshots from %s", len(snaps), localFile)
	return nil
}

func dump(file string, snaps []model.ClusterSnapshot) error {
	fd, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, "")
	}
	defer fd.Close()
	w := bufio.NewWriter(fd)
	for i := range snaps {
		line, err := repository.EncodeSnapshot(&snaps[i])
		if err != nil {
			return err
		}
		_, _ = w.Write(line)
		_ = w.WriteByte('\n')
	}
	if err = w.Flush(); err != nil {
		return errors.Wrapf(err, "")
	}
	return errors.Wrapf(fd.Sync(), "")
}

// insert keeps data ordered by poll time, stable for equal times. The common
// case appends in place; an out of order snapshot gets a fresh slice.
func insert(data []model.ClusterSnapshot, snap model.ClusterSnapshot) []model.ClusterSnapshot {
	n := len(data)
	if n == 0 || !snap.PollTime.Before(data[n-1].PollTime) {
		return append(data, snap)
	}
	idx := sort.Search(n, func(i int) bool {
		return data[i].PollTime.After(snap.PollTime)
	})
	out := make([]model.ClusterSnapshot, 0, n+1)
	out = append(out, data[:idx]...)
	out = append(out, snap)
	return append(out, data[idx:]...)
}
