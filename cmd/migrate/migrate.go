package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hjson/hjson-go/v4"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	_ "github.com/housepower/redwatch/repository/clickhouse"
	_ "github.com/housepower/redwatch/repository/dm8"
	_ "github.com/housepower/redwatch/repository/local"
	_ "github.com/housepower/redwatch/repository/mysql"
	_ "github.com/housepower/redwatch/repository/postgres"
	"github.com/pkg/errors"
)

type PersistentConfig struct {
	Policy string
	Config map[string]interface{}
}

type MigrateConfig struct {
	Source string
	Target string
	PsConf map[string]PersistentConfig `json:"persistent_config"`
}

func ParseConfig(conf string) (MigrateConfig, error) {
	var config MigrateConfig
	f, err := os.Open(conf)
	if err != nil {
		return MigrateConfig{}, errors.Wrap(err, "")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return MigrateConfig{}, errors.Wrap(err, "")
	}
	if len(data) == 0 {
		return MigrateConfig{}, errors.New("empty config file")
	}
	err = hjson.Unmarshal(data, &config)
	if err != nil {
		return MigrateConfig{}, errors.Wrap(err, "")
	}
	return config, nil
}

func PersistentCheck(config MigrateConfig, typo string) (repository.SnapshotStore, error) {
	conf, ok := config.PsConf[typo]
	if !ok {
		return nil, errors.Errorf("empty persistent config %s", typo)
	}
	return repository.InitPersistent(conf.Policy, map[string]map[string]interface{}{
		conf.Policy: conf.Config,
	})
}

// Migrate copies every snapshot of src into dst in poll time order. A cluster
// that already has snapshots in dst resumes after its latest one, so an
// interrupted migration can simply be run again.
func Migrate(ctx context.Context, src, dst repository.SnapshotStore) (int, error) {
	it, err := src.Query(ctx, model.HistoryQuery{})
	if err != nil {
		return 0, err
	}
	defer it.Close()

	since := make(map[string]time.Time)
	copied := 0
	for it.Next() {
		snap := it.Snapshot()
		last, ok := since[snap.Cluster]
		if !ok {
			latest, err := dst.Latest(ctx, snap.Cluster)
			switch {
			case err == nil:
				last = latest.PollTime
				log.Logger.Infof("cluster %s resumes after %s", snap.Cluster, last.Format(time.RFC3339))
			case errors.Is(err, repository.ErrRecordNotFound):
			default:
				return copied, err
			}
			since[snap.Cluster] = last
		}
		if !last.IsZero() && !snap.PollTime.After(last) {
			continue
		}
		if err = dst.Append(ctx, snap); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, it.Err()
}

func MigrateHandle(conf string) {
	config, err := ParseConfig(conf)
	if err != nil {
		fmt.Printf("parse config file %s failed: %v\n", conf, err)
		return
	}
	psrc, err := PersistentCheck(config, config.Source)
	if err != nil {
		fmt.Printf("source [%s] err: %v\n", config.Source, err)
		return
	}
	defer psrc.Close()
	pdst, err := PersistentCheck(config, config.Target)
	if err != nil {
		fmt.Printf("target [%s] err: %v\n", config.Target, err)
		return
	}
	defer pdst.Close()

	copied, err := Migrate(context.Background(), psrc, pdst)
	if err != nil {
		fmt.Printf("migrate failed after %d snapshots: %v\n", copied, err)
		return
	}
	fmt.Printf("From [%s] migrate %d snapshots to [%s] success!\n", config.Source, copied, config.Target)
}
