package main

/*
redwatchctl migrate -c conf/migrate.hjson
redwatchctl purge -c conf/redwatch.hjson --before 2024-03-01T00:00:00Z
redwatchctl export -c conf/redwatch.hjson --cluster cache --start 1709251200
redwatchctl discover --sentinel 10.0.1.1:26379 -W
*/

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/housepower/redwatch/cmd/exporter"
	"github.com/housepower/redwatch/cmd/migrate"
	"github.com/housepower/redwatch/config"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/service/sentinel"
	"golang.org/x/term"
)

const DEFAULT_CONF string = "conf/redwatch.hjson"

var (
	migrateCmd = kingpin.Command("migrate", "copy snapshots from one persistent policy to another")
	m_conf     = migrateCmd.Flag("conf", "migrate config file path").Default("conf/migrate.hjson").Short('c').String()

	purgeCmd = kingpin.Command("purge", "delete snapshots polled before the given time")
	p_conf   = purgeCmd.Flag("conf", "config file path").Short('c').Default(DEFAULT_CONF).String()
	p_before = purgeCmd.Flag("before", "RFC3339 or unix seconds").Required().String()

	exportCmd = kingpin.Command("export", "print stored snapshots as one json row per node")
	e_conf    = exportCmd.Flag("conf", "config file path").Short('c').Default(DEFAULT_CONF).String()
	e_cluster = exportCmd.Flag("cluster", "cluster name").String()
	e_start   = exportCmd.Flag("start", "RFC3339 or unix seconds").String()
	e_end     = exportCmd.Flag("end", "RFC3339 or unix seconds").String()
	e_node    = exportCmd.Flag("node", "node address").String()

	discoverCmd = kingpin.Command("discover", "list the masters a sentinel monitors")
	d_sentinel  = discoverCmd.Flag("sentinel", "sentinel address").Short('s').Default("127.0.0.1:26379").String()
	d_askpass   = discoverCmd.Flag("ask-password", "prompt for the sentinel password").Short('W').Bool()
	d_timeout   = discoverCmd.Flag("timeout", "request timeout").Short('t').Default("2s").Duration()
)

func main() {
	log.InitLoggerConsole()
	command := kingpin.Parse()
	firstCmd := strings.Split(command, " ")[0]
	switch firstCmd {
	case "migrate":
		migrate.MigrateHandle(*m_conf)
	case "purge":
		purgeHandle(*p_conf, *p_before)
	case "export":
		exportHandle(*e_conf, model.SnapshotQueryReq{
			Cluster: *e_cluster,
			Start:   *e_start,
			End:     *e_end,
			Node:    *e_node,
		})
	case "discover":
		discoverHandle(*d_sentinel, *d_askpass, *d_timeout)
	}
}

func openStore(conf string) (repository.SnapshotStore, error) {
	if err := config.ParseConfigFile(conf, ""); err != nil {
		return nil, err
	}
	return repository.InitPersistent(config.GlobalConfig.Server.PersistentPolicy, config.GlobalConfig.PersistentConfig)
}

func purgeHandle(conf, before string) {
	t, err := model.ParseTime(before)
	if err != nil {
		fmt.Printf("invalid --before: %v\n", err)
		os.Exit(1)
	}
	if t.IsZero() {
		fmt.Println("--before must not be empty")
		os.Exit(1)
	}
	store, err := openStore(conf)
	if err != nil {
		fmt.Printf("open store failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	n, err := store.Purge(context.Background(), t)
	if err != nil {
		fmt.Printf("purge failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("purged %d snapshots polled before %s\n", n, t.Format(time.RFC3339))
}

func exportHandle(conf string, req model.SnapshotQueryReq) {
	q, err := req.HistoryQuery()
	if err != nil {
		fmt.Printf("invalid query: %v\n", err)
		os.Exit(1)
	}
	// the export is not paginated
	q.Limit = 0
	store, err := openStore(conf)
	if err != nil {
		fmt.Printf("open store failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if _, err = exporter.Export(context.Background(), store, q, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
}

func discoverHandle(addr string, askpass bool, timeout time.Duration) {
	var password string
	if askpass {
		fmt.Printf("Enter password for sentinel %s: ", addr)
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			fmt.Printf("Enter password fail: %v\n", err)
			os.Exit(1)
		}
		password = string(bytePassword)
	}
	names, err := sentinel.NewObserver().Masters(context.Background(), addr, password, timeout)
	if err != nil {
		fmt.Printf("discover failed: %v\n", err)
		os.Exit(1)
	}
	for _, name := range names {
		fmt.Println(name)
	}
}
