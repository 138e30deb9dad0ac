package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/housepower/redwatch/config"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	_ "github.com/housepower/redwatch/repository/clickhouse"
	_ "github.com/housepower/redwatch/repository/dm8"
	_ "github.com/housepower/redwatch/repository/local"
	_ "github.com/housepower/redwatch/repository/mysql"
	_ "github.com/housepower/redwatch/repository/postgres"
	"github.com/housepower/redwatch/server"
	"github.com/housepower/redwatch/service/cron"
	"github.com/housepower/redwatch/service/live"
	"github.com/housepower/redwatch/service/metrics"
	"github.com/housepower/redwatch/service/prober"
	"github.com/housepower/redwatch/service/scheduler"
	"github.com/housepower/redwatch/service/sentinel"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/sevlyar/go-daemon.v0"
)

const MASKED string = "******"

func main() {
	config.InitCmd()
	if err := config.ParseConfigFile(config.ConfigFilePath, config.Version); err != nil {
		fmt.Printf("Parse config file %s fail: %v\n", config.ConfigFilePath, err)
		os.Exit(1)
	}
	conf := &config.GlobalConfig
	if err := conf.Monitor.Validate(); err != nil {
		fmt.Printf("Invalid config file %s: %v\n", config.ConfigFilePath, err)
		os.Exit(1)
	}
	log.InitLogger(config.LogFilePath, &conf.Log)
	defer log.Sync()

	cntxt := &daemon.Context{
		PidFileName: config.PidFilePath,
		PidFilePerm: 0644,
		LogFilePerm: 0640,
		WorkDir:     "./",
		Umask:       027,
	}

	if config.Daemon {
		d, err := cntxt.Reborn()
		if err != nil {
			log.Logger.Fatal(err)
		}
		if d != nil {
			return
		}
		defer cntxt.Release()
	}

	log.Logger.Info("redwatch starting...")
	log.Logger.Infof("version: %v", config.Version)
	log.Logger.Infof("build time: %v", config.BuildTimeStamp)
	log.Logger.Infof("git commit hash: %v", config.GitCommitHash)
	DumpConfig(*conf)

	store, err := repository.InitPersistent(conf.Server.PersistentPolicy, conf.PersistentConfig)
	if err != nil {
		log.Logger.Fatalf("init persistent failed: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	observer := sentinel.NewObserver()
	endpoints := conf.Monitor.Endpoints()
	if seeds := conf.Monitor.Discoverable(); len(seeds) > 0 {
		discovered, err := observer.Discover(ctx, seeds, conf.Monitor.SentinelTimeoutDuration())
		if err != nil {
			log.Logger.Fatalf("discover clusters failed: %v", err)
		}
		endpoints = mergeEndpoints(endpoints, discovered)
	}

	m := metrics.New()
	view := live.NewView(store, conf.Monitor.Interval())
	sched, err := scheduler.New(scheduler.Options{
		Endpoints:         endpoints,
		Interval:          conf.Monitor.Interval(),
		SentinelTimeout:   conf.Monitor.SentinelTimeoutDuration(),
		NodeTimeout:       conf.Monitor.NodeTimeoutDuration(),
		CycleTimeout:      conf.Monitor.CycleTimeoutDuration(),
		StoreWriteTimeout: conf.Monitor.StoreWriteTimeoutDuration(),
		Writers:           conf.Monitor.Writers,
		Observer:          observer,
		Prober:            prober.NewProber(conf.Monitor.NodePasswords),
		Store:             store,
		Live:              view,
		Metrics:           m,
	})
	if err != nil {
		log.Logger.Fatalf("create scheduler failed: %v", err)
	}
	log.Logger.Infof("monitoring clusters %v", sched.Clusters())

	svr := server.NewApiServer(conf, store, view, m, sched.Clusters)
	if err := svr.Start(); err != nil {
		log.Logger.Fatalf("start http server fail: %v", err)
	}
	defer svr.Stop()

	cronSvr := cron.NewCronService(conf.Cron, store, conf.Monitor.Retention())
	if err = cronSvr.Start(); err != nil {
		log.Logger.Fatalf("Failed to start cron service, %v", err)
	}
	defer cronSvr.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sched.Run(ctx)
	}()

	//block here, waiting for terminal signal
	handleSignal(make(chan os.Signal, 1))
	cancel()
	<-done
	log.Logger.Infof("scheduler %s", sched.State())
}

func handleSignal(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	sig := <-ch
	log.Logger.Infof("receive signal: %v", sig)
	log.Logger.Warn("redwatch exiting...")
	signal.Stop(ch)
}

// mergeEndpoints appends discovered endpoints that are not configured already.
func mergeEndpoints(configured, discovered []model.SentinelEndpoint) []model.SentinelEndpoint {
	seen := make(map[string]struct{}, len(configured))
	for _, e := range configured {
		seen[e.Cluster+"@"+e.Addr()] = struct{}{}
	}
	for _, e := range discovered {
		key := e.Cluster + "@" + e.Addr()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		configured = append(configured, e)
	}
	return configured
}

func DumpConfig(conf config.RedwatchConfig) {
	sentinels := make([]config.SentinelConfig, len(conf.Monitor.Sentinels))
	for i, s := range conf.Monitor.Sentinels {
		if s.Password != "" {
			s.Password = MASKED
		}
		sentinels[i] = s
	}
	conf.Monitor.Sentinels = sentinels

	passwords := make(map[string]string, len(conf.Monitor.NodePasswords))
	for k := range conf.Monitor.NodePasswords {
		passwords[k] = MASKED
	}
	conf.Monitor.NodePasswords = passwords

	persistent := make(map[string]map[string]interface{}, len(conf.PersistentConfig))
	for name, section := range conf.PersistentConfig {
		masked := make(map[string]interface{}, len(section))
		for k, v := range section {
			if strings.Contains(strings.ToLower(k), "password") {
				v = MASKED
			}
			masked[k] = v
		}
		persistent[name] = masked
	}
	conf.PersistentConfig = persistent

	data, err := jsoniter.MarshalIndent(conf, "", "  ")
	if err != nil {
		log.Logger.Errorf("marshal error: %v", err)
		return
	}
	log.Logger.Infof("%v", string(data))
}
