package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/go-basic/uuid"
	"github.com/housepower/redwatch/config"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/router"
	"github.com/housepower/redwatch/service/live"
	"github.com/housepower/redwatch/service/metrics"
)

const REQUEST_ID_HEADER string = "X-Request-Id"

type ApiServer struct {
	config   *config.RedwatchConfig
	store    repository.SnapshotStore
	live     *live.View
	metrics  *metrics.Metrics
	clusters func() []string
	svr      *http.Server
}

func NewApiServer(config *config.RedwatchConfig, store repository.SnapshotStore, view *live.View, m *metrics.Metrics, clusters func() []string) *ApiServer {
	server := &ApiServer{}
	server.config = config
	server.store = store
	server.live = view
	server.metrics = m
	server.clusters = clusters
	return server
}

// Handler builds the gin engine without binding a listener.
func (server *ApiServer) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// add log middleware
	r.Use(ginLoggerToFile())

	// http://127.0.0.1:8818/debug/pprof/
	if server.config.Server.Pprof {
		pprof.Register(r)
	}

	if server.config.Server.Metrics && server.metrics != nil {
		r.GET("/metrics", gin.WrapH(server.metrics.Handler()))
	}

	groupV1 := r.Group("/api/v1")
	groupV1.Use(gzip.Gzip(gzip.DefaultCompression))
	router.InitRouterV1(groupV1, server.store, server.live, server.clusters)
	return r
}

func (server *ApiServer) Start() error {
	bind := fmt.Sprintf("%s:%d", server.config.Server.Ip, server.config.Server.Port)
	server.svr = &http.Server{
		Addr:         bind,
		WriteTimeout: time.Second * 300,
		ReadTimeout:  time.Second * 300,
		IdleTimeout:  time.Second * 60,
		Handler:      server.Handler(),
	}

	go func() {
		if err := server.svr.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Logger.Fatalf("start http server start fail: %s", err.Error())
		}
	}()
	log.Logger.Infof("http server listening on %s", bind)
	return nil
}

func (server *ApiServer) Stop() error {
	if server.svr == nil {
		return nil
	}
	waitTimeout := time.Duration(time.Second * 10)
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	return server.svr.Shutdown(ctx)
}

func ginLoggerToFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.Request.Header.Get(REQUEST_ID_HEADER)
		if requestId == "" {
			requestId = uuid.New()
		}
		c.Header(REQUEST_ID_HEADER, requestId)

		startTime := time.Now()
		c.Next()
		latencyTime := time.Since(startTime)

		statusCode := c.Writer.Status()
		if statusCode == http.StatusOK {
			log.Logger.Debugf("[%s] | %3d | %13v | %15s | %s | %s",
				requestId,
				statusCode,
				latencyTime,
				c.ClientIP(),
				c.Request.Method,
				c.Request.RequestURI,
			)
		} else {
			log.Logger.Warnf("[%s] | %3d | %13v | %15s | %s | %s",
				requestId,
				statusCode,
				latencyTime,
				c.ClientIP(),
				c.Request.Method,
				c.Request.RequestURI,
			)
		}
	}
}
