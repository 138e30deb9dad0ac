package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/service/live"
	"github.com/housepower/redwatch/service/prometheus"
)

const (
	ClusterNamePath = "clusterName"
)

type SnapshotController struct {
	Controller
	store    repository.SnapshotStore
	live     *live.View
	clusters func() []string
}

func NewSnapshotController(store repository.SnapshotStore, view *live.View, clusters func() []string, wrapfunc Wrapfunc) *SnapshotController {
	return &SnapshotController{
		Controller: Controller{
			wrapfunc: wrapfunc,
		},
		store:    store,
		live:     view,
		clusters: clusters,
	}
}

func (controller *SnapshotController) configured(cluster string) bool {
	for _, name := range controller.clusters() {
		if name == cluster {
			return true
		}
	}
	return false
}

// @Summary ListClusters
// @Description List monitored clusters
// @version 1.0
// @Success 200 {string} json "{"retCode":"0000","retMsg":"success","entity":{"clusters":["cache","session"]}}"
// @Router /api/v1/clusters [get]
func (controller *SnapshotController) ListClusters(c *gin.Context) {
	controller.wrapfunc(c, model.E_SUCCESS, model.ClusterListRsp{Clusters: controller.clusters()})
}

// @Summary LatestAll
// @Description Latest snapshot of every monitored cluster
// @version 1.0
// @Success 200 {string} json "{"retCode":"0000","retMsg":"success","entity":[{"cluster":"cache","snapshot":{...}}]}"
// @Router /api/v1/snapshots/latest [get]
func (controller *SnapshotController) LatestAll(c *gin.Context) {
	controller.wrapfunc(c, model.E_SUCCESS, controller.live.All(c.Request.Context(), controller.clusters()))
}

// @Summary Latest
// @Description Latest snapshot of one cluster
// @version 1.0
// @Param clusterName path string true "cluster name" default(cache)
// @Failure 200 {string} json "{"retCode":"5100","retMsg":"record not found","entity":null}"
// @Success 200 {string} json "{"retCode":"0000","retMsg":"success","entity":{...}}"
// @Router /api/v1/snapshots/latest/{clusterName} [get]
func (controller *SnapshotController) Latest(c *gin.Context) {
	cluster := c.Param(ClusterNamePath)
	if !controller.configured(cluster) {
		controller.wrapfunc(c, model.E_RECORD_NOT_FOUND, fmt.Sprintf("cluster %s is not monitored", cluster))
		return
	}
	snap, err := controller.live.Get(c.Request.Context(), cluster)
	if err != nil {
		controller.wrapfunc(c, storeCode(err), err)
		return
	}
	controller.wrapfunc(c, model.E_SUCCESS, snap)
}

// @Summary History
// @Description Stored snapshots in ascending poll time
// @version 1.0
// @Param cluster query string false "cluster name"
// @Param start query string false "RFC3339 or unix seconds"
// @Param end query string false "RFC3339 or unix seconds"
// @Param node query string false "node address"
// @Param offset query int false "offset"
// @Param limit query int false "limit"
// @Failure 200 {string} json "{"retCode":"5000","retMsg":"invalid params","entity":null}"
// @Failure 200 {string} json "{"retCode":"5101","retMsg":"query snapshots failed","entity":null}"
// @Router /api/v1/snapshots [get]
func (controller *SnapshotController) History(c *gin.Context) {
	q, ok := controller.bindQuery(c)
	if !ok {
		return
	}
	snaps, err := repository.Collect(c.Request.Context(), controller.store, q)
	if err != nil {
		controller.wrapfunc(c, storeCode(err), err)
		return
	}
	if snaps == nil {
		snaps = []model.ClusterSnapshot{}
	}
	controller.wrapfunc(c, model.E_SUCCESS, model.SnapshotListRsp{
		Offset:    q.Offset,
		Limit:     q.Limit,
		Snapshots: snaps,
	})
}

// @Summary Rows
// @Description Stored snapshots flattened into one row per node, offset and limit count snapshots
// @version 1.0
// @Param cluster query string false "cluster name"
// @Param start query string false "RFC3339 or unix seconds"
// @Param end query string false "RFC3339 or unix seconds"
// @Param node query string false "node address"
// @Router /api/v1/snapshots/rows [get]
func (controller *SnapshotController) Rows(c *gin.Context) {
	q, ok := controller.bindQuery(c)
	if !ok {
		return
	}
	rows, err := repository.ExportRows(c.Request.Context(), controller.store, q)
	if err != nil {
		controller.wrapfunc(c, storeCode(err), err)
		return
	}
	if rows == nil {
		rows = []model.NodeRow{}
	}
	controller.wrapfunc(c, model.E_SUCCESS, model.NodeRowListRsp{
		Offset: q.Offset,
		Limit:  q.Limit,
		Rows:   rows,
	})
}

// @Summary PrometheusSD
// @Description Redis nodes of the latest snapshots in Prometheus http_sd format, without the response envelope
// @version 1.0
// @Success 200 {string} json "[{"targets":["10.0.0.1:6379"],"labels":{"redis_cluster":"cache","redis_role":"master"}}]"
// @Router /api/v1/prometheus/sd [get]
func (controller *SnapshotController) PrometheusSD(c *gin.Context) {
	var snaps []model.ClusterSnapshot
	for _, entry := range controller.live.All(c.Request.Context(), controller.clusters()) {
		if entry.Snapshot != nil {
			snaps = append(snaps, *entry.Snapshot)
		}
	}
	c.JSON(http.StatusOK, prometheus.GetObjects(snaps))
}

func (controller *SnapshotController) bindQuery(c *gin.Context) (model.HistoryQuery, bool) {
	var req model.SnapshotQueryReq
	if err := c.ShouldBindQuery(&req); err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return model.HistoryQuery{}, false
	}
	q, err := req.HistoryQuery()
	if err != nil {
		controller.wrapfunc(c, model.E_INVALID_PARAMS, err)
		return q, false
	}
	return q, true
}
