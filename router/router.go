package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/housepower/redwatch/controller"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/housepower/redwatch/service/live"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ResponseBody struct {
	RetCode string      `json:"retCode"`
	RetMsg  string      `json:"retMsg"`
	Entity  interface{} `json:"entity"`
}

func WrapMsg(c *gin.Context, retCode string, entity interface{}) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "application/json; charset=utf-8")

	retMsg := model.GetMsg(c, retCode)
	if retCode != model.E_SUCCESS {
		log.Logger.Errorf("%s %s return %s, %v", c.Request.Method, c.Request.RequestURI, retCode, entity)
		if err, ok := entity.(error); ok {
			retMsg += ": " + err.Error()
		} else if s, ok := entity.(string); ok {
			retMsg += ": " + s
		}
		entity = nil
	}

	resp := ResponseBody{
		RetCode: retCode,
		RetMsg:  retMsg,
		Entity:  entity,
	}
	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		log.Logger.Errorf("%s %s marshal response body fail: %s", c.Request.Method, c.Request.RequestURI, err.Error())
		return
	}

	_, err = c.Writer.Write(jsonBytes)
	if err != nil {
		log.Logger.Errorf("%s %s write response body fail: %s", c.Request.Method, c.Request.RequestURI, err.Error())
		return
	}
}

func InitRouterV1(groupV1 *gin.RouterGroup, store repository.SnapshotStore, view *live.View, clusters func() []string) {
	snapshotController := controller.NewSnapshotController(store, view, clusters, WrapMsg)
	versionController := controller.NewVersionController(WrapMsg)

	groupV1.GET("/clusters", snapshotController.ListClusters)
	groupV1.GET("/snapshots", snapshotController.History)
	groupV1.GET("/snapshots/rows", snapshotController.Rows)
	groupV1.GET("/snapshots/latest", snapshotController.LatestAll)
	groupV1.GET(fmt.Sprintf("/snapshots/latest/:%s", controller.ClusterNamePath), snapshotController.Latest)
	groupV1.GET("/prometheus/sd", snapshotController.PrometheusSD)
	groupV1.GET("/version", versionController.GetVersion)
}
