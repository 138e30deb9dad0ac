package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/housepower/redwatch/config"
	"github.com/housepower/redwatch/model"
)

type VersionController struct {
	Controller
}

func NewVersionController(wrapfunc Wrapfunc) *VersionController {
	return &VersionController{
		Controller: Controller{
			wrapfunc: wrapfunc,
		},
	}
}

// @Summary GetVersion
// @Description Get build version
// @version 1.0
// @Success 200 {string} json "{"retCode":"0000","retMsg":"success","entity":{"version":"v1.0.0"}}"
// @Router /api/v1/version [get]
func (controller *VersionController) GetVersion(c *gin.Context) {
	controller.wrapfunc(c, model.E_SUCCESS, model.VersionRsp{
		Version:   config.Version,
		BuildTime: config.BuildTimeStamp,
		GitCommit: config.GitCommitHash,
	})
}
