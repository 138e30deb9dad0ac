package model

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	E_SUCCESS string = "0000"

	E_INVALID_PARAMS     string = "5000"
	E_RECORD_NOT_FOUND   string = "5100"
	E_DATA_SELECT_FAILED string = "5101"
	E_MARSHAL_FAILED     string = "5200"
	E_UNKNOWN            string = "5999"
)

type CodeMessage struct {
	Msg_EN string
	Msg_ZH string
}

var Messages = map[string]CodeMessage{
	E_SUCCESS: {"success", "成功"},
	E_UNKNOWN: {"unknown error", "未知错误"},

	E_INVALID_PARAMS:     {"invalid params", "参数不合法"},
	E_RECORD_NOT_FOUND:   {"record not found", "记录找不到"},
	E_DATA_SELECT_FAILED: {"query snapshots failed", "快照查询失败"},
	E_MARSHAL_FAILED:     {"marshal failed", "序列化失败"},
}

func GetMsg(c *gin.Context, code string) string {
	lang := c.Request.Header.Get("Accept-Language")
	var msg string
	if strings.Contains(lang, "zh") {
		msg = Messages[code].Msg_ZH
	} else {
		msg = Messages[code].Msg_EN
	}
	return msg
}
