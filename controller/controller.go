package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/housepower/redwatch/model"
	"github.com/housepower/redwatch/repository"
	"github.com/pkg/errors"
)

type Wrapfunc func(c *gin.Context, retCode string, entity interface{})

type Controller struct {
	wrapfunc Wrapfunc
}

// storeCode maps a store error to a response code.
func storeCode(err error) string {
	if errors.Is(err, repository.ErrRecordNotFound) {
		return model.E_RECORD_NOT_FOUND
	}
	return model.E_DATA_SELECT_FAILED
}
