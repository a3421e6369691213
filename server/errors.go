package server

import (
	"net/http"

	"github.com/Luismorlan/localsocial/store"
	"github.com/Luismorlan/localsocial/utils"
	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// abortWithError maps store errors to a status code and aborts with the
// {"code", "msg"} body every error response carries.
func abortWithError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, utils.ErrorInternal
	switch {
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, utils.ErrorNotFound
	case errors.Is(err, store.ErrForbidden):
		status, code = http.StatusForbidden, utils.ErrorForbidden
	case errors.Is(err, store.ErrInvalidInput):
		status, code = http.StatusBadRequest, utils.ErrorBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		Log.WithError(err).Errorf("%s %s failed", c.Request.Method, c.FullPath())
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"code": code,
		"msg":  msg,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"code": utils.ErrorBadRequest,
		"msg":  msg,
	})
}
