package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON API reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func success(c *gin.Context, data interface{}, message string) {
	successWithStatus(c, http.StatusOK, data, message)
}

// successWithStatus allows 202 Accepted and similar codes.
func successWithStatus(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, Response{Code: code, Message: message, Data: data})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, Response{Code: code, Message: message})
}
