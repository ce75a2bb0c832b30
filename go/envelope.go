package marketserver

import "github.com/gin-gonic/gin"

// CommonResponse wraps every successful body.
type CommonResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, CommonResponse{Status: status, Message: message, Data: data})
}
