package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/spacetraveling/api"
	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/internal/middleware"
	"github.com/gin-gonic/gin"
)

// StatusFor maps a generation or repository error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCursor):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRepositoryUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestID(c *gin.Context) string {
	return middleware.RequestID(c)
}

func renderHTMLError(c *gin.Context, err error) {
	status := StatusFor(err)
	_ = c.Error(err)

	c.HTML(status, "error.html", gin.H{
		"Status":    status,
		"Message":   http.StatusText(status),
		"RequestID": requestID(c),
	})
}

func renderJSONError(c *gin.Context, err error) {
	status := StatusFor(err)
	_ = c.Error(err)

	message := http.StatusText(status)
	if status == http.StatusBadRequest {
		message = err.Error()
	}

	c.JSON(status, api.Error{Error: message, RequestID: requestID(c)})
}
