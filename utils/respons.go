package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-pos/apiclient"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondUpstreamError maps a remote API failure to a console status code.
// The upstream body is passed through as data when there is one.
func RespondUpstreamError(c *gin.Context, err error) {
	code := UpstreamStatus(err)

	var apiErr *apiclient.APIError
	var data interface{}
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Body) != "" {
		data = gin.H{"upstream": apiErr.Body}
	}

	if code >= http.StatusInternalServerError {
		ErrorLogger.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error("upstream call failed")
	}

	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    data,
	})
}

func UpstreamStatus(err error) int {
	switch {
	case errors.Is(err, apiclient.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apiclient.ErrValidation), errors.Is(err, apiclient.ErrUnsupportedKind):
		return http.StatusBadRequest
	case errors.Is(err, apiclient.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apiclient.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	}
	return http.StatusBadGateway
}

// FormatPrice renders an amount with space-separated thousands and no
// decimals unless there is a fractional part, e.g. 25000 -> "25 000".
func FormatPrice(amount float64) string {
	formatted := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(formatted, ".")
	integerPart := parts[0]
	decimalPart := parts[1]

	negative := strings.HasPrefix(integerPart, "-")
	integerPart = strings.TrimPrefix(integerPart, "-")

	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	result := strings.Join(groups, " ")
	if decimalPart != "00" {
		result += "." + decimalPart
	}
	if negative {
		result = "-" + result
	}
	return result
}
