package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"go-pkresolve/log"
	"go-pkresolve/pkg"
)

// InvalidInputError reports a request that could not be bound.
type InvalidInputError struct {
	Err error
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Err.Error()
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// CodeInvalidInput is the error code of requests that could not be bound.
const CodeInvalidInput = "invalid-input"

// ErrorBody is the response body of a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GetStatusCode maps an error to its HTTP status.
func GetStatusCode(err error) int {
	var iie *InvalidInputError
	if errors.As(err, &iie) {
		return http.StatusBadRequest
	}
	switch pkg.ErrorCode(err) {
	case pkg.CodeFilterInvalid, pkg.CodePackageIDInvalid,
		pkg.CodeCannotGetRequires, pkg.CodeCannotGetFilelist:
		return http.StatusBadRequest
	case pkg.CodePackageNotFound, pkg.CodeRepoNotFound:
		return http.StatusNotFound
	case pkg.CodeCannotDisableRepo:
		return http.StatusConflict
	case pkg.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case pkg.CodeDependencyResolution, pkg.CodeDataIntegrity:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// errorHandler answers requests whose handler recorded errors.
func errorHandler() gin.HandlerFunc {
	return func(gc *gin.Context) {
		gc.Next()
		if len(gc.Errors) == 0 || gc.Writer.Written() {
			return
		}
		err := gc.Errors.Last().Err
		code := pkg.ErrorCode(err)
		var iie *InvalidInputError
		if errors.As(err, &iie) {
			code = CodeInvalidInput
		}
		msgs := make([]string, len(gc.Errors))
		for i, e := range gc.Errors {
			msgs[i] = e.Error()
		}
		gc.JSON(GetStatusCode(err), ErrorBody{Code: code, Message: strings.Join(msgs, ", ")})
	}
}

// accessLogHandler logs each request with its request id. Health checks
// are not logged.
func accessLogHandler(logger log.LibraryLogger) gin.HandlerFunc {
	return func(gc *gin.Context) {
		start := time.Now()
		gc.Next()
		if gc.Request.URL.Path == HealthCheckPath {
			return
		}
		logger.Info("[%s] %s %s %d %s", requestid.Get(gc), gc.Request.Method,
			gc.Request.URL.RequestURI(), gc.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
