package middleware

import (
	"fmt"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"go-blog-app/internal/logger"
	"go-blog-app/internal/view"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// ServerError wraps an unexpected failure as a 500.
func ServerError(err error, message string) *AppError {
	return &AppError{Error: err, Message: message, Code: http.StatusInternalServerError}
}

// NotFound answers with the 404 page.
func NotFound(err error) *AppError {
	return &AppError{Error: err, Message: http.StatusText(http.StatusNotFound), Code: http.StatusNotFound}
}

// Error adapts an AppHandler to http.Handler. Returned errors and panics are
// logged and answered with the error page; 5xx causes are never shown.
func Error(log logger.Logger, v *view.View) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := log.With(map[string]interface{}{
				"request_id": chimw.GetReqID(r.Context()),
				"path":       r.URL.Path,
			})
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					reqLog.Error(err, "Panic recovered")
					renderError(w, r, reqLog, v, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				}
			}()

			if appErr := next(w, r); appErr != nil {
				if appErr.Code >= http.StatusInternalServerError {
					reqLog.Error(appErr.Error, appErr.Message)
				} else if appErr.Error != nil {
					reqLog.Debug(appErr.Error.Error())
				}
				renderError(w, r, reqLog, v, appErr.Code, appErr.Message)
			}
		})
	}
}

func renderError(w http.ResponseWriter, r *http.Request, log logger.Logger, v *view.View, code int, text string) {
	data := map[string]interface{}{
		"StatusCode": code,
		"StatusText": text,
	}
	if err := v.RenderStatus(w, r, code, "error.html", data); err != nil {
		log.Error(err, "Failed to render error page")
		http.Error(w, text, code)
	}
}
