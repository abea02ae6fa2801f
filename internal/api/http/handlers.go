package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aegis-lab/bridge/internal/api/middleware"
	"github.com/aegis-lab/bridge/internal/domain/launcher"
)

// Response messages sent to the browser.
const (
	MsgExecutableNotFound = "Executable not found."
	MsgUnknownCommand     = "Unknown command"
	MsgMethodNotAllowed   = "Method not allowed"
)

// StatusResponse is the /status body.
type StatusResponse struct {
	Status  string `json:"status"`
	Printer string `json:"printer"`
}

// CommandResponse is the body of /print and of every failure.
type CommandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Triggerer runs the focus-or-launch action.
type Triggerer interface {
	Trigger(ctx context.Context) (launcher.Result, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	launcher   Triggerer
	targetName string
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(l Triggerer, targetName string, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		launcher:   l,
		targetName: targetName,
		logger:     logger,
	}
}

// Status reports readiness and the configured target name. It cannot fail.
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Status:  "ready",
		Printer: h.targetName,
	})
}

// Trigger focuses or launches the target application.
func (h *Handlers) Trigger(c *gin.Context) {
	res, err := h.launcher.Trigger(c.Request.Context())
	if err != nil {
		h.logger.Debug("Trigger returned error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, CommandResponse{Success: false, Message: errorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, CommandResponse{Success: true, Message: res.Message()})
}

// UnknownCommand answers every unregistered path. The status stays 200 so
// browser code can read the body without special casing.
func (h *Handlers) UnknownCommand(c *gin.Context) {
	c.JSON(http.StatusOK, CommandResponse{Success: false, Message: MsgUnknownCommand})
}

// MethodNotAllowed answers non-GET methods on a known path.
func (h *Handlers) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, CommandResponse{Success: false, Message: MsgMethodNotAllowed})
}

func errorMessage(err error) string {
	if errors.Is(err, launcher.ErrExecutableNotFound) {
		return MsgExecutableNotFound
	}
	return err.Error()
}
