package handler

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/dto"
	"github.com/suitableit/smmdoc-sub003/internal/realtime"
)

// StreamHandler serves the realtime event stream over SSE. Each event is a
// single data line carrying the JSON-encoded event body.
type StreamHandler struct {
	BaseHandler
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewStreamHandler creates a StreamHandler
func NewStreamHandler(hub *realtime.Hub, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		hub:    hub,
		logger: logger,
	}
}

// RegisterRoutes registers the stream route
func (h *StreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stream", h.Stream)
}

// Stream subscribes the caller to the hub and relays events until the
// connection drops or the hub shuts down
func (h *StreamHandler) Stream(c *gin.Context) {
	sub, err := h.hub.Subscribe()
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeMaxConnections, "Maximum number of stream connections reached")
		return
	}
	defer h.hub.Unsubscribe(sub.ID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	h.logger.Info("stream client connected", zap.String("client_id", sub.ID))

	h.writeEvent(c.Writer, realtime.NewEvent(realtime.EventConnected))
	c.Writer.Flush()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("stream client disconnected", zap.String("client_id", sub.ID))
			return
		case <-sub.Done:
			h.logger.Info("stream closed by hub", zap.String("client_id", sub.ID))
			return
		case event := <-sub.C:
			h.writeEvent(c.Writer, event)
			c.Writer.Flush()
		}
	}
}

func (h *StreamHandler) writeEvent(w io.Writer, event realtime.Event) {
	body, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal stream event", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "event: %s\n", event.Type)
	fmt.Fprintf(w, "data: %s\n\n", body)
}
