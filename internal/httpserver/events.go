package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// events streams cart snapshots as server-sent events until the client
// disconnects. The current state is sent first.
func (h *cartHandlers) events(c *gin.Context) {
	updates, cancel := h.store.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.SSEvent("cart", newCartView(h.store.State()))
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("cart", newCartView(st))
			c.Writer.Flush()
		}
	}
}
