package transport

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/quilldoc/collabcore/hub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewHandler builds the HTTP handler serving the WebSocket endpoint,
// generalizing the teacher's server.NewHandler (which also served static
// editor files; that UI is out of scope here per §1).
func NewHandler(h *hub.Hub, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		c := New(h, conn, log)
		go c.WritePump()
		go c.ReadPump()
	})
	return mux
}
