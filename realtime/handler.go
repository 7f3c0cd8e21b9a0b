package realtime

import (
	"log"
	"net/http"
	"os"

	"hive-server/utils"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		frontend := os.Getenv("FRONTEND_URL")
		if frontend == "" {
			return true
		}
		return r.Header.Get("Origin") == frontend
	},
}

// ServeWs upgrades an authenticated request to a gateway connection. It
// runs behind the same access-token verifier as the REST routes.
func ServeWs(hub *Hub) iris.Handler {
	return func(ctx iris.Context) {
		claims := jwt.Get(ctx).(*utils.AccessToken)

		conn, err := upgrader.Upgrade(ctx.ResponseWriter(), ctx.Request(), nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for user %d: %v", claims.ID, err)
			return
		}

		client := newClient(hub, conn, claims.ID)
		go client.writePump()
		go client.readPump()
	}
}
