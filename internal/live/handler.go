package live

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/codr1/padeldraw/internal/api/apiutil"
)

// Handler upgrades GET /api/v1/categories/{id}/live to a websocket subscribed to the
// category's events. Origins are checked against allowedOrigins; "*" allows any.
func (h *Hub) Handler(allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.Ctx(r.Context())
		categoryID, err := apiutil.IDParam(r, "id")
		if err != nil {
			apiutil.WriteError(w, r, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Int64("category_id", categoryID).Msg("Failed to upgrade live connection")
			return
		}

		client := &Client{
			hub:        h,
			conn:       conn,
			send:       make(chan []byte, sendBuffer),
			categoryID: categoryID,
		}
		hello, _ := json.Marshal(Message{Type: MessageSubscribed, CategoryID: categoryID})
		client.send <- hello

		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
		logger.Debug().Int64("category_id", categoryID).Msg("Live client connected")
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, candidate := range allowed {
			if candidate == "*" || strings.EqualFold(candidate, origin) {
				return true
			}
		}
		return false
	}
}
