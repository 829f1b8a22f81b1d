/*
Package handler provides the HTTP handler function for WebSocket connection upgrading
and initialization.

This file contains the HandleWebSocket function, which upgrades the HTTP connection,
assigns the session its stable identifier, registers it with the relay engine, and
starts the read/write pumps.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"relaychat/internal/app/relay"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/randx"
	"relaychat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := randx.SessionID()
		if err != nil {
			logx.Error(err, "Failed to generate session ID")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session := relay.NewSession(deps.Engine, conn, sessionID)

		deps.Engine.HandleConnect(session)

		go session.WritePump()

		logx.Info("WebSocket connection established", "session_id", sessionID)

		session.ReadPump()
	}
}
