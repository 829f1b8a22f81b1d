/*
Package handler provides HTTP handler functions for room history reads.
*/
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"relaychat/internal/app/message"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

// HandleRoomHistory serves a room's persisted messages in storage order,
// oldest first, over plain HTTP. It reads through the same store interface
// the relay uses, so live membership has no effect on the result.
func HandleRoomHistory(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := chi.URLParam(r, "room")
		if !message.ValidRoomName(room) {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNameRequired))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), deps.Config.HistoryTimeout)
		defer cancel()

		messages, err := deps.Store.ListByRoom(ctx, room, deps.Config.HistoryLimit)
		if err != nil {
			logx.Error(err, "History read failed", "room", room)
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreUnavailable))
			return
		}

		if messages == nil {
			messages = []message.Message{}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"messages": messages,
		})
	}
}
