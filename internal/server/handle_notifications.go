package server

import (
	"log/slog"
	"net/http"
)

func handleListNotifications(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}

		list, err := store.ListNotifications(r.Context(), userID)
		if err != nil {
			logger.Error("listing notifications", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if list == nil {
			list = []Notification{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
