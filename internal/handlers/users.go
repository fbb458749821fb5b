package handlers

import (
	"net/http"

	"github.com/nkiryanov/authd/internal/handlers/render"
	"github.com/nkiryanov/authd/internal/handlers/userctx"
	"github.com/nkiryanov/authd/internal/logger"
)

func handleUserMe() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, toUserResponse(user))
	})
}

func handleListUsers(us userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		users, err := us.ListUsers(r.Context())
		if err != nil {
			l.Error("list users failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// Keep the response a list even when there are no users
		res := make([]userResponse, 0, len(users))
		for _, u := range users {
			res = append(res, toUserResponse(u))
		}

		render.JSON(w, res)
	})
}
