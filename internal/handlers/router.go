package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	reconHandler *ReconHandler,
	authMiddleware func(http.Handler) http.Handler,
	loggerMiddleware func(http.Handler) http.Handler,
) http.Handler {
	withAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /signup", authHandler.Signup)
	mux.HandleFunc("POST /signin", authHandler.Signin)
	mux.HandleFunc("POST /refresh", authHandler.Refresh)

	mux.Handle("POST /logout", withAuth(authHandler.Logout))
	mux.Handle("GET /getUserProfile", withAuth(userHandler.Profile))
	mux.Handle("PATCH /updateProfile", withAuth(userHandler.UpdateProfile))
	mux.Handle("POST /changePassword", withAuth(userHandler.ChangePassword))
	mux.Handle("POST /reconcile", withAuth(reconHandler.Reconcile))

	return chain(mux, loggerMiddleware)
}
