package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/api/handlers"
	"github.com/vineelsaireddy/Felicity-event-management-system-sub000/pkg/auth"
)

// Handler assembles the forum API: the key gateway wraps everything,
// signed-user identity is required under /v1.
func Handler(sec auth.SecConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(countRequests)
	v1.Use(mux.MiddlewareFunc(auth.RequireSignedUser(sec)))
	handlers.RegisterForum(v1)

	return auth.Gateway(sec)(r)
}
