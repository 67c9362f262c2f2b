package app

import (
	"net/http"

	"github.com/ajohq/ajo/internal/config"
	"github.com/ajohq/ajo/pkg/caller"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Propagate X-Caller-Address header into context for downstream services
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			address := req.Header.Get("X-Caller-Address")
			if address != "" {
				if err := deps.AddressValidator.Validate(address); err != nil {
					log.Debugf("invalid caller address: %s", address)
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				ctx = caller.WithAddress(ctx, address)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
