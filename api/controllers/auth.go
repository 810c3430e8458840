package controllers

import (
	"net/http"

	"github.com/ihza6661/dua-insan-story-sub002/api/responses"
	"github.com/ihza6661/dua-insan-story-sub002/api/validators"
	authsvc "github.com/ihza6661/dua-insan-story-sub002/internal/auth"
	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/logger"
)

// Login authenticates a user against stored credentials and returns a JWT.
func Login(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}
