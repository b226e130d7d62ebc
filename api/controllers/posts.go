package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/autoflexeasy/autoflex-backend/api/middleware"
	"github.com/autoflexeasy/autoflex-backend/api/responses"
	"github.com/autoflexeasy/autoflex-backend/api/validators"
	"github.com/autoflexeasy/autoflex-backend/internal/posts"
	"github.com/autoflexeasy/autoflex-backend/pkg/errors"
	"github.com/autoflexeasy/autoflex-backend/pkg/logger"
)

// ownerAction runs with the caller's user id and returns the status and
// payload to send. A nil payload with 204 sends no body.
type ownerAction func(r *http.Request, ownerID string) (int, any, error)

func ownerScoped(logg *logger.Logger, action ownerAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, payload, err := action(r, middleware.UserIDFromContext(r.Context()))
		switch {
		case err != nil:
			responses.WriteError(r.Context(), logg, w, err)
		case status == http.StatusNoContent:
			w.WriteHeader(status)
		default:
			responses.WriteSuccessStatus(w, status, payload)
		}
	}
}

func PostsList(svc *posts.Service, logg *logger.Logger) http.HandlerFunc {
	return ownerScoped(logg, func(r *http.Request, ownerID string) (int, any, error) {
		list, err := svc.List(r.Context(), ownerID)
		return http.StatusOK, list, err
	})
}

func PostsCreate(svc *posts.Service, logg *logger.Logger) http.HandlerFunc {
	return ownerScoped(logg, func(r *http.Request, ownerID string) (int, any, error) {
		var input posts.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			return 0, nil, err
		}
		post, err := svc.Create(r.Context(), ownerID, input)
		return http.StatusCreated, post, err
	})
}

func PostsUpdate(svc *posts.Service, logg *logger.Logger) http.HandlerFunc {
	return ownerScoped(logg, func(r *http.Request, ownerID string) (int, any, error) {
		id, err := postID(r)
		if err != nil {
			return 0, nil, err
		}
		var input posts.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			return 0, nil, err
		}
		post, err := svc.Update(r.Context(), ownerID, id, input)
		return http.StatusOK, post, err
	})
}

func PostsDelete(svc *posts.Service, logg *logger.Logger) http.HandlerFunc {
	return ownerScoped(logg, func(r *http.Request, ownerID string) (int, any, error) {
		id, err := postID(r)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusNoContent, nil, svc.Delete(r.Context(), ownerID, id)
	})
}

func postID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "postId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Newf(errors.CodeValidation, "invalid post id %q", raw).
			WithDetails([]validators.FieldError{{Field: "postId", Message: "must be a valid uuid"}})
	}
	return id, nil
}
