package handler

import (
	"errors"
	"net/http"

	"gauntlet/internal/domain"
	"gauntlet/internal/domain/models"
	"gauntlet/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError
	var webhookErr *domain.WebhookStatusError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]interface{}{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrWebhookNotConfigured):
		httputil.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &webhookErr):
		httputil.RespondErrorWithExtras(w, http.StatusBadGateway, webhookErr.Error(), map[string]interface{}{
			"webhook_status": webhookErr.Status,
		})
	case errors.Is(err, domain.ErrWebhookFailed):
		httputil.RespondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, httputil.ErrBodyTooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// identityFrom returns the caller set by the identity middleware.
// It writes a 401 and returns false when the middleware did not run.
func identityFrom(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := httputil.GetIdentity(r)
	if !ok || identity.ID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "missing identity")
		return models.Identity{}, false
	}
	return identity, true
}

// parseBody decodes a JSON body and writes the error response on failure
func parseBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			handleError(w, err)
			return false
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
