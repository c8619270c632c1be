package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/taskhub/taskhub/internal/http/middleware"
	"github.com/taskhub/taskhub/internal/http/response"
	"github.com/taskhub/taskhub/internal/observability"
	"github.com/taskhub/taskhub/internal/repository"
	"github.com/taskhub/taskhub/internal/service"
)

type UserHandler struct {
	userSvc service.UserServiceInterface
}

func NewUserHandler(userSvc service.UserServiceInterface) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := actorIDFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	u, err := h.userSvc.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "Could not find user!", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "Sorry, something went wrong!", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, u)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := actorIDFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	var input service.UpdateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	u, err := h.userSvc.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", verr.Message, verr.Details)
			return
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "Could not find user!", nil)
			return
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "Sorry, something went wrong!", nil)
			return
		}
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "user.profile.update",
		ActorUserID: strconv.FormatUint(uint64(userID), 10),
		TargetType:  "user",
		TargetID:    strconv.FormatUint(uint64(userID), 10),
		Action:      "update",
		Outcome:     "success",
		Reason:      "profile_updated",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Your profile has been updated!",
		"user":    u,
	})
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := actorIDFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "The avatar field is required.", nil)
		return
	}
	defer file.Close()

	u, err := h.userSvc.UpdateAvatar(r.Context(), userID, file, header.Size)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooBig), errors.Is(err, service.ErrInvalidFileType):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "Could not find user!", nil)
			return
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "Sorry, something went wrong!", nil)
			return
		}
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "user.avatar.update",
		ActorUserID: strconv.FormatUint(uint64(userID), 10),
		TargetType:  "user",
		TargetID:    strconv.FormatUint(uint64(userID), 10),
		Action:      "update",
		Outcome:     "success",
		Reason:      "avatar_updated",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "Avatar updated!",
		"profile": u.Profile,
	})
}

func (h *UserHandler) RemoveAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := actorIDFromRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}

	if err := h.userSvc.RemoveAvatar(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrNoAvatar):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "No avatar uploaded!", nil)
			return
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "Could not find user!", nil)
			return
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "Sorry, something went wrong!", nil)
			return
		}
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "user.avatar.remove",
		ActorUserID: strconv.FormatUint(uint64(userID), 10),
		TargetType:  "user",
		TargetID:    strconv.FormatUint(uint64(userID), 10),
		Action:      "delete",
		Outcome:     "success",
		Reason:      "avatar_removed",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "Avatar removed!"})
}

func actorIDFromRequest(r *http.Request) (uint, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return 0, errors.New("missing auth context")
	}
	if claims.UserID == 0 {
		return 0, errors.New("invalid user")
	}
	return claims.UserID, nil
}
