package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taskhub/taskhub/internal/http/response"
	"github.com/taskhub/taskhub/internal/observability"
	"github.com/taskhub/taskhub/internal/repository"
	"github.com/taskhub/taskhub/internal/service"
)

// AdminHandler serves the administrative user endpoints: paged listing with
// filters and user deletion.
type AdminHandler struct {
	userSvc service.UserServiceInterface
}

func NewAdminHandler(userSvc service.UserServiceInterface) *AdminHandler {
	return &AdminHandler{userSvc: userSvc}
}

var userSortFields = map[string]struct{}{
	"first_name": {},
	"last_name":  {},
	"email":      {},
	"status":     {},
	"created_at": {},
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	sortBy, sortOrder, err := parseSortParams(r, "created_at", userSortFields)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	usersPage, err := h.userSvc.ListUsers(r.Context(), repository.UserListQuery{
		PageRequest: pageReq,
		FirstName:   strings.TrimSpace(r.URL.Query().Get("first_name")),
		LastName:    strings.TrimSpace(r.URL.Query().Get("last_name")),
		Email:       strings.TrimSpace(r.URL.Query().Get("email")),
		Status:      strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
		SortBy:      sortBy,
		SortOrder:   sortOrder,
	})
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "Sorry, something went wrong!", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(usersPage.Items, usersPage.Page, usersPage.PageSize, usersPage.Total, usersPage.TotalPages))
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}

	if err := h.userSvc.DeleteUser(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrDemoModeRestricted):
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "You are not allowed to perform this action in this mode.", nil)
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
		EventName:   "user.delete",
		ActorUserID: adminActorID(r),
		TargetType:  "user",
		TargetID:    strconv.FormatUint(uint64(userID), 10),
		Action:      "delete",
		Outcome:     "success",
		Reason:      "user_deleted",
	})
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "User deleted!"})
}

func adminActorID(r *http.Request) string {
	id, err := actorIDFromRequest(r)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

func parsePathID(input string) (uint, error) {
	var out uint
	_, err := fmtSscanfUint(input, &out)
	return out, err
}

func fmtSscanfUint(input string, out *uint) (int, error) {
	var n uint64
	count, err := fmt.Sscanf(input, "%d", &n)
	if err != nil {
		return count, err
	}
	*out = uint(n)
	return count, nil
}

func parsePageRequest(r *http.Request) (repository.PageRequest, error) {
	page := repository.DefaultPage
	pageSize := repository.DefaultPageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("page must be a positive integer")
		}
		page = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("pageLength")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return repository.PageRequest{}, errors.New("pageLength must be a positive integer")
		}
		if v > repository.MaxPageSize {
			return repository.PageRequest{}, fmt.Errorf("pageLength must be <= %d", repository.MaxPageSize)
		}
		pageSize = v
	}
	return repository.PageRequest{Page: page, PageSize: pageSize}, nil
}

func parseSortParams(r *http.Request, defaultField string, allowed map[string]struct{}) (string, string, error) {
	sortBy := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sortBy")))
	if sortBy == "" {
		sortBy = defaultField
	}
	if _, ok := allowed[sortBy]; !ok {
		return "", "", fmt.Errorf("invalid sortBy: %s", sortBy)
	}

	sortOrder := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("order")))
	if sortOrder == "" {
		sortOrder = "desc"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		return "", "", errors.New("order must be asc or desc")
	}
	return sortBy, sortOrder, nil
}

func paginatedData[T any](items []T, page, pageSize int, total int64, totalPages int) map[string]any {
	return map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": totalPages,
		},
	}
}
