package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carbontrace/apiserver/internal/scoring"
	"github.com/carbontrace/apiserver/internal/services"
	"github.com/carbontrace/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100

	dateLayout = "2006-01-02"
)

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func userIDFromContext(ctx context.Context) (int, error) {
	value := ctx.Value(contextSubjectKey)
	switch subject := value.(type) {
	case int:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return subject, nil
	case int64:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return int(subject), nil
	case float64:
		if subject < 1 {
			return 0, errors.New("invalid subject")
		}
		return int(subject), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(subject))
		if err != nil || parsed < 1 {
			return 0, errors.New("invalid subject")
		}
		return parsed, nil
	default:
		return 0, errors.New("missing subject")
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service and store errors onto HTTP statuses.
// Owner-scoped misses surface as not-found so callers cannot probe for
// other owners' resource IDs.
func writeServiceError(w http.ResponseWriter, err error, notFoundMessage, fallbackMessage string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrReferenceNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, scoring.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "prediction service unavailable")
	default:
		slog.Error(fallbackMessage, "error", err)
		writeError(w, http.StatusInternalServerError, fallbackMessage)
	}
}

// parsePagination reads page/limit query parameters. skip is accepted as
// an offset-style alias used by older clients; when present it wins over
// page.
func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, errors.New("invalid page")
		}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, 0, errors.New("invalid limit")
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	if raw := strings.TrimSpace(r.URL.Query().Get("skip")); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return 0, 0, 0, errors.New("invalid skip")
		}
		offset = skip
		page = skip/limit + 1
	}
	return page, limit, offset, nil
}

func parseIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parseDateRange reads start_date/end_date query parameters. Both
// default so a bare analytics request covers the trailing thirty days.
func parseDateRange(r *http.Request) (start, end time.Time, err error) {
	now := time.Now().UTC()
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start = end.AddDate(0, 0, -30)

	if raw := strings.TrimSpace(r.URL.Query().Get("start_date")); raw != "" {
		start, err = time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid start_date, expected YYYY-MM-DD")
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("end_date")); raw != "" {
		end, err = time.Parse(dateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid end_date, expected YYYY-MM-DD")
		}
	}
	return start, end, nil
}

// ownerScope resolves the caller into an owner filter: admins see every
// owner (nil filter), everyone else is pinned to their own records.
func ownerScope(ctx context.Context, userService *services.UserService) (callerID int, ownerFilter *int, err error) {
	callerID, err = userIDFromContext(ctx)
	if err != nil {
		return 0, nil, err
	}
	user, err := userService.GetByID(ctx, callerID)
	if err != nil {
		return 0, nil, err
	}
	if user.IsAdmin() {
		return callerID, nil, nil
	}
	return callerID, &callerID, nil
}
