package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/spartanofurioso/platform/internal/api/middleware"
	"github.com/spartanofurioso/platform/internal/pkg/errors"
	"github.com/spartanofurioso/platform/internal/pkg/utils"
	"github.com/spartanofurioso/platform/internal/pkg/validator"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, val *validator.Validator, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			utils.WriteError(w, errors.BadRequest("Request body is required"))
		} else {
			utils.WriteError(w, errors.BadRequest("Invalid request body"))
		}
		return false
	}

	if validationErrs := val.Validate(dst); len(validationErrs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", validationErrs))
		return false
	}
	return true
}

// idParam parses a positive integer URL parameter
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("Invalid " + name)
	}
	return id, nil
}

// actor returns the caller's user ID and whether they are an admin
func actor(r *http.Request) (int64, bool) {
	id, _ := middleware.GetUserID(r)
	return id, middleware.IsAdmin(r)
}

// queryInt64 parses an optional integer query parameter
func queryInt64(r *http.Request, name string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// writePage writes a paginated list
func writePage(w http.ResponseWriter, data interface{}, p utils.PaginationParams, total int64) {
	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(data, p.Page, p.PageSize, total))
}
