package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/codecraft/internal/language"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
			_, ok := language.Lookup(fl.Field().String())
			return ok
		})
		validate = v
	})
	return validate
}

// formatValidationError turns validator errors into a field → message map
// without leaking Go struct names.
func formatValidationError(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"error": "Invalid request format"}
	}

	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field()[:1]) + e.Field()[1:]
		switch e.Tag() {
		case "required":
			fields[field] = "This field is required"
		case "max":
			fields[field] = fmt.Sprintf("Must be at most %s characters", e.Param())
		case "language":
			fields[field] = "Unsupported language"
		default:
			fields[field] = "Invalid value"
		}
	}
	return fields
}

// decodeAndValidate decodes the JSON body into req and validates its tags.
// On failure the response has already been written and ok is false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) (ok bool) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid JSON body",
		})
		return false
	}
	if err := getValidator().Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request",
			Fields:  formatValidationError(err),
		})
		return false
	}
	return true
}
