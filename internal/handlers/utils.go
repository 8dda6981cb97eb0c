package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/inhahackathon/foodmarket/internal/upload"
)

const (
	defaultLimit       = 20
	maxLimit           = 100
	maxJSONBytes       = 1 << 20
	maxMultipartMemory = 8 << 20
	maxUploadBytes     = 10 << 20
	formFieldFile      = "file"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeJSON reads a JSON body into v and runs struct validation on it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBytes))
	if err := decoder.Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	return validateStruct(v)
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid %s: failed %s", lowerFirst(fe.Field()), fe.Tag())
		}
		return err
	}
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func parsePagination(r *http.Request) (offset, limit int, err error) {
	page := 1
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, errors.New("invalid page")
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, errors.New("invalid limit")
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return (page - 1) * limit, limit, nil
}

func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return errors.New("invalid multipart form")
	}
	return nil
}

// formFile opens the single file in field. It returns nil when the field is absent.
func formFile(form *multipart.Form, field string) (*upload.File, io.Closer, error) {
	if form == nil {
		return nil, nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil, nil
	}
	if len(files) > 1 {
		return nil, nil, fmt.Errorf("only one %s is allowed", field)
	}

	header := files[0]
	f, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return &upload.File{
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Content:     f,
	}, f, nil
}
