package handler

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/Baaaki/blog-platform/internal/apperr"
	"github.com/Baaaki/blog-platform/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const nonFieldErrors = "non_field_errors"

// ListResponse is the envelope of every paginated collection.
type ListResponse[T any] struct {
	Count   int64 `json:"count"`
	Results []T   `json:"results"`
}

func newListResponse[T any](results []T, count int64) ListResponse[T] {
	if results == nil {
		results = []T{}
	}
	return ListResponse[T]{Count: count, Results: results}
}

// Pagination bounds the page size of collection endpoints.
type Pagination struct {
	DefaultSize int
	MaxSize     int
}

var registerTagName sync.Once

// useJSONFieldNames makes validator report fields by their JSON name.
func useJSONFieldNames() {
	registerTagName.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodes the request body into dst and converts every decoding or
// validation failure into an InvalidData error keyed by field.
func bindJSON(c *gin.Context, dst any) error {
	useJSONFieldNames()

	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	fields := apperr.FieldErrors{}
	var (
		validationErrs validator.ValidationErrors
		typeErr        *json.UnmarshalTypeError
		syntaxErr      *json.SyntaxError
	)
	switch {
	case errors.As(err, &validationErrs):
		for _, fe := range validationErrs {
			fields.Add(fe.Field(), validationMessage(fe))
		}
	case errors.As(err, &typeErr):
		name := typeErr.Field
		if name == "" {
			name = nonFieldErrors
		}
		fields.Add(name, "Incorrect type. Expected "+typeErr.Type.String()+".")
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		fields.Add(nonFieldErrors, "JSON parse error.")
	default:
		fields.Add(nonFieldErrors, err.Error())
	}
	return apperr.InvalidData(fields)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	default:
		return "Invalid value."
	}
}

// pageFrom reads page and page_size from the query string. Out of range
// values fall back to the defaults.
func pageFrom(c *gin.Context, p Pagination) repository.Page {
	page := repository.Page{Number: 1, Size: p.DefaultSize}
	if n, err := strconv.Atoi(c.Query("page")); err == nil && n > 0 {
		page.Number = n
	}
	if n, err := strconv.Atoi(c.Query("page_size")); err == nil && n > 0 {
		page.Size = n
	}
	if p.MaxSize > 0 && page.Size > p.MaxSize {
		page.Size = p.MaxSize
	}
	// Keep (Number-1)*Size inside int.
	if page.Size > 0 && page.Number > math.MaxInt/page.Size {
		page.Number = math.MaxInt / page.Size
	}
	return page
}

// uintParam parses a numeric path parameter. A malformed id cannot match any
// record, so it is reported as notFound.
func uintParam(c *gin.Context, name string, notFound error) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		return 0, notFound
	}
	return uint(id), nil
}

func uuidParam(c *gin.Context, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

func isPartial(c *gin.Context) bool {
	return c.Request.Method == "PATCH"
}
