package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/coldcatalog/catalog-service/catalogerr"
)

var structValidator = validator.New()

// bindAndValidate parses the JSON body into req, then applies req's
// `validate` struct tags (go-playground/validator, the same library gin's own
// binding pulls in), converting a validator.ValidationErrors into a
// catalogerr.FieldErrors so writeError can render per-field detail instead of
// a single opaque message.
func bindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return catalogerr.Wrap(catalogerr.KindValidation, "invalid request body", err)
	}
	if err := structValidator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fieldErrs := make(catalogerr.FieldErrors, 0, len(verrs))
			for _, fe := range verrs {
				fieldErrs = append(fieldErrs, catalogerr.FieldError{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed %s validation", fe.Tag()),
				})
			}
			return fieldErrs.AsCatalogError()
		}
		return catalogerr.Wrap(catalogerr.KindValidation, "invalid request body", err)
	}
	return nil
}

// writeError maps a catalogerr.Kind to the HTTP status spec.md §7 implies for
// each error class and writes the JSON error body, mirroring the teacher's
// gin.H{"error": ..., "details": ...} response shape.
func writeError(c *gin.Context, err error) {
	var ce *catalogerr.CatalogError
	if !errors.As(err, &ce) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Kind {
	case catalogerr.KindValidation, catalogerr.KindUnsupportedFormat:
		status = http.StatusBadRequest
	case catalogerr.KindNotFound:
		status = http.StatusNotFound
	case catalogerr.KindForbidden:
		status = http.StatusForbidden
	case catalogerr.KindConflictPending, catalogerr.KindDuplicateDocument:
		status = http.StatusConflict
	case catalogerr.KindProviderTransient, catalogerr.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	case catalogerr.KindProviderPermanent, catalogerr.KindExtractionFailed:
		status = http.StatusUnprocessableEntity
	}

	body := gin.H{"error": ce.Kind, "details": ce.Message}
	var fieldErrs catalogerr.FieldErrors
	if errors.As(ce.Cause, &fieldErrs) {
		body["fields"] = fieldErrs
	}
	c.JSON(status, body)
}
