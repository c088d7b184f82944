package report

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/ayyoubmarroun/pykemen/internal/errors"
	"github.com/ayyoubmarroun/pykemen/pkg/contracts/domain"
)

var specValidator = newSpecValidator()

func newSpecValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateSortKeys, domain.ReportSpec{})

	return v
}

// validateSortKeys requires every sort key to name a requested column
func validateSortKeys(sl validator.StructLevel) {
	spec := sl.Current().Interface().(domain.ReportSpec)

	for _, key := range spec.Sort {
		name := strings.TrimPrefix(key, "-")
		if name == "" {
			continue
		}
		if indexOf(spec.Dimensions, name) < 0 && indexOf(spec.Metrics, name) < 0 {
			sl.ReportError(spec.Sort, "sort", "Sort", "sortkey", key)
		}
	}
}

// ValidateSpec checks spec and returns its parsed, inclusive date range
func ValidateSpec(spec domain.ReportSpec) (time.Time, time.Time, error) {
	if err := specValidator.Struct(spec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			msg := fmt.Sprintf("failed %q validation", fe.Tag())
			if fe.Param() != "" {
				msg = fmt.Sprintf("failed %q validation (%s)", fe.Tag(), fe.Param())
			}
			return time.Time{}, time.Time{}, apperrors.InvalidField(fe.Field(), msg)
		}
		return time.Time{}, time.Time{}, apperrors.NewValidationError(err.Error())
	}

	start, err := time.Parse(domain.DateLayout, spec.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidField("start_date", err.Error())
	}
	end, err := time.Parse(domain.DateLayout, spec.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidField("end_date", err.Error())
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperrors.InvalidDateRange(spec.StartDate, spec.EndDate)
	}

	return start, end, nil
}

func indexOf(values []string, name string) int {
	for i, v := range values {
		if v == name {
			return i
		}
	}
	return -1
}
