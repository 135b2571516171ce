package validation

import (
	"fmt"
	"regexp"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// StudentIDPattern matches registrar ids such as 2026-0001.
	StudentIDPattern = `^\d{4}-\d{4,6}$`

	// DateLayout is the calendar date format used for birthdates.
	DateLayout = "2006-01-02"
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	StudentID *regexp.Regexp
}{
	StudentID: regexp.MustCompile(StudentIDPattern),
}

// IsStudentID reports whether s is a well-formed student id.
func IsStudentID(s string) bool {
	return CompiledPatterns.StudentID.MatchString(s)
}

// IsISODate reports whether s is a valid YYYY-MM-DD date.
func IsISODate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Register adds the custom tags to v.
func Register(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"studentid": func(fl validator.FieldLevel) bool { return IsStudentID(fl.Field().String()) },
		"isodate":   func(fl validator.FieldLevel) bool { return IsISODate(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// RegisterWithGin installs the custom tags on gin's binding validator.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}
