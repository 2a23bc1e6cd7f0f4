package validation

import (
	"regexp"
	"time"
	"unicode"

	"heather-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

var (
	// Letters, digits, spaces and common punctuation: . ' - / & ( ) ,
	nameRegex = regexp.MustCompile(`^[\p{L}0-9 .'/&(),-]+$`)

	// Optional +, then 7-15 digits. Spaces, dashes and parentheses are ignored.
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneStrip = regexp.MustCompile(`[\s\-()]`)
)

// New returns a validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_name", ValidName)
	_ = v.RegisterValidation("valid_phone", ValidPhone)
	_ = v.RegisterValidation("no_emoji", NoEmoji)
	_ = v.RegisterValidation("specialty", Specialty)
	_ = v.RegisterValidation("past_date", PastDate)
}

// ValidName accepts an empty string; combine with required when needed.
func ValidName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return nameRegex.MatchString(val)
}

func ValidPhone(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return phoneRegex.MatchString(phoneStrip.ReplaceAllString(val, ""))
}

// NoEmoji rejects supplementary-plane runes and Unicode symbol categories.
func NoEmoji(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if r > 0x1F000 {
			return false
		}
		if unicode.In(r, unicode.So, unicode.Sk) {
			return false
		}
	}
	return true
}

// Specialty accepts one of domain.Specialties.
func Specialty(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return domain.IsValidSpecialty(val)
}

// PastDate validates a YYYY-MM-DD string that is not in the future.
func PastDate(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	d, err := time.Parse("2006-01-02", val)
	if err != nil {
		return false
	}
	return !d.After(time.Now())
}
