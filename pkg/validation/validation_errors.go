package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to user-facing labels.
var FieldLabels = map[string]string{
	// Profile
	"Name":      "Name",
	"Location":  "Location",
	"Specialty": "Specialty",
	"ImageURL":  "Profile image URL",

	// Doctor form
	"Experience":      "Years of experience",
	"Education":       "Education",
	"LicenseNumber":   "License number",
	"About":           "About",
	"ConsultationFee": "Consultation fee",

	// Patient form
	"DateOfBirth":           "Date of birth",
	"Gender":                "Gender",
	"EmergencyContactName":  "Emergency contact name",
	"EmergencyContactPhone": "Emergency contact phone",
	"MedicalConditions":     "Medical conditions",
	"Medications":           "Current medications",
	"Allergies":             "Allergies",
	"TermsAccepted":         "Terms and conditions",

	// Shared address fields
	"Address":     "Address",
	"City":        "City",
	"State":       "State",
	"ZipCode":     "ZIP code",
	"PhoneNumber": "Phone number",

	// Messaging
	"PatientID": "Patient",
	"DoctorID":  "Doctor",
	"Content":   "Message",

	// Analysis
	"Description": "Description",
	"PDFData":     "PDF document",
	"FileName":    "File name",
}

// FormatValidationErrors converts validator errors into readable messages.
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", label)
	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: must be at least %s characters", label, param)
		}
		return fmt.Sprintf("%s: must be at least %s", label, param)
	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: must be at most %s characters", label, param)
		}
		return fmt.Sprintf("%s: must be at most %s", label, param)
	case "oneof":
		return fmt.Sprintf("%s: must be one of: %s", label, strings.Join(strings.Fields(param), ", "))
	case "email":
		return fmt.Sprintf("%s: invalid email address", label)
	case "url":
		return fmt.Sprintf("%s: invalid URL", label)
	case "uuid":
		return fmt.Sprintf("%s: invalid identifier", label)
	case "base64":
		return fmt.Sprintf("%s: must be base64 encoded", label)
	case "datetime":
		return fmt.Sprintf("%s: must be a date in YYYY-MM-DD format", label)
	case "past_date":
		return fmt.Sprintf("%s: cannot be in the future", label)
	case "eq":
		if e.Field() == "TermsAccepted" {
			return fmt.Sprintf("%s: must be accepted", label)
		}
		return fmt.Sprintf("%s: must equal %s", label, param)
	case "nefield":
		return fmt.Sprintf("%s: must differ from %s", label, getFieldLabel(param))
	case "valid_name":
		return fmt.Sprintf("%s: may only contain letters, spaces and common punctuation (. ' - /)", label)
	case "valid_phone":
		return fmt.Sprintf("%s: invalid phone number (7-15 digits, optional +)", label)
	case "no_emoji":
		return fmt.Sprintf("%s: must not contain emoji or special symbols", label)
	case "specialty":
		return fmt.Sprintf("%s: unknown specialty", label)
	default:
		return fmt.Sprintf("%s: failed validation (%s)", label, e.Tag())
	}
}

func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return formatCamelCase(fieldName)
}

func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
