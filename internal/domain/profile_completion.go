package domain

import "fmt"

// Specialties lists the selectable doctor specialties.
var Specialties = []string{
	"Cardiology",
	"Dermatology",
	"Endocrinology",
	"Family Medicine",
	"Gastroenterology",
	"Neurology",
	"Obstetrics and Gynecology",
	"Oncology",
	"Ophthalmology",
	"Orthopedics",
	"Pediatrics",
	"Psychiatry",
	"Radiology",
	"Surgery",
	"Urology",
}

// IsValidSpecialty reports whether s is one of Specialties.
func IsValidSpecialty(s string) bool {
	for _, v := range Specialties {
		if v == s {
			return true
		}
	}
	return false
}

// DoctorProfileRequest is the doctor onboarding form.
type DoctorProfileRequest struct {
	Specialty       string `json:"specialty" validate:"required,specialty"`
	Experience      string `json:"experience" validate:"required,max=50"`
	Education       string `json:"education" validate:"required,max=500"`
	LicenseNumber   string `json:"license_number" validate:"required,max=64"`
	About           string `json:"about" validate:"required,min=10,max=2000,no_emoji"`
	Address         string `json:"address" validate:"required,max=200"`
	City            string `json:"city" validate:"required,max=100,valid_name"`
	State           string `json:"state" validate:"required,max=100,valid_name"`
	ZipCode         string `json:"zip_code" validate:"required,max=20"`
	PhoneNumber     string `json:"phone_number" validate:"required,valid_phone"`
	ConsultationFee string `json:"consultation_fee" validate:"required,max=20"`
}

// Location is stored as "<city>, <state>".
func (r *DoctorProfileRequest) Location() string {
	return fmt.Sprintf("%s, %s", r.City, r.State)
}

// PatientProfileRequest is the patient onboarding form.
type PatientProfileRequest struct {
	DateOfBirth           string `json:"date_of_birth" validate:"required,datetime=2006-01-02,past_date"`
	Gender                string `json:"gender" validate:"required,oneof=male female other"`
	PhoneNumber           string `json:"phone_number" validate:"required,valid_phone"`
	Address               string `json:"address" validate:"required,max=200"`
	City                  string `json:"city" validate:"required,max=100,valid_name"`
	State                 string `json:"state" validate:"required,max=100,valid_name"`
	ZipCode               string `json:"zip_code" validate:"required,max=20"`
	EmergencyContactName  string `json:"emergency_contact_name" validate:"required,max=120,valid_name"`
	EmergencyContactPhone string `json:"emergency_contact_phone" validate:"required,valid_phone"`
	MedicalConditions     string `json:"medical_conditions,omitempty" validate:"max=2000"`
	Medications           string `json:"medications,omitempty" validate:"max=2000"`
	Allergies             string `json:"allergies,omitempty" validate:"max=2000"`
	TermsAccepted         bool   `json:"terms_accepted" validate:"eq=true"`
}

func (r *PatientProfileRequest) Location() string {
	return fmt.Sprintf("%s, %s", r.City, r.State)
}
