package v1

import (
	"net/http"

	"heather-backend/internal/delivery/http/response"
	"heather-backend/internal/domain"
	"heather-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileUC domain.ProfileUsecase
}

func NewProfileHandler(r *gin.RouterGroup, profileUC domain.ProfileUsecase) {
	handler := &ProfileHandler{profileUC: profileUC}

	profile := r.Group("/profile")
	{
		profile.GET("/me", handler.GetProfile)
		profile.PATCH("/me", handler.UpdateProfile)
		profile.PUT("/doctor", handler.CompleteDoctorProfile)
		profile.PUT("/patient", handler.CompletePatientProfile)
	}
}

// GetProfile godoc
// @Summary      Get own profile
// @Description  Returns the stored profile row of the authenticated user
// @Tags         profile
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.ProfileRow}
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /profile/me [get]
// @Security     BearerAuth
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID := c.GetString(string(domain.KeyUserID))

	profile, err := h.profileUC.GetProfile(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Profile", profile)
}

// CompleteDoctorProfile godoc
// @Summary      Complete doctor profile
// @Description  Submits the doctor onboarding form and marks the profile complete
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        profile  body      domain.DoctorProfileRequest  true  "Doctor profile"
// @Success      200      {object}  response.Response{data=domain.ProfileRow}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /profile/doctor [put]
// @Security     BearerAuth
func (h *ProfileHandler) CompleteDoctorProfile(c *gin.Context) {
	var req domain.DoctorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	userID := c.GetString(string(domain.KeyUserID))
	profile, err := h.profileUC.CompleteDoctorProfile(c.Request.Context(), userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Profile completed", profile)
}

// CompletePatientProfile godoc
// @Summary      Complete patient profile
// @Description  Submits the patient onboarding form and marks the profile complete
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        profile  body      domain.PatientProfileRequest  true  "Patient profile"
// @Success      200      {object}  response.Response{data=domain.ProfileRow}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /profile/patient [put]
// @Security     BearerAuth
func (h *ProfileHandler) CompletePatientProfile(c *gin.Context) {
	var req domain.PatientProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	userID := c.GetString(string(domain.KeyUserID))
	profile, err := h.profileUC.CompletePatientProfile(c.Request.Context(), userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Profile completed", profile)
}

// UpdateProfile godoc
// @Summary      Update own profile
// @Description  Applies a partial update. Omitted fields are left untouched.
// @Tags         profile
// @Accept       json
// @Produce      json
// @Param        update  body      domain.ProfileUpdate  true  "Fields to change"
// @Success      200     {object}  response.Response{data=domain.ProfileRow}
// @Failure      400     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /profile/me [patch]
// @Security     BearerAuth
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var update domain.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		_ = c.Error(apperror.BadRequest("Invalid request body"))
		return
	}

	userID := c.GetString(string(domain.KeyUserID))
	profile, err := h.profileUC.UpdateProfile(c.Request.Context(), userID, update)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Success(c, http.StatusOK, "Profile updated", profile)
}
