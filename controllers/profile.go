package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/meinhoongagan/clinic-server/utils"
)

type ProfileController struct {
	profiles *services.ProfileService
}

func NewProfileController(profiles *services.ProfileService) *ProfileController {
	return &ProfileController{profiles: profiles}
}

// ProfileUpdateRequest is accepted as JSON or as multipart form fields
// next to an optional profile_picture file. Dates are YYYY-MM-DD.
type ProfileUpdateRequest struct {
	FirstName   *string `json:"first_name" form:"first_name"`
	LastName    *string `json:"last_name" form:"last_name"`
	Email       *string `json:"email" form:"email"`
	Password    *string `json:"password" form:"password"`
	DateOfBirth *string `json:"date_of_birth" form:"date_of_birth"`
	Sex         *string `json:"sex" form:"sex"`

	PhoneNumber *string  `json:"phone_number" form:"phone_number"`
	Height      *float64 `json:"height" form:"height"`
	Weight      *float64 `json:"weight" form:"weight"`
	BloodType   *string  `json:"blood_type" form:"blood_type"`
	Conditions  *string  `json:"conditions" form:"conditions"`

	Specialization      *string `json:"specialization" form:"specialization"`
	StartedPracticingAt *string `json:"started_practicing_at" form:"started_practicing_at"`
	Education           *string `json:"education" form:"education"`
	Bio                 *string `json:"bio" form:"bio"`
}

func optionalDate(field string, s *string) (*models.Date, error) {
	if s == nil {
		return nil, nil
	}
	d, err := models.ParseDate(*s)
	if err != nil {
		return nil, utils.InvalidInput("%s: %v", field, err)
	}
	return &d, nil
}

func (r ProfileUpdateRequest) toUpdate() (services.ProfileUpdate, error) {
	dob, err := optionalDate("date_of_birth", r.DateOfBirth)
	if err != nil {
		return services.ProfileUpdate{}, err
	}
	started, err := optionalDate("started_practicing_at", r.StartedPracticingAt)
	if err != nil {
		return services.ProfileUpdate{}, err
	}
	in := services.ProfileUpdate{
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		Email:               r.Email,
		Password:            r.Password,
		DateOfBirth:         dob,
		Sex:                 r.Sex,
		PhoneNumber:         r.PhoneNumber,
		Height:              r.Height,
		Weight:              r.Weight,
		Conditions:          r.Conditions,
		Specialization:      r.Specialization,
		StartedPracticingAt: started,
		Education:           r.Education,
		Bio:                 r.Bio,
	}
	if r.BloodType != nil {
		bt := models.BloodType(*r.BloodType)
		in.BloodType = &bt
	}
	return in, nil
}

func (h *ProfileController) Get(c *fiber.Ctx) error {
	acc, err := h.profiles.GetAccount(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(toAccount(acc))
}

// Update godoc
// @Summary Update the caller's own profile
// @Tags my-profile
// @Accept json,multipart/form-data
// @Produce json
// @Success 200 {object} AccountResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /my-profile [patch]
func (h *ProfileController) Update(c *fiber.Ctx) error {
	var req ProfileUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in, err := req.toUpdate()
	if err != nil {
		return err
	}

	if fh, err := c.FormFile("profile_picture"); err == nil {
		upload, f, err := openUpload(fh)
		if err != nil {
			return err
		}
		defer f.Close()
		in.Picture = &upload
	}

	acc, err := h.profiles.UpdateProfile(c.UserContext(), actor(c).UserID, in)
	if err != nil {
		return err
	}
	return c.JSON(toAccount(acc))
}

func (h *ProfileController) Delete(c *fiber.Ctx) error {
	if err := h.profiles.DeleteAccount(c.UserContext(), actor(c).UserID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
