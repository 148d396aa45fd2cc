package controllers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/middleware"
	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/meinhoongagan/clinic-server/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateCookie  = "oauth_state"
)

// NewGoogleOAuth returns the OAuth2 client configuration for Google login.
func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     endpoints.Google,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

type AuthController struct {
	auth        *services.AuthService
	oauth       *oauth2.Config
	userInfoURL string
	frontendURL string
}

// NewAuthController wires the auth handlers. oauth may be nil, in which
// case the Google routes answer 404.
func NewAuthController(auth *services.AuthService, oauth *oauth2.Config, userInfoURL, frontendURL string) *AuthController {
	return &AuthController{auth: auth, oauth: oauth, userInfoURL: userInfoURL, frontendURL: frontendURL}
}

type RegisterRequest struct {
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Email       string       `json:"email"`
	Password    string       `json:"password"`
	DateOfBirth *models.Date `json:"date_of_birth"`
	Sex         string       `json:"sex"`
	PhoneNumber string       `json:"phone_number"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register a patient
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} PatientResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (h *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	patient, err := h.auth.RegisterPatient(c.UserContext(), services.RegisterPatientInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
		Sex:         req.Sex,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toPatient(*patient))
}

// Login godoc
// @Summary Exchange credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} AuthResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (h *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(toAuth(res))
}

func (h *AuthController) Logout(c *fiber.Ctx) error {
	jti, exp := middleware.Token(c)
	if err := h.auth.Logout(c.UserContext(), jti, exp); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GoogleLogin redirects to the Google consent screen.
func (h *AuthController) GoogleLogin(c *fiber.Ctx) error {
	if h.oauth == nil {
		return utils.NotFound("google login is not configured")
	}
	state := utils.GenerateState()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(h.oauth.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

type googleUser struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleCallback finishes the provider login and sends the browser back to
// the frontend with the issued token.
func (h *AuthController) GoogleCallback(c *fiber.Ctx) error {
	if h.oauth == nil {
		return utils.NotFound("google login is not configured")
	}
	state := c.Query("state")
	if state == "" || state != c.Cookies(oauthStateCookie) {
		return utils.Unauthorized("invalid oauth state")
	}
	c.ClearCookie(oauthStateCookie)

	code := c.Query("code")
	if code == "" {
		return utils.InvalidInput("missing authorization code")
	}
	ctx := c.UserContext()
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		return utils.Upstream(err, "failed to exchange authorization code")
	}

	resp, err := h.oauth.Client(ctx, token).Get(h.userInfoURL)
	if err != nil {
		return utils.Upstream(err, "failed to fetch google profile")
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		return utils.Upstream(fmt.Errorf("userinfo status %d", resp.StatusCode), "failed to fetch google profile")
	}
	var profile googleUser
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return utils.Upstream(err, "failed to decode google profile")
	}

	res, err := h.auth.LoginWithProvider(ctx, services.ProviderIdentity{
		Email:   profile.Email,
		Name:    profile.Name,
		Picture: profile.Picture,
	})
	if err != nil {
		return err
	}
	return c.Redirect(h.frontendURL+"/oauth2/redirect?token="+url.QueryEscape(res.Token), fiber.StatusFound)
}

// Admin

type AdminController struct {
	auth *services.AuthService
}

func NewAdminController(auth *services.AuthService) *AdminController {
	return &AdminController{auth: auth}
}

type RegisterDoctorRequest struct {
	FirstName           string       `json:"first_name"`
	LastName            string       `json:"last_name"`
	Email               string       `json:"email"`
	Password            string       `json:"password"`
	Specialization      string       `json:"specialization"`
	StartedPracticingAt *models.Date `json:"started_practicing_at"`
	Education           string       `json:"education"`
	Bio                 string       `json:"bio"`
	AdminSecret         string       `json:"admin_secret"`
}

// RegisterDoctor godoc
// @Summary Register a doctor. Requires the admin secret.
// @Tags admin
// @Accept json
// @Produce json
// @Success 201 {object} DoctorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /admin/register-doctor [post]
func (h *AdminController) RegisterDoctor(c *fiber.Ctx) error {
	var req RegisterDoctorRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	doctor, err := h.auth.RegisterDoctor(c.UserContext(), services.RegisterDoctorInput{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		Password:            req.Password,
		Specialization:      req.Specialization,
		StartedPracticingAt: req.StartedPracticingAt,
		Education:           req.Education,
		Bio:                 req.Bio,
		AdminSecret:         req.AdminSecret,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toDoctor(*doctor))
}
