package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/db"
	"github.com/meinhoongagan/clinic-server/redis"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/meinhoongagan/clinic-server/storage"
	"github.com/meinhoongagan/clinic-server/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const adminSecret = "admin-secret"

type server struct {
	t     *testing.T
	app   *fiber.App
	blobs *storage.MemoryStore
}

func newServer(t *testing.T) *server {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), db.Options(false))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	log := zerolog.Nop()
	users := repositories.NewUserRepository(gdb)
	patients := repositories.NewPatientRepository(gdb)
	doctors := repositories.NewDoctorRepository(gdb)
	blobs := storage.NewMemoryStore("mem://blobs")
	denylist := redis.NewMemoryDenylist()
	tokens := services.NewTokenService("test-secret", time.Hour)

	links := services.NewDoctorPatientService(repositories.NewDoctorPatientRepository(gdb), doctors)
	documents := services.NewDocumentService(repositories.NewDocumentRepository(gdb), patients, users, blobs, log)
	notifier := services.NewEmailNotifier(utils.LogMailer{Logger: log})

	app := NewApp(Deps{
		Logger:         log,
		Auth:           services.NewAuthService(users, patients, doctors, tokens, denylist, adminSecret, log),
		Tokens:         tokens,
		Denylist:       denylist,
		Profiles:       services.NewProfileService(users, patients, doctors, documents, blobs, log),
		Doctors:        services.NewDoctorService(doctors),
		Patients:       services.NewPatientService(patients),
		Appointments:   services.NewAppointmentService(repositories.NewAppointmentRepository(gdb), doctors, patients, links, notifier, log),
		Reviews:        services.NewReviewService(repositories.NewReviewRepository(gdb), doctors, patients),
		Documents:      documents,
		DoctorPatients: links,
		FrontendURL:    "http://frontend",
		CORSOrigins:    "*",
	})
	return &server{t: t, app: app, blobs: blobs}
}

func (s *server) do(method, path, token string, body interface{}) *http.Response {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *server) send(req *http.Request, token string) *http.Response {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type authBody struct {
	Token string `json:"token"`
	User  struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (s *server) registerPatient(first, email string) authBody {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"first_name": first, "last_name": "Test", "email": email, "password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode)
	return s.login(email)
}

func (s *server) registerDoctor(first, email, specialization string) authBody {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/v1/admin/register-doctor", "", map[string]string{
		"first_name": first, "last_name": "House", "email": email, "password": "secret1",
		"specialization": specialization, "admin_secret": adminSecret,
	})
	require.Equal(s.t, http.StatusCreated, resp.StatusCode)
	return s.login(email)
}

func (s *server) login(email string) authBody {
	s.t.Helper()
	resp := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(s.t, http.StatusOK, resp.StatusCode)
	return decode[authBody](s.t, resp)
}

func TestHealthz(t *testing.T) {
	s := newServer(t)
	resp := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterLoginProfileLogout(t *testing.T) {
	s := newServer(t)
	patient := s.registerPatient("Ana", "ana@example.com")
	assert.Equal(t, "PATIENT", patient.User.Role)

	resp := s.do(http.MethodGet, "/api/v1/my-profile", patient.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[map[string]json.RawMessage](t, resp)
	assert.Contains(t, string(profile["user"]), `"role":"PATIENT"`)
	assert.Contains(t, profile, "patient")
	assert.NotContains(t, profile, "doctor")

	resp = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"first_name": "Ana", "email": "ANA@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/auth/logout", patient.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(http.MethodGet, "/api/v1/my-profile", patient.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterDoctorNeedsAdminSecret(t *testing.T) {
	s := newServer(t)
	resp := s.do(http.MethodPost, "/api/v1/admin/register-doctor", "", map[string]string{
		"first_name": "Greg", "email": "greg@example.com", "password": "secret1", "admin_secret": "guess",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode[utils.ErrorResponse](t, resp)
	assert.Equal(t, "forbidden", body.Error)

	doctor := s.registerDoctor("Greg", "greg@example.com", "Diagnostics")
	assert.Equal(t, "DOCTOR", doctor.User.Role)

	resp = s.do(http.MethodGet, "/api/v1/doctors?specialization=diag", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[utils.Page[map[string]interface{}]](t, resp)
	assert.EqualValues(t, 1, page.TotalElements)

	resp = s.do(http.MethodGet, "/api/v1/doctors?sort=password", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBookingConflict(t *testing.T) {
	s := newServer(t)
	patient := s.registerPatient("Ana", "ana@example.com")
	other := s.registerPatient("Ben", "ben@example.com")
	doctor := s.registerDoctor("Greg", "greg@example.com", "Diagnostics")

	book := map[string]interface{}{"doctor_id": doctor.User.ID, "date": "2030-05-01", "time": "10:30"}
	resp := s.do(http.MethodPost, "/api/v1/appointments", patient.Token, book)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]interface{}](t, resp)
	assert.Equal(t, "PENDING", created["status"])
	id := uint(created["id"].(float64))

	resp = s.do(http.MethodPost, "/api/v1/appointments", other.Token, book)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(http.MethodPost, "/api/v1/appointments", doctor.Token, book)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	path := fmt.Sprintf("/api/v1/appointments/availability?doctorId=%d&date=2030-05-01&time=10:30", doctor.User.ID)
	resp = s.do(http.MethodGet, path, patient.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decode[map[string]bool](t, resp)["available"])

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/v1/appointments/%d", id), other.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/appointments/%d", id), doctor.Token, map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CONFIRMED", decode[map[string]interface{}](t, resp)["status"])

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/v1/doctor-patients/%d", doctor.User.ID), doctor.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[utils.Page[map[string]interface{}]](t, resp).TotalElements)

	resp = s.do(http.MethodGet, "/api/v1/appointments", patient.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, decode[utils.Page[map[string]interface{}]](t, resp).TotalElements)
}

func TestDocumentUpload(t *testing.T) {
	s := newServer(t)
	patient := s.registerPatient("Ana", "ana@example.com")
	other := s.registerPatient("Ben", "ben@example.com")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("patientId", fmt.Sprint(patient.User.ID)))
	fw, err := w.CreateFormFile("file", "blood test.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := s.send(req, patient.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doc := decode[map[string]interface{}](t, resp)
	assert.Equal(t, "blood_test.pdf", doc["file_name"])
	assert.Equal(t, 1, s.blobs.Len())

	resp = s.do(http.MethodGet, fmt.Sprintf("/api/v1/documents/%d", patient.User.ID), other.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/documents/%v", doc["id"]), patient.Token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, s.blobs.Len())
}
