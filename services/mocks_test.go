package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/redis"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/storage"
	"github.com/meinhoongagan/clinic-server/utils"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	passwordCost = bcrypt.MinCost
}

// -- Mock Repositories --
//
// fakeDB is shared by the fake repositories so users, patients and doctors
// stay consistent with each other. Every getter returns a copy.

type fakeDB struct {
	mu           sync.Mutex
	nextID       uint
	users        map[uint]models.User
	patients     map[uint]models.Patient
	doctors      map[uint]models.Doctor
	appointments map[uint]models.Appointment
	reviews      map[uint]models.Review
	documents    map[uint]models.MedicalDocument
	links        map[[2]uint]models.DoctorPatient
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:        make(map[uint]models.User),
		patients:     make(map[uint]models.Patient),
		doctors:      make(map[uint]models.Doctor),
		appointments: make(map[uint]models.Appointment),
		reviews:      make(map[uint]models.Review),
		documents:    make(map[uint]models.MedicalDocument),
		links:        make(map[[2]uint]models.DoctorPatient),
	}
}

func (db *fakeDB) id() uint {
	db.nextID++
	return db.nextID
}

func (db *fakeDB) emailTaken(email string, except uint) bool {
	for id, u := range db.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (db *fakeDB) insertUser(u *models.User) error {
	u.Email = repositories.NormalizeEmail(u.Email)
	if db.emailTaken(u.Email, 0) {
		return repositories.ErrDuplicate
	}
	u.ID = db.id()
	u.CreatedAt = time.Now()
	db.users[u.ID] = *u
	return nil
}

type fakeUsers struct{ db *fakeDB }

func (r fakeUsers) Create(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.insertUser(u)
}

func (r fakeUsers) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	email = repositories.NormalizeEmail(email)
	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r fakeUsers) Update(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[u.ID]; !ok {
		return repositories.ErrNotFound
	}
	if r.db.emailTaken(u.Email, u.ID) {
		return repositories.ErrDuplicate
	}
	r.db.users[u.ID] = *u
	return nil
}

func (r fakeUsers) UpdateAccount(_ context.Context, u *models.User, profile models.Profile) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[u.ID]; !ok {
		return repositories.ErrNotFound
	}
	if r.db.emailTaken(u.Email, u.ID) {
		return repositories.ErrDuplicate
	}
	r.db.users[u.ID] = *u
	switch p := profile.(type) {
	case *models.Patient:
		stored := *p
		stored.User = models.User{}
		r.db.patients[p.UserID] = stored
	case *models.Doctor:
		stored := *p
		stored.User = models.User{}
		r.db.doctors[p.UserID] = stored
	}
	return nil
}

func (r fakeUsers) Delete(_ context.Context, id uint) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return nil, repositories.ErrNotFound
	}
	var keys []string
	for docID, doc := range r.db.documents {
		if doc.PatientID == id {
			keys = append(keys, doc.StorageKey)
			delete(r.db.documents, docID)
		}
	}
	for aID, a := range r.db.appointments {
		if a.PatientID == id || a.DoctorID == id {
			delete(r.db.appointments, aID)
		}
	}
	for rID, rv := range r.db.reviews {
		if rv.PatientID == id || rv.DoctorID == id {
			delete(r.db.reviews, rID)
		}
	}
	for key := range r.db.links {
		if key[0] == id || key[1] == id {
			delete(r.db.links, key)
		}
	}
	delete(r.db.users, id)
	delete(r.db.patients, id)
	delete(r.db.doctors, id)
	return keys, nil
}

type fakePatients struct{ db *fakeDB }

func (r fakePatients) Create(_ context.Context, p *models.Patient) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p.User.Role = models.RolePatient
	if err := r.db.insertUser(&p.User); err != nil {
		return err
	}
	p.UserID = p.User.ID
	stored := *p
	stored.User = models.User{}
	r.db.patients[p.UserID] = stored
	return nil
}

func (r fakePatients) GetByID(_ context.Context, id uint) (*models.Patient, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.patients[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p.User = r.db.users[id]
	return &p, nil
}

func (r fakePatients) Exists(_ context.Context, id uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.patients[id]
	return ok, nil
}

type fakeDoctors struct {
	db         *fakeDB
	lastFilter repositories.DoctorFilter
	lastSort   repositories.DoctorSort
}

func (r *fakeDoctors) Create(_ context.Context, d *models.Doctor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d.User.Role = models.RoleDoctor
	if err := r.db.insertUser(&d.User); err != nil {
		return err
	}
	d.UserID = d.User.ID
	stored := *d
	stored.User = models.User{}
	r.db.doctors[d.UserID] = stored
	return nil
}

func (r *fakeDoctors) GetByID(_ context.Context, id uint) (*models.Doctor, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.doctors[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	d.User = r.db.users[id]
	return &d, nil
}

func (r *fakeDoctors) Exists(_ context.Context, id uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.doctors[id]
	return ok, nil
}

func (r *fakeDoctors) Search(_ context.Context, filter repositories.DoctorFilter, sortBy repositories.DoctorSort, page utils.PageRequest) ([]models.Doctor, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.lastFilter, r.lastSort = filter, sortBy

	contains := func(s, sub string) bool {
		return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	}
	var out []models.Doctor
	for id, d := range r.db.doctors {
		d.User = r.db.users[id]
		if filter.Name != "" && !contains(d.User.FirstName, filter.Name) && !contains(d.User.LastName, filter.Name) {
			continue
		}
		if filter.Specialization != "" && !contains(d.Specialization, filter.Specialization) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	total := int64(len(out))
	start := page.Offset()
	if start > len(out) {
		start = len(out)
	}
	end := start + page.Size
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

type fakeAppointments struct{ db *fakeDB }

func (r fakeAppointments) slotTaken(a *models.Appointment) bool {
	for id, other := range r.db.appointments {
		if id != a.ID && other.DoctorID == a.DoctorID && other.Date.Equal(a.Date) && other.Time.Equal(a.Time) {
			return true
		}
	}
	return false
}

func (r fakeAppointments) Create(_ context.Context, a *models.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.slotTaken(a) {
		return repositories.ErrDuplicate
	}
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	a.ID = r.db.id()
	r.db.appointments[a.ID] = *a
	return nil
}

func (r fakeAppointments) load(a models.Appointment) *models.Appointment {
	a.Doctor = r.db.doctors[a.DoctorID]
	a.Doctor.User = r.db.users[a.DoctorID]
	a.Patient = r.db.patients[a.PatientID]
	a.Patient.User = r.db.users[a.PatientID]
	return &a
}

func (r fakeAppointments) GetByID(_ context.Context, id uint) (*models.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.appointments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return r.load(a), nil
}

func (r fakeAppointments) Update(_ context.Context, a *models.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.slotTaken(a) {
		return repositories.ErrDuplicate
	}
	stored := *a
	stored.Doctor, stored.Patient = models.Doctor{}, models.Patient{}
	r.db.appointments[a.ID] = stored
	return nil
}

func (r fakeAppointments) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.appointments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.db.appointments, id)
	return nil
}

func (r fakeAppointments) ExistsAtSlot(_ context.Context, doctorID uint, date models.Date, at models.Clock, excludeID uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.slotTaken(&models.Appointment{ID: excludeID, DoctorID: doctorID, Date: date, Time: at}), nil
}

func (r fakeAppointments) filter(keep func(models.Appointment) bool) []models.Appointment {
	var out []models.Appointment
	for _, a := range r.db.appointments {
		if keep(a) {
			out = append(out, *r.load(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeAppointments) ListByDoctorAndStatus(_ context.Context, doctorID uint, status models.AppointmentStatus, _ utils.PageRequest) ([]models.Appointment, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.filter(func(a models.Appointment) bool { return a.DoctorID == doctorID && a.Status == status })
	return out, int64(len(out)), nil
}

func (r fakeAppointments) ListByPatientAndStatus(_ context.Context, patientID uint, status models.AppointmentStatus, _ utils.PageRequest) ([]models.Appointment, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.filter(func(a models.Appointment) bool { return a.PatientID == patientID && a.Status == status })
	return out, int64(len(out)), nil
}

func (r fakeAppointments) ListByDoctorAndDate(_ context.Context, doctorID uint, date models.Date) ([]models.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.filter(func(a models.Appointment) bool { return a.DoctorID == doctorID && a.Date.Equal(date) }), nil
}

func (r fakeAppointments) ListConfirmedBetween(_ context.Context, from, to time.Time) ([]models.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.filter(func(a models.Appointment) bool {
		at := a.StartsAt(from.Location())
		return a.Status == models.StatusConfirmed && !at.Before(from) && at.Before(to)
	}), nil
}

type fakeReviews struct{ db *fakeDB }

func (r fakeReviews) Create(_ context.Context, rv *models.Review) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rv.ID = r.db.id()
	r.db.reviews[rv.ID] = *rv
	return nil
}

func (r fakeReviews) GetByID(_ context.Context, id uint) (*models.Review, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rv, ok := r.db.reviews[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &rv, nil
}

func (r fakeReviews) Update(_ context.Context, rv *models.Review) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.reviews[rv.ID] = *rv
	return nil
}

func (r fakeReviews) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.reviews[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.db.reviews, id)
	return nil
}

func (r fakeReviews) ListByDoctor(_ context.Context, doctorID uint, _ utils.PageRequest) ([]models.Review, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Review
	for _, rv := range r.db.reviews {
		if rv.DoctorID == doctorID {
			out = append(out, rv)
		}
	}
	return out, int64(len(out)), nil
}

type fakeDocuments struct {
	db        *fakeDB
	createErr error
}

func (r *fakeDocuments) Create(_ context.Context, d *models.MedicalDocument) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d.ID = r.db.id()
	r.db.documents[d.ID] = *d
	return nil
}

func (r *fakeDocuments) GetByID(_ context.Context, id uint) (*models.MedicalDocument, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.documents[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &d, nil
}

func (r *fakeDocuments) ListByPatient(_ context.Context, patientID uint) ([]models.MedicalDocument, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.MedicalDocument
	for _, d := range r.db.documents {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDocuments) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.documents[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.db.documents, id)
	return nil
}

type fakeLinks struct{ db *fakeDB }

func (r fakeLinks) Exists(_ context.Context, doctorID, patientID uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.links[[2]uint{doctorID, patientID}]
	return ok, nil
}

func (r fakeLinks) Create(_ context.Context, l *models.DoctorPatient) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := [2]uint{l.DoctorID, l.PatientID}
	if _, ok := r.db.links[key]; ok {
		return repositories.ErrDuplicate
	}
	l.ID = r.db.id()
	r.db.links[key] = *l
	return nil
}

func (r fakeLinks) ListPatients(_ context.Context, doctorID uint, name string, _ utils.PageRequest) ([]models.Patient, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Patient
	for key := range r.db.links {
		if key[0] != doctorID {
			continue
		}
		p := r.db.patients[key[1]]
		p.User = r.db.users[key[1]]
		if name != "" && !strings.Contains(strings.ToLower(p.User.FirstName+" "+p.User.LastName), strings.ToLower(name)) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r fakeLinks) DeleteByPair(_ context.Context, doctorID, patientID uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := [2]uint{doctorID, patientID}
	if _, ok := r.db.links[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.db.links, key)
	return nil
}

// -- Other collaborators --

type fakeBlobs struct {
	*storage.MemoryStore
	putErr    error
	deleteErr error
	deletes   []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{MemoryStore: storage.NewMemoryStore("mem://blobs")}
}

func (b *fakeBlobs) Put(ctx context.Context, key string, content io.Reader, contentType string) (string, error) {
	if b.putErr != nil {
		return "", b.putErr
	}
	return b.MemoryStore.Put(ctx, key, content, contentType)
}

func (b *fakeBlobs) Delete(ctx context.Context, key string) error {
	b.deletes = append(b.deletes, key)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	return b.MemoryStore.Delete(ctx, key)
}

type fakeNotifier struct {
	booked    []uint
	changed   []uint
	reminders []uint
	err       error
}

func (n *fakeNotifier) AppointmentBooked(_ context.Context, a *models.Appointment) error {
	n.booked = append(n.booked, a.ID)
	return n.err
}

func (n *fakeNotifier) AppointmentStatusChanged(_ context.Context, a *models.Appointment) error {
	n.changed = append(n.changed, a.ID)
	return n.err
}

func (n *fakeNotifier) AppointmentReminder(_ context.Context, a *models.Appointment) error {
	n.reminders = append(n.reminders, a.ID)
	return n.err
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

var errBoom = errors.New("boom")

// -- Fixture --

type fixture struct {
	db           *fakeDB
	users        fakeUsers
	patients     fakePatients
	doctors      *fakeDoctors
	appointments fakeAppointments
	reviews      fakeReviews
	documents    *fakeDocuments
	links        fakeLinks
	blobs        *fakeBlobs
	notifier     *fakeNotifier
	denylist     *redis.MemoryDenylist

	auth           *AuthService
	profiles       *ProfileService
	doctorSvc      *DoctorService
	patientSvc     *PatientService
	appointmentSvc *AppointmentService
	reviewSvc      *ReviewService
	documentSvc    *DocumentService
	linkSvc        *DoctorPatientService
}

const testAdminSecret = "let-me-in"

func newFixture() *fixture {
	db := newFakeDB()
	f := &fixture{
		db:           db,
		users:        fakeUsers{db},
		patients:     fakePatients{db},
		doctors:      &fakeDoctors{db: db},
		appointments: fakeAppointments{db},
		reviews:      fakeReviews{db},
		documents:    &fakeDocuments{db: db},
		links:        fakeLinks{db},
		blobs:        newFakeBlobs(),
		notifier:     &fakeNotifier{},
		denylist:     redis.NewMemoryDenylist(),
	}
	log := zerolog.Nop()
	tokens := NewTokenService("test-secret", time.Hour)

	f.auth = NewAuthService(f.users, f.patients, f.doctors, tokens, f.denylist, testAdminSecret, log)
	f.documentSvc = NewDocumentService(f.documents, f.patients, f.users, f.blobs, log)
	f.profiles = NewProfileService(f.users, f.patients, f.doctors, f.documentSvc, f.blobs, log)
	f.doctorSvc = NewDoctorService(f.doctors)
	f.patientSvc = NewPatientService(f.patients)
	f.linkSvc = NewDoctorPatientService(f.links, f.doctors)
	f.appointmentSvc = NewAppointmentService(f.appointments, f.doctors, f.patients, f.linkSvc, f.notifier, log)
	f.reviewSvc = NewReviewService(f.reviews, f.doctors, f.patients)
	return f
}

func (f *fixture) patient(first, last string) *models.Patient {
	p, err := f.auth.RegisterPatient(context.Background(), RegisterPatientInput{
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(first+"."+last) + "@example.com",
		Password:  "secret1",
	})
	if err != nil {
		panic(err)
	}
	return p
}

func (f *fixture) doctor(first, last, specialization string) *models.Doctor {
	d, err := f.auth.RegisterDoctor(context.Background(), RegisterDoctorInput{
		FirstName:      first,
		LastName:       last,
		Email:          "dr." + strings.ToLower(first+"."+last) + "@example.com",
		Password:       "secret1",
		Specialization: specialization,
		AdminSecret:    testAdminSecret,
	})
	if err != nil {
		panic(err)
	}
	return d
}

func asPatient(p *models.Patient) Actor { return Actor{UserID: p.UserID, Role: models.RolePatient} }
func asDoctor(d *models.Doctor) Actor   { return Actor{UserID: d.UserID, Role: models.RoleDoctor} }
