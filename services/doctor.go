package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/utils"
)

// DoctorQuery is a directory search. Sort is a field name optionally
// followed by ",asc" or ",desc".
type DoctorQuery struct {
	Name           string
	Specialization string
	Sort           string
	Page           int
	Size           int
}

type DoctorService struct {
	doctors repositories.DoctorRepository
}

func NewDoctorService(doctors repositories.DoctorRepository) *DoctorService {
	return &DoctorService{doctors: doctors}
}

// ParseDoctorSort validates a sort expression against the allowed fields.
func ParseDoctorSort(expr string) (repositories.DoctorSort, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return repositories.DoctorSort{Field: repositories.DefaultDoctorSort}, nil
	}
	field, dir, _ := strings.Cut(expr, ",")
	sort := repositories.DoctorSort{Field: strings.TrimSpace(field)}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		sort.Desc = true
	default:
		return repositories.DoctorSort{}, utils.InvalidInput("sort direction must be asc or desc")
	}
	if !repositories.ValidDoctorSort(sort.Field) {
		return repositories.DoctorSort{}, utils.InvalidInput("cannot sort doctors by %q", sort.Field)
	}
	return sort, nil
}

func (s *DoctorService) Search(ctx context.Context, q DoctorQuery) (utils.Page[models.Doctor], error) {
	sort, err := ParseDoctorSort(q.Sort)
	if err != nil {
		return utils.Page[models.Doctor]{}, err
	}
	page := utils.NewPageRequest(q.Page, q.Size)
	filter := repositories.DoctorFilter{Name: q.Name, Specialization: q.Specialization}

	doctors, total, err := s.doctors.Search(ctx, filter, sort, page)
	if err != nil {
		return utils.Page[models.Doctor]{}, fmt.Errorf("search doctors: %w", err)
	}
	return utils.NewPage(doctors, total, page), nil
}

func (s *DoctorService) Get(ctx context.Context, id uint) (*models.Doctor, error) {
	doctor, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "doctor", id)
	}
	return doctor, nil
}
