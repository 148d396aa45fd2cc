package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/repositories"
	"github.com/meinhoongagan/clinic-server/storage"
	"github.com/meinhoongagan/clinic-server/utils"
	"github.com/rs/zerolog"
)

// MaxUploadSize bounds documents and profile pictures.
const MaxUploadSize = 10 << 20

var pictureExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

type DocumentService struct {
	documents repositories.DocumentRepository
	patients  repositories.PatientRepository
	users     repositories.UserRepository
	blobs     storage.BlobStore
	now       func() time.Time
	log       zerolog.Logger
}

func NewDocumentService(
	documents repositories.DocumentRepository,
	patients repositories.PatientRepository,
	users repositories.UserRepository,
	blobs storage.BlobStore,
	log zerolog.Logger,
) *DocumentService {
	return &DocumentService{documents: documents, patients: patients, users: users, blobs: blobs, now: time.Now, log: log}
}

// canManageFiles allows the owning patient and any doctor.
func canManageFiles(actor Actor, patientID uint) error {
	switch {
	case actor.Is(models.RoleDoctor):
		return nil
	case actor.Is(models.RolePatient) && actor.UserID == patientID:
		return nil
	}
	return utils.Forbidden("not allowed to manage documents of patient %d", patientID)
}

func checkUpload(file storage.Upload) error {
	if file.Content == nil || strings.TrimSpace(file.FileName) == "" {
		return utils.InvalidInput("a file is required")
	}
	if file.Size > MaxUploadSize {
		return utils.InvalidInput("file exceeds %d bytes", MaxUploadSize)
	}
	return nil
}

// Upload stores the blob first and then its row. A failed insert removes
// the blob again.
func (s *DocumentService) Upload(ctx context.Context, actor Actor, patientID uint, file storage.Upload) (*models.MedicalDocument, error) {
	if err := canManageFiles(actor, patientID); err != nil {
		return nil, err
	}
	if err := checkUpload(file); err != nil {
		return nil, err
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err := requireExists(ok, err, "patient", patientID); err != nil {
		return nil, err
	}

	key := utils.DocumentKey(file.FileName)
	url, err := s.blobs.Put(ctx, key, file.Content, file.ContentType)
	if err != nil {
		return nil, utils.Upstream(err, "failed to store file")
	}

	doc := &models.MedicalDocument{
		FileName:   utils.SanitizeFileName(file.FileName),
		StorageKey: key,
		FileURL:    url,
		UploadedAt: s.now(),
		PatientID:  patientID,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.log.Error().Err(derr).Str("key", key).Msg("failed to remove orphaned blob")
		}
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.log.Info().Uint("document_id", doc.ID).Uint("patient_id", patientID).Msg("document uploaded")
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, actor Actor, patientID uint) ([]models.MedicalDocument, error) {
	if err := canManageFiles(actor, patientID); err != nil {
		return nil, err
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err := requireExists(ok, err, "patient", patientID); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []models.MedicalDocument{}
	}
	return docs, nil
}

// Delete removes the blob and then the row. The row stays when the blob
// cannot be removed.
func (s *DocumentService) Delete(ctx context.Context, actor Actor, documentID uint) error {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return notFoundOr(err, "document", documentID)
	}
	if err := canManageFiles(actor, doc.PatientID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
		return utils.Upstream(err, "failed to remove file")
	}
	if err := s.documents.Delete(ctx, documentID); err != nil {
		return notFoundOr(err, "document", documentID)
	}
	s.log.Info().Uint("document_id", documentID).Msg("document deleted")
	return nil
}

// StoreProfilePicture checks that file is an image and stores it under a
// new key. Nothing is recorded on the user.
func (s *DocumentService) StoreProfilePicture(ctx context.Context, file storage.Upload) (key, url string, err error) {
	if err := checkUpload(file); err != nil {
		return "", "", err
	}
	ext := strings.ToLower(filepath.Ext(file.FileName))
	if !pictureExtensions[ext] && !strings.HasPrefix(file.ContentType, "image/") {
		return "", "", utils.InvalidInput("profile picture must be an image")
	}
	key = utils.ProfilePictureKey(file.FileName)
	url, err = s.blobs.Put(ctx, key, file.Content, file.ContentType)
	if err != nil {
		return "", "", utils.Upstream(err, "failed to store profile picture")
	}
	return key, url, nil
}

// DiscardBlob removes a stored blob best effort.
func (s *DocumentService) DiscardBlob(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to remove blob")
	}
}

// UploadProfilePicture replaces the user's picture. The previous blob is
// removed best effort.
func (s *DocumentService) UploadProfilePicture(ctx context.Context, userID uint, file storage.Upload) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	key, url, err := s.StoreProfilePicture(ctx, file)
	if err != nil {
		return nil, err
	}

	oldKey := user.ProfilePictureKey
	user.ProfilePictureURL = url
	user.ProfilePictureKey = key
	if err := s.users.Update(ctx, user); err != nil {
		s.DiscardBlob(ctx, key)
		return nil, fmt.Errorf("update user %d: %w", userID, err)
	}
	if oldKey != key {
		s.DiscardBlob(ctx, oldKey)
	}
	return user, nil
}
