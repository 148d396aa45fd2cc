package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/meinhoongagan/clinic-server/utils"
)

type DocumentController struct {
	documents *services.DocumentService
}

func NewDocumentController(documents *services.DocumentService) *DocumentController {
	return &DocumentController{documents: documents}
}

// Upload godoc
// @Summary Upload a medical document for a patient
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Param patientId formData int true "Patient ID"
// @Success 201 {object} models.MedicalDocument
// @Failure 403 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /documents/upload [post]
func (h *DocumentController) Upload(c *fiber.Ctx) error {
	patientID, err := strconv.ParseUint(c.FormValue("patientId"), 10, 64)
	if err != nil || patientID == 0 {
		return utils.InvalidInput("patientId must be a positive integer")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return utils.InvalidInput("file is required")
	}
	upload, f, err := openUpload(fh)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := h.documents.Upload(c.UserContext(), actor(c), uint(patientID), upload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *DocumentController) List(c *fiber.Ctx) error {
	patientID, err := paramID(c, "patientId")
	if err != nil {
		return err
	}
	docs, err := h.documents.List(c.UserContext(), actor(c), patientID)
	if err != nil {
		return err
	}
	return c.JSON(docs)
}

func (h *DocumentController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "documentId")
	if err != nil {
		return err
	}
	if err := h.documents.Delete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
