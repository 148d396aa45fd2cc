// Package controllers holds the fiber handlers. Handlers parse the request,
// call one service and map the result to a response DTO. Errors are
// returned as-is and rendered by middleware.ErrorHandler.
package controllers

import (
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-server/middleware"
	"github.com/meinhoongagan/clinic-server/models"
	"github.com/meinhoongagan/clinic-server/services"
	"github.com/meinhoongagan/clinic-server/storage"
	"github.com/meinhoongagan/clinic-server/utils"
)

func actor(c *fiber.Ctx) services.Actor {
	return services.Actor{UserID: middleware.UserID(c), Role: middleware.Role(c)}
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, utils.InvalidInput("%s must be a positive integer", name)
	}
	return uint(id), nil
}

func queryID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, utils.InvalidInput("%s is required", name)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, utils.InvalidInput("%s must be a positive integer", name)
	}
	return uint(id), nil
}

// pageRequest reads the zero-based page and size query parameters.
func pageRequest(c *fiber.Ctx) utils.PageRequest {
	return utils.NewPageRequest(c.QueryInt("page", 0), c.QueryInt("size", utils.DefaultPageSize))
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return utils.InvalidInput("cannot parse request body: %v", err)
	}
	return nil
}

func queryDate(c *fiber.Ctx, name string) (models.Date, error) {
	d, err := models.ParseDate(c.Query(name))
	if err != nil {
		return models.Date{}, utils.InvalidInput("%s: %v", name, err)
	}
	return d, nil
}

// openUpload opens a multipart file. The caller must close the returned file.
func openUpload(fh *multipart.FileHeader) (storage.Upload, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Upload{}, nil, utils.InvalidInput("cannot read uploaded file")
	}
	return storage.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	}, f, nil
}
