package handlers

import (
	"errors"
	"nutriscan/domain"
	"nutriscan/internal/api/presenters"
	"nutriscan/pkg/scan"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ScanHandler interface {
		Analyze(c *fiber.Ctx) error
		GetHistory(c *fiber.Ctx) error
	}

	scanHandler struct {
		scanService scan.ScanService
		validator   *validator.Validate
	}
)

func NewScanHandler(scanService scan.ScanService, validator *validator.Validate) ScanHandler {
	return &scanHandler{
		scanService: scanService,
		validator:   validator,
	}
}

func (h *scanHandler) Analyze(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	image, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	req := domain.AnalyzeRequest{
		Image:    image,
		ScanType: c.FormValue("scan_type"),
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAnalyze, err)
	}

	res, err := h.scanService.Analyze(c.Context(), req, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAnalysisFailed), errors.Is(err, domain.ErrUninterpretableResult):
			return presenters.ErrorResponse(c, fiber.StatusBadGateway, domain.MessageFailedAnalyze, err)
		case errors.Is(err, domain.ErrSaveScanFailed):
			return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedAnalyze, err)
		default:
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAnalyze, err)
		}
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessAnalyze)
}

func (h *scanHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.scanService.GetHistory(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedGetHistory, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetHistory)
}
