package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"logalty-esign/internal/domain/entity"
	domainrepo "logalty-esign/internal/domain/repository"
	"logalty-esign/internal/infrastructure/oauth2"
	"logalty-esign/internal/infrastructure/resilience"
	"logalty-esign/internal/usecase"
)

type EnvelopeHandler struct {
	usecase usecase.EnvelopeUsecase
	logger  *zap.Logger
}

func NewEnvelopeHandler(usecase usecase.EnvelopeUsecase, logger *zap.Logger) *EnvelopeHandler {
	return &EnvelopeHandler{
		usecase: usecase,
		logger:  logger,
	}
}

type createEnvelopeRequest struct {
	LocalID     string   `json:"local_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Documents   []string `json:"documents"`
}

type updateEnvelopeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type sendEnvelopeRequest struct {
	SentBy string `json:"sent_by"`
}

type voidEnvelopeRequest struct {
	Reason   string `json:"reason"`
	VoidedBy string `json:"voided_by"`
}

// errorStatus maps the error taxonomy to HTTP status codes so API consumers
// can tell fast-fail, exhausted-retry, not-found and creation failures apart
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domainrepo.ErrEnvelopeNotFound):
		return fiber.StatusNotFound, "ENVELOPE_NOT_FOUND"
	case errors.Is(err, resilience.ErrCircuitOpen):
		return fiber.StatusServiceUnavailable, "CIRCUIT_OPEN"
	case errors.Is(err, oauth2.ErrCredentialAcquisition):
		return fiber.StatusBadGateway, "CREDENTIAL_ERROR"
	case errors.Is(err, domainrepo.ErrEnvelopeCreation):
		return fiber.StatusBadGateway, "CREATION_FAILED"
	case resilience.IsTransient(err):
		return fiber.StatusGatewayTimeout, "UPSTREAM_UNAVAILABLE"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func (h *EnvelopeHandler) fail(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	return c.Status(status).JSON(entity.NewErrorResponse(code, err.Error()))
}

// Create registers a new envelope with the active provider
func (h *EnvelopeHandler) Create(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req createEnvelopeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid request body"),
		)
	}

	envelope := &entity.SignatureEnvelope{
		Title:       req.Title,
		Description: req.Description,
		Documents:   req.Documents,
	}

	if req.LocalID != "" {
		localID, err := uuid.Parse(req.LocalID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(
				entity.NewErrorResponse("BAD_REQUEST", "Invalid local_id"),
			)
		}
		envelope.LocalID = localID
	}

	created, err := h.usecase.Create(ctx, envelope)
	if err != nil {
		h.logger.Error("Failed to create envelope", zap.Error(err))
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(
		entity.NewSuccessResponse(created, "Envelope created successfully"),
	)
}

// Get returns the envelope with its current provider status
func (h *EnvelopeHandler) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()

	localID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid envelope id"),
		)
	}

	envelope, err := h.usecase.Get(ctx, localID)
	if err != nil {
		h.logger.Error("Failed to get envelope", zap.Error(err))
		return h.fail(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(envelope, "Envelope retrieved successfully"))
}

// Update returns the current envelope state; changes are not transmitted upstream
func (h *EnvelopeHandler) Update(c *fiber.Ctx) error {
	ctx := c.UserContext()

	localID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid envelope id"),
		)
	}

	var req updateEnvelopeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid request body"),
		)
	}

	envelope, err := h.usecase.Update(ctx, &entity.SignatureEnvelope{
		LocalID:     localID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error("Failed to update envelope", zap.Error(err))
		return h.fail(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(envelope, "Envelope state returned; remote update not supported"))
}

// Delete removes the local identifier mapping
func (h *EnvelopeHandler) Delete(c *fiber.Ctx) error {
	ctx := c.UserContext()

	localID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid envelope id"),
		)
	}

	if err := h.usecase.Delete(ctx, localID); err != nil {
		h.logger.Error("Failed to delete envelope", zap.Error(err))
		return h.fail(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(nil, "Envelope mapping removed"))
}

// Send dispatches the envelope to its signers
func (h *EnvelopeHandler) Send(c *fiber.Ctx) error {
	ctx := c.UserContext()

	localID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid envelope id"),
		)
	}

	var req sendEnvelopeRequest
	if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		req = sendEnvelopeRequest{}
	}

	sentBy := uuid.Nil
	if req.SentBy != "" {
		if sentBy, err = uuid.Parse(req.SentBy); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(
				entity.NewErrorResponse("BAD_REQUEST", "Invalid sent_by"),
			)
		}
	}

	envelope, err := h.usecase.Send(ctx, localID, sentBy)
	if err != nil {
		h.logger.Error("Failed to send envelope", zap.Error(err))
		return h.fail(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(envelope, "Envelope sent successfully"))
}

// Void returns the current envelope state; the reason is recorded locally only
func (h *EnvelopeHandler) Void(c *fiber.Ctx) error {
	ctx := c.UserContext()

	localID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid envelope id"),
		)
	}

	var req voidEnvelopeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			entity.NewErrorResponse("BAD_REQUEST", "Invalid request body"),
		)
	}

	voidedBy := uuid.Nil
	if req.VoidedBy != "" {
		if voidedBy, err = uuid.Parse(req.VoidedBy); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(
				entity.NewErrorResponse("BAD_REQUEST", "Invalid voided_by"),
			)
		}
	}

	envelope, err := h.usecase.Void(ctx, localID, req.Reason, voidedBy)
	if err != nil {
		h.logger.Error("Failed to void envelope", zap.Error(err))
		return h.fail(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(envelope, "Envelope state returned; remote void not supported"))
}

// List queries envelopes by status
func (h *EnvelopeHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	status := entity.NormalizeRemoteStatus(c.Query("status", string(entity.StatusDraft)))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	envelopes, err := h.usecase.ListByStatus(ctx, status, limit)
	if err != nil {
		h.logger.Error("Failed to list envelopes", zap.Error(err))
		return h.fail(c, err)
	}

	return c.JSON(entity.NewSuccessResponse(envelopes, "Envelopes retrieved successfully"))
}
