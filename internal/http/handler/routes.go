package handler

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docflow/internal/classifier"
	"docflow/internal/http/middleware"
	"docflow/internal/model"
	"docflow/internal/notify"
	"docflow/internal/repository"
	"docflow/internal/service"
)

type beginUploadRequest struct {
	Filename string `json:"filename"`
	FileType string `json:"filetype"`
}

type shareRequest struct {
	Department string `json:"department"`
}

type reclassifyRequest struct {
	Classification string `json:"classification"`
}

// classifierCallbackRequest mirrors classifier.CallbackPayload but treats a
// missing success flag as success: legacy workers only post the flag when
// reporting a failure.
type classifierCallbackRequest struct {
	DocumentID     string                      `json:"document_id"`
	Classification string                      `json:"classification"`
	PrivacyReport  *classifier.PrivacyAnalysis `json:"gdpr_analysis"`
	Success        *bool                       `json:"success"`
	ErrorReason    string                      `json:"error_reason"`
}

type statusResponse struct {
	DocumentID     string     `json:"document_id"`
	Status         string     `json:"status"`
	Classification *string    `json:"classification,omitempty"`
	ErrorReason    *string    `json:"error_reason,omitempty"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
}

// actorFromCtx returns the user resolved by middleware.Identity.
func actorFromCtx(c *fiber.Ctx) *model.User {
	if u, ok := c.Locals(middleware.ActorLocalKey).(*model.User); ok {
		return u
	}
	return nil
}

// parseID validates the :id path parameter as a UUID.
func parseID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers stay
// thin: decode, call the service, translate errors.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	docSvc service.DocumentService,
	depts repository.DepartmentRepository,
	users repository.UserRepository,
	hub *notify.Hub,
) {
	// Health: /health checks DB connectivity, /healthz is a bare liveness probe.
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Classifier result webhook. The worker is not a user, so this route sits
	// outside the identity middleware.
	app.Post("/webhooks/classifier", func(c *fiber.Ctx) error {
		var req classifierCallbackRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}

		cb := classifier.CallbackPayload{
			DocumentID:     req.DocumentID,
			Classification: req.Classification,
			PrivacyReport:  req.PrivacyReport,
			Success:        req.Success == nil || *req.Success,
			ErrorReason:    req.ErrorReason,
		}

		out, err := docSvc.HandleClassifierCallback(c.UserContext(), cb)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(out)
	})

	// Live event stream. Clients receive document:processed events pushed by
	// the notification fan-out.
	app.Use("/ws/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(func(conn *websocket.Conn) {
		hub.Register(conn)
		defer hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	identity := middleware.Identity(users)

	app.Get("/departments", identity, func(c *fiber.Ctx) error {
		list, err := depts.ListAll(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": list})
	})

	docs := app.Group("/documents", identity)

	// Step one of the upload handshake: reserve an identity and mint a
	// time-limited direct upload URL.
	docs.Post("/uploads", func(c *fiber.Ctx) error {
		var req beginUploadRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}

		intent, err := docSvc.BeginUpload(c.UserContext(), req.Filename, req.FileType)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(intent)
	})

	// Step two: the client confirms the object landed, which attaches the
	// owner and dispatches classification.
	docs.Post("/:id/complete", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		conf, err := docSvc.CompleteUpload(c.UserContext(), id, actorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(conf)
	})

	docs.Get("/", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), actorFromCtx(c), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	})

	docs.Get("/:id", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		doc, err := docSvc.Get(c.UserContext(), id, actorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	})

	// Lightweight polling endpoint for upload clients waiting on the
	// classifier round trip.
	docs.Get("/:id/status", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		doc, err := docSvc.Get(c.UserContext(), id, actorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(statusResponse{
			DocumentID:     doc.ID,
			Status:         doc.Status,
			Classification: doc.Classification,
			ErrorReason:    doc.ErrorReason,
			ProcessedAt:    doc.ProcessedAt,
		})
	})

	docs.Get("/:id/view", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		viewURL, err := docSvc.View(c.UserContext(), id, actorFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"view_url": viewURL})
	})

	docs.Post("/:id/share", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req shareRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}

		if err := docSvc.Share(c.UserContext(), id, actorFromCtx(c), req.Department); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"document_id": id, "shared_department": req.Department})
	})

	docs.Post("/:id/reclassify", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req reclassifyRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		}

		out, err := docSvc.Reclassify(c.UserContext(), id, actorFromCtx(c), req.Classification)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(out)
	})

	docs.Post("/:id/process", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := docSvc.RequestProcessing(c.UserContext(), id, actorFromCtx(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"document_id": id, "status": model.StatusProcessing})
	})

	docs.Delete("/:id", func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := docSvc.Delete(c.UserContext(), id, actorFromCtx(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
