package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/reminders_backend/config"
	"bitbucket.org/mmdatafocus/reminders_backend/models"
	"bitbucket.org/mmdatafocus/reminders_backend/utils"
	"bitbucket.org/mmdatafocus/reminders_backend/workflow"
)

// businessContextMiddleware resolves the acting business from the
// x-business-id header and scopes the request context to it. The tenant
// guard plugin picks the id up from context on every query.
func businessContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId := c.GetHeader("x-business-id")
		if businessId == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "x-business-id header is required"})
			return
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)
		if userName := c.GetHeader("x-user-name"); userName != "" {
			ctx = utils.SetUserNameInContext(ctx, userName)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func registerRoutes(r *gin.Engine, engine *workflow.DraftEngine, sender workflow.Sender) {
	api := r.Group("/", businessContextMiddleware())

	api.GET("/reminders/drafts", listDraftsHandler())
	api.GET("/reminders/drafts/:id", getDraftHandler())
	api.POST("/reminders/drafts/:id/approve", approveDraftHandler())
	api.POST("/reminders/drafts/:id/edit", editDraftHandler())
	api.POST("/reminders/drafts/:id/snooze", snoozeDraftHandler())
	api.POST("/reminders/drafts/:id/send", sendDraftHandler(sender))
	api.DELETE("/reminders/drafts/:id", deleteDraftHandler())

	api.GET("/reminders/settings", getSettingsHandler())
	api.PUT("/reminders/settings", updateSettingsHandler())
	api.POST("/reminders/generate", generateDraftsHandler(engine))

	api.POST("/clients", createClientHandler())
	api.POST("/invoices", createInvoiceHandler())
	api.POST("/invoices/:id/mark-paid", markInvoicePaidHandler())
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrInvalidDraftTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrBusinessLockHeld):
		c.JSON(http.StatusConflict, gin.H{"error": "a generation run is already in progress"})
	default:
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func listDraftsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *models.ReminderStatus
		if raw := c.Query("status"); raw != "" {
			s := models.ReminderStatus(raw)
			switch s {
			case models.ReminderStatusPending, models.ReminderStatusApproved, models.ReminderStatusScheduled,
				models.ReminderStatusSent, models.ReminderStatusFailed:
				status = &s
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
				return
			}
		}
		drafts, err := models.ListDrafts(c.Request.Context(), config.GetDB(), status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"drafts": drafts})
	}
}

func getDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		draft, err := models.GetDraftById(c.Request.Context(), config.GetDB(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

type approveDraftRequest struct {
	ApprovedBy string `json:"approvedBy"`
}

func approveDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		db := config.GetDB()
		draft, err := models.GetDraftById(ctx, db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		var req approveDraftRequest
		_ = c.ShouldBindJSON(&req)
		if req.ApprovedBy == "" {
			if userName, ok := utils.GetUserNameFromContext(ctx); ok {
				req.ApprovedBy = userName
			} else {
				req.ApprovedBy = "api"
			}
		}
		now := time.Now().UTC()
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := models.ApproveDraft(ctx, tx, draft, req.ApprovedBy, now); err != nil {
				return err
			}
			return models.PublishAudit(ctx, tx, models.AuditActionDraftApproved, "reminder_draft", draft.ID, gin.H{
				"draft_id":    draft.ID,
				"approved_by": req.ApprovedBy,
			})
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

type editDraftRequest struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

func editDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		db := config.GetDB()
		draft, err := models.GetDraftById(ctx, db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		var req editDraftRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "subject and body are required"})
			return
		}
		// Human edits go through the same policy filter as generated text.
		if ok, violation := workflow.ModerateContent(req.Subject, req.Body); !ok {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "content rejected by policy: " + violation})
			return
		}
		body := workflow.TruncateWords(req.Body, 100)
		oldSubject, oldBody := draft.Subject, draft.Body
		now := time.Now().UTC()
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := models.EditDraft(ctx, tx, draft, req.Subject, body, now); err != nil {
				return err
			}
			return models.PublishAudit(ctx, tx, models.AuditActionDraftEdited, "reminder_draft", draft.ID, gin.H{
				"draft_id":    draft.ID,
				"old_subject": oldSubject,
				"old_body":    oldBody,
				"new_subject": draft.Subject,
				"new_body":    draft.Body,
			})
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

type snoozeDraftRequest struct {
	Until time.Time `json:"until"`
	Days  int       `json:"days"`
}

func snoozeDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		db := config.GetDB()
		draft, err := models.GetDraftById(ctx, db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		var req snoozeDraftRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "until timestamp or days is required"})
			return
		}
		now := time.Now().UTC()
		until := req.Until
		if until.IsZero() {
			if req.Days <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "until timestamp or days is required"})
				return
			}
			until = now.AddDate(0, 0, req.Days)
		}
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := models.SnoozeDraft(ctx, tx, draft, until, now); err != nil {
				return err
			}
			return models.PublishAudit(ctx, tx, models.AuditActionDraftSnoozed, "reminder_draft", draft.ID, gin.H{
				"draft_id": draft.ID,
				"until":    until,
			})
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

func sendDraftHandler(sender workflow.Sender) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		db := config.GetDB()
		draft, err := models.GetDraftById(ctx, db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		// Sending never implies approval; pending drafts are rejected so
		// the human review gate cannot be skipped in one call.
		if err := workflow.SendDraft(ctx, db, sender, draft, time.Now().UTC()); err != nil {
			if errors.Is(err, models.ErrInvalidDraftTransition) {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed: " + err.Error()})
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

func deleteDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		db := config.GetDB()
		draft, err := models.GetDraftById(ctx, db, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := models.DeleteDraft(ctx, tx, draft); err != nil {
				return err
			}
			return models.PublishAudit(ctx, tx, models.AuditActionDraftDeleted, "reminder_draft", draft.ID, gin.H{
				"draft_id":   draft.ID,
				"invoice_id": draft.InvoiceId,
			})
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

const settingsCacheTTL = 5 * time.Minute

func settingsCacheKey(businessId string) string {
	return "reminder_settings:" + businessId
}

func getSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		businessId, _ := utils.GetBusinessIdFromContext(ctx)
		var cached models.ReminderSettings
		if found, err := config.GetRedisObject(settingsCacheKey(businessId), &cached); err == nil && found {
			c.JSON(http.StatusOK, &cached)
			return
		}
		settings, err := models.GetOrCreateReminderSettings(ctx, config.GetDB())
		if err != nil {
			respondError(c, err)
			return
		}
		_ = config.SetRedisObject(settingsCacheKey(businessId), settings, settingsCacheTTL)
		c.JSON(http.StatusOK, settings)
	}
}

func updateSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		db := config.GetDB()
		var input models.UpdateReminderSettingsInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		settings, err := models.UpdateReminderSettings(ctx, db, input)
		if err != nil {
			respondError(c, err)
			return
		}
		_ = config.RemoveRedisKey(settingsCacheKey(settings.BusinessId))
		_ = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return models.PublishAudit(ctx, tx, models.AuditActionSettingsUpdate, "reminder_settings", settings.BusinessId, settings)
		})
		c.JSON(http.StatusOK, settings)
	}
}

type generateDraftsRequest struct {
	MaxDrafts int `json:"maxDrafts"`
}

func generateDraftsHandler(engine *workflow.DraftEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), "GenerateDrafts")
		defer span.End()

		var req generateDraftsRequest
		_ = c.ShouldBindJSON(&req)
		if req.MaxDrafts <= 0 || req.MaxDrafts > 100 {
			req.MaxDrafts = 50
		}
		businessId, _ := utils.GetBusinessIdFromContext(ctx)
		drafts, err := engine.GenerateDrafts(ctx, businessId, req.MaxDrafts, true)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"created": len(drafts),
			"drafts":  drafts,
		})
	}
}

func createClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewClient
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		client, err := models.CreateClient(c.Request.Context(), config.GetDB(), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, client)
	}
}

func createInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewInvoice
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		invoice, err := models.CreateInvoice(c.Request.Context(), config.GetDB(), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func markInvoicePaidHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoice, err := models.MarkInvoicePaid(c.Request.Context(), config.GetDB(), c.Param("id"), time.Now().UTC())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}
