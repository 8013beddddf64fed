package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daveytran/playback-stats-staff-payer/internal/application/port"
	"github.com/daveytran/playback-stats-staff-payer/internal/application/service"
	"github.com/daveytran/playback-stats-staff-payer/internal/domain/entity"
	"github.com/daveytran/playback-stats-staff-payer/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	invoicing service.InvoicingService
	store     port.InvoiceStore
	workers   WorkerStatus
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	invoicing service.InvoicingService,
	store port.InvoiceStore,
	workers WorkerStatus,
	logger Logger,
) *Handlers {
	return &Handlers{
		invoicing: invoicing,
		store:     store,
		workers:   workers,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// WorkersHealth reports background worker state in the health response
type WorkersHealth struct {
	Running bool     `json:"running"`
	Names   []string `json:"names"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Version   string         `json:"version"`
	Workers   *WorkersHealth `json:"workers,omitempty"`
}

// PreviewResponse represents a preview run in API responses
type PreviewResponse struct {
	NothingToDo   bool                 `json:"nothing_to_do"`
	InvoiceNumber string               `json:"invoice_number,omitempty"`
	Summary       service.Summary      `json:"summary"`
	Batch         *entity.InvoiceBatch `json:"batch,omitempty"`
	CreatedAt     string               `json:"created_at"`
}

// CommitResponse represents a commit run in API responses
type CommitResponse struct {
	NothingToDo   bool                 `json:"nothing_to_do"`
	InvoiceNumber string               `json:"invoice_number,omitempty"`
	Summary       service.Summary      `json:"summary"`
	Batch         *entity.InvoiceBatch `json:"batch,omitempty"`
	InvoicedIDs   []string             `json:"invoiced_ids"`
	SkippedIDs    []string             `json:"skipped_ids"`
	RetryIDs      []string             `json:"retry_ids"`
}

// RetryRequest represents the body of a retry request
type RetryRequest struct {
	IDs []string `json:"ids"`
}

// RetryResponse represents a marking retry in API responses
type RetryResponse struct {
	MarkedIDs  []string `json:"marked_ids"`
	SkippedIDs []string `json:"skipped_ids"`
	RetryIDs   []string `json:"retry_ids"`
}

// BatchResponse represents a stored invoice batch in API responses
type BatchResponse struct {
	InvoiceNumber string         `json:"invoice_number"`
	IssuedAt      string         `json:"issued_at"`
	Status        string         `json:"status"`
	Payees        int            `json:"payees"`
	Tasks         int            `json:"tasks"`
	GrandTotal    float64        `json:"grand_total"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
	Lines         []LineResponse `json:"lines,omitempty"`
}

// LineResponse represents one payee line of a stored batch
type LineResponse struct {
	LegalName    string  `json:"legal_name"`
	WorkSummary  string  `json:"work_summary"`
	EvidenceText string  `json:"evidence_text"`
	TaskCount    int     `json:"task_count"`
	TotalAmount  float64 `json:"total_amount"`
}

// ListBatchesRequest represents query parameters for listing batches
type ListBatchesRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	if h.workers != nil {
		response.Workers = &WorkersHealth{
			Running: h.workers.Running(),
			Names:   h.workers.Names(),
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// PreviewRun handles POST /api/v1/runs/preview
func (h *Handlers) PreviewRun(c *gin.Context) {
	proposal, err := h.invoicing.Preview(c.Request.Context())
	if err != nil {
		h.logger.Error("Preview failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "preview failed: " + err.Error(),
		})
		return
	}

	response := PreviewResponse{
		NothingToDo: proposal.NothingToDo(),
		Summary:     proposal.Summary,
		Batch:       proposal.Batch,
		CreatedAt:   proposal.CreatedAt.Format(time.RFC3339),
	}
	if proposal.Batch != nil {
		response.InvoiceNumber = proposal.Batch.InvoiceNumber
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CommitRun handles POST /api/v1/runs/commit
func (h *Handlers) CommitRun(c *gin.Context) {
	result, err := h.invoicing.Commit(c.Request.Context())
	if err != nil {
		if errors.Is(err, port.ErrLockHeld) {
			c.JSON(http.StatusConflict, Response{
				Success: false,
				Error:   "another invoicing run is in progress",
			})
			return
		}
		h.logger.Error("Commit failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "commit failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toCommitResponse(result),
	})
}

// RetryMarking handles POST /api/v1/runs/retry
func (h *Handlers) RetryMarking(c *gin.Context) {
	var req RetryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid retry request", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "ids must not be empty",
		})
		return
	}

	result, err := h.invoicing.RetryMarking(c.Request.Context(), req.IDs)
	if err != nil {
		h.logger.Error("Retry marking failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "retry failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: RetryResponse{
			MarkedIDs:  result.MarkedIDs,
			SkippedIDs: result.SkippedIDs,
			RetryIDs:   result.RetryIDs,
		},
	})
}

// ListBatches handles GET /api/v1/batches
func (h *Handlers) ListBatches(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "invoice store not configured",
		})
		return
	}

	var req ListBatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	// Set defaults
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	batches, err := h.store.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("Failed to list batches", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve batches",
		})
		return
	}

	// Convert to response format
	responseBatches := make([]BatchResponse, 0, len(batches))
	for _, stored := range batches {
		responseBatches = append(responseBatches, toBatchResponse(stored, false))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    responseBatches,
	})
}

// GetBatch handles GET /api/v1/batches/:number
func (h *Handlers) GetBatch(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Error:   "invoice store not configured",
		})
		return
	}

	number := c.Param("number")
	if err := utils.ValidateInvoiceNumber(number); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	stored, err := h.store.Get(c.Request.Context(), number)
	if err != nil {
		h.logger.Error("Failed to get batch", "invoice_number", number, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve batch",
		})
		return
	}
	if stored == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "batch not found",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toBatchResponse(stored, true),
	})
}

// MarkPaid handles POST /api/v1/items/:id/mark-paid
func (h *Handlers) MarkPaid(c *gin.Context) {
	id := c.Param("id")
	if err := utils.ValidateItemID(id); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	if err := h.invoicing.MarkPaid(c.Request.Context(), id); err != nil {
		if errors.Is(err, port.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, Response{
				Success: false,
				Error:   "work item not found",
			})
			return
		}
		h.logger.Error("Mark paid failed", "item_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "mark paid failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"id": id, "paid_state": entity.PaidStatePaid},
	})
}

// toCommitResponse converts a commit result to API response
func toCommitResponse(result *service.CommitResult) CommitResponse {
	response := CommitResponse{
		NothingToDo: result.NothingToDo,
		Summary:     result.Summary,
		Batch:       result.Batch,
		InvoicedIDs: result.InvoicedIDs,
		SkippedIDs:  result.SkippedIDs,
		RetryIDs:    result.RetryIDs,
	}
	if result.Batch != nil {
		response.InvoiceNumber = result.Batch.InvoiceNumber
	}
	return response
}

// toBatchResponse converts a stored batch to API response
func toBatchResponse(stored *port.StoredBatch, includeLines bool) BatchResponse {
	batch := stored.Batch
	resp := BatchResponse{
		InvoiceNumber: batch.InvoiceNumber,
		IssuedAt:      batch.IssuedAt.Format(time.RFC3339),
		Status:        stored.Status,
		Payees:        len(batch.Lines),
		Tasks:         batch.TaskCount(),
		GrandTotal:    batch.GrandTotal(),
		CreatedAt:     stored.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     stored.UpdatedAt.Format(time.RFC3339),
	}

	if includeLines {
		lines := make([]LineResponse, 0, len(batch.Lines))
		for _, line := range batch.Lines {
			lines = append(lines, LineResponse{
				LegalName:    line.LegalName,
				WorkSummary:  line.WorkSummary,
				EvidenceText: line.EvidenceText,
				TaskCount:    line.TaskCount,
				TotalAmount:  line.TotalAmount,
			})
		}
		resp.Lines = lines
	}

	return resp
}
