package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/verigate/verigate/internal/adapter/ws"
	"github.com/verigate/verigate/internal/domain/verification"
	"github.com/verigate/verigate/internal/resilience"
	"github.com/verigate/verigate/internal/service"
)

// maxUploadSize bounds a single document upload.
const maxUploadSize = 10 << 20 // 10 MB

// Handlers holds all HTTP handler dependencies.
type Handlers struct {
	ingest  *service.IngestService
	review  *service.ReviewService
	hub     *ws.Hub
	breaker *resilience.Breaker
}

// NewHandlers creates the handler set. hub and breaker may be nil.
func NewHandlers(ingest *service.IngestService, review *service.ReviewService, hub *ws.Hub, breaker *resilience.Breaker) *Handlers {
	return &Handlers{
		ingest:  ingest,
		review:  review,
		hub:     hub,
		breaker: breaker,
	}
}

// VerifyDocument accepts a multipart document upload, scores it, and returns
// the routed case.
func (h *Handlers) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	doc, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if len(doc) == 0 {
		writeError(w, http.StatusBadRequest, "uploaded file is empty")
		return
	}
	if !allowedDocumentType(doc) {
		writeError(w, http.StatusUnsupportedMediaType, "only PDF, JPEG and PNG documents are accepted")
		return
	}

	c, err := h.ingest.Ingest(r.Context(), header.Filename, doc)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// allowedDocumentType sniffs the payload and accepts the scanner output
// formats only. The client-supplied Content-Type header is not trusted.
func allowedDocumentType(doc []byte) bool {
	switch http.DetectContentType(doc) {
	case "application/pdf", "image/jpeg", "image/png":
		return true
	}
	return false
}

// ScoringHealth reports reachability of the scoring engine and the state of
// its circuit breaker.
func (h *Handlers) ScoringHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"engine": "ok"}
	if h.breaker != nil {
		resp["breaker"] = string(h.breaker.State())
	}

	if err := h.ingest.EngineHealth(r.Context()); err != nil {
		resp["engine"] = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// queueResponse wraps the pending snapshot with its count.
type queueResponse struct {
	Count int                 `json:"count"`
	Cases []verification.Case `json:"cases"`
}

// ListQueue returns a snapshot of the review queue in working order.
func (h *Handlers) ListQueue(w http.ResponseWriter, r *http.Request) {
	cases := h.review.PendingCases(r.Context())
	if cases == nil {
		cases = []verification.Case{}
	}
	writeJSON(w, http.StatusOK, queueResponse{Count: len(cases), Cases: cases})
}

// GetCase returns a single case, pending or terminal.
func (h *Handlers) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.review.GetCase(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type decisionRequest struct {
	VerifierID string `json:"verifier_id"`
	Remarks    string `json:"remarks"`
}

// ApproveCase finalizes a pending case as approved.
func (h *Handlers) ApproveCase(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, verification.OutcomeApprove)
}

// RejectCase finalizes a pending case as rejected.
func (h *Handlers) RejectCase(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, verification.OutcomeReject)
}

func (h *Handlers) decide(w http.ResponseWriter, r *http.Request, outcome verification.Outcome) {
	req, ok := readJSON[decisionRequest](w, r)
	if !ok {
		return
	}

	c, err := h.review.Decide(r.Context(), urlParam(r, "id"), req.VerifierID, outcome, req.Remarks)
	if err != nil {
		writeDomainError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CaseAudit returns the full audit trail of one case, oldest first.
func (h *Handlers) CaseAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.review.AuditTrail(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "case not found")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// RecentAudit returns the most recent audit entries across all cases.
func (h *Handlers) RecentAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := h.review.RecentAudit(r.Context(), limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Health is the service liveness endpoint.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"queue_length": h.review.QueueLength(),
	})
}

// HandleWS upgrades to a WebSocket for queue-change notifications.
func (h *Handlers) HandleWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, http.StatusNotImplemented, "websocket notifications are not enabled")
		return
	}
	h.hub.HandleWS(w, r)
}
