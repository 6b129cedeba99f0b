package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/intake"
	"github.com/tbourn/go-guias-backend/internal/ledger"
)

// BatchRequest is the JSON payload for admitting several codes at once.
type BatchRequest struct {
	Codigos []string `json:"codigos" binding:"required"`
	Fecha   string   `json:"fecha,omitempty" example:"2024-03-05"`
}

// BatchLine is the outcome of one code of a batch, in input order.
type BatchLine struct {
	Index  int                `json:"index"`
	Codigo string             `json:"codigo"`
	Record *domain.ScanRecord `json:"record,omitempty"`
	Error  *LineError         `json:"error,omitempty"`
}

// LineError describes why a batch line was rejected.
type LineError struct {
	Code       string `json:"code" example:"conflict"`
	Message    string `json:"message"`
	ExistingID uint   `json:"existing_id,omitempty"`
}

// BatchResponse summarizes a batch admission.
type BatchResponse struct {
	Fecha    string      `json:"fecha" example:"2024-03-05"`
	Admitted int         `json:"admitted"`
	Rejected int         `json:"rejected"`
	Results  []BatchLine `json:"results"`
}

// AdmitBatch godoc
// @ID          admitBatch
// @Summary     Admit several scanned codes
// @Description Accepts a JSON list of codes, or a text/plain scanner export (one code per line,
// @Description pipe tables and comma/semicolon separated rows allowed; `fecha` then comes from the query).
// @Description Lines are admitted in order; each line reports its own record or error.
// @Tags        Registros
// @Accept      json
// @Accept      plain
// @Produce     json
//
// @Param       fecha  query  string                 false "Working date for text/plain bodies"
// @Param       body   body   handlers.BatchRequest  true  "Codes"
//
// @Success     200  {object} handlers.BatchResponse
// @Failure     400  {object} handlers.ErrorResponse "Empty or malformed batch"
// @Failure     413  {object} handlers.ErrorResponse "Too many lines"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /registros/batch [post]
func (h *Handlers) AdmitBatch(c *gin.Context) {
	var (
		raws     []string
		rawDate  string
		parseErr error
	)
	if c.ContentType() == "text/plain" {
		raws, parseErr = intake.ParseLines(c.Request.Body)
		rawDate = c.Query("fecha")
	} else {
		var req BatchRequest
		parseErr = c.ShouldBindJSON(&req)
		raws, rawDate = req.Codigos, req.Fecha
	}
	if parseErr != nil {
		var mbe *http.MaxBytesError
		if errors.As(parseErr, &mbe) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeBatchTooLarge, "request body too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid batch body")
		return
	}
	date, okDate := h.workDate(c, rawDate)
	if !okDate {
		return
	}

	results, err := h.svc.AdmitBatch(c.Request.Context(), date, raws)
	if err != nil {
		failErr(c, err)
		return
	}

	resp := BatchResponse{Fecha: domain.FormatDay(date), Results: make([]BatchLine, 0, len(results))}
	for i, r := range results {
		line := BatchLine{Index: i, Codigo: r.Raw, Record: r.Record}
		if r.Err != nil {
			line.Error = lineError(r.Err)
			resp.Rejected++
		} else {
			resp.Admitted++
		}
		resp.Results = append(resp.Results, line)
	}
	ok(c, http.StatusOK, resp)
}

// lineError converts a per-line admission error into its wire form.
func lineError(err error) *LineError {
	_, code := classify(err)
	le := &LineError{Code: code, Message: err.Error()}
	var dup *ledger.DuplicateError
	if errors.As(err, &dup) {
		le.ExistingID = dup.ExistingID
	}
	return le
}
