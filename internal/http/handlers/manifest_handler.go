package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-guias-backend/internal/services"
)

// Response headers describing a generated manifest.
const (
	HeaderManifestPages   = "X-Manifest-Pages"
	HeaderManifestRecords = "X-Manifest-Records"
	HeaderManifestArchive = "X-Manifest-Archive"
)

// GetManifest godoc
// @ID          getManifest
// @Summary     Download the carrier manifest of a date
// @Description Renders the date's records grouped by carrier, one block of pages per carrier,
// @Description with a signature footer on every page. Returned as an attachment.
// @Tags        Manifiesto
// @Produce     application/pdf
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//
// @Param       fecha    query  string  false "Working date (YYYY-MM-DD), today when empty"  example(2024-03-05)
// @Param       formato  query  string  false "Document format"  Enums(pdf, xlsx) default(pdf)
//
// @Success     200  {file}   file  "Manifest document"
// @Header      200  {string} Content-Disposition  "attachment; filename=manifiesto-2024-03-05.pdf"
// @Header      200  {int}    X-Manifest-Pages     "Number of pages"
// @Failure     400  {object} handlers.ErrorResponse "Bad date or format"
// @Failure     404  {object} handlers.ErrorResponse "No records for this date"
// @Failure     503  {object} handlers.ErrorResponse "Store unavailable"
// @Router      /manifiesto [get]
func (h *Handlers) GetManifest(c *gin.Context) {
	format, err := services.ParseFormat(c.Query("formato"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidFormat, "formato must be pdf or xlsx")
		return
	}
	date, okDate := h.workDate(c, c.Query("fecha"))
	if !okDate {
		return
	}

	var buf bytes.Buffer
	res, err := h.svc.Manifest(c.Request.Context(), date, format, &buf)
	switch {
	case errors.Is(err, services.ErrNoRecords):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.ErrNoRecords.Error())
		return
	case err != nil:
		status, code := classify(err)
		if code == ErrCodeInternal {
			code = ErrCodeManifestFailed
		}
		fail(c, status, code, err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Filename))
	c.Header(HeaderManifestPages, strconv.Itoa(res.Pages))
	c.Header(HeaderManifestRecords, strconv.Itoa(res.Records))
	if res.ArchiveURL != "" {
		c.Header(HeaderManifestArchive, res.ArchiveURL)
	}
	c.Data(http.StatusOK, res.ContentType, buf.Bytes())
}
