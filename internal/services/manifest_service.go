package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/manifest"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Format is a manifest output format.
type Format string

// Supported manifest formats.
const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "pdf" and "xlsx" case-insensitively; empty means pdf.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// ManifestResult describes a generated manifest.
type ManifestResult struct {
	Filename    string
	ContentType string
	Pages       int
	Records     int
	ArchiveURL  string // empty when archiving is disabled or failed
}

// ManifestFilename returns the download name for date in format f.
func ManifestFilename(date time.Time, f Format) string {
	return fmt.Sprintf("manifiesto-%s.%s", domain.FormatDay(date), f)
}

// Manifest renders the manifest of date (zero date = today) in format and
// writes it to w. Nothing is written when the date has no records
// (ErrNoRecords). When an Archive is configured the finished document is also
// uploaded; archive failures are logged and do not fail the call.
func (s *ScanService) Manifest(ctx context.Context, date time.Time, format Format, w io.Writer) (*ManifestResult, error) {
	date = s.day(date)
	ctx, span := tracer().Start(ctx, "Manifest",
		trace.WithAttributes(
			attribute.String("scan.date", domain.FormatDay(date)),
			attribute.String("manifest.format", string(format)),
		),
	)
	defer span.End()

	surface, closeFn, err := newSurface(format)
	if err != nil {
		return nil, s.spanErr(ctx, span, err)
	}
	defer closeFn()

	l, err := s.ledgerFor(ctx, date)
	if err != nil {
		return nil, s.spanErr(ctx, span, err)
	}
	records := l.Records()
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	gen := s.Generator
	if gen == nil {
		gen = &manifest.Generator{}
	}
	var buf bytes.Buffer
	pages, err := gen.Write(surface, records, date, &buf)
	if err != nil {
		return nil, s.spanErr(ctx, span, fmt.Errorf("render manifest: %w", err))
	}
	if pages == 0 {
		return nil, ErrNoRecords
	}
	manifestPages.WithLabelValues(string(format)).Add(float64(pages))
	span.SetAttributes(attribute.Int("manifest.pages", pages), attribute.Int("manifest.records", len(records)))

	res := &ManifestResult{
		Filename:    ManifestFilename(date, format),
		ContentType: format.ContentType(),
		Pages:       pages,
		Records:     len(records),
	}
	if s.Archive != nil {
		url, err := s.Archive.Put(ctx, res.Filename, res.ContentType, buf.Bytes())
		if err != nil {
			logger(ctx).Warn().Err(err).Str("file", res.Filename).Msg("manifest archive failed")
		} else {
			res.ArchiveURL = url
		}
	}

	if _, err := buf.WriteTo(w); err != nil {
		return nil, s.spanErr(ctx, span, err)
	}
	return res, nil
}

func newSurface(f Format) (manifest.Surface, func(), error) {
	switch f {
	case FormatPDF, "":
		return manifest.NewPDFSurface(), func() {}, nil
	case FormatXLSX:
		x, err := manifest.NewXLSXSurface()
		if err != nil {
			return nil, nil, err
		}
		return x, func() { _ = x.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}
