package worker

// report_worker.go processes report jobs from QueueReport: build the
// reconciliation report for a freshly closed session, render it to PDF, and
// chain an email job for back-office delivery.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"poscore/internal/infra"
	"poscore/internal/service"
)

// ReportWorker renders and forwards reconciliation reports.
type ReportWorker struct {
	reports     service.ReportService
	dispatcher  *Dispatcher
	storagePath string
	reportEmail string
}

func NewReportWorker(reports service.ReportService, dispatcher *Dispatcher, storagePath, reportEmail string) *ReportWorker {
	return &ReportWorker{
		reports:     reports,
		dispatcher:  dispatcher,
		storagePath: storagePath,
		reportEmail: reportEmail,
	}
}

// Process builds the report and writes the PDF. Failures are logged and
// dropped; the session close this job came from already committed.
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return
	}

	report, err := w.reports.Build(ctx, payload.SessionID)
	if err != nil {
		log.Error().Err(err).
			Str("session_id", payload.SessionID.String()).
			Msg("report_worker: could not build report")
		return
	}

	pdfPath, err := infra.GenerateReportPDF(report, w.storagePath)
	if err != nil {
		log.Error().Err(err).
			Str("session_id", payload.SessionID.String()).
			Msg("report_worker: could not render PDF")
		return
	}
	log.Info().
		Str("session_id", payload.SessionID.String()).
		Str("pdf", pdfPath).
		Msg("report_worker: reconciliation report rendered")

	if w.reportEmail == "" {
		return
	}
	err = w.dispatcher.EnqueueEmail(ctx, EmailJobPayload{
		ToEmail: w.reportEmail,
		Subject: fmt.Sprintf("Cash session report %s", payload.SessionID),
		Body:    fmt.Sprintf("Reconciliation report for session %s is attached.", payload.SessionID),
		PDFPath: pdfPath,
	})
	if err != nil {
		log.Error().Err(err).
			Str("session_id", payload.SessionID.String()).
			Msg("report_worker: could not enqueue email job")
	}
}
