package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/helpers"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

const (
	DefaultPollInterval  = 2 * time.Second
	MaxPollInterval      = 10 * time.Second
	DefaultExportTimeout = 5 * time.Minute
	pollGrowth           = 1.2
)

// exportAPI is the upstream interface used by exportService.
type exportAPI interface {
	StartExport(ctx context.Context, format string, period dto.DashboardPeriod, fileID *int64) (dto.ExportJob, error)
	GetExportStatus(ctx context.Context, exportID string) (dto.ExportStatus, error)
}

// PollOptions tunes PollExportStatus. Zero values take the defaults.
type PollOptions struct {
	Interval   time.Duration
	Backoff    bool // grow the interval by 1.2x per attempt, capped at MaxPollInterval
	Timeout    time.Duration
	OnProgress func(dto.ExportStatus)
}

type exportService struct {
	api     exportAPI
	timeout time.Duration
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewExportService(api exportAPI, timeout time.Duration) *exportService {
	if timeout <= 0 {
		timeout = DefaultExportTimeout
	}
	return &exportService{
		api:     api,
		timeout: timeout,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func (s *exportService) StartExport(ctx context.Context, format string, period dto.DashboardPeriod, fileID *int64) (dto.ExportJob, error) {
	if !dto.ValidExportFormat(format) {
		return dto.ExportJob{}, errs.NewValidationError("unsupported export format: " + format)
	}
	job, err := s.api.StartExport(ctx, format, period, fileID)
	if err != nil {
		return dto.ExportJob{}, errs.ToDashboardError(err)
	}
	logger.FromContext(ctx).Info("export started", "export_id", job.ExportID, "format", format, "period", period)
	return job, nil
}

// PollExportStatus polls until the export reaches a terminal status or the
// timeout elapses. COMPLETED returns the final status; FAILED and CANCELLED
// return an ExportFailedError; the deadline returns an ExportTimeoutError.
// Transient polling failures are logged and polling continues.
func (s *exportService) PollExportStatus(ctx context.Context, exportID string, opts PollOptions) (dto.ExportStatus, error) {
	log := logger.FromContext(ctx).With("export_id", exportID)

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.timeout
	}

	start := s.now()
	for attempt := 1; ; attempt++ {
		if s.now().Sub(start) >= timeout {
			log.Warn("export polling timed out", "attempts", attempt-1, "timeout", timeout)
			return dto.ExportStatus{}, errs.NewExportTimeoutError(exportID, timeout)
		}

		st, err := s.api.GetExportStatus(ctx, exportID)
		if err != nil {
			if !transientPollError(err) {
				return dto.ExportStatus{}, errs.ToDashboardError(err)
			}
			log.Warn("export status poll failed", "attempt", attempt, "error", err)
		} else {
			switch st.Status {
			case dto.ExportCompleted:
				log.Info("export completed", "attempts", attempt)
				return st, nil
			case dto.ExportFailed:
				msg := helpers.Value(st.ErrorMessage)
				if msg == "" {
					msg = "export failed"
				}
				return st, errs.NewExportFailedError(exportID, st.Status, msg)
			case dto.ExportCancelled:
				return st, errs.NewExportFailedError(exportID, st.Status, "export cancelled")
			}
			if opts.OnProgress != nil {
				opts.OnProgress(st)
			}
		}

		if err := s.sleep(ctx, interval); err != nil {
			return dto.ExportStatus{}, err
		}
		if opts.Backoff {
			interval = time.Duration(float64(interval) * pollGrowth)
			if interval > MaxPollInterval {
				interval = MaxPollInterval
			}
		}
	}
}

// ExportAndWait starts an export and polls it to completion.
func (s *exportService) ExportAndWait(ctx context.Context, format string, period dto.DashboardPeriod, fileID *int64, opts PollOptions) (dto.ExportStatus, error) {
	job, err := s.StartExport(ctx, format, period, fileID)
	if err != nil {
		return dto.ExportStatus{}, err
	}
	return s.PollExportStatus(ctx, job.ExportID, opts)
}

// auth failures, missing exports and malformed payloads will not heal by polling again
func transientPollError(err error) bool {
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		return false
	}
	status := errs.HTTPStatus(err)
	return status == 0 || status >= 500 ||
		status == http.StatusTooManyRequests || status == http.StatusRequestTimeout
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
