package dto

// Export formats accepted by the upstream export endpoint.
const (
	ExportPDF   = "pdf"
	ExportExcel = "excel"
	ExportCSV   = "csv"
)

// Export status values
const (
	ExportPending    = "PENDING"
	ExportProcessing = "PROCESSING"
	ExportCompleted  = "COMPLETED"
	ExportFailed     = "FAILED"
	ExportCancelled  = "CANCELLED"
)

type ExportJob struct {
	ExportID string `json:"export_id"`
	Status   string `json:"status"`
}

type ExportStatus struct {
	ExportID           string   `json:"export_id,omitempty"`
	Status             string   `json:"status"`
	ProgressPercentage *float64 `json:"progress_percentage,omitempty"`
	CurrentStep        *string  `json:"current_step,omitempty"`
	ErrorMessage       *string  `json:"error_message,omitempty"`
	DownloadURL        *string  `json:"download_url,omitempty"`
}

// Terminal reports whether no further status changes are expected.
func (s ExportStatus) Terminal() bool {
	switch s.Status {
	case ExportCompleted, ExportFailed, ExportCancelled:
		return true
	}
	return false
}

func ValidExportFormat(format string) bool {
	switch format {
	case ExportPDF, ExportExcel, ExportCSV:
		return true
	}
	return false
}
