package database

import (
	"github.com/google/uuid"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

const (
	FILE_STATUS_PROCESSING       = "PROCESSING"
	FILE_STATUS_DONE             = "DONE"
	FILE_STATUS_DONE_WITH_ERRORS = "DONE_WITH_ERRORS"
	FILE_STATUS_FATAL            = "FATAL"
)

// Manager is the persistence gateway contract. Document writes are one commit
// per document: an upsert on the (number, series) natural key plus insert-only
// child rows for items and tax assessments.
type Manager interface {
	CreateDocumentTables() error
	CreateFileRecordsTable() error

	SaveDocument(doc *models.FiscalDocument, replaceChildren bool) (int64, error)

	InsertFileRecord(fileName, checksum string, runID uuid.UUID) (int, error)
	UpdateFileStatus(fileID int, status string, errors any) error
	IsFileAlreadyProcessed(checksum string) (bool, error)

	CountByStatus() (map[models.Status]int, error)
	ListRejected(limit int) ([]models.DocumentOutcome, error)
}
