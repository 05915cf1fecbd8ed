package ingestion

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/costadiogo/nf-processor-agent/internal/database"
	"github.com/costadiogo/nf-processor-agent/internal/models"
	"github.com/costadiogo/nf-processor-agent/pkg/checksum"
)

// Processor runs the document workflow for a parsed batch.
type Processor interface {
	ParseFile(state *models.ProcessingState, path string) (*models.FiscalDocument, error)
	Run(state *models.ProcessingState) *models.BatchSummary
}

type IngestionService struct {
	dbManager database.Manager
	pipeline  Processor
}

func NewIngestionService(dbManager database.Manager, pipeline Processor) *IngestionService {
	return &IngestionService{
		dbManager: dbManager,
		pipeline:  pipeline,
	}
}

// Execute orchestrates one batch run: scan the directory, register each new
// file, parse everything into a single batch, run the workflow over it and
// close out the file records with the per-file outcome. Files whose checksum
// already sits in a DONE record are skipped.
func (h *IngestionService) Execute(filesPath string) (*models.BatchSummary, error) {
	paths, err := ScanForFiles(filesPath)
	if err != nil {
		log.Printf("Failed to scan files: %v", err)
		return nil, err
	}

	state := models.NewProcessingState(filesPath)
	fileIDs := make(map[string]int)

	for _, path := range paths {
		fileName := filepath.Base(path)

		fileChecksum, err := checksum.GetFileChecksum(path)
		if err != nil {
			log.Printf("Failed to calculate checksum for %s: %v", fileName, err)
			state.AddError(models.ErrorKindParse, path, "failed to calculate checksum", err)
			continue
		}

		alreadyProcessed, err := h.dbManager.IsFileAlreadyProcessed(fileChecksum)
		if err != nil {
			return nil, fmt.Errorf("failed to check file record for %s: %w", fileName, err)
		}
		if alreadyProcessed {
			log.Printf("File %s already processed, skipping.", fileName)
			continue
		}

		fileID, err := h.dbManager.InsertFileRecord(fileName, fileChecksum, state.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert file record for %s: %w", fileName, err)
		}

		doc, err := h.pipeline.ParseFile(state, path)
		if err != nil {
			log.Printf("Failed to parse %s: %v", fileName, err)
			h.updateFileStatus(fileID, database.FILE_STATUS_FATAL, []string{err.Error()})
			continue
		}
		fileIDs[documentKey(doc)] = fileID
	}

	summary := h.pipeline.Run(state)

	errorsByDocument := make(map[string][]string)
	for _, appErr := range state.Errors {
		errorsByDocument[appErr.Document] = append(errorsByDocument[appErr.Document], appErr.Error())
	}

	for _, doc := range state.Documents {
		fileID, ok := fileIDs[documentKey(doc)]
		if !ok {
			continue
		}

		messages := errorsByDocument[documentKey(doc)]
		status := database.FILE_STATUS_DONE
		if len(messages) > 0 {
			status = database.FILE_STATUS_DONE_WITH_ERRORS
		}
		h.updateFileStatus(fileID, status, messages)
	}

	log.Printf("Batch %s finished: %d processed, %d authorized, %d rejected, %d failed",
		summary.RunID, summary.Processed, summary.Authorized, summary.Rejected, summary.Failed)
	return summary, nil
}

func (h *IngestionService) updateFileStatus(fileID int, status string, messages []string) {
	var errorsPayload any
	if len(messages) > 0 {
		errorsPayload = messages
	}

	if err := h.dbManager.UpdateFileStatus(fileID, status, errorsPayload); err != nil {
		log.Printf("Failed to update status for fileID %d: %v\n", fileID, err)
	}
}

func documentKey(doc *models.FiscalDocument) string {
	return doc.Number + "/" + doc.Series
}
