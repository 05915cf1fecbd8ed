package models

import "github.com/google/uuid"

// ProcessingState carries a batch of documents through the workflow. It is
// created at pipeline start, mutated by every stage and discarded after
// persistence; nothing in it is stored directly.
type ProcessingState struct {
	RunID     uuid.UUID
	FilePath  string
	Documents []*FiscalDocument
	Errors    []AppError
}

func NewProcessingState(filePath string) *ProcessingState {
	return &ProcessingState{
		RunID:    uuid.New(),
		FilePath: filePath,
	}
}

func (s *ProcessingState) AddError(kind ErrorKind, document, message string, err error) {
	s.Errors = append(s.Errors, AppError{Kind: kind, Document: document, Message: message, Err: err})
}

// HasRejected reports whether any document in the batch failed fiscal
// validation. The decision stage routes the whole batch on this.
func (s *ProcessingState) HasRejected() bool {
	for _, doc := range s.Documents {
		if doc.Status == StatusRejected {
			return true
		}
	}
	return false
}

// BatchSummary is the user-facing outcome of one batch run.
type BatchSummary struct {
	RunID      uuid.UUID
	Processed  int
	Authorized int
	Rejected   int
	Failed     int
	Outcomes   []DocumentOutcome
}

type DocumentOutcome struct {
	Number string
	Series string
	Status Status
	Reason string
}
