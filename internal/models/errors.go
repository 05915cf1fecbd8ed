package models

import "fmt"

type ErrorKind string

const (
	ErrorKindParse         ErrorKind = "parse"
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindComputation   ErrorKind = "computation"
	ErrorKindPersistence   ErrorKind = "persistence"
	ErrorKindReferenceData ErrorKind = "reference_data"
)

// AppError is the document-granular error carried through a batch run. No
// single-document failure is allowed to abort the batch; each one becomes an
// AppError in the run's error list.
type AppError struct {
	Kind     ErrorKind
	Document string // "number/series" when known, otherwise the file path
	Message  string
	Err      error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Kind, e.Document, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Document, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
