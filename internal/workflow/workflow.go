// Package workflow drives a batch of fiscal documents through the processing
// stages: type identification and parsing, flat-rate tax computation, rule
// validation, the submission decision, simulated authority submission and
// persistence. Stages only move forward; a document that fails a stage keeps
// its rejection and skips submission, but never aborts the batch.
package workflow

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/costadiogo/nf-processor-agent/internal/authority"
	"github.com/costadiogo/nf-processor-agent/internal/config"
	"github.com/costadiogo/nf-processor-agent/internal/database"
	"github.com/costadiogo/nf-processor-agent/internal/models"
	"github.com/costadiogo/nf-processor-agent/internal/parser"
	"github.com/costadiogo/nf-processor-agent/internal/taxes"
	"github.com/costadiogo/nf-processor-agent/internal/validation"
)

// Share of submitted documents the simulator rejects when rejection
// simulation is turned on.
const rejectionRate = 0.15

// Validator checks a document against the fiscal rule tables.
type Validator interface {
	Validate(doc *models.FiscalDocument) validation.Result
}

// Submitter is the authority endpoint the decision stage routes approved
// documents to.
type Submitter interface {
	Authorize(doc *models.FiscalDocument) authority.Response
	Reject() authority.Response
}

// Advisor contributes extra advisory notes after rule validation. Its notes
// are warnings only and can never reject a document.
type Advisor interface {
	Advise(doc *models.FiscalDocument) []string
}

type stage int

const (
	stageComputeTaxes stage = iota
	stageValidate
	stageDecide
	stageSubmit
	stagePersist
	stageDone
)

type Pipeline struct {
	validator Validator
	submitter Submitter
	dbManager database.Manager
	advisor   Advisor
	policy    config.Policy
	rng       *rand.Rand
	now       func() time.Time
}

func New(validator Validator, submitter Submitter, dbManager database.Manager, advisor Advisor, policy config.Policy) *Pipeline {
	return NewWith(validator, submitter, dbManager, advisor, policy,
		rand.New(rand.NewSource(time.Now().UnixNano())), time.Now)
}

func NewWith(validator Validator, submitter Submitter, dbManager database.Manager, advisor Advisor, policy config.Policy, rng *rand.Rand, now func() time.Time) *Pipeline {
	return &Pipeline{
		validator: validator,
		submitter: submitter,
		dbManager: dbManager,
		advisor:   advisor,
		policy:    policy,
		rng:       rng,
		now:       now,
	}
}

// ParseFile runs the identification and parsing stages for one input file and
// appends the resulting document to the batch. A file that cannot be parsed
// becomes a parse error on the batch; the rest of the batch keeps going.
func (p *Pipeline) ParseFile(state *models.ProcessingState, path string) (*models.FiscalDocument, error) {
	record, err := parser.ReadFile(path)
	if err != nil {
		state.AddError(models.ErrorKindParse, path, "failed to read document", err)
		return nil, err
	}

	docType, explicit := record.TypeHint()
	if !explicit {
		log.Printf("Document %s/%s has no type marker, treating it as %s", record.Number, record.Series, docType)
	}

	doc := record.ToDocument(docType)
	state.Documents = append(state.Documents, doc)
	return doc, nil
}

// Run takes a parsed batch through the remaining stages and reports the
// outcome of every document.
func (p *Pipeline) Run(state *models.ProcessingState) *models.BatchSummary {
	current := stageComputeTaxes
	for current != stageDone {
		switch current {
		case stageComputeTaxes:
			p.computeTaxes(state)
			current = stageValidate
		case stageValidate:
			p.validate(state)
			current = stageDecide
		case stageDecide:
			if p.shouldSubmit(state) {
				current = stageSubmit
			} else {
				current = stagePersist
			}
		case stageSubmit:
			p.submit(state)
			current = stagePersist
		case stagePersist:
			p.persist(state)
			current = stageDone
		}
	}

	return p.summarize(state)
}

func (p *Pipeline) computeTaxes(state *models.ProcessingState) {
	for _, doc := range state.Documents {
		if doc.Status != models.StatusPending {
			continue
		}

		assessments, err := taxes.Calculate(doc)
		if err != nil {
			// Recorded only; the document moves on without tax rows.
			log.Printf("Tax computation failed for %s: %v", documentKey(doc), err)
			state.AddError(models.ErrorKindComputation, documentKey(doc), "tax computation failed", err)
			continue
		}
		doc.Taxes = assessments
	}
}

func (p *Pipeline) validate(state *models.ProcessingState) {
	for _, doc := range state.Documents {
		if doc.Status != models.StatusPending {
			continue
		}

		result := p.validator.Validate(doc)
		doc.AdvisoryWarnings = append(doc.AdvisoryWarnings, result.Warnings...)
		if p.advisor != nil {
			doc.AdvisoryWarnings = append(doc.AdvisoryWarnings, p.advisor.Advise(doc)...)
		}

		if !result.Valid {
			doc.Status = models.StatusRejected
			doc.ErrorMessage = result.Message()
			state.AddError(models.ErrorKindValidation, documentKey(doc), result.Message(), nil)
			continue
		}
		doc.Status = models.StatusApproved
	}
}

// shouldSubmit routes the submission decision. Under the batch policy a
// single rejected document keeps every document away from the authority; the
// per-document policy submits whatever was individually approved.
func (p *Pipeline) shouldSubmit(state *models.ProcessingState) bool {
	if p.policy.DecisionPolicy == config.DecisionPolicyBatch && state.HasRejected() {
		log.Printf("Batch %s has rejected documents, skipping submission for the whole batch", state.RunID)
		return false
	}

	for _, doc := range state.Documents {
		if doc.Status == models.StatusApproved {
			return true
		}
	}
	return false
}

func (p *Pipeline) submit(state *models.ProcessingState) {
	for _, doc := range state.Documents {
		if doc.Status != models.StatusApproved {
			continue
		}

		var response authority.Response
		if p.policy.SimulateRejections && p.rng.Float64() < rejectionRate {
			response = p.submitter.Reject()
		} else {
			response = p.submitter.Authorize(doc)
		}

		if response.Authorized() {
			doc.Status = models.StatusAuthorized
			doc.AuthorizationKey = response.AccessKey
			doc.ProtocolNumber = response.ProtocolNumber
			receivedAt := response.ReceivedAt
			doc.AuthorizedAt = &receivedAt
			continue
		}

		doc.Status = models.StatusRejectedByAuthority
		doc.ErrorMessage = fmt.Sprintf("%s: %s", response.StatusCode, response.Reason)
	}
}

func (p *Pipeline) persist(state *models.ProcessingState) {
	for _, doc := range state.Documents {
		doc.ProcessedAt = p.now()

		if _, err := p.dbManager.SaveDocument(doc, p.policy.DeleteChildrenOnReprocess); err != nil {
			log.Printf("Failed to save document %s: %v", documentKey(doc), err)
			state.AddError(models.ErrorKindPersistence, documentKey(doc), "failed to save document", err)
		}
	}
}

func (p *Pipeline) summarize(state *models.ProcessingState) *models.BatchSummary {
	summary := &models.BatchSummary{
		RunID:     state.RunID,
		Processed: len(state.Documents),
	}

	for _, doc := range state.Documents {
		switch doc.Status {
		case models.StatusAuthorized:
			summary.Authorized++
		case models.StatusRejected, models.StatusRejectedByAuthority:
			summary.Rejected++
		}
		summary.Outcomes = append(summary.Outcomes, models.DocumentOutcome{
			Number: doc.Number,
			Series: doc.Series,
			Status: doc.Status,
			Reason: doc.ErrorMessage,
		})
	}

	for _, appErr := range state.Errors {
		if appErr.Kind == models.ErrorKindParse || appErr.Kind == models.ErrorKindPersistence {
			summary.Failed++
		}
	}

	return summary
}

func documentKey(doc *models.FiscalDocument) string {
	return doc.Number + "/" + doc.Series
}
