package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/costadiogo/nf-processor-agent/internal/models"
)

func ConnectDB(connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	return dbpool, nil
}

type PostgresStore struct {
	dbpool *pgxpool.Pool
	ctx    context.Context
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{dbpool: pool, ctx: ctx}
}

func (s *PostgresStore) CreateDocumentTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS fiscal_documents (
			id BIGSERIAL PRIMARY KEY,
			number VARCHAR(9) NOT NULL,
			series VARCHAR(3) NOT NULL,
			document_type VARCHAR(10) NOT NULL,
			classification VARCHAR(20) NOT NULL,
			cfop VARCHAR(4),
			nature_of_operation VARCHAR(60),
			special_tax_code VARCHAR(10),
			total_value NUMERIC(18, 2),
			issuer_tax_id VARCHAR(14),
			issuer_tax_regime VARCHAR(2),
			uf VARCHAR(2),
			buyer_cnpj VARCHAR(14),
			buyer_cpf VARCHAR(11),
			status VARCHAR(30) NOT NULL DEFAULT 'Pendente',
			error_message TEXT,
			authorization_key VARCHAR(44),
			protocol_number VARCHAR(15),
			authorized_at TIMESTAMP,
			issued_at TIMESTAMP,
			processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (number, series)
		);`,
		`CREATE TABLE IF NOT EXISTS document_items (
			id BIGSERIAL PRIMARY KEY,
			document_id BIGINT NOT NULL REFERENCES fiscal_documents(id) ON DELETE CASCADE,
			code VARCHAR(60) NOT NULL,
			description TEXT NOT NULL,
			quantity NUMERIC(18, 4) NOT NULL,
			unit_value NUMERIC(18, 2) NOT NULL,
			total_value NUMERIC(18, 2) NOT NULL,
			classification VARCHAR(20),
			ncm VARCHAR(8),
			cfop VARCHAR(4)
		);`,
		`CREATE TABLE IF NOT EXISTS document_taxes (
			id BIGSERIAL PRIMARY KEY,
			document_id BIGINT NOT NULL REFERENCES fiscal_documents(id) ON DELETE CASCADE,
			tax_type VARCHAR(10) NOT NULL,
			rate NUMERIC(8, 4) NOT NULL,
			base NUMERIC(18, 2) NOT NULL,
			amount NUMERIC(18, 2) NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_fiscal_documents_status ON fiscal_documents(status);`,
		`CREATE INDEX IF NOT EXISTS idx_fiscal_documents_issued_at ON fiscal_documents(issued_at);`,
	}

	for _, query := range queries {
		if _, err := s.dbpool.Exec(s.ctx, query); err != nil {
			return fmt.Errorf("error creating document tables: %v", err)
		}
	}

	return nil
}

func (s *PostgresStore) CreateFileRecordsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS file_records (
		id SERIAL PRIMARY KEY,
		file_name VARCHAR(255) NOT NULL,
		processed_at TIMESTAMP NOT NULL,
		status VARCHAR(50) NOT NULL CHECK (status IN ('DONE', 'DONE_WITH_ERRORS', 'PROCESSING', 'FATAL')),
		checksum VARCHAR(64),
		run_id UUID,
		errors jsonb
	);`

	_, err := s.dbpool.Exec(s.ctx, query)
	if err != nil {
		return fmt.Errorf("error creating file_records table: %v", err)
	}

	return nil
}

// SaveDocument writes one document and its children in a single transaction.
// The document row is upserted on (number, series); items and taxes are
// insert-only unless replaceChildren requests the delete-then-insert cleanup.
func (s *PostgresStore) SaveDocument(doc *models.FiscalDocument, replaceChildren bool) (int64, error) {
	tx, err := s.dbpool.Begin(s.ctx)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %v", err)
	}
	defer tx.Rollback(s.ctx)

	upsert := `
	INSERT INTO fiscal_documents (
		number, series, document_type, classification, cfop, nature_of_operation,
		special_tax_code, total_value, issuer_tax_id, issuer_tax_regime, uf,
		buyer_cnpj, buyer_cpf, status, error_message, authorization_key,
		protocol_number, authorized_at, issued_at, processed_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (number, series) DO UPDATE SET
		document_type = EXCLUDED.document_type,
		classification = EXCLUDED.classification,
		cfop = EXCLUDED.cfop,
		nature_of_operation = EXCLUDED.nature_of_operation,
		special_tax_code = EXCLUDED.special_tax_code,
		total_value = EXCLUDED.total_value,
		issuer_tax_id = EXCLUDED.issuer_tax_id,
		issuer_tax_regime = EXCLUDED.issuer_tax_regime,
		uf = EXCLUDED.uf,
		buyer_cnpj = EXCLUDED.buyer_cnpj,
		buyer_cpf = EXCLUDED.buyer_cpf,
		status = EXCLUDED.status,
		error_message = EXCLUDED.error_message,
		authorization_key = EXCLUDED.authorization_key,
		protocol_number = EXCLUDED.protocol_number,
		authorized_at = EXCLUDED.authorized_at,
		issued_at = EXCLUDED.issued_at,
		processed_at = EXCLUDED.processed_at
	RETURNING id;`

	var docID int64
	err = tx.QueryRow(s.ctx, upsert,
		doc.Number, doc.Series, doc.DocumentType, doc.Classification, nullable(doc.CFOP),
		nullable(doc.NatureOfOperation), nullable(doc.SpecialTaxCode), doc.TotalValue,
		nullable(doc.IssuerTaxID), nullable(doc.IssuerTaxRegime), nullable(doc.UF),
		nullable(doc.BuyerCNPJ), nullable(doc.BuyerCPF), doc.Status, nullable(doc.ErrorMessage),
		nullable(doc.AuthorizationKey), nullable(doc.ProtocolNumber), doc.AuthorizedAt,
		doc.IssuedAt, doc.ProcessedAt,
	).Scan(&docID)
	if err != nil {
		return 0, fmt.Errorf("error upserting document %s/%s: %v", doc.Number, doc.Series, err)
	}

	if replaceChildren {
		for _, query := range []string{
			`DELETE FROM document_items WHERE document_id = $1;`,
			`DELETE FROM document_taxes WHERE document_id = $1;`,
		} {
			if _, err := tx.Exec(s.ctx, query, docID); err != nil {
				return 0, fmt.Errorf("error deleting children for document %d: %v", docID, err)
			}
		}
	}

	for _, item := range doc.Items {
		_, err := tx.Exec(s.ctx, `
		INSERT INTO document_items (document_id, code, description, quantity, unit_value, total_value, classification, ncm, cfop)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
			docID, item.Code, item.Description, item.Quantity, item.UnitValue,
			item.TotalValue, item.Classification, nullable(item.NCM), nullable(item.CFOP),
		)
		if err != nil {
			return 0, fmt.Errorf("error inserting item %s for document %d: %v", item.Code, docID, err)
		}
	}

	for _, tax := range doc.Taxes {
		_, err := tx.Exec(s.ctx, `
		INSERT INTO document_taxes (document_id, tax_type, rate, base, amount)
		VALUES ($1, $2, $3, $4, $5);`,
			docID, tax.TaxType, tax.Rate, tax.Base, tax.Amount,
		)
		if err != nil {
			return 0, fmt.Errorf("error inserting %s assessment for document %d: %v", tax.TaxType, docID, err)
		}
	}

	if err := tx.Commit(s.ctx); err != nil {
		return 0, fmt.Errorf("error committing transaction: %v", err)
	}

	return docID, nil
}

func (s *PostgresStore) InsertFileRecord(fileName, checksum string, runID uuid.UUID) (int, error) {
	query := `
	INSERT INTO file_records (file_name, processed_at, status, checksum, run_id)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id;`

	var fileID int
	err := s.dbpool.QueryRow(s.ctx, query, fileName, time.Now(), FILE_STATUS_PROCESSING, checksum, runID).Scan(&fileID)
	if err != nil {
		return 0, fmt.Errorf("error inserting file record: %v", err)
	}

	return fileID, nil
}

func (s *PostgresStore) UpdateFileStatus(fileID int, status string, errors any) error {
	query := `
	UPDATE file_records
	SET status = $1,
		errors = $2
	WHERE id = $3;`

	_, err := s.dbpool.Exec(s.ctx, query, status, errors, fileID)
	if err != nil {
		return fmt.Errorf("error updating file status: %v", err)
	}

	return nil
}

func (s *PostgresStore) IsFileAlreadyProcessed(checksum string) (bool, error) {
	query := `
	SELECT id
	FROM file_records
	WHERE checksum = $1 AND status = 'DONE';`

	var id int

	err := s.dbpool.QueryRow(s.ctx, query, checksum).Scan(&id)

	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error finding file record by checksum: %v", err)
	}

	return true, nil
}

func (s *PostgresStore) CountByStatus() (map[models.Status]int, error) {
	query := `
	SELECT status, COUNT(*)
	FROM fiscal_documents
	GROUP BY status;`

	rows, err := s.dbpool.Query(s.ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying status counts: %v", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("error scanning status count: %v", err)
		}
		counts[models.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading status counts: %v", err)
	}

	return counts, nil
}

func (s *PostgresStore) ListRejected(limit int) ([]models.DocumentOutcome, error) {
	query := `
	SELECT number, series, status, COALESCE(error_message, '')
	FROM fiscal_documents
	WHERE status IN ($1, $2)
	ORDER BY processed_at DESC
	LIMIT $3;`

	rows, err := s.dbpool.Query(s.ctx, query, models.StatusRejected, models.StatusRejectedByAuthority, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying rejected documents: %v", err)
	}
	defer rows.Close()

	var outcomes []models.DocumentOutcome
	for rows.Next() {
		var outcome models.DocumentOutcome
		var status string
		if err := rows.Scan(&outcome.Number, &outcome.Series, &status, &outcome.Reason); err != nil {
			return nil, fmt.Errorf("error scanning rejected document: %v", err)
		}
		outcome.Status = models.Status(status)
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading rejected documents: %v", err)
	}

	return outcomes, nil
}

// nullable maps empty strings onto SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
