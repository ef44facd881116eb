/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains the SQL queries for the payment_records and
 * vault_accounts tables. The gateway diagnostic bags are stored as JSONB.
 *
 * @dependencies
 * - context, encoding/json, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pocomos/transactor/internal/domain"
)

var (
	ErrPaymentRecordNotFound = errors.New("payment record not found")
	ErrVaultAccountNotFound  = errors.New("vault account not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreatePaymentRecord inserts the outcome of a processed transaction.
func (r *PostgresRepository) CreatePaymentRecord(ctx context.Context, record *domain.PaymentRecord) error {
	requestData, err := json.Marshal(record.RequestData)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}
	responseData, err := json.Marshal(record.ResponseData)
	if err != nil {
		return fmt.Errorf("failed to marshal response data: %w", err)
	}

	query := `
		INSERT INTO payment_records
			(id, merchant_id, type, network, amount, status, message, external_id, parent_id, account_id, request_data, response_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = r.db.Exec(ctx, query,
		record.ID, record.MerchantID, record.Type, record.Network, record.Amount,
		record.Status, record.Message, record.ExternalID, record.ParentID, record.AccountID,
		requestData, responseData, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment record: %w", err)
	}
	return nil
}

// FindPaymentRecordByID retrieves a payment record scoped to a merchant.
func (r *PostgresRepository) FindPaymentRecordByID(ctx context.Context, merchantID string, recordID uuid.UUID) (*domain.PaymentRecord, error) {
	query := `
		SELECT id, merchant_id, type, network, amount, status, message, external_id, parent_id, account_id, request_data, response_data, created_at
		FROM payment_records
		WHERE id = $1 AND merchant_id = $2`
	return r.scanPaymentRecord(r.db.QueryRow(ctx, query, recordID, merchantID))
}

// ListPaymentRecords returns a merchant's payment records, newest first.
func (r *PostgresRepository) ListPaymentRecords(ctx context.Context, merchantID string, limit, offset int) ([]domain.PaymentRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, merchant_id, type, network, amount, status, message, external_id, parent_id, account_id, request_data, response_data, created_at
		FROM payment_records
		WHERE merchant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, merchantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	defer rows.Close()

	var records []domain.PaymentRecord
	for rows.Next() {
		record, err := r.scanPaymentRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scanPaymentRecord(row rowScanner) (*domain.PaymentRecord, error) {
	var record domain.PaymentRecord
	var requestData, responseData []byte
	err := row.Scan(
		&record.ID, &record.MerchantID, &record.Type, &record.Network, &record.Amount,
		&record.Status, &record.Message, &record.ExternalID, &record.ParentID, &record.AccountID,
		&requestData, &responseData, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentRecordNotFound
		}
		return nil, err
	}
	if len(requestData) > 0 {
		if err := json.Unmarshal(requestData, &record.RequestData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request data: %w", err)
		}
	}
	if len(responseData) > 0 {
		if err := json.Unmarshal(responseData, &record.ResponseData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}
	return &record, nil
}

// CreateVaultAccount inserts a tokenized payment method reference.
func (r *PostgresRepository) CreateVaultAccount(ctx context.Context, account *domain.VaultAccount) error {
	query := `
		INSERT INTO vault_accounts
			(id, merchant_id, network, holder_name, masked_number, token, tokenized_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, query,
		account.ID, account.MerchantID, account.Network, account.HolderName,
		account.MaskedNumber, account.Token, account.TokenizedAt, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vault account: %w", err)
	}
	return nil
}

// FindVaultAccountByID retrieves a vault account scoped to a merchant.
func (r *PostgresRepository) FindVaultAccountByID(ctx context.Context, merchantID string, accountID uuid.UUID) (*domain.VaultAccount, error) {
	var account domain.VaultAccount
	query := `
		SELECT id, merchant_id, network, holder_name, masked_number, token, tokenized_at, created_at
		FROM vault_accounts
		WHERE id = $1 AND merchant_id = $2`
	err := r.db.QueryRow(ctx, query, accountID, merchantID).Scan(
		&account.ID, &account.MerchantID, &account.Network, &account.HolderName,
		&account.MaskedNumber, &account.Token, &account.TokenizedAt, &account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVaultAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}
