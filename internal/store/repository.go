/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract
 * for all data access operations required by the transactor service. By
 * defining an interface, we decouple the application's business logic from
 * the specific database implementation (e.g., PostgreSQL), making the code
 * more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pocomos/transactor/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Payment record methods
	CreatePaymentRecord(ctx context.Context, record *domain.PaymentRecord) error
	FindPaymentRecordByID(ctx context.Context, merchantID string, recordID uuid.UUID) (*domain.PaymentRecord, error)
	ListPaymentRecords(ctx context.Context, merchantID string, limit, offset int) ([]domain.PaymentRecord, error)

	// Vault account methods
	CreateVaultAccount(ctx context.Context, account *domain.VaultAccount) error
	FindVaultAccountByID(ctx context.Context, merchantID string, accountID uuid.UUID) (*domain.VaultAccount, error)
}
