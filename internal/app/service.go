/**
 * @description
 * This file contains the core business logic for the transactor service. The
 * `Service` struct bridges the HTTP API and the transactor core: it maps
 * charge requests onto core transactions, selects the right transactor for
 * the requested network, rehydrates parent transactions from the store for
 * follow-up operations, persists the redacted outcome, adopts newly issued
 * vault tokens, and publishes payment events to RabbitMQ.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/transactor, pkg/rabbitmq: Core processing and event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pocomos/transactor/internal/domain"
	"github.com/pocomos/transactor/internal/store"
	"github.com/pocomos/transactor/pkg/rabbitmq"
	"github.com/pocomos/transactor/pkg/transactor"
)

var (
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrUnknownNetwork         = errors.New("unknown network")
	ErrNoTransactorForNetwork = errors.New("no transactor is configured for this network")
	ErrParentNotSettled       = errors.New("parent transaction has no gateway id")
	ErrAmountNegative         = errors.New("amount must not be negative")
	ErrAccountPayloadMissing  = errors.New("a card or bank account payload is required")
	ErrIdempotencyInFlight    = errors.New("a charge with this idempotency key is still being processed")
)

// TokenizationRejectedError reports a gateway that declined to vault an
// account.
type TokenizationRejectedError struct {
	Message string
}

func (e *TokenizationRejectedError) Error() string {
	return fmt.Sprintf("gateway rejected tokenization: %s", e.Message)
}

// GatewayCredentials is the merchant credential pair forwarded to the
// gateway on every call.
type GatewayCredentials struct {
	Username string
	Password string
}

// Service provides the core business logic for processing charges.
type Service struct {
	repo        store.Repository
	registry    map[transactor.NetworkType]*transactor.Transactor
	credentials GatewayCredentials
	producer    rabbitmq.Publisher
	postURL     string
	idempotency IdempotencyGuard
	idemTTL     time.Duration
}

// NewService creates a new transactor service instance. The registry maps
// each network to the transactor that processes it.
func NewService(
	repo store.Repository,
	registry map[transactor.NetworkType]*transactor.Transactor,
	credentials GatewayCredentials,
	producer rabbitmq.Publisher,
) *Service {
	return &Service{
		repo:        repo,
		registry:    registry,
		credentials: credentials,
		producer:    producer,
	}
}

// SetGatewayPostURL overrides the gateways' default endpoint for every call
// made through this service. A per-request post_url option still wins.
func (s *Service) SetGatewayPostURL(postURL string) {
	s.postURL = postURL
}

// SetIdempotencyGuard enables Idempotency-Key deduplication for charges.
func (s *Service) SetIdempotencyGuard(guard IdempotencyGuard, ttl time.Duration) {
	s.idempotency = guard
	s.idemTTL = ttl
}

// ProcessCharge handles a charge request end to end and returns the
// persisted record. Declined and Error outcomes are normal records, not
// errors; the returned error covers requests that never reached processing.
func (s *Service) ProcessCharge(ctx context.Context, merchantID, idempotencyKey string, req domain.ChargeRequest) (*domain.PaymentRecord, error) {
	txType, ok := transactor.ParseTransactionType(req.Type)
	if !ok {
		return nil, ErrUnknownTransactionType
	}
	network, ok := transactor.ParseNetworkType(req.Network)
	if !ok {
		return nil, ErrUnknownNetwork
	}
	if req.Amount < 0 {
		return nil, ErrAmountNegative
	}

	tr, ok := s.registry[network]
	if !ok {
		return nil, ErrNoTransactorForNetwork
	}

	recordID := uuid.New()
	claimHeld := false
	if s.idempotency != nil && idempotencyKey != "" {
		existingID, claimed, err := s.idempotency.Claim(ctx, merchantID, idempotencyKey, recordID.String(), s.idemTTL)
		if err != nil {
			log.Printf("level=warn component=app msg=\"idempotency claim failed; proceeding without dedup\" err=%v", err)
		} else if !claimed {
			priorID, err := uuid.Parse(existingID)
			if err != nil {
				return nil, fmt.Errorf("idempotency key maps to invalid record id %q", existingID)
			}
			prior, err := s.repo.FindPaymentRecordByID(ctx, merchantID, priorID)
			if errors.Is(err, store.ErrPaymentRecordNotFound) {
				// The claim exists but its record has not landed yet: the
				// original request is still in flight.
				return nil, ErrIdempotencyInFlight
			}
			return prior, err
		} else {
			claimHeld = true
		}
	}
	// A claim that never produced a persisted record must not block a
	// retry for the whole TTL.
	defer func() {
		if !claimHeld {
			return
		}
		if err := s.idempotency.Release(ctx, merchantID, idempotencyKey, recordID.String()); err != nil {
			log.Printf("level=warn component=app msg=\"idempotency release failed\" record_id=%s err=%v", recordID, err)
		}
	}()

	account, accountID, err := s.resolveAccount(ctx, merchantID, req)
	if err != nil {
		return nil, err
	}

	credentials := s.buildCredentials(tr)
	tx := transactor.NewTransaction(txType, network, req.Amount, account, credentials)
	tx.ID = recordID

	if req.ParentID != nil {
		parent, err := s.rehydrateParent(ctx, merchantID, *req.ParentID, credentials)
		if err != nil {
			return nil, err
		}
		tx.Parent = parent
	}

	result, err := tr.Transact(ctx, tx, s.mergeOptions(req.Options))
	if err != nil {
		// Only entry preconditions reach here: the transaction is fresh,
		// so this is an unsupported (type, network) pair.
		return nil, err
	}

	record := s.buildRecord(merchantID, tx, result)
	record.AccountID = accountID

	// A charge on an inline tokenizable account may have minted a vault
	// token; persist it so follow-up charges can reference the account.
	if accountID == nil && account != nil && account.Token() != "" {
		vaulted, err := s.persistVaultAccount(ctx, merchantID, network, account, req)
		if err != nil {
			log.Printf("level=warn component=app msg=\"vault account persistence failed\" record_id=%s err=%v", record.ID, err)
		} else {
			record.AccountID = &vaulted.ID
		}
	}

	if err := s.repo.CreatePaymentRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist payment record: %w", err)
	}
	claimHeld = false

	s.publishEvent(ctx, record)
	return record, nil
}

// TokenizeAccount enrolls an inline payment method in the gateway vault
// without charging it and returns the stored account reference.
func (s *Service) TokenizeAccount(ctx context.Context, merchantID string, req domain.TokenizeRequest) (*domain.VaultAccount, error) {
	var (
		account transactor.Account
		network transactor.NetworkType
	)
	switch {
	case req.Card != nil:
		network = transactor.NetworkCard
		account = cardAccountFromPayload(req.Card)
	case req.Bank != nil:
		network = transactor.NetworkACH
		account = bankAccountFromPayload(req.Bank)
	default:
		return nil, ErrAccountPayloadMissing
	}

	tr, ok := s.registry[network]
	if !ok {
		return nil, ErrNoTransactorForNetwork
	}

	credentials := s.buildCredentials(tr)
	setAccountCredentials(account, credentials)

	reply, err := tr.TokenizeAccount(ctx, account, s.mergeOptions(nil))
	if err != nil {
		return nil, err
	}
	if reply["response"] != "1" || reply["customer_vault_id"] == "" {
		message := reply["responsetext"]
		if message == "" {
			message = "no vault id returned"
		}
		return nil, &TokenizationRejectedError{Message: message}
	}

	vaulted := &domain.VaultAccount{
		ID:           uuid.New(),
		MerchantID:   merchantID,
		Network:      string(network),
		HolderName:   holderNameOf(req),
		MaskedNumber: maskedNumberOf(req),
		Token:        reply["customer_vault_id"],
		TokenizedAt:  time.Now().UTC(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateVaultAccount(ctx, vaulted); err != nil {
		return nil, fmt.Errorf("failed to persist vault account: %w", err)
	}
	return vaulted, nil
}

// GetCharge returns a merchant's payment record by id.
func (s *Service) GetCharge(ctx context.Context, merchantID string, recordID uuid.UUID) (*domain.PaymentRecord, error) {
	return s.repo.FindPaymentRecordByID(ctx, merchantID, recordID)
}

// ListCharges returns a page of a merchant's payment records.
func (s *Service) ListCharges(ctx context.Context, merchantID string, limit, offset int) ([]domain.PaymentRecord, error) {
	return s.repo.ListPaymentRecords(ctx, merchantID, limit, offset)
}

// GetVaultAccount returns a merchant's stored account reference by id.
func (s *Service) GetVaultAccount(ctx context.Context, merchantID string, accountID uuid.UUID) (*domain.VaultAccount, error) {
	return s.repo.FindVaultAccountByID(ctx, merchantID, accountID)
}

// resolveAccount maps the request's funding source to a core account. A
// stored account id wins over inline payloads; cash and check charges carry
// no account at all.
func (s *Service) resolveAccount(ctx context.Context, merchantID string, req domain.ChargeRequest) (transactor.Account, *uuid.UUID, error) {
	if req.AccountID != nil {
		stored, err := s.repo.FindVaultAccountByID(ctx, merchantID, *req.AccountID)
		if err != nil {
			return nil, nil, err
		}
		return transactor.NewTokenAccount(stored.Token, stored.TokenizedAt), &stored.ID, nil
	}
	if req.Card != nil {
		return cardAccountFromPayload(req.Card), nil, nil
	}
	if req.Bank != nil {
		return bankAccountFromPayload(req.Bank), nil, nil
	}
	return nil, nil, nil
}

// rehydrateParent rebuilds a parent transaction carrying the stored gateway
// id so Capture/Refund/Void calls can reference it.
func (s *Service) rehydrateParent(ctx context.Context, merchantID string, parentID uuid.UUID, credentials *transactor.Credentials) (*transactor.Transaction, error) {
	record, err := s.repo.FindPaymentRecordByID(ctx, merchantID, parentID)
	if err != nil {
		return nil, err
	}
	if record.ExternalID == nil || *record.ExternalID == "" {
		return nil, ErrParentNotSettled
	}

	parentType, _ := transactor.ParseTransactionType(record.Type)
	parentNetwork, _ := transactor.ParseNetworkType(record.Network)
	parent := transactor.NewTransaction(parentType, parentNetwork, record.Amount, nil, credentials)
	parent.ID = record.ID
	parent.Result().ExternalID = *record.ExternalID
	return parent, nil
}

// mergeOptions layers the service-wide endpoint override under the caller's
// raw options.
func (s *Service) mergeOptions(raw map[string]any) map[string]any {
	if s.postURL == "" {
		return raw
	}
	merged := make(map[string]any, len(raw)+1)
	merged["post_url"] = s.postURL
	for key, value := range raw {
		merged[key] = value
	}
	return merged
}

func (s *Service) buildCredentials(tr *transactor.Transactor) *transactor.Credentials {
	credentials := tr.CreateCredentials()
	credentials.Set("username", s.credentials.Username)
	credentials.Set("password", s.credentials.Password)
	return credentials
}

// buildRecord converts a filtered result into the persisted record,
// stripping merchant credentials from the stored request bag.
func (s *Service) buildRecord(merchantID string, tx *transactor.Transaction, result *transactor.Result) *domain.PaymentRecord {
	record := &domain.PaymentRecord{
		ID:         tx.ID,
		MerchantID: merchantID,
		Type:       string(tx.Type),
		Network:    string(tx.Network),
		Amount:     tx.Amount,
		Status:     string(result.Status),
		Message:    result.Message,
		CreatedAt:  tx.CreatedAt,
	}
	if result.ExternalID != "" {
		externalID := result.ExternalID
		record.ExternalID = &externalID
	}
	if parent := tx.Parent; parent != nil {
		parentID := parent.ID
		record.ParentID = &parentID
	}
	if request := result.RequestData(); request != nil {
		stripped := make(map[string]string, len(request))
		for key, value := range request {
			if key == "username" || key == "password" {
				continue
			}
			stripped[key] = value
		}
		record.RequestData = stripped
	}
	record.ResponseData = result.ResponseData()
	return record
}

func (s *Service) persistVaultAccount(ctx context.Context, merchantID string, network transactor.NetworkType, account transactor.Account, req domain.ChargeRequest) (*domain.VaultAccount, error) {
	vaulted := &domain.VaultAccount{
		ID:          uuid.New(),
		MerchantID:  merchantID,
		Network:     string(network),
		Token:       account.Token(),
		TokenizedAt: account.TokenIssuedAt(),
		CreatedAt:   time.Now().UTC(),
	}
	if req.Card != nil {
		vaulted.HolderName = req.Card.HolderName
		vaulted.MaskedNumber = maskNumber(req.Card.Number)
	}
	if req.Bank != nil {
		vaulted.HolderName = req.Bank.HolderName
		vaulted.MaskedNumber = maskNumber(req.Bank.AccountNumber)
	}
	if err := s.repo.CreateVaultAccount(ctx, vaulted); err != nil {
		return nil, err
	}
	return vaulted, nil
}

func (s *Service) publishEvent(ctx context.Context, record *domain.PaymentRecord) {
	if s.producer == nil {
		return
	}
	event := rabbitmq.PaymentEvent{
		RecordID:   record.ID,
		MerchantID: record.MerchantID,
		Type:       record.Type,
		Network:    record.Network,
		Amount:     record.Amount,
		Status:     record.Status,
		Timestamp:  time.Now().UTC(),
	}
	if record.ExternalID != nil {
		event.ExternalID = *record.ExternalID
	}
	if err := s.producer.PublishPaymentEvent(ctx, event); err != nil {
		log.Printf("level=warn component=app msg=\"payment event publish failed\" record_id=%s err=%v", record.ID, err)
	}
}

func cardAccountFromPayload(payload *domain.CardPayload) *transactor.CardAccount {
	return &transactor.CardAccount{
		HolderName: payload.HolderName,
		Number:     payload.Number,
		ExpMonth:   payload.ExpMonth,
		ExpYear:    payload.ExpYear,
		CVV:        payload.CVV,
		Address: transactor.Address{
			Line1:      payload.Address1,
			City:       payload.City,
			State:      payload.State,
			PostalCode: payload.Zip,
			Country:    payload.Country,
		},
	}
}

func bankAccountFromPayload(payload *domain.BankPayload) *transactor.BankAccount {
	accountType := transactor.BankAccountType(payload.AccountType)
	if accountType == "" {
		accountType = transactor.BankAccountChecking
	}
	return &transactor.BankAccount{
		HolderName:      payload.HolderName,
		RoutingNumber:   payload.RoutingNumber,
		AccountNumber:   payload.AccountNumber,
		AccountType:     accountType,
		BusinessAccount: payload.BusinessAccount,
	}
}

func setAccountCredentials(account transactor.Account, credentials *transactor.Credentials) {
	switch v := account.(type) {
	case *transactor.BankAccount:
		v.Credentials = credentials
	case *transactor.CardAccount:
		v.Credentials = credentials
	case *transactor.SwipedCardAccount:
		v.Credentials = credentials
	case *transactor.TokenAccount:
		v.Credentials = credentials
	}
}

func holderNameOf(req domain.TokenizeRequest) string {
	if req.Card != nil {
		return req.Card.HolderName
	}
	if req.Bank != nil {
		return req.Bank.HolderName
	}
	return ""
}

func maskedNumberOf(req domain.TokenizeRequest) string {
	if req.Card != nil {
		return maskNumber(req.Card.Number)
	}
	if req.Bank != nil {
		return maskNumber(req.Bank.AccountNumber)
	}
	return ""
}

// maskNumber keeps the last four digits of an account or card number.
func maskNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "****" + number[len(number)-4:]
}
