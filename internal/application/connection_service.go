package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bali7319/marketplace-core/internal/domain"
	"github.com/bali7319/marketplace-core/internal/ports"
)

// ConnectionService is the registry for marketplace connections. It
// enforces the single-connection-per-provider invariant, normalizes and
// encrypts credentials, and owns the shared health trail both sync
// paths write through MarkSyncResult.
type ConnectionService struct {
	repo   ports.ConnectionRepository
	vault  ports.Vault
	logger zerolog.Logger
}

// NewConnectionService creates a new connection registry.
func NewConnectionService(repo ports.ConnectionRepository, vault ports.Vault, logger zerolog.Logger) *ConnectionService {
	return &ConnectionService{
		repo:   repo,
		vault:  vault,
		logger: logger,
	}
}

// CreateConnectionInput carries a validated create request.
type CreateConnectionInput struct {
	Provider    domain.Provider
	Name        string
	IsActive    bool
	Credentials map[string]any
	Metadata    map[string]any
}

// UpdateConnectionInput carries a validated update request. Credential
// fields left blank keep their stored values.
type UpdateConnectionInput struct {
	Name        *string
	IsActive    *bool
	Credentials map[string]any
	Metadata    map[string]any
}

// List returns all connections ordered by provider.
func (s *ConnectionService) List(ctx context.Context) ([]*domain.Connection, error) {
	return s.repo.List(ctx)
}

// Get returns a connection by id.
func (s *ConnectionService) Get(ctx context.Context, id string) (*domain.Connection, error) {
	conn, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: connection %s", domain.ErrNotFound, id)
	}
	return conn, nil
}

// GetByProvider returns the provider's connection or ErrNotFound.
func (s *ConnectionService) GetByProvider(ctx context.Context, provider domain.Provider) (*domain.Connection, error) {
	conn, err := s.repo.GetByProvider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: no connection for provider %s", domain.ErrNotFound, provider)
	}
	return conn, nil
}

// Create registers a connection for a provider. If one already exists it
// is merge-updated instead of duplicated, keeping at most one connection
// per provider.
func (s *ConnectionService) Create(ctx context.Context, input CreateConnectionInput) (*domain.Connection, error) {
	creds, err := domain.ParseCredentials(input.Provider, input.Credentials)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByProvider(ctx, input.Provider)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.Update(ctx, existing.ID, UpdateConnectionInput{
			Name:        &input.Name,
			IsActive:    &input.IsActive,
			Credentials: input.Credentials,
			Metadata:    input.Metadata,
		})
	}

	plaintext, err := creds.Encode()
	if err != nil {
		return nil, err
	}
	enc, err := s.vault.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt credentials: %w", err)
	}

	now := time.Now().UTC()
	conn := &domain.Connection{
		ID:              uuid.NewString(),
		Provider:        input.Provider,
		Name:            input.Name,
		IsActive:        input.IsActive,
		CredentialsEnc:  enc,
		CredentialsHint: creds.Hint(),
		Metadata:        input.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("provider", input.Provider.String()).
		Str("connectionId", conn.ID).
		Msg("Connection created")
	return conn, nil
}

// Update patches a connection. Credential patches are merged field by
// field: a blank field keeps the stored value, so updating only the base
// URL never wipes a previously stored secret.
func (s *ConnectionService) Update(ctx context.Context, id string, input UpdateConnectionInput) (*domain.Connection, error) {
	conn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		conn.Name = *input.Name
	}
	if input.IsActive != nil {
		conn.IsActive = *input.IsActive
	}
	if input.Metadata != nil {
		conn.Metadata = domain.MergeMetadata(conn.Metadata, input.Metadata)
	}

	if input.Credentials != nil {
		patch, err := domain.ParseCredentials(conn.Provider, input.Credentials)
		if err != nil {
			return nil, err
		}
		current, err := s.DecryptCredentials(conn)
		if err != nil {
			// Stored blob is unreadable (rotated key); start from the patch
			// rather than refusing every future update.
			s.logger.Warn().Err(err).
				Str("connectionId", conn.ID).
				Msg("Stored credentials unreadable, replacing instead of merging")
			current = domain.Credentials{Provider: conn.Provider}
		}
		merged := current.Merge(patch)

		plaintext, err := merged.Encode()
		if err != nil {
			return nil, err
		}
		enc, err := s.vault.Encrypt(plaintext)
		if err != nil {
			return nil, fmt.Errorf("encrypt credentials: %w", err)
		}
		conn.CredentialsEnc = enc
		conn.CredentialsHint = merged.Hint()
	}

	conn.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("provider", conn.Provider.String()).
		Str("connectionId", conn.ID).
		Msg("Connection updated")
	return conn, nil
}

// Delete removes a connection.
func (s *ConnectionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// DecryptCredentials opens the connection's stored credential blob into
// the typed union. Failure is reported, never masked.
func (s *ConnectionService) DecryptCredentials(conn *domain.Connection) (domain.Credentials, error) {
	plaintext, err := s.vault.Decrypt(conn.CredentialsEnc)
	if err != nil {
		return domain.Credentials{}, err
	}
	return domain.DecodeCredentials(conn.Provider, plaintext)
}

// MarkSyncResult records the outcome of a sync attempt on the
// connection so an operator can diagnose a failing provider without
// reading logs. Both the pull and push paths call it on every attempt.
func (s *ConnectionService) MarkSyncResult(ctx context.Context, connectionID string, ok bool, errText string) error {
	conn, err := s.repo.Get(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn == nil {
		return fmt.Errorf("%w: connection %s", domain.ErrNotFound, connectionID)
	}

	now := time.Now().UTC()
	conn.LastTestAt = &now
	conn.LastTestOk = ok
	if ok {
		conn.LastError = nil
	} else {
		conn.LastError = &errText
	}
	conn.UpdatedAt = now
	return s.repo.Update(ctx, conn)
}
