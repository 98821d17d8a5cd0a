package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const collectionName = "users"

// FirestoreRepository implements Repository on a "users" collection keyed by
// local ID.
type FirestoreRepository struct {
	client *firestore.Client
}

var _ Repository = (*FirestoreRepository)(nil)

// NewFirestoreRepository creates a new FirestoreRepository
func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{
		client: client,
	}
}

// Upsert reads, merges and writes the record in one transaction.
func (r *FirestoreRepository) Upsert(ctx context.Context, record Record) (*Record, error) {
	if record.LocalID == "" {
		return nil, errors.New("record has no local ID")
	}

	docRef := r.client.Collection(collectionName).Doc(record.LocalID)
	var stored Record

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var existing *Record
		doc, err := tx.Get(docRef)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return fmt.Errorf("failed to read user record: %w", err)
		default:
			rec := documentToRecord(doc.Ref.ID, doc.Data())
			existing = &rec
		}

		stored = Merge(existing, record)
		return tx.Set(docRef, recordToMap(stored))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user record: %w", err)
	}
	return &stored, nil
}

// Get retrieves a record by local ID
func (r *FirestoreRepository) Get(ctx context.Context, localID string) (*Record, error) {
	doc, err := r.client.Collection(collectionName).Doc(localID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user record: %w", err)
	}

	rec := documentToRecord(doc.Ref.ID, doc.Data())
	return &rec, nil
}

// Delete removes a record by local ID
func (r *FirestoreRepository) Delete(ctx context.Context, localID string) error {
	_, err := r.client.Collection(collectionName).Doc(localID).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete user record: %w", err)
	}
	return nil
}

func recordToMap(rec Record) map[string]any {
	providers := make([]map[string]any, len(rec.Providers))
	for i, p := range rec.Providers {
		providers[i] = providerToMap(p)
	}

	data := map[string]any{
		"email":         rec.Email,
		"displayName":   rec.DisplayName,
		"emailVerified": rec.EmailVerified,
		"providers":     providers,
		"createdAt":     rec.CreatedAt,
		"updatedAt":     rec.UpdatedAt,
		"lastSignInAt":  rec.LastSignInAt,
	}
	if rec.PhotoURL != "" {
		data["photoUrl"] = rec.PhotoURL
	}
	return data
}

func providerToMap(p LinkedProvider) map[string]any {
	data := map[string]any{"providerId": p.ProviderID}
	if p.FederatedID != "" {
		data["federatedId"] = p.FederatedID
	}
	if p.Email != "" {
		data["email"] = p.Email
	}
	if p.DisplayName != "" {
		data["displayName"] = p.DisplayName
	}
	return data
}

func documentToRecord(id string, data map[string]any) Record {
	rec := Record{LocalID: id}

	if email, ok := data["email"].(string); ok {
		rec.Email = email
	}
	if displayName, ok := data["displayName"].(string); ok {
		rec.DisplayName = displayName
	}
	if photoURL, ok := data["photoUrl"].(string); ok {
		rec.PhotoURL = photoURL
	}
	if verified, ok := data["emailVerified"].(bool); ok {
		rec.EmailVerified = verified
	}
	if createdAt, ok := data["createdAt"].(time.Time); ok {
		rec.CreatedAt = createdAt
	}
	if updatedAt, ok := data["updatedAt"].(time.Time); ok {
		rec.UpdatedAt = updatedAt
	}
	if lastSignInAt, ok := data["lastSignInAt"].(time.Time); ok {
		rec.LastSignInAt = lastSignInAt
	}

	if providers, ok := data["providers"].([]any); ok {
		rec.Providers = make([]LinkedProvider, 0, len(providers))
		for _, p := range providers {
			if providerMap, ok := p.(map[string]any); ok {
				rec.Providers = append(rec.Providers, mapToProvider(providerMap))
			}
		}
	}
	return rec
}

func mapToProvider(data map[string]any) LinkedProvider {
	var p LinkedProvider
	if providerID, ok := data["providerId"].(string); ok {
		p.ProviderID = providerID
	}
	if federatedID, ok := data["federatedId"].(string); ok {
		p.FederatedID = federatedID
	}
	if email, ok := data["email"].(string); ok {
		p.Email = email
	}
	if displayName, ok := data["displayName"].(string); ok {
		p.DisplayName = displayName
	}
	return p
}
