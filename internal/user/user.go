package user

import (
	"time"

	"github.com/ayanel/kagi/pkg/identity"
)

// Record is the mirror of an identity-service account kept in Firestore.
// The document ID is the account's local ID.
type Record struct {
	LocalID       string           `firestore:"-" json:"localId"`
	Email         string           `firestore:"email" json:"email,omitempty"`
	DisplayName   string           `firestore:"displayName" json:"displayName,omitempty"`
	PhotoURL      string           `firestore:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	EmailVerified bool             `firestore:"emailVerified" json:"emailVerified"`
	Providers     []LinkedProvider `firestore:"providers" json:"providers"`
	CreatedAt     time.Time        `firestore:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time        `firestore:"updatedAt" json:"updatedAt"`
	LastSignInAt  time.Time        `firestore:"lastSignInAt" json:"lastSignInAt"`
}

// LinkedProvider is one federated identity attached to the account
type LinkedProvider struct {
	ProviderID  string `firestore:"providerId" json:"providerId"` // "google.com", "github.com", "password"
	FederatedID string `firestore:"federatedId,omitempty" json:"federatedId,omitempty"`
	Email       string `firestore:"email,omitempty" json:"email,omitempty"`
	DisplayName string `firestore:"displayName,omitempty" json:"displayName,omitempty"`
}

// FromProfile builds the record for a profile seen at signedInAt.
func FromProfile(p identity.Profile, signedInAt time.Time) Record {
	r := Record{
		LocalID:       p.LocalID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		PhotoURL:      p.PhotoURL,
		EmailVerified: p.EmailVerified,
		Providers:     make([]LinkedProvider, 0, len(p.Providers)),
		UpdatedAt:     signedInAt,
		LastSignInAt:  signedInAt,
	}
	for _, info := range p.Providers {
		r.Providers = append(r.Providers, LinkedProvider{
			ProviderID:  info.ProviderID,
			FederatedID: info.FederatedID,
			Email:       info.Email,
			DisplayName: info.DisplayName,
		})
	}
	return r
}

// Merge folds incoming into existing: CreatedAt is kept from the first
// write, empty incoming strings do not erase stored values, and an empty
// provider list keeps the stored one (sign-in responses often omit it).
func Merge(existing *Record, incoming Record) Record {
	if existing == nil {
		merged := incoming.Copy()
		if merged.CreatedAt.IsZero() {
			merged.CreatedAt = incoming.UpdatedAt
		}
		return merged
	}

	merged := existing.Copy()
	merged.LocalID = incoming.LocalID
	if incoming.Email != "" {
		merged.Email = incoming.Email
	}
	if incoming.DisplayName != "" {
		merged.DisplayName = incoming.DisplayName
	}
	if incoming.PhotoURL != "" {
		merged.PhotoURL = incoming.PhotoURL
	}
	merged.EmailVerified = merged.EmailVerified || incoming.EmailVerified
	if len(incoming.Providers) > 0 {
		merged.Providers = append([]LinkedProvider(nil), incoming.Providers...)
	}
	if incoming.UpdatedAt.After(merged.UpdatedAt) {
		merged.UpdatedAt = incoming.UpdatedAt
	}
	if incoming.LastSignInAt.After(merged.LastSignInAt) {
		merged.LastSignInAt = incoming.LastSignInAt
	}
	return merged
}

// Copy creates a deep copy of the Record to prevent mutation
func (r Record) Copy() Record {
	copied := r
	if r.Providers != nil {
		copied.Providers = make([]LinkedProvider, len(r.Providers))
		copy(copied.Providers, r.Providers)
	}
	return copied
}
