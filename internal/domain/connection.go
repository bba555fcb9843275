package domain

import "time"

// Connection is the configured credential set and settings for one
// provider. At most one connection exists per provider; the registry
// checks before insert and the repository enforces a unique index.
type Connection struct {
	ID              string         `json:"id"`
	Provider        Provider       `json:"provider"`
	Name            string         `json:"name"`
	IsActive        bool           `json:"isActive"`
	CredentialsEnc  string         `json:"-"`
	CredentialsHint string         `json:"credentialsHint,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	LastTestAt      *time.Time     `json:"lastTestAt"`
	LastTestOk      bool           `json:"lastTestOk"`
	LastError       *string        `json:"lastError"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ConnectionPatch carries the mutable fields of an update. Nil means
// "leave unchanged".
type ConnectionPatch struct {
	Name            *string
	IsActive        *bool
	Credentials     *Credentials
	CredentialsHint *string
	Metadata        map[string]any
}

// SyncResult is the health trail written after every sync attempt,
// success or failure.
type SyncResult struct {
	At    time.Time
	Ok    bool
	Error *string
}

// MergeMetadata overlays extra keys onto the connection's metadata bag
// without dropping existing entries.
func MergeMetadata(existing map[string]any, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(extra))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
