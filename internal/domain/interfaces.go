package domain

import "context"

// SecureStorage is the at-rest persistence collaborator. Values are
// opaque UTF-8 strings (the core stores JSON). The contract is that Set
// followed by Get on the same key round-trips exactly and linearizes:
// a persisted record is visible to the next Get on the same task. The
// at-rest protection (OS keychain, encrypted file) is the
// implementation's concern, not the core's.
type SecureStorage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// KeysClient talks to the keys API. The core calls each method once and
// does not retry a failed call; it imposes no deadlines beyond the
// caller's context.
type KeysClient interface {
	// UploadKeys publishes key material via PUT /users/@me/keys.
	UploadKeys(ctx context.Context, up KeyUpload) (KeyUploadResult, error)
	// FetchKeyCounts reads GET /users/@me/keys/count.
	FetchKeyCounts(ctx context.Context) (KeyCounts, error)
	// FetchBundle reads GET /users/{id}/keys. Returns ErrNoBundle when
	// the peer has no published key material.
	FetchBundle(ctx context.Context, userID string) (PrekeyBundle, error)
}
