package domain

// SignedPrekeyPublic is the public half of a peer's signed prekey. The
// signature is an Ed25519 signature over the raw X25519 public key bytes
// by the peer's identity key.
type SignedPrekeyPublic struct {
	ID        uint64
	PublicKey X25519Public
	Signature []byte
}

// OneTimePrekeyPublic is the public half of a one-time prekey.
type OneTimePrekeyPublic struct {
	ID        uint64
	PublicKey X25519Public
}

// PrekeyBundle is a peer's published key material as fetched from the
// keys API. OneTimePrekey is nil when the server has none left.
type PrekeyBundle struct {
	IdentityKey   Ed25519Public
	SignedPrekey  SignedPrekeyPublic
	OneTimePrekey *OneTimePrekeyPublic
}

// KeyCounts is the server's view of our uploaded key material.
type KeyCounts struct {
	OneTimePrekeysRemaining int
	SignedPrekeyUploaded    bool
}

// KeyUpload carries key material for PUT /users/@me/keys. Either field
// may be nil/empty; uploading the same signed prekey id twice is safe.
type KeyUpload struct {
	SignedPrekey   *SignedPrekeyPublic
	OneTimePrekeys []OneTimePrekeyPublic
}

// KeyUploadResult reports what the server stored.
type KeyUploadResult struct {
	SignedPrekeyID       uint64
	OneTimePrekeysStored int
	OneTimePrekeysTotal  int
}
