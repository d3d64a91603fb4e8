// Package app builds the dependency graph for the host CLI.
package app

import (
	"github.com/sirupsen/logrus"

	"github.com/Scdouglas1999/Paracord/internal/domain"
	"github.com/Scdouglas1999/Paracord/internal/keysapi"
	envelopesvc "github.com/Scdouglas1999/Paracord/internal/services/envelope"
	prekeysvc "github.com/Scdouglas1999/Paracord/internal/services/prekey"
	"github.com/Scdouglas1999/Paracord/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Identity  *store.IdentityStore
	Storage   domain.SecureStorage
	Sessions  *store.SessionStore
	Prekeys   *store.PrekeyStore
	Keys      domain.KeysClient
	Envelopes *envelopesvc.Service
	Lifecycle *prekeysvc.Controller
	Log       *logrus.Logger
}

// NewWire constructs the dependency graph from cfg. The passphrase
// unlocks both the identity file and the encrypted secure storage.
func NewWire(cfg Config, passphrase string) *Wire {
	log := logrus.New()

	storage := store.NewFileStore(cfg.Home, passphrase)
	sessions := store.NewSessionStore(storage)
	prekeys := store.NewPrekeyStore(storage)

	var keys domain.KeysClient
	if cfg.ServerURL != "" {
		keys = keysapi.New(cfg.ServerURL, cfg.Token)
	}

	return &Wire{
		Identity:  store.NewIdentityStore(cfg.Home),
		Storage:   storage,
		Sessions:  sessions,
		Prekeys:   prekeys,
		Keys:      keys,
		Envelopes: envelopesvc.New(sessions, prekeys, keys, log),
		Lifecycle: prekeysvc.New(prekeys, keys, log),
		Log:       log,
	}
}
