// Package prekey runs the prekey lifecycle: on every "session ready"
// signal from the gateway it makes sure the server holds a fresh signed
// prekey and enough one-time prekeys.
package prekey

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Scdouglas1999/Paracord/internal/domain"
	"github.com/Scdouglas1999/Paracord/internal/store"
)

const (
	// OPKLowThreshold triggers replenishment when the server's remaining
	// one-time prekey count drops below it.
	OPKLowThreshold = 20
	// OPKBatchSize is the level replenishment tops back up to.
	OPKBatchSize = 50
)

// Controller reconciles the local prekey store with the server.
type Controller struct {
	prekeys *store.PrekeyStore
	keys    domain.KeysClient
	log     *logrus.Logger
}

// New constructs a Controller.
func New(prekeys *store.PrekeyStore, keys domain.KeysClient, log *logrus.Logger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{prekeys: prekeys, keys: keys, log: log}
}

// HandleReady runs one reconciliation pass. It is idempotent: uploading
// the same signed prekey id twice is safe and one-time prekey ids are
// never reissued, so a crash between steps only means redundant work on
// the next signal.
func (c *Controller) HandleReady(ctx context.Context, seed domain.Ed25519Seed) error {
	rec, ok, err := c.prekeys.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		rec, err = store.GeneratePrekeys()
		if err != nil {
			return err
		}
		if err := c.prekeys.Save(ctx, rec); err != nil {
			return err
		}
		c.log.WithField("opks", len(rec.OneTimePrekeys)).Info("generated local prekey store")

		// Fresh store: upload everything in one request.
		spk := rec.SignSignedPrekey(seed)
		res, err := c.keys.UploadKeys(ctx, domain.KeyUpload{
			SignedPrekey:   &spk,
			OneTimePrekeys: publicOPKs(rec),
		})
		if err != nil {
			return fmt.Errorf("upload initial prekeys: %w", err)
		}
		c.log.WithFields(logrus.Fields{
			"signed_prekey_id": res.SignedPrekeyID,
			"opks_stored":      res.OneTimePrekeysStored,
		}).Info("uploaded initial prekey bundle")
		return nil
	}

	counts, err := c.keys.FetchKeyCounts(ctx)
	if err != nil {
		return fmt.Errorf("fetch key counts: %w", err)
	}

	if !counts.SignedPrekeyUploaded || rec.SignedPrekeyAge(time.Now()) > store.SignedPrekeyMaxAge {
		if rec.SignedPrekeyAge(time.Now()) > store.SignedPrekeyMaxAge {
			rec, err = store.RotateSignedPrekey(rec)
			if err != nil {
				return err
			}
			if err := c.prekeys.Save(ctx, rec); err != nil {
				return err
			}
			c.log.WithField("signed_prekey_id", rec.SignedPrekey.ID).Info("rotated signed prekey")
		}
		spk := rec.SignSignedPrekey(seed)
		if _, err := c.keys.UploadKeys(ctx, domain.KeyUpload{SignedPrekey: &spk}); err != nil {
			return fmt.Errorf("upload signed prekey: %w", err)
		}
	}

	if counts.OneTimePrekeysRemaining < OPKLowThreshold {
		need := OPKBatchSize - counts.OneTimePrekeysRemaining
		updated, publics, err := store.GenerateAdditionalOPKs(rec, need)
		if err != nil {
			return err
		}
		// Private halves hit storage before the publics leave the device.
		if err := c.prekeys.Save(ctx, updated); err != nil {
			return err
		}
		res, err := c.keys.UploadKeys(ctx, domain.KeyUpload{OneTimePrekeys: publics})
		if err != nil {
			return fmt.Errorf("replenish one-time prekeys: %w", err)
		}
		c.log.WithFields(logrus.Fields{
			"generated": need,
			"total":     res.OneTimePrekeysTotal,
		}).Info("replenished one-time prekeys")
	}

	return nil
}

func publicOPKs(rec store.PrekeyRecord) []domain.OneTimePrekeyPublic {
	out := make([]domain.OneTimePrekeyPublic, 0, len(rec.OneTimePrekeys))
	for _, opk := range rec.OneTimePrekeys {
		var pub domain.X25519Public
		copy(pub[:], opk.PublicKey)
		out = append(out, domain.OneTimePrekeyPublic{ID: opk.ID, PublicKey: pub})
	}
	return out
}
