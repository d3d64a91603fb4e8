// Package keysapi is the HTTP client for the server's key-distribution
// endpoints. On the wire all public keys and signatures are base64;
// identity keys are hex. Both representations are contract.
package keysapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Scdouglas1999/Paracord/internal/codec"
	"github.com/Scdouglas1999/Paracord/internal/domain"
)

// Client talks to the keys API. When Token is non-empty it is sent as
// the Authorization header on every request. Each call makes a single
// HTTP request; failed requests are not retried.
type Client struct {
	Base  string
	Token string
	HTTP  *http.Client
}

// New returns a Client for the given base URL and auth token.
func New(base, token string) *Client {
	return &Client{Base: base, Token: token, HTTP: http.DefaultClient}
}

type signedPrekeyWire struct {
	ID        uint64 `json:"id"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

type oneTimePrekeyWire struct {
	ID        uint64 `json:"id"`
	PublicKey string `json:"public_key"`
}

type uploadRequest struct {
	SignedPrekey   *signedPrekeyWire   `json:"signed_prekey,omitempty"`
	OneTimePrekeys []oneTimePrekeyWire `json:"one_time_prekeys,omitempty"`
}

type uploadResponse struct {
	SignedPrekeyID       uint64 `json:"signed_prekey_id"`
	OneTimePrekeysStored int    `json:"one_time_prekeys_stored"`
	OneTimePrekeysTotal  int    `json:"one_time_prekeys_total"`
}

type countResponse struct {
	OneTimePrekeysRemaining int  `json:"one_time_prekeys_remaining"`
	SignedPrekeyUploaded    bool `json:"signed_prekey_uploaded"`
}

type bundleResponse struct {
	IdentityKey  string            `json:"identity_key"`
	SignedPrekey signedPrekeyWire  `json:"signed_prekey"`
	OneTime      *oneTimePrekeyWire `json:"one_time_prekey,omitempty"`
}

// UploadKeys publishes key material via PUT /users/@me/keys.
func (c *Client) UploadKeys(ctx context.Context, up domain.KeyUpload) (domain.KeyUploadResult, error) {
	req := uploadRequest{}
	if up.SignedPrekey != nil {
		req.SignedPrekey = &signedPrekeyWire{
			ID:        up.SignedPrekey.ID,
			PublicKey: codec.ToBase64(up.SignedPrekey.PublicKey.Slice()),
			Signature: codec.ToBase64(up.SignedPrekey.Signature),
		}
	}
	for _, opk := range up.OneTimePrekeys {
		req.OneTimePrekeys = append(req.OneTimePrekeys, oneTimePrekeyWire{
			ID:        opk.ID,
			PublicKey: codec.ToBase64(opk.PublicKey.Slice()),
		})
	}

	var resp uploadResponse
	if err := c.do(ctx, http.MethodPut, "/users/@me/keys", req, &resp); err != nil {
		return domain.KeyUploadResult{}, err
	}
	return domain.KeyUploadResult{
		SignedPrekeyID:       resp.SignedPrekeyID,
		OneTimePrekeysStored: resp.OneTimePrekeysStored,
		OneTimePrekeysTotal:  resp.OneTimePrekeysTotal,
	}, nil
}

// FetchKeyCounts reads GET /users/@me/keys/count.
func (c *Client) FetchKeyCounts(ctx context.Context) (domain.KeyCounts, error) {
	var resp countResponse
	if err := c.do(ctx, http.MethodGet, "/users/@me/keys/count", nil, &resp); err != nil {
		return domain.KeyCounts{}, err
	}
	return domain.KeyCounts{
		OneTimePrekeysRemaining: resp.OneTimePrekeysRemaining,
		SignedPrekeyUploaded:    resp.SignedPrekeyUploaded,
	}, nil
}

// FetchBundle reads GET /users/{id}/keys. A 404 maps to ErrNoBundle so
// the envelope router can fall back to the legacy path.
func (c *Client) FetchBundle(ctx context.Context, userID string) (domain.PrekeyBundle, error) {
	var resp bundleResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+userID+"/keys", nil, &resp); err != nil {
		return domain.PrekeyBundle{}, err
	}

	var bundle domain.PrekeyBundle
	ik, err := codec.FromHex(resp.IdentityKey)
	if err != nil || len(ik) != 32 {
		return domain.PrekeyBundle{}, fmt.Errorf("bundle identity key: %w", err)
	}
	copy(bundle.IdentityKey[:], ik)

	spk, err := codec.FromBase64(resp.SignedPrekey.PublicKey)
	if err != nil || len(spk) != 32 {
		return domain.PrekeyBundle{}, fmt.Errorf("bundle signed prekey: %w", err)
	}
	sig, err := codec.FromBase64(resp.SignedPrekey.Signature)
	if err != nil {
		return domain.PrekeyBundle{}, fmt.Errorf("bundle signature: %w", err)
	}
	bundle.SignedPrekey.ID = resp.SignedPrekey.ID
	copy(bundle.SignedPrekey.PublicKey[:], spk)
	bundle.SignedPrekey.Signature = sig

	if resp.OneTime != nil {
		opk, err := codec.FromBase64(resp.OneTime.PublicKey)
		if err != nil || len(opk) != 32 {
			return domain.PrekeyBundle{}, fmt.Errorf("bundle one-time prekey: %w", err)
		}
		out := &domain.OneTimePrekeyPublic{ID: resp.OneTime.ID}
		copy(out.PublicKey[:], opk)
		bundle.OneTimePrekey = out
	}
	return bundle, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = new(bytes.Buffer)
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return err
		}
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNoBundle
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("keys api %s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Compile-time assertion that Client implements domain.KeysClient.
var _ domain.KeysClient = (*Client)(nil)
