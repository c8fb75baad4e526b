package document

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateClient is returned when a client id is already in the access ledger.
var ErrDuplicateClient = errors.New("client already present in access ledger")

// AccountsDocument is the persisted record collection.
type AccountsDocument struct {
	LastUpdated     string    `json:"last_updated" yaml:"last_updated"`
	Accounts        []Account `json:"accounts" yaml:"accounts"`
	DeletedAccounts []Account `json:"deleted_accounts,omitempty" yaml:"deleted_accounts,omitempty"`
}

// NewAccountsDocument returns an empty collection stamped with now.
func NewAccountsDocument(now time.Time) AccountsDocument {
	return AccountsDocument{
		LastUpdated: CollectionStamp(now),
		Accounts:    []Account{},
	}
}

// Stamp sets the collection-level timestamp.
func (d *AccountsDocument) Stamp(now time.Time) {
	d.LastUpdated = CollectionStamp(now)
}

// Clone returns a deep copy of the document.
func (d AccountsDocument) Clone() AccountsDocument {
	c := AccountsDocument{LastUpdated: d.LastUpdated}
	if d.Accounts != nil {
		c.Accounts = make([]Account, len(d.Accounts))
		for i, a := range d.Accounts {
			c.Accounts[i] = a.Clone()
		}
	}
	if d.DeletedAccounts != nil {
		c.DeletedAccounts = make([]Account, len(d.DeletedAccounts))
		for i, a := range d.DeletedAccounts {
			c.DeletedAccounts[i] = a.Clone()
		}
	}
	return c
}

// DeleteEntry removes every record with a's id from the active list and
// appends a deleted copy with a refreshed timestamp to the deleted list.
func (d *AccountsDocument) DeleteEntry(a Account, now time.Time) {
	kept := make([]Account, 0, len(d.Accounts))
	for _, acc := range d.Accounts {
		if acc.ID != a.ID {
			kept = append(kept, acc)
		}
	}
	d.Accounts = kept

	removed := a.Clone()
	removed.Status = StatusDeleted
	removed.Touch(now)
	d.DeletedAccounts = append(d.DeletedAccounts, removed)
}

// Invalid returns the records that must not be persisted.
func (d AccountsDocument) Invalid() []Account {
	var bad []Account
	for _, a := range d.Accounts {
		if !a.Valid() {
			bad = append(bad, a)
		}
	}
	return bad
}

// AuthClient is the opaque credential blob of the remote sign-in collaborator.
type AuthClient struct {
	LastUpdated  string `json:"last_updated" yaml:"last_updated"`
	Data         string `json:"data" yaml:"data"`
	Type         string `json:"type" yaml:"type"`
	Expiry       string `json:"expiry" yaml:"expiry"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token"`
}

// SettingsDocument holds the data key, the client id and the auth blob.
type SettingsDocument struct {
	KeyBase64      string     `json:"key_base64" yaml:"key_base64"`
	ClientAccessID string     `json:"client_access_id" yaml:"client_access_id"`
	AuthClient     AuthClient `json:"auth_client" yaml:"auth_client"`
}

// NewSettingsDocument returns defaults for a device that has never run.
func NewSettingsDocument(now time.Time) SettingsDocument {
	return SettingsDocument{
		ClientAccessID: uuid.New().String(),
		AuthClient: AuthClient{
			LastUpdated: FormatTimestamp(now),
			Type:        "Bearer",
		},
	}
}

// AccessStatus is the state of a client access request.
type AccessStatus string

const (
	AccessGranted   AccessStatus = "granted"
	AccessRequested AccessStatus = "requested"
	AccessDenied    AccessStatus = "denied"
)

// ClientRequest is one device entry in the access ledger.
type ClientRequest struct {
	LastUpdated        string       `json:"last_updated" yaml:"last_updated"`
	ClientID           string       `json:"client_id" yaml:"client_id"`
	ClientName         string       `json:"client_name" yaml:"client_name"`
	PublicKey          string       `json:"public_key" yaml:"public_key"`
	EncryptedAccessKey string       `json:"encrypted_access_key" yaml:"encrypted_access_key"`
	AccessStatus       AccessStatus `json:"access_status" yaml:"access_status"`
}

// AccessDocument is the append-only access ledger.
type AccessDocument struct {
	LastUpdated string          `json:"last_updated" yaml:"last_updated"`
	Clients     []ClientRequest `json:"clients" yaml:"clients"`
}

// NewAccessDocument returns an empty ledger.
func NewAccessDocument(now time.Time) AccessDocument {
	return AccessDocument{
		LastUpdated: CollectionStamp(now),
		Clients:     []ClientRequest{},
	}
}

// FindClient looks up a ledger entry by client id.
func (d AccessDocument) FindClient(clientID string) (ClientRequest, bool) {
	for _, c := range d.Clients {
		if c.ClientID == clientID {
			return c, true
		}
	}
	return ClientRequest{}, false
}

// AddClientRequest appends req. Entries are keyed by client id.
func (d *AccessDocument) AddClientRequest(req ClientRequest, now time.Time) error {
	if req.ClientID == "" {
		return fmt.Errorf("client id is required")
	}
	if _, ok := d.FindClient(req.ClientID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateClient, req.ClientID)
	}
	if req.AccessStatus == "" {
		req.AccessStatus = AccessRequested
	}
	if req.LastUpdated == "" {
		req.LastUpdated = FormatTimestamp(now)
	}

	d.Clients = append(d.Clients, req)
	d.LastUpdated = CollectionStamp(now)

	return nil
}

// MergeClients appends entries from other whose client id is unknown here.
// Existing entries are left untouched. It returns how many were added.
func (d *AccessDocument) MergeClients(other AccessDocument, now time.Time) int {
	added := 0
	for _, c := range other.Clients {
		if _, ok := d.FindClient(c.ClientID); ok {
			continue
		}
		d.Clients = append(d.Clients, c)
		added++
	}
	if added > 0 {
		d.LastUpdated = CollectionStamp(now)
	}
	return added
}
