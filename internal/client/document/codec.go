package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrDecode matches every *DecodeError via errors.Is.
var ErrDecode = errors.New("malformed document")

// DecodeError reports a document that could not be decoded.
type DecodeError struct {
	Document string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Document, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Document names used in decode errors and file names.
const (
	AccountsName = "accounts.json"
	SettingsName = "settings.json"
	AccessName   = "access.json"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Wire shapes use pointers so that an absent field can be told apart from
// an empty one.

type accountWire struct {
	Name          *string  `json:"name" validate:"required"`
	LastUpdated   *string  `json:"last_updated" validate:"required"`
	Status        *string  `json:"status" validate:"required,oneof=active deleted"`
	ID            *int64   `json:"id" validate:"required"`
	Username      *string  `json:"username"`
	Password      *string  `json:"password"`
	AccountNumber *string  `json:"account_number"`
	URL           *string  `json:"url"`
	Email         *string  `json:"email"`
	Hint          *string  `json:"hint"`
	Notes         *string  `json:"notes"`
	Tags          []string `json:"tags"`
}

type accountsWire struct {
	LastUpdated     *string       `json:"last_updated"`
	Accounts        []accountWire `json:"accounts" validate:"required,dive"`
	DeletedAccounts []accountWire `json:"deleted_accounts" validate:"omitempty,dive"`
}

type authClientWire struct {
	LastUpdated  *string `json:"last_updated"`
	Data         *string `json:"data"`
	Type         *string `json:"type"`
	Expiry       *string `json:"expiry"`
	RefreshToken *string `json:"refresh_token"`
}

type settingsWire struct {
	KeyBase64      *string         `json:"key_base64" validate:"required"`
	ClientAccessID *string         `json:"client_access_id" validate:"required"`
	AuthClient     *authClientWire `json:"auth_client"`
}

type clientRequestWire struct {
	LastUpdated        *string `json:"last_updated"`
	ClientID           *string `json:"client_id" validate:"required"`
	ClientName         *string `json:"client_name"`
	PublicKey          *string `json:"public_key"`
	EncryptedAccessKey *string `json:"encrypted_access_key"`
	AccessStatus       *string `json:"access_status" validate:"required,oneof=granted requested denied"`
}

type accessWire struct {
	LastUpdated *string             `json:"last_updated"`
	Clients     []clientRequestWire `json:"clients" validate:"required,dive"`
}

// EncodeAccounts renders the collection as indented JSON.
func EncodeAccounts(doc AccountsDocument) ([]byte, error) {
	doc.Accounts = withTags(doc.Accounts)
	if doc.DeletedAccounts != nil {
		doc.DeletedAccounts = withTags(doc.DeletedAccounts)
	}
	return encode(doc)
}

// withTags copies accounts so that nil tags encode as [].
func withTags(in []Account) []Account {
	out := make([]Account, len(in))
	copy(out, in)
	for i := range out {
		if out[i].Tags == nil {
			out[i].Tags = []string{}
		}
	}
	return out
}

// DecodeAccounts parses an accounts document. A missing collection timestamp
// is set to the current time; any other missing required field is an error.
func DecodeAccounts(data []byte) (AccountsDocument, error) {
	var w accountsWire
	if err := decode(AccountsName, data, &w); err != nil {
		return AccountsDocument{}, err
	}

	doc := AccountsDocument{
		LastUpdated: deref(w.LastUpdated),
		Accounts:    make([]Account, 0, len(w.Accounts)),
	}
	if doc.LastUpdated == "" {
		doc.LastUpdated = CollectionStamp(time.Now())
	}
	for _, a := range w.Accounts {
		doc.Accounts = append(doc.Accounts, a.account())
	}
	if w.DeletedAccounts != nil {
		doc.DeletedAccounts = make([]Account, 0, len(w.DeletedAccounts))
		for _, a := range w.DeletedAccounts {
			doc.DeletedAccounts = append(doc.DeletedAccounts, a.account())
		}
	}

	return doc, nil
}

// EncodeSettings renders the settings document as indented JSON.
func EncodeSettings(doc SettingsDocument) ([]byte, error) {
	return encode(doc)
}

// DecodeSettings parses a settings document. auth_client is carried verbatim.
func DecodeSettings(data []byte) (SettingsDocument, error) {
	var w settingsWire
	if err := decode(SettingsName, data, &w); err != nil {
		return SettingsDocument{}, err
	}

	doc := SettingsDocument{
		KeyBase64:      deref(w.KeyBase64),
		ClientAccessID: deref(w.ClientAccessID),
	}
	if ac := w.AuthClient; ac != nil {
		doc.AuthClient = AuthClient{
			LastUpdated:  deref(ac.LastUpdated),
			Data:         deref(ac.Data),
			Type:         deref(ac.Type),
			Expiry:       deref(ac.Expiry),
			RefreshToken: deref(ac.RefreshToken),
		}
	}

	return doc, nil
}

// EncodeAccess renders the access ledger as indented JSON.
func EncodeAccess(doc AccessDocument) ([]byte, error) {
	if doc.Clients == nil {
		doc.Clients = []ClientRequest{}
	}
	return encode(doc)
}

// DecodeAccess parses the access ledger.
func DecodeAccess(data []byte) (AccessDocument, error) {
	var w accessWire
	if err := decode(AccessName, data, &w); err != nil {
		return AccessDocument{}, err
	}

	doc := AccessDocument{
		LastUpdated: deref(w.LastUpdated),
		Clients:     make([]ClientRequest, 0, len(w.Clients)),
	}
	if doc.LastUpdated == "" {
		doc.LastUpdated = CollectionStamp(time.Now())
	}
	for _, c := range w.Clients {
		doc.Clients = append(doc.Clients, ClientRequest{
			LastUpdated:        deref(c.LastUpdated),
			ClientID:           deref(c.ClientID),
			ClientName:         deref(c.ClientName),
			PublicKey:          deref(c.PublicKey),
			EncryptedAccessKey: deref(c.EncryptedAccessKey),
			AccessStatus:       AccessStatus(deref(c.AccessStatus)),
		})
	}

	return doc, nil
}

func (w accountWire) account() Account {
	a := Account{
		Name:          deref(w.Name),
		LastUpdated:   deref(w.LastUpdated),
		Status:        Status(deref(w.Status)),
		Username:      deref(w.Username),
		Password:      deref(w.Password),
		AccountNumber: deref(w.AccountNumber),
		URL:           deref(w.URL),
		Email:         deref(w.Email),
		Hint:          deref(w.Hint),
		Notes:         deref(w.Notes),
		Tags:          w.Tags,
	}
	if w.ID != nil {
		a.ID = *w.ID
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	return a
}

func encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

func decode(name string, data []byte, w any) error {
	if err := json.Unmarshal(data, w); err != nil {
		return &DecodeError{Document: name, Err: err}
	}
	if err := validate.Struct(w); err != nil {
		return &DecodeError{Document: name, Err: formatValidationError(err)}
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	// Drop the wire struct name from the namespace.
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
