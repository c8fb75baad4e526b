package document

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAccount(id int64, name, ts string) Account {
	return Account{
		ID:          id,
		Name:        name,
		LastUpdated: ts,
		Status:      StatusActive,
		Username:    "user-" + name,
		Password:    "secret",
		URL:         "https://example.com",
		Tags:        []string{"finance", "personal"},
	}
}

func TestAccountsRoundTrip(t *testing.T) {
	deleted := sampleAccount(2, "Old Bank", "2024-01-02 10:00:00.000000")
	deleted.Status = StatusDeleted

	tests := []struct {
		name string
		doc  AccountsDocument
	}{
		{
			name: "empty collection",
			doc:  AccountsDocument{LastUpdated: "1700000000000", Accounts: []Account{}},
		},
		{
			name: "records without deleted list",
			doc: AccountsDocument{
				LastUpdated: "1700000000000",
				Accounts: []Account{
					sampleAccount(1, "Bank", "2024-01-01 00:00:00.000000"),
					sampleAccount(3, "Mail", "2024-03-01 12:30:45.123456"),
				},
			},
		},
		{
			name: "records with deleted list",
			doc: AccountsDocument{
				LastUpdated:     "1700000000000",
				Accounts:        []Account{sampleAccount(1, "Bank", "2024-01-01 00:00:00.000000")},
				DeletedAccounts: []Account{deleted},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeAccounts(tt.doc)
			require.NoError(t, err)

			got, err := DecodeAccounts(data)
			require.NoError(t, err)
			assert.Equal(t, tt.doc, got)
		})
	}
}

func TestEncodeAccounts_NilTagsBecomeEmpty(t *testing.T) {
	active := sampleAccount(1, "Bank", "2024-01-01 00:00:00.000000")
	active.Tags = nil
	deleted := sampleAccount(2, "Old Bank", "2024-01-02 10:00:00.000000")
	deleted.Status = StatusDeleted
	deleted.Tags = nil

	doc := AccountsDocument{
		LastUpdated:     "1700000000000",
		Accounts:        []Account{active},
		DeletedAccounts: []Account{deleted},
	}

	data, err := EncodeAccounts(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"tags": null`)
	assert.Nil(t, doc.DeletedAccounts[0].Tags, "input must not be modified")

	got, err := DecodeAccounts(data)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Accounts[0].Tags)
	assert.Equal(t, []string{}, got.DeletedAccounts[0].Tags)

	again, err := EncodeAccounts(got)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEncodeAccounts_IsIndentedAndStable(t *testing.T) {
	doc := AccountsDocument{
		LastUpdated: "1",
		Accounts:    []Account{sampleAccount(1, "Bank", "2024-01-01 00:00:00.000000")},
	}

	first, err := EncodeAccounts(doc)
	require.NoError(t, err)
	second, err := EncodeAccounts(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, string(first), "\n  \"accounts\": [")
	assert.NotContains(t, string(first), "deleted_accounts")
}

func TestDecodeAccounts_MissingCollectionTimestampIsDefaulted(t *testing.T) {
	before := time.Now().Add(-time.Second)

	doc, err := DecodeAccounts([]byte(`{"accounts": []}`))
	require.NoError(t, err)

	stamp, err := ParseCollectionStamp(doc.LastUpdated)
	require.NoError(t, err)
	assert.True(t, stamp.After(before))
	assert.Nil(t, doc.DeletedAccounts)
}

func TestDecodeAccounts_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"not json", `{"accounts": [`, "accounts.json"},
		{"missing accounts", `{"last_updated": "1"}`, "accounts is required"},
		{"null accounts", `{"accounts": null}`, "accounts is required"},
		{"missing id", `{"accounts": [{"name":"a","last_updated":"2024-01-01 00:00:00","status":"active"}]}`, "accounts[0].id is required"},
		{"missing name", `{"accounts": [{"id":1,"last_updated":"2024-01-01 00:00:00","status":"active"}]}`, "accounts[0].name is required"},
		{"bad status", `{"accounts": [{"id":1,"name":"a","last_updated":"2024-01-01 00:00:00","status":"gone"}]}`, "accounts[0].status must be one of"},
		{"wrong type", `{"accounts": [{"id":"one","name":"a","last_updated":"x","status":"active"}]}`, "accounts.json"},
		{"bad deleted entry", `{"accounts": [], "deleted_accounts": [{"id":1}]}`, "deleted_accounts[0].name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAccounts([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode), "expected ErrDecode, got: %v", err)

			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, AccountsName, decErr.Document)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDecodeAccounts_IgnoresUnknownFieldsAndDefaultsOptional(t *testing.T) {
	input := `{
		"last_updated": "5",
		"extra": true,
		"accounts": [{"id": 7, "name": "Bank", "last_updated": "2024-01-01 00:00:00", "status": "active", "colour": "red"}]
	}`

	doc, err := DecodeAccounts([]byte(input))
	require.NoError(t, err)
	require.Len(t, doc.Accounts, 1)

	a := doc.Accounts[0]
	assert.Equal(t, int64(7), a.ID)
	assert.Equal(t, "", a.Username)
	assert.Equal(t, []string{}, a.Tags)
}

func TestSettingsRoundTrip(t *testing.T) {
	doc := SettingsDocument{
		KeyBase64:      "a2V5",
		ClientAccessID: "client-1",
		AuthClient: AuthClient{
			LastUpdated:  "2024-01-01 00:00:00.000000",
			Data:         "opaque-token",
			Type:         "Bearer",
			Expiry:       "2024-01-01 01:00:00.000000",
			RefreshToken: "refresh",
		},
	}

	data, err := EncodeSettings(doc)
	require.NoError(t, err)

	got, err := DecodeSettings(data)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestDecodeSettings_RequiresKeyAndClient(t *testing.T) {
	_, err := DecodeSettings([]byte(`{"client_access_id": "c"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.Contains(t, err.Error(), "key_base64 is required")

	doc, err := DecodeSettings([]byte(`{"key_base64": "", "client_access_id": "c"}`))
	require.NoError(t, err)
	assert.Equal(t, AuthClient{}, doc.AuthClient)
}

func TestAccessRoundTrip(t *testing.T) {
	doc := AccessDocument{
		LastUpdated: "10",
		Clients: []ClientRequest{{
			LastUpdated:  "2024-01-01 00:00:00.000000",
			ClientID:     "c-1",
			ClientName:   "laptop",
			PublicKey:    "pk",
			AccessStatus: AccessRequested,
		}},
	}

	data, err := EncodeAccess(doc)
	require.NoError(t, err)

	got, err := DecodeAccess(data)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	_, err = DecodeAccess([]byte(`{"clients": [{"client_id": "c", "access_status": "maybe"}]}`))
	assert.ErrorIs(t, err, ErrDecode)
}
