package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountValid(t *testing.T) {
	tests := []struct {
		name string
		acc  string
		want bool
	}{
		{"regular name", "Bank", true},
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"placeholder", PlaceholderName, false},
		{"placeholder padded", " New Account ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Account{Name: tt.acc}.Valid())
		})
	}
}

func TestNewAccount(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC)
	a := NewAccount("Bank", now)

	assert.Equal(t, now.UnixMilli(), a.ID)
	assert.Equal(t, StatusActive, a.Status)
	assert.Equal(t, "2024-05-06 07:08:09.123456", a.LastUpdated)
	assert.True(t, a.Valid())
}

func TestAccountTouch_StrictlyIncreases(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewAccount("Bank", now)
	before := a.LastUpdated

	a.Touch(now)
	assert.Equal(t, "2024-01-01 00:00:00.000001", a.LastUpdated)
	assert.Greater(t, a.LastUpdated, before)

	a.Touch(now.Add(-time.Hour))
	assert.Equal(t, "2024-01-01 00:00:00.000002", a.LastUpdated)

	later := now.Add(time.Minute)
	a.Touch(later)
	assert.Equal(t, FormatTimestamp(later), a.LastUpdated)
}

func TestAccountEqual_TagsAsSet(t *testing.T) {
	a := sampleAccount(1, "Bank", "2024-01-01 00:00:00.000000")
	b := a.Clone()
	b.Tags = []string{"personal", "finance"}
	b.LastUpdated = "2025-01-01 00:00:00.000000"

	assert.True(t, a.Equal(b))

	b.Tags = append(b.Tags, "work")
	assert.False(t, a.Equal(b))

	c := a.Clone()
	c.Password = "changed"
	assert.False(t, a.Equal(c))
}

func TestAccountTags(t *testing.T) {
	a := Account{Name: "Bank"}
	a.AddTag("finance")
	a.AddTag("finance")
	a.AddTag(" ")
	a.AddTag("home")
	assert.Equal(t, []string{"finance", "home"}, a.Tags)

	a.RemoveTag("finance")
	assert.Equal(t, []string{"home"}, a.Tags)
	assert.False(t, a.HasTag("finance"))
}

func TestAccountMatches(t *testing.T) {
	a := sampleAccount(1, "Bank", "2024-01-01 00:00:00.000000")
	a.Hint = "Mother's maiden name"

	assert.True(t, a.Matches("BANK"))
	assert.True(t, a.Matches("maiden"))
	assert.True(t, a.Matches("FINANCE"))
	assert.True(t, a.Matches(""))
	assert.False(t, a.Matches("crypto"))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2024-06-01 00:00:00.000000", want: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2024-06-01 12:34:56.789", want: time.Date(2024, 6, 1, 12, 34, 56, 789000000, time.UTC)},
		{in: "2024-06-01 12:34:56", want: time.Date(2024, 6, 1, 12, 34, 56, 0, time.UTC)},
		{in: "", wantErr: true},
		{in: "yesterday", wantErr: true},
		{in: "2024-06-01T12:34:56Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestDeleteEntry(t *testing.T) {
	now := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	doc := NewAccountsDocument(now)
	a := sampleAccount(1, "Bank", "2024-01-01 00:00:00.000000")
	b := sampleAccount(2, "Mail", "2024-01-01 00:00:00.000000")
	doc.Accounts = []Account{a, b, a}

	doc.DeleteEntry(a, now)

	require.Len(t, doc.Accounts, 1)
	assert.Equal(t, int64(2), doc.Accounts[0].ID)
	require.Len(t, doc.DeletedAccounts, 1)
	assert.Equal(t, StatusDeleted, doc.DeletedAccounts[0].Status)
	assert.Equal(t, FormatTimestamp(now), doc.DeletedAccounts[0].LastUpdated)
}

func TestAccessDocument_AddClientRequest(t *testing.T) {
	now := time.Now()
	doc := NewAccessDocument(now)

	require.NoError(t, doc.AddClientRequest(ClientRequest{ClientID: "c1", ClientName: "phone"}, now))
	require.Len(t, doc.Clients, 1)
	assert.Equal(t, AccessRequested, doc.Clients[0].AccessStatus)

	err := doc.AddClientRequest(ClientRequest{ClientID: "c1"}, now)
	assert.ErrorIs(t, err, ErrDuplicateClient)

	assert.Error(t, doc.AddClientRequest(ClientRequest{}, now))
}

func TestAccessDocument_MergeClients(t *testing.T) {
	now := time.Now()
	local := NewAccessDocument(now)
	require.NoError(t, local.AddClientRequest(ClientRequest{ClientID: "a", ClientName: "local"}, now))

	remote := NewAccessDocument(now)
	require.NoError(t, remote.AddClientRequest(ClientRequest{ClientID: "a", ClientName: "remote"}, now))
	require.NoError(t, remote.AddClientRequest(ClientRequest{ClientID: "b"}, now))

	added := local.MergeClients(remote, now)
	assert.Equal(t, 1, added)
	require.Len(t, local.Clients, 2)
	assert.Equal(t, "local", local.Clients[0].ClientName)
}
