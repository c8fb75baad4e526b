package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritchy/BytePass/internal/client/document"
)

func TestLedger_RequestAccess(t *testing.T) {
	d := newDevice(t, newMemRemote(), Options{}, nil)
	log, _ := nullLogger()
	ledger := NewLedger(d.files, "client-a", log)
	ctx := context.Background()

	req, err := ledger.RequestAccess(ctx, "Laptop", "pub-key")
	require.NoError(t, err)
	assert.Equal(t, "client-a", req.ClientID)
	assert.Equal(t, document.AccessRequested, req.AccessStatus)

	clients, err := ledger.Clients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Laptop", clients[0].ClientName)

	_, err = ledger.RequestAccess(ctx, "Laptop again", "")
	assert.ErrorIs(t, err, document.ErrDuplicateClient)

	_, err = ledger.RequestAccess(ctx, "  ", "")
	assert.Error(t, err)
}

func TestSyncAccess_CreatesRemoteLedger(t *testing.T) {
	rs := newMemRemote()
	d := newDevice(t, rs, Options{}, nil)
	log, _ := nullLogger()
	ctx := context.Background()

	_, err := NewLedger(d.files, "client-a", log).RequestAccess(ctx, "Laptop", "")
	require.NoError(t, err)

	res, err := d.syncer.SyncAccess(ctx)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Pushed)
	assert.Zero(t, res.Merged)

	data, ok := rs.data(document.AccessName)
	require.True(t, ok)
	remoteDoc, err := document.DecodeAccess(data)
	require.NoError(t, err)
	require.Len(t, remoteDoc.Clients, 1)
	assert.Equal(t, "client-a", remoteDoc.Clients[0].ClientID)
}

func TestSyncAccess_MergesBothWays(t *testing.T) {
	rs := newMemRemote()
	a := newDevice(t, rs, Options{}, nil)
	b := newDevice(t, rs, Options{}, nil)
	log, _ := nullLogger()
	ctx := context.Background()

	_, err := NewLedger(a.files, "client-a", log).RequestAccess(ctx, "Laptop", "")
	require.NoError(t, err)
	_, err = a.syncer.SyncAccess(ctx)
	require.NoError(t, err)

	_, err = NewLedger(b.files, "client-b", log).RequestAccess(ctx, "Phone", "")
	require.NoError(t, err)

	res, err := b.syncer.SyncAccess(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Merged)
	assert.True(t, res.Pushed)
	assert.False(t, res.Created)
	assert.Len(t, res.Clients, 2)

	res, err = a.syncer.SyncAccess(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Merged)
	assert.False(t, res.Pushed, "remote already holds every local client")

	local, err := a.files.LoadAccess(ctx)
	require.NoError(t, err)
	_, ok := local.FindClient("client-b")
	assert.True(t, ok)
}

func TestSyncAccess_RemoteFailure(t *testing.T) {
	rs := newMemRemote()
	rs.listErr = errors.New("offline")
	d := newDevice(t, rs, Options{}, nil)

	_, err := d.syncer.SyncAccess(context.Background())
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
}
