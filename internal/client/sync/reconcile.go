package sync

import (
	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/document"
)

// Action is the outcome of reconciling one record.
type Action string

const (
	// ActionAdded: the record was only in the incoming collection.
	ActionAdded Action = "added"
	// ActionReplaced: the incoming record was newer and replaced the local one.
	ActionReplaced Action = "replaced"
	// ActionKeptLocal: the local record was newer; the remote is stale.
	ActionKeptLocal Action = "kept_local"
	// ActionInSync: both sides carry the same timestamp.
	ActionInSync Action = "in_sync"
	// ActionSkipped: the local timestamp could not be read.
	ActionSkipped Action = "skipped"
	// ActionLocalOnly: the record is missing from the incoming collection.
	ActionLocalOnly Action = "local_only"
)

// Decision records what happened to one record during a reconciliation.
type Decision struct {
	ID              int64  `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Action          Action `json:"action" yaml:"action"`
	LocalUpdated    string `json:"local_updated,omitempty" yaml:"local_updated,omitempty"`
	IncomingUpdated string `json:"incoming_updated,omitempty" yaml:"incoming_updated,omitempty"`
}

// Outcome is the result of merging an incoming collection into the local one.
type Outcome struct {
	Merged            document.AccountsDocument
	LocalChanged      bool
	RemoteNeedsUpdate bool
	Decisions         []Decision
}

// Reconcile merges incoming into local with whole-record last-writer-wins on
// last_updated. Neither argument is modified. The local deleted list is
// carried into the merged collection unchanged and the incoming deleted list
// is not consulted.
func Reconcile(local, incoming document.AccountsDocument, log logrus.FieldLogger) Outcome {
	if log == nil {
		log = logrus.StandardLogger()
	}

	out := Outcome{Merged: local.Clone()}

	for _, in := range incoming.Accounts {
		i := indexOf(in.ID, out.Merged.Accounts)
		if i < 0 {
			out.Merged.Accounts = append(out.Merged.Accounts, in.Clone())
			out.LocalChanged = true
			out.decide(in, ActionAdded, "", in.LastUpdated)
			continue
		}

		current := out.Merged.Accounts[i]
		fields := logrus.Fields{"op": "reconcile", "id": in.ID}

		localTime, err := document.ParseTimestamp(current.LastUpdated)
		if err != nil {
			log.WithFields(fields).WithError(err).Warn("local record has unreadable last_updated, skipping")
			out.decide(current, ActionSkipped, current.LastUpdated, in.LastUpdated)
			continue
		}

		incomingTime, err := document.ParseTimestamp(in.LastUpdated)
		if err != nil {
			log.WithFields(fields).WithError(err).Warn("incoming record has unreadable last_updated, treating as epoch")
			incomingTime = document.Epoch
		}

		switch {
		case incomingTime.Equal(localTime):
			out.decide(current, ActionInSync, current.LastUpdated, in.LastUpdated)
		case incomingTime.Before(localTime):
			out.RemoteNeedsUpdate = true
			out.decide(current, ActionKeptLocal, current.LastUpdated, in.LastUpdated)
		default:
			out.Merged.Accounts[i] = in.Clone()
			out.LocalChanged = true
			out.decide(in, ActionReplaced, current.LastUpdated, in.LastUpdated)
		}
	}

	for _, a := range local.Accounts {
		if indexOf(a.ID, incoming.Accounts) >= 0 {
			continue
		}
		out.RemoteNeedsUpdate = true
		out.decide(a, ActionLocalOnly, a.LastUpdated, "")
	}

	return out
}

func (o *Outcome) decide(a document.Account, action Action, localUpdated, incomingUpdated string) {
	o.Decisions = append(o.Decisions, Decision{
		ID:              a.ID,
		Name:            a.Name,
		Action:          action,
		LocalUpdated:    localUpdated,
		IncomingUpdated: incomingUpdated,
	})
}

// Counts tallies decisions per action.
func (o Outcome) Counts() map[Action]int {
	counts := make(map[Action]int, len(o.Decisions))
	for _, d := range o.Decisions {
		counts[d.Action]++
	}
	return counts
}

func indexOf(id int64, accounts []document.Account) int {
	for i, a := range accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}
