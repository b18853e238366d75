// Package archive provides durable sinks for the records the ledger
// state emits for every committed operation. The node keeps running if
// a sink fails; the archive is an audit trail, not the source of truth.
package archive

import (
	"context"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/state"
)

// Event represents one committed ledger operation in archive form.
type Event struct {
	Seq     uint64            `json:"seq"`
	Kind    string            `json:"kind"`
	Account string            `json:"account"`
	Amount  uint64            `json:"amount"`
	Meta    map[string]string `json:"meta,omitempty"`
	At      time.Time         `json:"at"`
}

// FromRecord converts a state record into archive form.
func FromRecord(rec state.Record) Event {
	return Event{
		Seq:     rec.Seq,
		Kind:    rec.Kind,
		Account: string(rec.Account),
		Amount:  rec.Amount,
		Meta:    rec.Meta,
		At:      rec.At,
	}
}

// Archiver defines a sink for ledger events.
type Archiver interface {
	Write(ctx context.Context, evt Event) error
	Close() error
}
