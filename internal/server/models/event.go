package models

import (
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/fhe"
	"github.com/google/uuid"
)

type EventKind string

const (
	EventUserRegistered     EventKind = "UserRegistered"
	EventApplicationCreated EventKind = "ApplicationCreated"
	EventApplicationClosed  EventKind = "ApplicationClosed"
	EventApplied            EventKind = "Applied"
)

// Event is an append-only outbox record written in the same transition as
// the state change it announces. Seq is assigned by the ledger.
type Event struct {
	ID            uuid.UUID   `json:"id"`
	Seq           int64       `json:"seq"`
	Kind          EventKind   `json:"kind"`
	Account       fhe.Address `json:"account"`
	Username      string      `json:"username,omitempty"`
	ApplicationID *uint64     `json:"application_id,omitempty"`
	Result        *fhe.Handle `json:"result,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	DeliveredAt   *time.Time  `json:"-"`
}

func newEvent(kind EventKind, account fhe.Address) *Event {
	return &Event{ID: uuid.New(), Kind: kind, Account: account, CreatedAt: time.Now().UTC()}
}

func UserRegistered(account fhe.Address, username string) *Event {
	e := newEvent(EventUserRegistered, account)
	e.Username = username
	return e
}

func ApplicationCreated(id uint64, creator fhe.Address) *Event {
	e := newEvent(EventApplicationCreated, creator)
	e.ApplicationID = &id
	return e
}

func ApplicationClosed(id uint64, creator fhe.Address) *Event {
	e := newEvent(EventApplicationClosed, creator)
	e.ApplicationID = &id
	return e
}

func Applied(id uint64, applicant fhe.Address, result fhe.Handle) *Event {
	e := newEvent(EventApplied, applicant)
	e.ApplicationID = &id
	e.Result = &result
	return e
}
