// Package domain holds the typed identifiers shared across features. Typed
// UUIDs prevent a tenant id from being passed where a property id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "domus/pkg/domain-errors"
)

type (
	// UserID identifies a platform user (tenant or landlord).
	UserID uuid.UUID
	// PropertyID identifies a rental property.
	PropertyID uuid.UUID
	// RequestID identifies a verification request.
	RequestID uuid.UUID
	// StayID identifies a tenancy record.
	StayID uuid.UUID
	// BillID identifies a bill.
	BillID uuid.UUID
	// EntryID identifies a history ledger entry.
	EntryID uuid.UUID
	// NotificationID identifies a notification record.
	NotificationID uuid.UUID
)

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewPropertyID() PropertyID         { return PropertyID(uuid.New()) }
func NewRequestID() RequestID           { return RequestID(uuid.New()) }
func NewStayID() StayID                 { return StayID(uuid.New()) }
func NewBillID() BillID                 { return BillID(uuid.New()) }
func NewEntryID() EntryID               { return EntryID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

func (v UserID) String() string         { return uuid.UUID(v).String() }
func (v PropertyID) String() string     { return uuid.UUID(v).String() }
func (v RequestID) String() string      { return uuid.UUID(v).String() }
func (v StayID) String() string         { return uuid.UUID(v).String() }
func (v BillID) String() string         { return uuid.UUID(v).String() }
func (v EntryID) String() string        { return uuid.UUID(v).String() }
func (v NotificationID) String() string { return uuid.UUID(v).String() }

func (v UserID) IsZero() bool         { return uuid.UUID(v) == uuid.Nil }
func (v PropertyID) IsZero() bool     { return uuid.UUID(v) == uuid.Nil }
func (v RequestID) IsZero() bool      { return uuid.UUID(v) == uuid.Nil }
func (v StayID) IsZero() bool         { return uuid.UUID(v) == uuid.Nil }
func (v BillID) IsZero() bool         { return uuid.UUID(v) == uuid.Nil }
func (v EntryID) IsZero() bool        { return uuid.UUID(v) == uuid.Nil }
func (v NotificationID) IsZero() bool { return uuid.UUID(v) == uuid.Nil }

// MarshalText/UnmarshalText keep the JSON wire form as the canonical UUID
// string rather than a byte array.
func (v UserID) MarshalText() ([]byte, error)         { return marshalID(uuid.UUID(v)) }
func (v PropertyID) MarshalText() ([]byte, error)     { return marshalID(uuid.UUID(v)) }
func (v RequestID) MarshalText() ([]byte, error)      { return marshalID(uuid.UUID(v)) }
func (v StayID) MarshalText() ([]byte, error)         { return marshalID(uuid.UUID(v)) }
func (v BillID) MarshalText() ([]byte, error)         { return marshalID(uuid.UUID(v)) }
func (v EntryID) MarshalText() ([]byte, error)        { return marshalID(uuid.UUID(v)) }
func (v NotificationID) MarshalText() ([]byte, error) { return marshalID(uuid.UUID(v)) }

func (v *UserID) UnmarshalText(b []byte) error     { return unmarshalID((*uuid.UUID)(v), b) }
func (v *PropertyID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(v), b) }
func (v *RequestID) UnmarshalText(b []byte) error  { return unmarshalID((*uuid.UUID)(v), b) }
func (v *StayID) UnmarshalText(b []byte) error     { return unmarshalID((*uuid.UUID)(v), b) }
func (v *BillID) UnmarshalText(b []byte) error     { return unmarshalID((*uuid.UUID)(v), b) }
func (v *EntryID) UnmarshalText(b []byte) error    { return unmarshalID((*uuid.UUID)(v), b) }
func (v *NotificationID) UnmarshalText(b []byte) error {
	return unmarshalID((*uuid.UUID)(v), b)
}

// ParseUserID validates and parses a user id from its string form.
// IDs must be valid, non-nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParsePropertyID(s string) (PropertyID, error) {
	u, err := parseUUID(s, "property id")
	return PropertyID(u), err
}

func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request id")
	return RequestID(u), err
}

func ParseStayID(s string) (StayID, error) {
	u, err := parseUUID(s, "stay id")
	return StayID(u), err
}

func ParseBillID(s string) (BillID, error) {
	u, err := parseUUID(s, "bill id")
	return BillID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s, "notification id")
	return NotificationID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return u, nil
}

func marshalID(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func unmarshalID(dst *uuid.UUID, b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*dst = u
	return nil
}
