package domain

import (
	"github.com/google/uuid"

	dErrors "goalplan/pkg/domain-errors"
)

// Typed UUID wrappers keep user and audit identifiers from being swapped at
// call sites. The compiler enforces the distinction.
type (
	UserID        uuid.UUID
	AuditRecordID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(dErrors.CodeInvalidInput, "id is not a valid UUID", err)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseAuditRecordID validates and returns an AuditRecordID.
func ParseAuditRecordID(s string) (AuditRecordID, error) {
	parsed, err := parseUUID(s)
	if err != nil {
		return AuditRecordID{}, err
	}
	return AuditRecordID(parsed), nil
}

// NewAuditRecordID allocates a fresh audit record identifier.
func NewAuditRecordID() AuditRecordID {
	return AuditRecordID(uuid.New())
}

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id AuditRecordID) String() string { return uuid.UUID(id).String() }
func (id AuditRecordID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Defined types do not inherit the underlying uuid.UUID marshalers, so
// without these the IDs would serialize as raw byte arrays. JSON and text
// encodings carry the canonical string form, and decoding goes through the
// same validation as the Parse functions.

func (id UserID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id AuditRecordID) MarshalText() ([]byte, error) {
	return []byte(uuid.UUID(id).String()), nil
}

func (id *AuditRecordID) UnmarshalText(b []byte) error {
	parsed, err := ParseAuditRecordID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
