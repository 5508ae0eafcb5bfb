package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "goalplan/pkg/domain-errors"
)

func TestParseUserID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

// Parsing happens at trust boundaries, so hostile input must fail cleanly.
func TestParseID_RejectsHostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE users;--", true},
		{"path traversal", "../../../etc/passwd", true},
		{"null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"oversized input", strings.Repeat("a", 1000), true},
		{"unicode zero-width space", "550e8400​-e29b-41d4-a716-446655440000", true},

		{"empty string", "", true},
		{"nil UUID", uuid.Nil.String(), true},
		{"whitespace only", "   ", true},
		{"uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},

		{"valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// Both ID types share the same parser, so validation must stay identical.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	validUUID := uuid.New().String()
	invalidInputs := []string{"", "invalid", uuid.Nil.String()}

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errUser := ParseUserID(validUUID)
		_, errRecord := ParseAuditRecordID(validUUID)
		require.NoError(t, errUser)
		require.NoError(t, errRecord)
	})

	for _, input := range invalidInputs {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errUser := ParseUserID(input)
			_, errRecord := ParseAuditRecordID(input)
			require.Error(t, errUser)
			require.Error(t, errRecord)
		})
	}
}

func TestIDJSONEncoding(t *testing.T) {
	type envelope struct {
		UserID        UserID        `json:"user_id"`
		AuditRecordID AuditRecordID `json:"audit_record_id"`
	}

	t.Run("marshals as canonical UUID strings", func(t *testing.T) {
		userUUID := uuid.New()
		recordUUID := uuid.New()
		raw, err := json.Marshal(envelope{
			UserID:        UserID(userUUID),
			AuditRecordID: AuditRecordID(recordUUID),
		})
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"user_id":"`+userUUID.String()+`"`)
		assert.Contains(t, string(raw), `"audit_record_id":"`+recordUUID.String()+`"`)
		assert.NotContains(t, string(raw), "[", "IDs must not serialize as byte arrays")
	})

	t.Run("marshaled record ID feeds back into ParseAuditRecordID", func(t *testing.T) {
		recordID := NewAuditRecordID()
		raw, err := json.Marshal(map[string]AuditRecordID{"audit_record_id": recordID})
		require.NoError(t, err)

		var decoded map[string]string
		require.NoError(t, json.Unmarshal(raw, &decoded))
		parsed, err := ParseAuditRecordID(decoded["audit_record_id"])
		require.NoError(t, err)
		assert.Equal(t, recordID, parsed)
	})

	t.Run("round trips through typed fields", func(t *testing.T) {
		in := envelope{UserID: UserID(uuid.New()), AuditRecordID: NewAuditRecordID()}
		raw, err := json.Marshal(in)
		require.NoError(t, err)

		var out envelope
		require.NoError(t, json.Unmarshal(raw, &out))
		assert.Equal(t, in, out)
	})

	t.Run("decoding rejects malformed and nil IDs", func(t *testing.T) {
		var out envelope
		err := json.Unmarshal([]byte(`{"user_id":"not-a-uuid"}`), &out)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		err = json.Unmarshal([]byte(`{"audit_record_id":"`+uuid.Nil.String()+`"}`), &out)
		require.Error(t, err)
	})
}

func TestNewAuditRecordID(t *testing.T) {
	a := NewAuditRecordID()
	b := NewAuditRecordID()
	assert.False(t, a.IsNil())
	assert.NotEqual(t, a, b)
}
