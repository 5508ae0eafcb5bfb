// Package audit records every composite calculation as a write-once record:
// full input snapshot, the config versions used, all intermediates and the
// final liability. Re-running a record's inputs against the same config
// versions must reproduce its result exactly.
package audit

import (
	"encoding/json"
	"time"

	id "goalplan/pkg/domain"
)

// EngineVersion is stamped on every record so historical results can be
// attributed to the code that produced them.
const EngineVersion = "1.0.0"

// CalculationAuditRecord is immutable once written. Intermediates and the
// result are stored as raw JSON; the record is a reproduction artifact, not
// a query model.
type CalculationAuditRecord struct {
	ID        id.AuditRecordID `json:"id"`
	UserID    id.UserID        `json:"user_id"`
	TaxYear   id.TaxYear       `json:"tax_year"`
	CreatedAt time.Time        `json:"created_at"`

	EngineVersion string `json:"engine_version"`
	// ConfigVersions lists every config snapshot the calculation read,
	// keyed "UK:2024/25" with the full version key used.
	ConfigVersions map[string]string `json:"config_versions"`
	// RequestHash keys the result cache; identical requests against
	// identical config versions share it.
	RequestHash string `json:"request_hash"`

	Request       json.RawMessage `json:"request"`
	Intermediates json.RawMessage `json:"intermediates"`
	Result        json.RawMessage `json:"result"`
}
