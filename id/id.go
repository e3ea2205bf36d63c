// Package id defines TypeID-based identity types for all Steward entities.
//
// Every entity uses a single ID struct with a prefix that identifies the
// entity type. IDs are K-sortable (UUIDv7-based), globally unique, and
// URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all Steward entity types.
const (
	PrefixDomicile Prefix = "dom"  // Client site
	PrefixTask     Prefix = "task" // Task instance
	PrefixTimeLog  Prefix = "tlog" // Time-log ledger entry
	PrefixInvoice  Prefix = "inv"  // Invoice
	PrefixRate     Prefix = "rate" // Executor rate at a domicile
	PrefixBudget   Prefix = "bud"  // Monthly budget
	PrefixTemplate Prefix = "rtpl" // Recurring task template
)

// ID is the primary identifier type for all Steward entities.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "tlog_01h2xcejqtf2nbrexx3vqjhp41").
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ParseOptional parses s, mapping the empty string to Nil.
// Used by storage backends for nullable references.
func ParseOptional(s string, expected Prefix) (ID, error) {
	if s == "" {
		return Nil, nil
	}
	return ParseWithPrefix(s, expected)
}

// Typed aliases. They document intent at call sites; the prefix is what
// actually distinguishes one kind from another.
type (
	DomicileID = ID
	TaskID     = ID
	TimeLogID  = ID
	InvoiceID  = ID
	RateID     = ID
	BudgetID   = ID
	TemplateID = ID
)

func NewDomicileID() ID { return New(PrefixDomicile) }
func NewTaskID() ID     { return New(PrefixTask) }
func NewTimeLogID() ID  { return New(PrefixTimeLog) }
func NewInvoiceID() ID  { return New(PrefixInvoice) }
func NewRateID() ID     { return New(PrefixRate) }
func NewBudgetID() ID   { return New(PrefixBudget) }
func NewTemplateID() ID { return New(PrefixTemplate) }

func ParseDomicileID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDomicile) }
func ParseTaskID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixTask) }
func ParseTimeLogID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixTimeLog) }
func ParseInvoiceID(s string) (ID, error)  { return ParseWithPrefix(s, PrefixInvoice) }
func ParseRateID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixRate) }
func ParseBudgetID(s string) (ID, error)   { return ParseWithPrefix(s, PrefixBudget) }
func ParseTemplateID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTemplate) }

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer. The Nil ID is stored as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
