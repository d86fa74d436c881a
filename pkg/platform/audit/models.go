package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers supply-changing events that must be kept for
	// reconciliation (mint, burn).
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers privilege changes, pausing, blacklisting,
	// self-destructs and every rejected operation.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine value movement.
	CategoryOperations EventCategory = "operations"
)

// Decision values recorded on every ledger event.
const (
	DecisionAccepted = "accepted"
	DecisionRejected = "rejected"
)

// Event is emitted from the ledger service to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// Actor is the caller account (0x hex).
	Actor string
	// Subject is the account the operation targets, when there is one.
	Subject  string
	Amount   string
	Role     string
	Feature  string
	Decision string
	Reason   string
	// Seq is the journal sequence of an accepted operation.
	Seq       uint64
	RequestID string
	ClientIP  string
	UserAgent string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actor string) ([]Event, error)
}

type AuditEvent string

const (
	EventMinted             AuditEvent = "mint"
	EventBurned             AuditEvent = "burn"
	EventTransferred        AuditEvent = "transfer"
	EventPaused             AuditEvent = "pause"
	EventUnpaused           AuditEvent = "unpause"
	EventMinterAdded        AuditEvent = "add_minter"
	EventBurnerAdded        AuditEvent = "add_burner"
	EventAdminAdded         AuditEvent = "add_admin"
	EventRoleRevoked        AuditEvent = "revoke_role"
	EventRoleRenounced      AuditEvent = "renounce_role"
	EventBlacklisted        AuditEvent = "add_to_blacklist"
	EventUnblacklisted      AuditEvent = "remove_from_blacklist"
	EventPauseDestroyed     AuditEvent = "self_destruct_pause"
	EventMintDestroyed      AuditEvent = "self_destruct_mint"
	EventBurnDestroyed      AuditEvent = "self_destruct_burn"
	EventAddMinterDestroyed AuditEvent = "self_destruct_add_minter"
	EventAddAdminDestroyed  AuditEvent = "self_destruct_add_admin"
	EventTokenIssued        AuditEvent = "token_issued"
)

// eventCategories maps each accepted audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventMinted: CategoryCompliance,
	EventBurned: CategoryCompliance,

	EventPaused:             CategorySecurity,
	EventUnpaused:           CategorySecurity,
	EventMinterAdded:        CategorySecurity,
	EventBurnerAdded:        CategorySecurity,
	EventAdminAdded:         CategorySecurity,
	EventRoleRevoked:        CategorySecurity,
	EventRoleRenounced:      CategorySecurity,
	EventBlacklisted:        CategorySecurity,
	EventUnblacklisted:      CategorySecurity,
	EventPauseDestroyed:     CategorySecurity,
	EventMintDestroyed:      CategorySecurity,
	EventBurnDestroyed:      CategorySecurity,
	EventAddMinterDestroyed: CategorySecurity,
	EventAddAdminDestroyed:  CategorySecurity,
	EventTokenIssued:        CategorySecurity,

	EventTransferred: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// CategoryFor routes rejected operations to security regardless of action.
func CategoryFor(action, decision string) EventCategory {
	if decision == DecisionRejected {
		return CategorySecurity
	}
	return AuditEvent(action).Category()
}
