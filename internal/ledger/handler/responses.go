package handler

import (
	"time"

	"dua/internal/ledger/deploy"
	"dua/internal/ledger/models"
	audit "dua/pkg/platform/audit"
)

// LedgerResponse is the body of GET /ledger.
type LedgerResponse struct {
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	Decimals     uint8           `json:"decimals"`
	Cap          string          `json:"cap"`
	TotalSupply  string          `json:"total_supply"`
	Paused       bool            `json:"paused"`
	KillSwitches map[string]bool `json:"kill_switches"`
	Seq          uint64          `json:"seq"`
}

func FromLedgerInfo(info models.LedgerInfo) *LedgerResponse {
	switches := make(map[string]bool, len(info.KillSwitches))
	for f, disabled := range info.KillSwitches {
		switches[f.String()] = disabled
	}
	return &LedgerResponse{
		Name:         info.Name,
		Symbol:       info.Symbol,
		Decimals:     info.Decimals,
		Cap:          info.Cap.Dec(),
		TotalSupply:  info.TotalSupply.Dec(),
		Paused:       info.Paused,
		KillSwitches: switches,
		Seq:          info.Seq,
	}
}

// AccountResponse is the body of GET /ledger/accounts/{account}.
type AccountResponse struct {
	Account     string   `json:"account"`
	Balance     string   `json:"balance"`
	Roles       []string `json:"roles"`
	Blacklisted bool     `json:"blacklisted"`
}

func FromAccountInfo(info models.AccountInfo) *AccountResponse {
	roles := make([]string, 0, len(info.Roles))
	for _, r := range info.Roles {
		roles = append(roles, r.String())
	}
	return &AccountResponse{
		Account:     info.Account.Hex(),
		Balance:     info.Balance.Dec(),
		Roles:       roles,
		Blacklisted: info.Blacklisted,
	}
}

// HasRoleResponse is the body of GET /ledger/roles/{role}/members/{account}.
type HasRoleResponse struct {
	Role    string `json:"role"`
	RoleID  string `json:"role_id"`
	Account string `json:"account"`
	HasRole bool   `json:"has_role"`
}

// MembersResponse is the body of GET /ledger/roles/{role}/members.
type MembersResponse struct {
	Role    string   `json:"role"`
	RoleID  string   `json:"role_id"`
	Members []string `json:"members"`
}

func FromMembers(role models.Role, members []models.Account) *MembersResponse {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.Hex())
	}
	return &MembersResponse{Role: role.String(), RoleID: role.ID().Hex(), Members: out}
}

// ReceiptResponse acknowledges a committed operation.
type ReceiptResponse struct {
	Seq        uint64    `json:"seq"`
	Action     string    `json:"action"`
	RecordedAt time.Time `json:"recorded_at"`
}

func FromReceipt(r models.Receipt) *ReceiptResponse {
	return &ReceiptResponse{Seq: r.Seq, Action: r.Action, RecordedAt: r.RecordedAt}
}

// TokenResponse is the body of POST /admin/tokens.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Account     string    `json:"account"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ManifestResponse is the body of GET /ledger/manifest.
type ManifestResponse struct {
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
	Decimals   uint8     `json:"decimals"`
	Cap        string    `json:"cap"`
	Admin      string    `json:"admin"`
	Minter     string    `json:"minter"`
	Burner     string    `json:"burner"`
	ArgsHash   string    `json:"args_hash"`
	DeployedAt time.Time `json:"deployed_at"`
}

func FromManifest(m deploy.Manifest) *ManifestResponse {
	return &ManifestResponse{
		Name:       m.Name,
		Symbol:     m.Symbol,
		Decimals:   m.Decimals,
		Cap:        m.Cap,
		Admin:      m.Admin.Hex(),
		Minter:     m.Minter.Hex(),
		Burner:     m.Burner.Hex(),
		ArgsHash:   m.ArgsHash.Hex(),
		DeployedAt: m.DeployedAt,
	}
}

// AuditEventResponse is one entry of GET /admin/audit/{account}.
type AuditEventResponse struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Role      string    `json:"role,omitempty"`
	Feature   string    `json:"feature,omitempty"`
	Decision  string    `json:"decision"`
	Reason    string    `json:"reason,omitempty"`
	Seq       uint64    `json:"seq,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// AuditLogResponse is the body of GET /admin/audit/{account}.
type AuditLogResponse struct {
	Actor  string               `json:"actor"`
	Events []AuditEventResponse `json:"events"`
}

func FromAuditEvents(actor models.Account, events []audit.Event) *AuditLogResponse {
	out := make([]AuditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, AuditEventResponse{
			Category:  string(e.Category),
			Timestamp: e.Timestamp,
			Action:    e.Action,
			Subject:   e.Subject,
			Amount:    e.Amount,
			Role:      e.Role,
			Feature:   e.Feature,
			Decision:  e.Decision,
			Reason:    e.Reason,
			Seq:       e.Seq,
			RequestID: e.RequestID,
		})
	}
	return &AuditLogResponse{Actor: actor.Hex(), Events: out}
}
