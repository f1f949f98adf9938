package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole accepts the role names case-insensitively.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

type Permission string

const (
	PermTicketsView         Permission = "tickets.view"
	PermTicketsCreate       Permission = "tickets.create"
	PermTicketsUpdate       Permission = "tickets.update"
	PermTicketsDelete       Permission = "tickets.delete"
	PermTicketsEditDetails  Permission = "tickets.edit.details"
	PermTicketsEditStatus   Permission = "tickets.edit.status"
	PermTicketsEditGroup    Permission = "tickets.edit.group"
	PermTicketsEditOwner    Permission = "tickets.edit.owner"
	PermTicketsEditPriority Permission = "tickets.edit.priority"
	PermNotesAppend         Permission = "tickets.notes.append"
	PermInfoRequest         Permission = "tickets.info.request"
	PermInfoReply           Permission = "tickets.info.reply"
	PermReportsView         Permission = "reports.view"
)

type RoleGrant struct {
	Role        Role
	Permissions []Permission
}

// DefaultRoles grants administrators every ticket mutation except replying to
// an information request, which belongs to the ticket owner.
func DefaultRoles() []RoleGrant {
	return []RoleGrant{
		{
			Role: RoleAdmin,
			Permissions: []Permission{
				PermTicketsView,
				PermTicketsCreate,
				PermTicketsUpdate,
				PermTicketsDelete,
				"tickets.edit.*",
				PermNotesAppend,
				PermInfoRequest,
				PermReportsView,
			},
		},
		{
			Role: RoleUser,
			Permissions: []Permission{
				PermTicketsView,
				PermInfoReply,
				PermReportsView,
			},
		},
	}
}

const modelText = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.act, p.act)
`

type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

func NewPolicy(grants []RoleGrant) (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac: model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac: enforcer: %w", err)
	}
	for _, g := range grants {
		for _, perm := range g.Permissions {
			if _, err := e.AddPolicy(string(g.Role), string(perm)); err != nil {
				return nil, fmt.Errorf("rbac: grant %s %s: %w", g.Role, perm, err)
			}
		}
	}
	return &Policy{enforcer: e}, nil
}

// MustDefaultPolicy is used by wiring code and tests where the built-in
// grants cannot fail to load.
func MustDefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultRoles())
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Policy) Allowed(role Role, perm Permission) bool {
	if p == nil || p.enforcer == nil || role == "" || perm == "" {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), string(perm))
	return err == nil && ok
}

type ctxKey struct{}

// RoleContextKey carries the caller's Role on request contexts.
var RoleContextKey = ctxKey{}

func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, RoleContextKey, role)
}

func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(RoleContextKey).(Role)
	return role, ok && role != ""
}
