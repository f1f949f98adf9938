package rbac

import (
	"context"
	"testing"
)

func TestDefaultPolicyMatrix(t *testing.T) {
	p := MustDefaultPolicy()
	cases := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleAdmin, PermTicketsView, true},
		{RoleAdmin, PermTicketsCreate, true},
		{RoleAdmin, PermTicketsDelete, true},
		{RoleAdmin, PermTicketsEditStatus, true},
		{RoleAdmin, PermTicketsEditGroup, true},
		{RoleAdmin, PermTicketsEditOwner, true},
		{RoleAdmin, PermTicketsEditPriority, true},
		{RoleAdmin, PermTicketsEditDetails, true},
		{RoleAdmin, PermNotesAppend, true},
		{RoleAdmin, PermInfoRequest, true},
		{RoleAdmin, PermInfoReply, false},
		{RoleUser, PermTicketsView, true},
		{RoleUser, PermInfoReply, true},
		{RoleUser, PermTicketsCreate, false},
		{RoleUser, PermTicketsUpdate, false},
		{RoleUser, PermTicketsEditStatus, false},
		{RoleUser, PermTicketsDelete, false},
		{RoleUser, PermNotesAppend, false},
		{RoleUser, PermInfoRequest, false},
		{Role("guest"), PermTicketsView, false},
		{"", PermTicketsView, false},
	}
	for _, tc := range cases {
		if got := p.Allowed(tc.role, tc.perm); got != tc.want {
			t.Fatalf("Allowed(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestWildcardDoesNotLeakAcrossPrefixes(t *testing.T) {
	p, err := NewPolicy([]RoleGrant{{Role: RoleUser, Permissions: []Permission{"tickets.edit.*"}}})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	if !p.Allowed(RoleUser, PermTicketsEditGroup) {
		t.Fatalf("expected wildcard grant to cover tickets.edit.group")
	}
	if p.Allowed(RoleUser, PermTicketsDelete) {
		t.Fatalf("wildcard must not cover tickets.delete")
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" Admin "); !ok || r != RoleAdmin {
		t.Fatalf("expected admin, got %q %v", r, ok)
	}
	if r, ok := ParseRole("user"); !ok || r != RoleUser {
		t.Fatalf("expected user, got %q %v", r, ok)
	}
	if _, ok := ParseRole("root"); ok {
		t.Fatalf("unknown role should not parse")
	}
}

func TestRoleContext(t *testing.T) {
	if _, ok := RoleFromContext(context.Background()); ok {
		t.Fatalf("empty context should carry no role")
	}
	ctx := WithRole(context.Background(), RoleUser)
	if r, ok := RoleFromContext(ctx); !ok || r != RoleUser {
		t.Fatalf("expected user role from context, got %q", r)
	}
}

func TestNilPolicyDeniesEverything(t *testing.T) {
	var p *Policy
	if p.Allowed(RoleAdmin, PermTicketsView) {
		t.Fatalf("nil policy must deny")
	}
}
