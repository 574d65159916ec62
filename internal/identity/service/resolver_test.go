package service

import (
	"context"
	"errors"
	"testing"

	"estate_crm_backend/internal/identity/repository"

	"github.com/google/uuid"
)

type fakeProfiles struct {
	profile repository.Profile
	err     error
}

func (f fakeProfiles) Profile(ctx context.Context, userID uuid.UUID) (repository.Profile, error) {
	return f.profile, f.err
}

func TestHasPermissionGranted(t *testing.T) {
	r := NewResolver(fakeProfiles{profile: repository.Profile{
		Permissions: []string{PermViewAllLeads, PermCampaignRun},
	}})

	if !r.HasPermission(context.Background(), uuid.New(), PermCampaignRun) {
		t.Fatal("expected campaign.run to be granted")
	}
	if r.HasPermission(context.Background(), uuid.New(), PermRoleManage) {
		t.Fatal("expected role.manage to be denied")
	}
}

func TestHasPermissionFailsClosedOnLookupError(t *testing.T) {
	r := NewResolver(fakeProfiles{err: errors.New("database down")})

	if r.HasPermission(context.Background(), uuid.New(), PermViewAllLeads) {
		t.Fatal("lookup failure must resolve to false")
	}
	if r.HasAnyPermission(context.Background(), uuid.New(), PermViewAllLeads, PermEditAllLeads) {
		t.Fatal("lookup failure must resolve to false")
	}
	if got := r.ResolveScope(context.Background(), uuid.New(), LeadEditScope); got != ScopeNone {
		t.Fatalf("lookup failure must resolve to ScopeNone, got %s", got)
	}
}

func TestHasPermissionFailsClosedWithoutRole(t *testing.T) {
	// A profile whose role was deleted has nil permissions.
	r := NewResolver(fakeProfiles{profile: repository.Profile{Permissions: nil}})

	if r.HasPermission(context.Background(), uuid.New(), PermViewAllLeads) {
		t.Fatal("user without a role must have no permissions")
	}
}

func TestHasAnyPermission(t *testing.T) {
	r := NewResolver(fakeProfiles{profile: repository.Profile{
		Permissions: []string{PermEditOwnLeads},
	}})

	if !r.HasAnyPermission(context.Background(), uuid.New(), PermEditAllLeads, PermEditOwnLeads) {
		t.Fatal("expected any-match on edit_own_leads")
	}
	if r.HasAnyPermission(context.Background(), uuid.New(), PermEditAllLeads, PermEditTeamLeads) {
		t.Fatal("expected no match")
	}
}

func TestResolveScopeWidestWins(t *testing.T) {
	cases := []struct {
		name  string
		perms []string
		want  AccessScope
	}{
		{"no grants", []string{PermCampaignRun}, ScopeNone},
		{"own only", []string{PermEditOwnLeads}, ScopeOwn},
		{"team only", []string{PermEditTeamLeads}, ScopeTeam},
		{"own and team", []string{PermEditOwnLeads, PermEditTeamLeads}, ScopeTeam},
		{"all wins", []string{PermEditOwnLeads, PermEditAllLeads}, ScopeAll},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(fakeProfiles{profile: repository.Profile{Permissions: tc.perms}})
			got := r.ResolveScope(context.Background(), uuid.New(), LeadEditScope)
			if got != tc.want {
				t.Fatalf("got scope %s, want %s", got, tc.want)
			}
		})
	}
}
