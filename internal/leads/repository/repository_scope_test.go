package repository

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

// Every lead query must be tenant-scoped.
func TestLeadQueriesAreTenantScoped(t *testing.T) {
	queries := map[string]string{
		"get lead":    getLeadQuery,
		"list stages": listStagesQuery,
	}

	for name, query := range queries {
		if !strings.Contains(strings.ToLower(query), "organization_id") {
			t.Errorf("%s query is missing organization scoping", name)
		}
	}
}

func TestBuildBulkUpdateScopesToTenant(t *testing.T) {
	stage := uuid.New()
	query, args := BuildBulkUpdate(BulkUpdateParams{
		OrganizationID: uuid.New(),
		LeadIDs:        []uuid.UUID{uuid.New()},
		StageID:        &stage,
	})

	if !strings.Contains(query, "organization_id = $1") {
		t.Error("bulk update must scope to organization")
	}
	if !strings.Contains(query, "id = ANY($2)") {
		t.Error("bulk update must restrict to the requested leads")
	}
	if strings.Contains(query, "assigned_to = $") && len(args) != 3 {
		t.Error("unexpected owner restriction without RestrictToOwner")
	}
}

func TestBuildBulkUpdateOwnerRestriction(t *testing.T) {
	stage := uuid.New()
	owner := uuid.New()
	query, args := BuildBulkUpdate(BulkUpdateParams{
		OrganizationID:  uuid.New(),
		LeadIDs:         []uuid.UUID{uuid.New(), uuid.New()},
		StageID:         &stage,
		RestrictToOwner: &owner,
	})

	if !strings.Contains(query, "AND assigned_to = $4") {
		t.Fatalf("owner-scoped bulk update must filter on assigned_to, got: %s", query)
	}
	if args[len(args)-1] != owner {
		t.Fatal("owner restriction argument not bound")
	}
}

func TestBuildBulkUpdateTeamRestriction(t *testing.T) {
	stage := uuid.New()
	member := uuid.New()
	query, _ := BuildBulkUpdate(BulkUpdateParams{
		OrganizationID:   uuid.New(),
		LeadIDs:          []uuid.UUID{uuid.New()},
		StageID:          &stage,
		RestrictToTeamOf: &member,
	})

	if !strings.Contains(query, "role_id = (SELECT role_id FROM users WHERE id = $4)") {
		t.Fatalf("team-scoped bulk update must filter by shared role, got: %s", query)
	}
}

func TestBuildBulkUpdateOwnerWinsOverTeam(t *testing.T) {
	stage := uuid.New()
	caller := uuid.New()
	query, _ := BuildBulkUpdate(BulkUpdateParams{
		OrganizationID:   uuid.New(),
		LeadIDs:          []uuid.UUID{uuid.New()},
		StageID:          &stage,
		RestrictToOwner:  &caller,
		RestrictToTeamOf: &caller,
	})

	if strings.Contains(query, "role_id") {
		t.Fatal("owner restriction must take precedence over team restriction")
	}
}
