package repository

import (
	"strings"
	"testing"
)

func TestProfileQueriesJoinRolesWithinTenant(t *testing.T) {
	for name, query := range map[string]string{
		"getProfile":          getProfileQuery,
		"listProfiles":        listProfilesQuery,
		"firstAvailableAgent": firstAvailableAgentQuery,
	} {
		lowered := strings.ToLower(query)
		if !strings.Contains(lowered, "r.organization_id = u.organization_id") {
			t.Fatalf("%s: role join must verify organization_id equality", name)
		}
	}
}

func TestListQueriesAreTenantScoped(t *testing.T) {
	for name, query := range map[string]string{
		"listProfiles":        listProfilesQuery,
		"firstAvailableAgent": firstAvailableAgentQuery,
	} {
		lowered := strings.ToLower(query)
		if !strings.Contains(lowered, "u.organization_id = $1") {
			t.Fatalf("%s: expected tenant scoping on users", name)
		}
	}
}

func TestFirstAvailableAgentIsFirstRowWins(t *testing.T) {
	lowered := strings.ToLower(firstAvailableAgentQuery)
	if !strings.Contains(lowered, "limit 1") {
		t.Fatal("first available agent lookup must take exactly one row")
	}
	if !strings.Contains(lowered, "u.phone is not null") {
		t.Fatal("transfer destination requires a phone number")
	}
}
