package repository

import (
	"strings"
	"testing"
)

func TestLeadLinkQueriesAreTenantScoped(t *testing.T) {
	for name, query := range map[string]string{
		"lock":        GetPropertyForUpdateQuery,
		"clearOthers": ClearOtherLeadsQuery,
		"clearAll":    ClearAllLeadsQuery,
		"link":        LinkLeadQuery,
		"refresh":     RefreshProjectUnitsQuery,
	} {
		if !strings.Contains(query, "organization_id") {
			t.Errorf("%s query is not tenant scoped", name)
		}
	}
}

func TestClearOtherLeadsExcludesTargetLead(t *testing.T) {
	if !strings.Contains(ClearOtherLeadsQuery, "id <> $3") {
		t.Fatal("clear-others must exclude the lead being linked")
	}
}
