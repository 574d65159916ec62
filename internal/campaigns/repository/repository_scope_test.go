package repository

import (
	"strings"
	"testing"
)

func TestCampaignQueriesAreTenantScoped(t *testing.T) {
	queries := map[string]string{
		"get campaign":  getCampaignQuery,
		"project leads": projectLeadsQuery,
	}

	for name, query := range queries {
		if !strings.Contains(strings.ToLower(query), "organization_id") {
			t.Errorf("%s query is missing organization scoping", name)
		}
	}
}
