package service

import (
	"context"

	"estate_crm_backend/internal/identity/repository"

	"github.com/google/uuid"
)

// Feature keys grantable through roles. Handlers check these by membership;
// unknown keys simply never match.
const (
	PermViewAllLeads     = "view_all_leads"
	PermEditAllLeads     = "edit_all_leads"
	PermEditTeamLeads    = "edit_team_leads"
	PermEditOwnLeads     = "edit_own_leads"
	PermCampaignRun      = "campaign.run"
	PermCampaignManage   = "campaign.manage"
	PermPropertyManage   = "property.manage"
	PermRoleManage       = "role.manage"
	PermBillingView      = "billing.view"
)

// AccessScope is the breadth of data a caller may touch for one feature.
// It is resolved once per request and threaded into query builders, rather
// than rechecking ad-hoc permission booleans at each query site.
type AccessScope int

const (
	// ScopeNone denies the operation entirely.
	ScopeNone AccessScope = iota
	// ScopeOwn limits the operation to rows assigned to the caller.
	ScopeOwn
	// ScopeTeam limits the operation to the caller's team.
	ScopeTeam
	// ScopeAll allows the operation across the whole organization.
	ScopeAll
)

// String returns the scope name for logging.
func (s AccessScope) String() string {
	switch s {
	case ScopeOwn:
		return "own"
	case ScopeTeam:
		return "team"
	case ScopeAll:
		return "all"
	default:
		return "none"
	}
}

// ScopeFeature names the three permission keys that grant widening scopes
// for one feature.
type ScopeFeature struct {
	All  string
	Team string
	Own  string
}

// LeadEditScope is the scope feature for lead mutation endpoints.
var LeadEditScope = ScopeFeature{
	All:  PermEditAllLeads,
	Team: PermEditTeamLeads,
	Own:  PermEditOwnLeads,
}

// ProfileSource resolves a user to a profile with permissions. Implemented by
// the identity Service (cache-backed); faked in tests.
type ProfileSource interface {
	Profile(ctx context.Context, userID uuid.UUID) (repository.Profile, error)
}

// Resolver answers permission questions for a user. All methods fail closed:
// a missing profile, missing role, or lookup error resolves to "no".
type Resolver struct {
	profiles ProfileSource
}

// NewResolver creates a permission resolver over the given profile source.
func NewResolver(profiles ProfileSource) *Resolver {
	return &Resolver{profiles: profiles}
}

// HasPermission reports whether the user's role grants the feature key.
// Never returns an error: any lookup failure resolves to false.
func (r *Resolver) HasPermission(ctx context.Context, userID uuid.UUID, featureKey string) bool {
	profile, err := r.profiles.Profile(ctx, userID)
	if err != nil {
		return false
	}

	for _, perm := range profile.Permissions {
		if perm == featureKey {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the user holds at least one of the keys.
func (r *Resolver) HasAnyPermission(ctx context.Context, userID uuid.UUID, featureKeys ...string) bool {
	profile, err := r.profiles.Profile(ctx, userID)
	if err != nil {
		return false
	}

	granted := make(map[string]struct{}, len(profile.Permissions))
	for _, perm := range profile.Permissions {
		granted[perm] = struct{}{}
	}
	for _, key := range featureKeys {
		if _, ok := granted[key]; ok {
			return true
		}
	}
	return false
}

// ResolveScope returns the widest access scope the user's role grants for
// the feature. Wider grants win; no grant resolves to ScopeNone.
func (r *Resolver) ResolveScope(ctx context.Context, userID uuid.UUID, feature ScopeFeature) AccessScope {
	profile, err := r.profiles.Profile(ctx, userID)
	if err != nil {
		return ScopeNone
	}

	scope := ScopeNone
	for _, perm := range profile.Permissions {
		switch perm {
		case feature.All:
			return ScopeAll
		case feature.Team:
			if scope < ScopeTeam {
				scope = ScopeTeam
			}
		case feature.Own:
			if scope < ScopeOwn {
				scope = ScopeOwn
			}
		}
	}
	return scope
}
