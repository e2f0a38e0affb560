package visibility

import (
	"context"

	"github.com/google/uuid"

	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
)

// ShareLookup answers whether an explicit share grant exists for a viewer.
type ShareLookup interface {
	HasGrant(ctx context.Context, assetID, userID uuid.UUID) (bool, error)
}

// Engine evaluates whether a viewer may see a single asset. The per-item rule
// here and the query predicate in scope.go are two renderings of the same
// policy; a change to one must be mirrored in the other.
type Engine struct {
	shares ShareLookup
}

// NewEngine constructs an Engine over the given share lookup.
func NewEngine(shares ShareLookup) *Engine {
	return &Engine{shares: shares}
}

// CanView reports whether viewer may see asset. The share lookup is consulted
// only when the decision actually depends on it, keeping the owner and admin
// paths free of any relational work.
func (e *Engine) CanView(ctx context.Context, viewer *models.User, asset *models.Asset) (bool, error) {
	if viewer == nil || asset == nil {
		return false, nil
	}
	if decided, allowed := decideWithoutShares(viewer, asset); decided {
		return allowed, nil
	}
	hasShare, err := e.shares.HasGrant(ctx, asset.ID, viewer.ID)
	if err != nil {
		return false, err
	}
	return Evaluate(viewer, asset, hasShare), nil
}

// Evaluate is the pure form of the rule: first matching clause wins.
//
//  1. Owners always see their own assets, drafts and rejections included.
//  2. Admins always see everything.
//  3. Everyone else must pass the release gate (approved, or on the private
//     channel where no review applies) and then qualify under the visibility
//     level.
func Evaluate(viewer *models.User, asset *models.Asset, hasShare bool) bool {
	if viewer == nil || asset == nil {
		return false
	}
	if decided, allowed := decideWithoutShares(viewer, asset); decided {
		return allowed
	}
	return hasShare
}

// decideWithoutShares resolves every clause that does not need a share lookup.
// It returns decided=false only when the answer hinges on a share grant.
func decideWithoutShares(viewer *models.User, asset *models.Asset) (decided, allowed bool) {
	if asset.OwnerID == viewer.ID {
		return true, true
	}
	if viewer.Role == enums.UserRoleAdmin {
		return true, true
	}
	if !released(asset) {
		return true, false
	}

	switch asset.Visibility {
	case enums.VisibilityPublic:
		return true, true
	case enums.VisibilityCompanyScoped:
		ok := viewer.CompanyID != nil && asset.CompanyID != nil && *viewer.CompanyID == *asset.CompanyID
		return true, ok
	case enums.VisibilityRoleScoped:
		ok := asset.AllowedRole != nil && viewer.Role == *asset.AllowedRole
		return true, ok
	case enums.VisibilitySelectedUsers:
		return false, false
	default:
		// unset, private_owner_only, admin_only: nothing for non-owners here.
		return true, false
	}
}

// released reports whether the asset is in a publicly consumable state.
// Private-channel assets never enter review, so the status gate does not
// apply to them.
func released(asset *models.Asset) bool {
	if asset.UploadChannel == enums.UploadChannelPrivate {
		return true
	}
	return asset.Status == enums.AssetStatusApproved
}
