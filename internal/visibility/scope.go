package visibility

import (
	"gorm.io/gorm"

	"github.com/emiliorvera/brandvault-backend/pkg/db/models"
	"github.com/emiliorvera/brandvault-backend/pkg/enums"
)

// Scope returns a GORM scope restricting an asset query to rows the viewer may
// see. It is the query-executable restatement of Evaluate, applied before
// COUNT and pagination so reported totals match what the viewer can actually
// retrieve. Admins get an unrestricted scope.
func Scope(viewer *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewer == nil {
			return db.Where("1 = 0")
		}
		if viewer.Role == enums.UserRoleAdmin {
			return db
		}

		released := db.Session(&gorm.Session{NewDB: true}).
			Where("assets.status = ?", enums.AssetStatusApproved).
			Or("assets.upload_channel = ?", enums.UploadChannelPrivate)

		qualifies := db.Session(&gorm.Session{NewDB: true}).
			Where("assets.visibility = ?", enums.VisibilityPublic)
		if viewer.CompanyID != nil {
			qualifies = qualifies.Or(
				"assets.visibility = ? AND assets.company_id = ?",
				enums.VisibilityCompanyScoped, *viewer.CompanyID,
			)
		}
		qualifies = qualifies.Or(
			"assets.visibility = ? AND assets.allowed_role = ?",
			enums.VisibilityRoleScoped, viewer.Role,
		)
		qualifies = qualifies.Or(
			"assets.visibility = ? AND EXISTS (SELECT 1 FROM share_grants sg WHERE sg.asset_id = assets.id AND sg.grantee_user_id = ?)",
			enums.VisibilitySelectedUsers, viewer.ID,
		)

		visible := db.Session(&gorm.Session{NewDB: true}).
			Where(released).Where(qualifies)

		return db.Where(
			db.Session(&gorm.Session{NewDB: true}).
				Where("assets.owner_id = ?", viewer.ID).
				Or(visible),
		)
	}
}
