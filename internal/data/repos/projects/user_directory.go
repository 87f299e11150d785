package projects

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rsamf/gamma/internal/pkg/dbctx"
	"github.com/rsamf/gamma/internal/platform/logger"
)

const DefaultAuthUsersTable = "auth.users"

// UserIdentity is the GitHub identity recorded by the auth provider.
type UserIdentity struct {
	UserID    uuid.UUID
	Login     string
	AvatarURL string
}

// UserDirectory reads auth users. It must be backed by the admin tier.
type UserDirectory interface {
	Lookup(dbc dbctx.Context, userID uuid.UUID) (*UserIdentity, error)
}

type userDirectory struct {
	db    *gorm.DB
	table string
	log   *logger.Logger
}

func NewUserDirectory(adminDB *gorm.DB, table string, baseLog *logger.Logger) UserDirectory {
	if strings.TrimSpace(table) == "" {
		table = DefaultAuthUsersTable
	}
	return &userDirectory{db: adminDB, table: table, log: baseLog.With("repo", "UserDirectory")}
}

type authUserRow struct {
	ID              string         `gorm:"column:id"`
	RawUserMetaData datatypes.JSON `gorm:"column:raw_user_meta_data"`
}

func (r *userDirectory) Lookup(dbc dbctx.Context, userID uuid.UUID) (*UserIdentity, error) {
	var rows []authUserRow
	if err := dbc.Use(r.db).
		Table(r.table).
		Select("id, raw_user_meta_data").
		Where("id = ?", userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	meta := map[string]interface{}{}
	if len(rows[0].RawUserMetaData) > 0 {
		if err := json.Unmarshal(rows[0].RawUserMetaData, &meta); err != nil {
			r.log.Warn("auth user metadata is not an object", "user_id", userID, "error", err)
		}
	}
	return &UserIdentity{
		UserID:    userID,
		Login:     firstString(meta, "user_name", "preferred_username"),
		AvatarURL: firstString(meta, "avatar_url"),
	}, nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
