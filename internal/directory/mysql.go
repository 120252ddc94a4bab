// Package directory provides the circle/friend directory backed by MySQL,
// with an optional Redis read-through cache in front of it.
package directory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
)

// UserRecord is a directory user row.
type UserRecord struct {
	ID          string `gorm:"primaryKey;size:64"`
	DisplayName string `gorm:"size:128"`
}

func (UserRecord) TableName() string { return "users" }

// CircleRecord is a circle row; members live in circle_members.
type CircleRecord struct {
	ID      string `gorm:"primaryKey;size:64"`
	Name    string `gorm:"size:128"`
	OwnerID string `gorm:"size:64;index"`

	ShareHealth     bool
	ShareLocation   bool
	ShareActivities bool
	ShareVoice      bool
	SharePhotos     bool
	ShareDiary      bool
}

func (CircleRecord) TableName() string { return "circles" }

// CircleMemberRecord links a user into a circle.
type CircleMemberRecord struct {
	CircleID string `gorm:"primaryKey;size:64"`
	UserID   string `gorm:"primaryKey;size:64"`
}

func (CircleMemberRecord) TableName() string { return "circle_members" }

// FriendPrivacyRecord is the per-pair consent an owner granted a viewer.
// A missing row means the owner shares nothing with that viewer.
type FriendPrivacyRecord struct {
	OwnerID  string `gorm:"primaryKey;size:64"`
	ViewerID string `gorm:"primaryKey;size:64"`

	ShareHealth     bool
	ShareLocation   bool
	ShareActivities bool
	ShareVoice      bool
	SharePhotos     bool
	ShareDiary      bool
}

func (FriendPrivacyRecord) TableName() string { return "friend_privacy_settings" }

// MySQLDirectory implements ports.Directory over GORM.
type MySQLDirectory struct {
	db *gorm.DB
}

// NewMySQLDirectory creates a directory over an open GORM handle.
func NewMySQLDirectory(db *gorm.DB) *MySQLDirectory {
	return &MySQLDirectory{db: db}
}

// GetCircle loads a circle and its member set.
func (d *MySQLDirectory) GetCircle(ctx context.Context, id string) (*models.Circle, error) {
	var record CircleRecord
	if err := d.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("circle %s not found", id)
		}
		return nil, fmt.Errorf("failed to load circle %s: %w", id, err)
	}

	var members []CircleMemberRecord
	if err := d.db.WithContext(ctx).Find(&members, "circle_id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to load members of circle %s: %w", id, err)
	}

	memberIDs := make([]string, len(members))
	for i, member := range members {
		memberIDs[i] = member.UserID
	}

	return &models.Circle{
		ID:        record.ID,
		Name:      record.Name,
		OwnerID:   record.OwnerID,
		MemberIDs: memberIDs,
		DataSharing: models.SharingPolicy{
			Health:     record.ShareHealth,
			Location:   record.ShareLocation,
			Activities: record.ShareActivities,
			Voice:      record.ShareVoice,
			Photos:     record.SharePhotos,
			Diary:      record.ShareDiary,
		},
	}, nil
}

// GetPrivacySettings returns the consent each owner granted the viewer.
// Owners without a row are absent from the map; callers treat absence as
// all-false.
func (d *MySQLDirectory) GetPrivacySettings(ctx context.Context, viewerID string, ownerIDs []string) (map[string]models.FriendPrivacySettings, error) {
	settings := make(map[string]models.FriendPrivacySettings, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return settings, nil
	}

	var records []FriendPrivacyRecord
	err := d.db.WithContext(ctx).
		Where("viewer_id = ? AND owner_id IN ?", viewerID, ownerIDs).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load privacy settings for viewer %s: %w", viewerID, err)
	}

	for _, record := range records {
		settings[record.OwnerID] = models.FriendPrivacySettings{
			Health:     record.ShareHealth,
			Location:   record.ShareLocation,
			Activities: record.ShareActivities,
			Voice:      record.ShareVoice,
			Photos:     record.SharePhotos,
			Diary:      record.ShareDiary,
		}
	}
	return settings, nil
}

// GetDisplayName resolves a user's display name.
func (d *MySQLDirectory) GetDisplayName(ctx context.Context, userID string) (string, error) {
	var record UserRecord
	if err := d.db.WithContext(ctx).First(&record, "id = ?", userID).Error; err != nil {
		return "", fmt.Errorf("failed to load display name for %s: %w", userID, err)
	}
	return record.DisplayName, nil
}

var _ ports.Directory = (*MySQLDirectory)(nil)
