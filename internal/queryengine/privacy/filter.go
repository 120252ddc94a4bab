// Package privacy enforces circle data-sharing rules on retrieved
// fragments. The effective permission for a viewer is always the
// intersection of the circle's group policy and the owner's individual
// consent toward that viewer; it can never exceed either.
package privacy

import (
	"lifequery/internal/models"
)

// EffectiveSharing computes the category-wise AND of a circle policy and a
// member's consent toward the querying user.
func EffectiveSharing(circle models.SharingPolicy, friend models.FriendPrivacySettings) models.SharingPolicy {
	return models.SharingPolicy{
		Health:     circle.Health && friend.Health,
		Location:   circle.Location && friend.Location,
		Activities: circle.Activities && friend.Activities,
		Voice:      circle.Voice && friend.Voice,
		Photos:     circle.Photos && friend.Photos,
		Diary:      circle.Diary && friend.Diary,
	}
}

// Allows reports whether the policy permits the given data type. Unknown
// data types are denied (fail closed).
func Allows(policy models.SharingPolicy, dataType models.DataType) bool {
	switch dataType {
	case models.DataTypeHealth:
		return policy.Health
	case models.DataTypeLocation:
		return policy.Location
	case models.DataTypeSharedActivity:
		return policy.Activities
	case models.DataTypeVoice:
		return policy.Voice
	case models.DataTypePhoto:
		return policy.Photos
	case models.DataTypeText:
		return policy.Diary
	default:
		return false
	}
}

// AllowedDataTypes lists the data types a policy permits, in a stable
// order. Used by the retriever as the coarse circle-level filter.
func AllowedDataTypes(policy models.SharingPolicy) []models.DataType {
	var types []models.DataType
	if policy.Health {
		types = append(types, models.DataTypeHealth)
	}
	if policy.Location {
		types = append(types, models.DataTypeLocation)
	}
	if policy.Activities {
		types = append(types, models.DataTypeSharedActivity)
	}
	if policy.Voice {
		types = append(types, models.DataTypeVoice)
	}
	if policy.Photos {
		types = append(types, models.DataTypePhoto)
	}
	if policy.Diary {
		types = append(types, models.DataTypeText)
	}
	return types
}

// FilterFragments drops every fragment the effective sharing policy would
// not permit the viewer to see. Fragments the viewer owns are always kept.
// Owners absent from settings are treated as having denied everything. The
// candidate slice is not mutated.
func FilterFragments(
	viewerID string,
	circle *models.Circle,
	settings map[string]models.FriendPrivacySettings,
	fragments []models.RetrievedFragment,
) []models.RetrievedFragment {
	kept := make([]models.RetrievedFragment, 0, len(fragments))
	for _, fragment := range fragments {
		if fragment.OwnerUserID == viewerID {
			kept = append(kept, fragment)
			continue
		}
		effective := EffectiveSharing(circle.DataSharing, settings[fragment.OwnerUserID])
		if Allows(effective, fragment.DataType) {
			kept = append(kept, fragment)
		}
	}
	return kept
}
