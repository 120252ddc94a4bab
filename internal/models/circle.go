package models

// SharingPolicy is a set of boolean consent flags, one per data category.
// The zero value denies everything.
type SharingPolicy struct {
	Health     bool `json:"health"`
	Location   bool `json:"location"`
	Activities bool `json:"activities"`
	Voice      bool `json:"voice"`
	Photos     bool `json:"photos"`
	Diary      bool `json:"diary"`
}

// FriendPrivacySettings is the per-pair (viewer, owner) consent an owner has
// granted to a specific viewer. It is shaped exactly like a SharingPolicy;
// an absent record means all-false (deny).
type FriendPrivacySettings = SharingPolicy

// Circle is a named group of users with a group-level data-visibility
// policy. Membership and policy are owned by the circle's creator; the
// query engine only ever reads them.
type Circle struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	OwnerID     string        `json:"owner_id"`
	MemberIDs   []string      `json:"member_ids"`
	DataSharing SharingPolicy `json:"data_sharing"`
}

// HasMember reports whether userID belongs to the circle.
func (c *Circle) HasMember(userID string) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
