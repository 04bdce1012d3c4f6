package models

import "time"

// Group is a private study circle. Posts scoped to it are visible to members only.
type Group struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatorID   int64     `db:"creator_id" json:"creator_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	CreatorUsername string `db:"creator_username" json:"creator_username"`
	MemberCount     int    `db:"member_count" json:"member_count"`
}

// GroupMember is one membership row joined with the member's username.
type GroupMember struct {
	GroupID  int64     `db:"group_id" json:"-"`
	UserID   int64     `db:"user_id" json:"user_id"`
	Username string    `db:"username" json:"username"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// GroupDetail is a group together with its current members.
type GroupDetail struct {
	Group
	Members []GroupMember `json:"members"`
}

// HasMember reports whether userID is in the member list.
func (g GroupDetail) HasMember(userID int64) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
