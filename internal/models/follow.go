package models

import "time"

// Follow is a directed edge: FollowerID sees FollowedID's posts in their feed.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false;index:idx_follows_followed" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followed User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowResult describes the outcome of a follow or unfollow request.
// Only hard failures are reported as errors; every value here is a success.
type FollowResult string

const (
	FollowResultFollowed            FollowResult = "followed"
	FollowResultAlreadyFollowing    FollowResult = "already_following"
	FollowResultSelfFollowIgnored   FollowResult = "self_follow_ignored"
	FollowResultUnfollowed          FollowResult = "unfollowed"
	FollowResultNotFollowing        FollowResult = "not_following"
	FollowResultSelfUnfollowIgnored FollowResult = "self_unfollow_ignored"
)

// Changed reports whether the edge set was modified.
func (r FollowResult) Changed() bool {
	return r == FollowResultFollowed || r == FollowResultUnfollowed
}
