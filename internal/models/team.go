package models

import (
	"time"

	"gorm.io/gorm"
)

type TeamRank string

const (
	RankF TeamRank = "F"
	RankE TeamRank = "E"
	RankD TeamRank = "D"
	RankC TeamRank = "C"
	RankB TeamRank = "B"
	RankA TeamRank = "A"
	RankS TeamRank = "S"
)

// RankThresholds maps each rank to the cumulative point total required to
// reach it. A team's rank is the highest entry whose threshold is <= its
// total_points.
var RankThresholds = []struct {
	Rank      TeamRank
	Threshold int
}{
	{RankF, 0},
	{RankE, 100},
	{RankD, 300},
	{RankC, 600},
	{RankB, 1100},
	{RankA, 1600},
	{RankS, 2100},
}

// RankForPoints returns the rank for a cumulative point total. Exact
// threshold hits select the higher rank.
func RankForPoints(totalPoints int) TeamRank {
	if totalPoints < 0 {
		totalPoints = 0
	}
	rank := RankF
	for _, rt := range RankThresholds {
		if totalPoints >= rt.Threshold {
			rank = rt.Rank
		}
	}
	return rank
}

// Team is a closed group of 2-5 users. member_count, total_points and rank
// are cached aggregates; they are updated in the same transaction as the
// event that changes them (join/leave, completion).
type Team struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"type:varchar(30);not null" json:"name"`
	OwnerID     uint64         `gorm:"not null" json:"owner_id"`
	MaxMembers  int            `gorm:"not null;default:5" json:"max_members"`
	MemberCount int            `gorm:"not null;default:1" json:"member_count"`
	TotalPoints int            `gorm:"not null;default:0;index" json:"total_points"`
	Rank        TeamRank       `gorm:"type:varchar(1);not null;default:'F';index" json:"rank"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	DissolvedAt *time.Time     `json:"dissolved_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner   User         `gorm:"foreignKey:OwnerID" json:"-"`
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Invite  *TeamInvite  `gorm:"foreignKey:TeamID" json:"invite,omitempty"`
}

// IsQuestUnlocked reports whether quests are available (2+ members).
func (t *Team) IsQuestUnlocked() bool {
	return t.MemberCount >= 2
}

// IsFull reports whether the team has reached its member cap.
func (t *Team) IsFull() bool {
	return t.MemberCount >= t.MaxMembers
}
