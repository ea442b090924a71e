package models

import "time"

// Follow is a directed edge: the follower sees the followee's activity
type Follow struct {
	ID         string `boltholdKey:"ID" json:"id"`
	FollowerID string `boltholdIndex:"FollowerID" json:"followerId"`
	FolloweeID string `json:"followeeId"`

	CreatedAt time.Time `json:"createdAt"`
}
