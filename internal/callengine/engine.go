package callengine

import "context"

// JoinInfo contains what a client needs to join a workspace voice channel.
type JoinInfo struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	RoomName string `json:"roomName"`
	Identity string `json:"identity"`
}

// Engine abstracts the media backend behind a live workspace's voice channel.
type Engine interface {
	// RoomName maps a workspace to its media room. Rooms are created on first join.
	RoomName(workspaceID string) string

	// GenerateJoinInfo creates join credentials for a user.
	GenerateJoinInfo(ctx context.Context, workspaceID string, userID int64, username string) (*JoinInfo, error)
}
