package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRequestFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	rec := env.do(t, http.MethodPost, "/api/friends/send", alice.Token, SendFriendRequestRequest{ReceiverID: bob.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	requestID := decode[FriendRequestResponse](t, rec).ID

	rec = env.do(t, http.MethodPost, "/api/friends/send", alice.Token, SendFriendRequestRequest{ReceiverID: bob.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/friends/send", alice.Token, SendFriendRequestRequest{ReceiverID: alice.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/friends/send", alice.Token, SendFriendRequestRequest{ReceiverID: 999})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/friends/pending", bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]FriendRequestResponse](t, rec)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Sender)
	assert.Equal(t, "alice", pending[0].Sender.Username)

	rec = env.do(t, http.MethodPost, "/api/friends/respond", carol.Token, RespondFriendRequestRequest{RequestID: requestID, Action: "accept"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/friends/respond", bob.Token, RespondFriendRequestRequest{RequestID: 999, Action: "accept"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/friends/respond", bob.Token, RespondFriendRequestRequest{RequestID: requestID, Action: "accept"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "accepted", decode[FriendRequestResponse](t, rec).Status)

	rec = env.do(t, http.MethodPost, "/api/friends/respond", bob.Token, RespondFriendRequestRequest{RequestID: requestID, Action: "reject"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/friends/profile", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{bob.ID}, decode[ProfileResponse](t, rec).Friends)
}

func TestAllFriendsReflectsConnections(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	for _, friend := range []testUser{bob, carol} {
		rec := env.do(t, http.MethodPost, "/api/friends/send", friend.Token, SendFriendRequestRequest{ReceiverID: alice.ID})
		require.Equal(t, http.StatusCreated, rec.Code)
		id := decode[FriendRequestResponse](t, rec).ID
		rec = env.do(t, http.MethodPost, "/api/friends/respond", alice.Token, RespondFriendRequestRequest{RequestID: id, Action: "accept"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	env.dial(t, carol)
	env.waitConnections(t, 1)

	rec := env.do(t, http.MethodGet, "/api/friends/all", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[FriendListResponse](t, rec)

	require.Len(t, list.OnlineFriends, 1)
	assert.Equal(t, "carol", list.OnlineFriends[0].Username)
	require.Len(t, list.OfflineFriends, 1)
	assert.Equal(t, "bob", list.OfflineFriends[0].Username)
}

func TestSearchAndRecipientProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "Alice")
	env.register(t, "malik")

	rec := env.do(t, http.MethodGet, "/api/friends/search?username=ali", alice.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[SearchResponse](t, rec).Users, 2)

	rec = env.do(t, http.MethodGet, "/api/friends/search?username=", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/friends/search?username=zzz", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// No token needed.
	rec = env.do(t, http.MethodGet, "/api/friends/recipient-profile/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[ProfileResponse](t, rec)
	assert.Equal(t, alice.ID, profile.ID)
	assert.Equal(t, "Alice", profile.Username)
	assert.Empty(t, profile.Friends)

	rec = env.do(t, http.MethodGet, "/api/friends/recipient-profile/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/friends/recepient-profile/ALICE", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.ID, decode[ProfileResponse](t, rec).ID)
}
