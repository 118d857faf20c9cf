package test

import (
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/model"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatListResponse struct {
	Data []model.ChatListItem `json:"data"`
	Meta helper.PaginationMeta `json:"meta"`
}

func getChats(t *testing.T, userID, query string) chatListResponse {
	t.Helper()
	rr := executeRequest(authRequest(t, http.MethodGet, "/api/chats"+query, userID))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp chatListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func getUnreadCount(t *testing.T, userID string) int {
	t.Helper()
	rr := executeRequest(authRequest(t, http.MethodGet, "/api/chats/unread-count", userID))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Data model.UnreadCountResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Data.UnreadCount
}

func TestGetChats(t *testing.T) {
	clearDatabase(context.Background())

	base := time.Now().UTC().Add(-30 * time.Minute)
	alice := createProfile(t, "Alice", "Doe")
	bob := createProfile(t, "Bob", "Smith")
	carol := createProfile(t, "Carol", "")

	createMessage(t, bob, alice, "hi alice", base.Add(1*time.Minute))
	createMessage(t, bob, alice, "are you there?", base.Add(2*time.Minute))
	createMessage(t, alice, carol, "lunch?", base.Add(3*time.Minute))

	team := createGroup(t, "Team", alice, bob, carol)
	createGroupMessage(t, team, carol, "standup in 5", base.Add(5*time.Minute))

	t.Run("Combined Ordered By Activity", func(t *testing.T) {
		resp := getChats(t, alice, "")
		require.Len(t, resp.Data, 3)

		assert.Equal(t, model.ChatKindGroup, resp.Data[0].Kind)
		assert.Equal(t, "Team", resp.Data[0].Group.GroupName)
		assert.Equal(t, 1, resp.Data[0].Group.UnreadCount)
		assert.Equal(t, 3, resp.Data[0].Group.MemberCount)
		assert.Len(t, resp.Data[0].Group.OtherMembersPreview, 2)

		assert.Equal(t, carol, resp.Data[1].Individual.PartnerID)
		assert.Equal(t, "Carol", resp.Data[1].Individual.PartnerDisplayName)
		assert.Equal(t, 0, resp.Data[1].Individual.UnreadCount)

		assert.Equal(t, bob, resp.Data[2].Individual.PartnerID)
		assert.Equal(t, "Bob Smith", resp.Data[2].Individual.PartnerDisplayName)
		assert.Equal(t, "are you there?", resp.Data[2].Individual.LastMessageContent)
		assert.Equal(t, 2, resp.Data[2].Individual.UnreadCount)
		assert.True(t, resp.Data[2].Individual.HasAnyMessageFromPartner)
		assert.False(t, resp.Data[2].Individual.HasAnyMessageFromSelf)
	})

	t.Run("Pinned First", func(t *testing.T) {
		pinChat(t, alice, "individual", bob)
		defer mustExec(t, "DELETE FROM pinned_chats")

		resp := getChats(t, alice, "")
		require.Len(t, resp.Data, 3)
		assert.Equal(t, bob, resp.Data[0].Individual.PartnerID)
		assert.True(t, resp.Data[0].Individual.IsPinned)
		assert.Equal(t, model.ChatKindGroup, resp.Data[1].Kind)
	})

	t.Run("Filter And Paginate", func(t *testing.T) {
		resp := getChats(t, alice, "?type=individual&limit=1")
		require.Len(t, resp.Data, 1)
		assert.Equal(t, carol, resp.Data[0].Individual.PartnerID)
		assert.True(t, resp.Meta.HasNext)

		resp = getChats(t, alice, "?type=individual&limit=1&offset=1")
		require.Len(t, resp.Data, 1)
		assert.Equal(t, bob, resp.Data[0].Individual.PartnerID)
		assert.False(t, resp.Meta.HasNext)

		resp = getChats(t, alice, "?type=group")
		require.Len(t, resp.Data, 1)
		assert.Equal(t, team, resp.Data[0].Group.GroupID)
	})

	t.Run("Shared Event Preview", func(t *testing.T) {
		createMessage(t, alice, bob, helper.SharedEventPrefix+`{"id":"1"}`, base.Add(10*time.Minute))

		resp := getChats(t, alice, "?type=individual")
		assert.Equal(t, "You shared an event", resp.Data[0].Individual.LastMessageContent)

		resp = getChats(t, bob, "?type=individual")
		assert.Equal(t, "Alice Doe shared an event", resp.Data[0].Individual.LastMessageContent)
	})

	t.Run("Preview", func(t *testing.T) {
		rr := executeRequest(authRequest(t, http.MethodGet, "/api/chats/group/"+team, alice))
		require.Equal(t, http.StatusOK, rr.Code)

		rr = executeRequest(authRequest(t, http.MethodGet, "/api/chats/group/"+team, createProfile(t, "Eve", "")))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Unauthorized", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/chats", nil)
		rr := executeRequest(req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestMarkChatAsRead(t *testing.T) {
	clearDatabase(context.Background())

	base := time.Now().UTC().Add(-time.Hour)
	alice := createProfile(t, "Alice", "")
	bob := createProfile(t, "Bob", "")
	createMessage(t, bob, alice, "one", base)
	createMessage(t, bob, alice, "two", base.Add(time.Minute))

	team := createGroup(t, "Team", alice, bob)
	createGroupMessage(t, team, bob, "hello team", base.Add(2*time.Minute))

	assert.Equal(t, 3, getUnreadCount(t, alice))

	rr := executeRequest(authRequest(t, http.MethodPost, "/api/chats/individual/"+bob+"/read", alice))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, getUnreadCount(t, alice))

	rr = executeRequest(authRequest(t, http.MethodPost, "/api/chats/group/"+team+"/read", alice))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 0, getUnreadCount(t, alice))

	rr = executeRequest(authRequest(t, http.MethodPost, "/api/chats/group/"+team+"/read", alice))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDeleteChat(t *testing.T) {
	clearDatabase(context.Background())

	alice := createProfile(t, "Alice", "")
	bob := createProfile(t, "Bob", "")
	createMessage(t, bob, alice, "old", time.Now().UTC().Add(-time.Hour))

	team := createGroup(t, "Team", alice, bob)

	t.Run("Hide Individual", func(t *testing.T) {
		rr := executeRequest(authRequest(t, http.MethodDelete, "/api/chats/individual/"+bob, alice))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		resp := getChats(t, alice, "?type=individual")
		assert.Empty(t, resp.Data)
		assert.Equal(t, 0, getUnreadCount(t, alice))
	})

	t.Run("Reappears On New Message", func(t *testing.T) {
		createMessage(t, bob, alice, "new", time.Now().UTC().Add(time.Minute))

		resp := getChats(t, alice, "?type=individual")
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "new", resp.Data[0].Individual.LastMessageContent)
		assert.Equal(t, 1, resp.Data[0].Individual.UnreadCount)
	})

	t.Run("Leave Group", func(t *testing.T) {
		rr := executeRequest(authRequest(t, http.MethodDelete, "/api/chats/group/"+team, alice))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		resp := getChats(t, alice, "?type=group")
		assert.Empty(t, resp.Data)

		resp = getChats(t, bob, "?type=group")
		assert.Len(t, resp.Data, 1)
	})
}
