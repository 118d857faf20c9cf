package controller

import (
	"ChatSyncAPI/internal/helper"
	"ChatSyncAPI/internal/middleware"
	"ChatSyncAPI/internal/model"
	"ChatSyncAPI/internal/service"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type ChatListController struct {
	chatListService *service.ChatListService
	unreadService   *service.UnreadCountService
}

func NewChatListController(chatListService *service.ChatListService, unreadService *service.UnreadCountService) *ChatListController {
	return &ChatListController{
		chatListService: chatListService,
		unreadService:   unreadService,
	}
}

// GetChats godoc
// @Summary      Get Chat List
// @Description  Get the chat list of the current user. Pinned chats come first, the rest are ordered by last message time.
// @Tags         chat
// @Produce      json
// @Param        type    query     string  false  "individual, group or combined (default combined)"
// @Param        limit   query     int     false  "Page size (default 50, max 100)"
// @Param        offset  query     int     false  "Offset"
// @Success      200  {object}  helper.ResponseWithPagination{data=[]model.ChatListItem}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      503  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats [get]
func (c *ChatListController) GetChats(w http.ResponseWriter, r *http.Request) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.UserDTO)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	query := r.URL.Query()
	limit, err := queryInt(query.Get("limit"))
	if err != nil {
		helper.WriteError(w, helper.NewBadRequestError("Invalid limit"))
		return
	}
	if limit == 0 {
		limit = model.DefaultChatListLimit
	}
	offset, err := queryInt(query.Get("offset"))
	if err != nil {
		helper.WriteError(w, helper.NewBadRequestError("Invalid offset"))
		return
	}

	req := model.GetChatsRequest{
		Type:   query.Get("type"),
		Limit:  limit,
		Offset: offset,
	}

	result, err := c.chatListService.ListChats(r.Context(), userContext.ID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccessWithPagination(w, result.Chats, req.Limit, req.Offset, result.HasMore)
}

// GetUnreadCount godoc
// @Summary      Get Total Unread Count
// @Description  Sum of unread messages across individual and group chats.
// @Tags         chat
// @Produce      json
// @Success      200  {object}  helper.ResponseSuccess{data=model.UnreadCountResponse}
// @Failure      401  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/unread-count [get]
func (c *ChatListController) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.UserDTO)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	total := c.unreadService.GetTotalUnreadCount(r.Context(), userContext.ID)
	helper.WriteSuccess(w, model.UnreadCountResponse{UnreadCount: total})
}

// GetChatPreview godoc
// @Summary      Get Chat Preview
// @Description  Get a single chat list entry.
// @Tags         chat
// @Produce      json
// @Param        type  path      string  true  "individual or group"
// @Param        id    path      string  true  "Partner user ID or group ID"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ChatListItem}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{type}/{id} [get]
func (c *ChatListController) GetChatPreview(w http.ResponseWriter, r *http.Request) {
	userContext, ref, ok := c.chatRef(w, r)
	if !ok {
		return
	}

	item := c.chatListService.GetChatPreview(r.Context(), userContext.ID, model.ChatKind(ref.Type), ref.ChatID)
	if item == nil {
		helper.WriteError(w, helper.NewNotFoundError("Chat not found"))
		return
	}

	helper.WriteSuccess(w, item)
}

// MarkChatAsRead godoc
// @Summary      Mark Chat As Read
// @Description  Mark every message in the chat as seen by the current user.
// @Tags         chat
// @Produce      json
// @Param        type  path      string  true  "individual or group"
// @Param        id    path      string  true  "Partner user ID or group ID"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ChatMutationResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{type}/{id}/read [post]
func (c *ChatListController) MarkChatAsRead(w http.ResponseWriter, r *http.Request) {
	userContext, ref, ok := c.chatRef(w, r)
	if !ok {
		return
	}

	if _, err := c.chatListService.MarkChatAsRead(r.Context(), userContext.ID, model.ChatKind(ref.Type), ref.ChatID); err != nil {
		helper.WriteError(w, helper.WrapError(http.StatusInternalServerError, "Failed to mark chat as read", err))
		return
	}

	helper.WriteSuccess(w, model.ChatMutationResponse{Success: true})
}

// DeleteChat godoc
// @Summary      Delete Chat
// @Description  Hide an individual chat for the current user, or leave a group.
// @Tags         chat
// @Produce      json
// @Param        type  path      string  true  "individual or group"
// @Param        id    path      string  true  "Partner user ID or group ID"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ChatMutationResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{type}/{id} [delete]
func (c *ChatListController) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userContext, ref, ok := c.chatRef(w, r)
	if !ok {
		return
	}

	if _, err := c.chatListService.DeleteChat(r.Context(), userContext.ID, model.ChatKind(ref.Type), ref.ChatID); err != nil {
		helper.WriteError(w, helper.WrapError(http.StatusInternalServerError, "Failed to delete chat", err))
		return
	}

	helper.WriteSuccess(w, model.ChatMutationResponse{Success: true})
}

func (c *ChatListController) chatRef(w http.ResponseWriter, r *http.Request) (*model.UserDTO, model.ChatRefRequest, bool) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.UserDTO)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return nil, model.ChatRefRequest{}, false
	}

	ref := model.ChatRefRequest{
		Type:   chi.URLParam(r, "type"),
		ChatID: chi.URLParam(r, "id"),
	}
	if err := c.chatListService.ValidateChatRef(ref); err != nil {
		helper.WriteError(w, err)
		return nil, ref, false
	}

	return userContext, ref, true
}

func queryInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
