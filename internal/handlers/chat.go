package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kidzonehq/kidzone-backend/internal/chat"
	"github.com/kidzonehq/kidzone-backend/internal/middleware"
	"github.com/kidzonehq/kidzone-backend/internal/store"
	"github.com/kidzonehq/kidzone-backend/pkg/logger"
)

// ChatDeps wires the HTTP surface to the messaging core. Set once from
// main via InitChat.
type ChatDeps struct {
	Store   *store.Store
	Hub     *store.Hub
	Buffer  *chat.Buffer
	Sender  *chat.Sender
	Deleter *chat.Deleter

	// Policy knobs from config.
	DeleteSummary  bool
	PendingTimeout time.Duration
}

var Chat *ChatDeps

func InitChat(deps *ChatDeps) {
	Chat = deps
}

// GetContacts returns the candidate recipients for the current user:
// everyone in the directory except themselves, with resolved display
// identities.
func GetContacts(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	dir := chat.LoadDirectory(c.Request.Context(), Chat.Store, userId, logger.With("chat"))

	users := dir.Candidates()
	contacts := make([]chat.DisplayIdentity, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, chat.ResolveDisplay(u))
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// GetConversations returns the conversation list for the current user,
// newest activity first.
func GetConversations(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	ctx := c.Request.Context()

	convs, err := Chat.Store.ListConversationsFor(ctx, userId)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	dir := chat.LoadDirectory(ctx, Chat.Store, userId, logger.With("chat"))
	c.JSON(http.StatusOK, gin.H{"conversations": chat.BuildEntries(convs, dir, userId)})
}

// GetMessages returns the rendered message list for the conversation with
// one other user: the confirmed history merged with any still-pending
// optimistic sends.
func GetMessages(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	otherId := c.Query("userId")
	if otherId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}

	key := chat.ConversationKey(userId, otherId)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation"})
		return
	}

	confirmed, err := Chat.Store.ListMessages(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	rendered := Chat.Buffer.Apply(key, confirmed)

	c.JSON(http.StatusOK, gin.H{
		"conversationKey": key,
		"messages":        rendered,
	})
}

// SendMessage emits a direct message. The response carries the optimistic
// copy; confirmation arrives through the live stream.
func SendMessage(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		RecipientID string `json:"recipientId" binding:"required"`
		Text        string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// The recipient must exist in the directory before anything is
	// buffered or written.
	if _, err := Chat.Store.GetUser(c.Request.Context(), req.RecipientID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipient not found"})
		return
	}

	msg, err := Chat.Sender.Send(c.Request.Context(), sess, req.RecipientID, req.Text)
	if err != nil {
		if chat.IsPrecondition(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// The optimistic copy stays pending; tell the user why the
		// confirmation will not come.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send message",
			"details": err.Error(),
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// DeleteConversation bulk-deletes all messages for a conversation key.
// The client must pass confirm=true after prompting the user.
func DeleteConversation(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	otherId := c.Param("userId")

	if c.Query("confirm") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Confirmation required"})
		return
	}

	key := chat.ConversationKey(userId, otherId)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid conversation"})
		return
	}

	policy := chat.DeletePolicy{RemoveSummary: Chat.DeleteSummary}
	report, err := Chat.Deleter.DeleteConversation(c.Request.Context(), key, policy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Failed to delete conversation",
			"report": report,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetPending lists unconfirmed sends for a conversation, flagging the
// ones old enough to retry or discard.
func GetPending(c *gin.Context) {
	userId := c.MustGet("userId").(string)
	otherId := c.Query("userId")
	if otherId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId required"})
		return
	}

	key := chat.ConversationKey(userId, otherId)
	pending := Chat.Buffer.Pending(key)
	stale := Chat.Buffer.Stale(key, Chat.PendingTimeout, time.Now())

	staleIds := make([]string, 0, len(stale))
	for _, m := range stale {
		staleIds = append(staleIds, m.ClientID)
	}

	c.JSON(http.StatusOK, gin.H{
		"pending":        pending,
		"staleClientIds": staleIds,
	})
}

// RetryPending re-attempts the durable write for a stuck pending message.
func RetryPending(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	var req struct {
		RecipientID string `json:"recipientId" binding:"required"`
		ClientID    string `json:"clientId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	key := chat.ConversationKey(userId, req.RecipientID)
	msg, err := Chat.Sender.Retry(c.Request.Context(), key, req.ClientID)
	if err != nil {
		if errors.Is(err, chat.ErrPendingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pending message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Retry failed",
			"details": err.Error(),
			"message": msg,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// DiscardPending drops a stuck pending message for good.
func DiscardPending(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	var req struct {
		RecipientID string `json:"recipientId" binding:"required"`
		ClientID    string `json:"clientId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	key := chat.ConversationKey(userId, req.RecipientID)
	if !Chat.Buffer.Discard(key, req.ClientID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pending message not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"discarded": req.ClientID})
}
