package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"chatgroup/database"
	"chatgroup/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const searchResultCap = 50

// notDeleted adds the soft-delete exclusion to a message filter. Every read
// path goes through this so the policy stays uniform.
func notDeleted(filter bson.M) bson.M {
	filter["deleted"] = bson.M{"$ne": true}
	return filter
}

func SendMessage(c *gin.Context) {
	var req struct {
		Message struct {
			Chat        string   `json:"chat" binding:"required"`
			Content     string   `json:"content" binding:"required"`
			Attachments []string `json:"attachments"`
		} `json:"message" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	chatID, err := primitive.ObjectIDFromHex(req.Message.Chat)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	chat, err := FindChatAsParticipant(ctx, chatID, userID)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": chatNotFoundMsg})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Sender is always the authenticated caller, never a body field.
	message := models.NewMessage(chat.ID, userID, req.Message.Content, req.Message.Attachments)

	if _, err := database.Messages.InsertOne(ctx, message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Best effort: the message is already persisted, a stale lastMessage
	// pointer is tolerable.
	_, err = database.Chats.UpdateByID(ctx, chat.ID, bson.M{"$set": bson.M{
		"lastMessage": message.ID,
		"updatedAt":   message.CreatedAt,
	}})
	if err != nil {
		log.Printf("Failed to update lastMessage for chat %s: %v", chat.ID.Hex(), err)
	}

	c.JSON(http.StatusCreated, message)
}

func GetMessages(c *gin.Context) {
	chatID, ok := objectIDParam(c, "chatId")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	ctx, cancel := requestContext()
	defer cancel()

	if _, err := FindChatAsParticipant(ctx, chatID, userID); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": chatNotFoundMsg})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := database.Messages.Find(ctx, notDeleted(bson.M{"chat": chatID}), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Storage order is newest-first for pagination; callers get the page in
	// chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	c.JSON(http.StatusOK, messages)
}

func UpdateMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messageID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	// Sender-only, conflated with not-found.
	var message models.Message
	err := database.Messages.FindOne(ctx, bson.M{"_id": messageID, "sender": userID}).Decode(&message)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": messageNotFoundMsg})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	message.ApplyEdit(req.Content, time.Now())

	update := bson.M{"$set": bson.M{
		"content":   message.Content,
		"isEdited":  message.IsEdited,
		"updatedAt": message.UpdatedAt,
	}}
	if _, err := database.Messages.UpdateByID(ctx, message.ID, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, message)
}

func DeleteMessage(c *gin.Context) {
	messageID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var message models.Message
	err := database.Messages.FindOne(ctx, bson.M{"_id": messageID, "sender": userID}).Decode(&message)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": messageNotFoundMsg})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	message.SoftDelete(userID, time.Now())

	update := bson.M{"$set": bson.M{
		"deleted":   true,
		"deletedAt": message.DeletedAt,
		"deletedBy": userID,
		"updatedAt": message.UpdatedAt,
	}}
	if _, err := database.Messages.UpdateByID(ctx, message.ID, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}

func MarkAsRead(c *gin.Context) {
	messageID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var message models.Message
	err := database.Messages.FindOne(ctx, bson.M{"_id": messageID}).Decode(&message)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": messageNotFoundMsg})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Any active participant of the owning chat may acknowledge, not just
	// the recipient of a direct message.
	if _, err := FindChatAsParticipant(ctx, message.Chat, userID); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": messageNotFoundMsg})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// $addToSet keeps readBy a set, so repeated calls are no-ops.
	update := bson.M{"$addToSet": bson.M{"readBy": userID}}
	if _, err := database.Messages.UpdateByID(ctx, message.ID, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message marked as read"})
}

func SearchMessages(c *gin.Context) {
	chatID, ok := objectIDParam(c, "chatId")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if _, err := FindChatAsParticipant(ctx, chatID, userID); err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": chatNotFoundMsg})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filter := notDeleted(bson.M{
		"chat":    chatID,
		"content": primitive.Regex{Pattern: query, Options: "i"},
	})
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(searchResultCap)

	cursor, err := database.Messages.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, messages)
}
