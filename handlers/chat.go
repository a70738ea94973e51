package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"chatgroup/database"
	"chatgroup/middleware"
	"chatgroup/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errMissingOrganization = errors.New("no organization in token")

// chatListFilter maps the caller's global role to the query scope of
// GET /chat-group/. Admin sees every chat, Super Admin the chats of the
// organization carried in the token, everyone else their own active chats.
func chatListFilter(role string, userID primitive.ObjectID, org string) (bson.M, error) {
	switch role {
	case middleware.GlobalRoleAdmin:
		return bson.M{}, nil
	case middleware.GlobalRoleSuperAdmin:
		orgID, err := primitive.ObjectIDFromHex(org)
		if err != nil {
			return nil, errMissingOrganization
		}
		return bson.M{"organization": orgID}, nil
	default:
		return bson.M{"participants": participantFilter(userID)}, nil
	}
}

func ListChats(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	filter, err := chatListFilter(c.GetString("userRole"), userID, c.GetString("userOrg"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	findChats(c, ctx, filter)
}

func GetOrganizationChats(c *gin.Context) {
	orgID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	findChats(c, ctx, bson.M{"organization": orgID})
}

func GetProjectChats(c *gin.Context) {
	projectID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	findChats(c, ctx, bson.M{"project": projectID})
}

// findChats runs the shared list query, most recently updated first.
func findChats(c *gin.Context, ctx context.Context, filter bson.M) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := database.Chats.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer cursor.Close(ctx)

	chats := make([]models.ChatGroup, 0)
	if err := cursor.All(ctx, &chats); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, chats)
}

func CreateChat(c *gin.Context) {
	var req struct {
		Name         string   `json:"name" binding:"required"`
		Avatar       string   `json:"avatar"`
		Description  string   `json:"description"`
		IsGroupChat  *bool    `json:"isGroupChat"`
		ProjectID    string   `json:"projectId"`
		Participants []string `json:"participants"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	var project *primitive.ObjectID
	if req.ProjectID != "" {
		pID, err := primitive.ObjectIDFromHex(req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
			return
		}
		project = &pID
	}

	// Default to a group chat unless explicitly direct.
	isGroupChat := req.IsGroupChat == nil || *req.IsGroupChat

	chat := models.NewChatGroup(req.Name, req.Avatar, req.Description, isGroupChat, project, userID)

	if org, err := primitive.ObjectIDFromHex(c.GetString("userOrg")); err == nil {
		chat.Organization = &org
	}

	seed := make([]primitive.ObjectID, 0, len(req.Participants))
	for _, p := range req.Participants {
		pID, err := primitive.ObjectIDFromHex(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant ID"})
			return
		}
		seed = append(seed, pID)
	}
	chat.SeedParticipants(seed)

	ctx, cancel := requestContext()
	defer cancel()

	if _, err := database.Chats.InsertOne(ctx, chat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func GetChatByID(c *gin.Context) {
	chatID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
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

	c.JSON(http.StatusOK, chat)
}

func UpdateChat(c *gin.Context) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chatID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	chat, err := FindChatAsParticipant(ctx, chatID, userID, models.RoleAdmin)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": chatNotFoundMsg})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	chat.ApplyMetadataUpdate(req.Name, req.Description, time.Now())

	update := bson.M{"$set": bson.M{
		"name":        chat.Name,
		"description": chat.Description,
		"updatedAt":   chat.UpdatedAt,
	}}
	if _, err := database.Chats.UpdateByID(ctx, chat.ID, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, chat)
}

func DeleteChat(c *gin.Context) {
	chatID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	_, err := FindChatAsParticipant(ctx, chatID, userID, models.RoleAdmin)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": chatNotFoundMsg})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := cascadeDeleteChat(ctx, chatID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted successfully"})
}

// cascadeDeleteChat removes a chat and every message in it. A transaction is
// used when the deployment supports one; otherwise messages go first, so a
// mid-cascade failure leaves the group intact rather than orphaning messages.
// Both deletes are idempotent, which makes the fallback safe to run after a
// failed transaction attempt.
func cascadeDeleteChat(ctx context.Context, chatID primitive.ObjectID) error {
	session, err := database.Client.StartSession()
	if err == nil {
		defer session.EndSession(ctx)

		_, txErr := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			if _, err := database.Messages.DeleteMany(sc, bson.M{"chat": chatID}); err != nil {
				return nil, err
			}
			if _, err := database.Chats.DeleteOne(sc, bson.M{"_id": chatID}); err != nil {
				return nil, err
			}
			return nil, nil
		})
		if txErr == nil {
			return nil
		}
		log.Printf("Chat delete transaction failed, falling back to sequential cascade: %v", txErr)
	}

	if _, err := database.Messages.DeleteMany(ctx, bson.M{"chat": chatID}); err != nil {
		return err
	}
	_, err = database.Chats.DeleteOne(ctx, bson.M{"_id": chatID})
	return err
}

func GenerateInvitationLink(c *gin.Context) {
	chatID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
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

	now := time.Now()
	token, expiresAt := chat.MintInvitationLink(userID, now)

	update := bson.M{"$set": bson.M{
		"invitationLink":        token,
		"invitationLinkExpires": expiresAt,
		"invitationLinkCreator": userID,
		"updatedAt":             chat.UpdatedAt,
	}}
	if _, err := database.Chats.UpdateByID(ctx, chat.ID, update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Audit record for the link. The link itself lives on the chat document,
	// so a failure here does not fail the request.
	invitation := models.Invitation{
		ID:          primitive.NewObjectID(),
		Chat:        chat.ID,
		Inviter:     userID,
		Token:       token,
		ExpiresAt:   expiresAt,
		Status:      models.InvitationPending,
		IsLinkBased: true,
		CreatedAt:   now.Unix(),
		UpdatedAt:   now.Unix(),
	}
	if _, err := database.Invitations.InsertOne(ctx, invitation); err != nil {
		log.Printf("Failed to record invitation for chat %s: %v", chat.ID.Hex(), err)
	}

	c.JSON(http.StatusOK, gin.H{
		"invitationLink": os.Getenv("FRONTEND_URL") + "/join-chat?token=" + token,
		"expiresAt":      expiresAt,
	})
}

func JoinChatViaLink(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := callerID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	now := time.Now()

	var chat models.ChatGroup
	err := database.Chats.FindOne(ctx, bson.M{
		"invitationLink":        req.Token,
		"invitationLinkExpires": bson.M{"$gt": now.Unix()},
	}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired invitation link"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if !chat.AddParticipant(userID, now) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You are already in this chat"})
		return
	}
	entry := chat.Participants[len(chat.Participants)-1]

	// The filter re-checks absence so two concurrent joins cannot insert the
	// user twice.
	res, err := database.Chats.UpdateOne(ctx,
		bson.M{"_id": chat.ID, "participants.user": bson.M{"$ne": userID}},
		bson.M{
			"$push": bson.M{"participants": entry},
			"$set":  bson.M{"updatedAt": now.Unix()},
		},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if res.ModifiedCount == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You are already in this chat"})
		return
	}

	if _, err := database.Invitations.UpdateOne(ctx,
		bson.M{"token": req.Token, "isLinkBased": true},
		bson.M{"$set": bson.M{"status": models.InvitationAccepted, "updatedAt": now.Unix()}},
	); err != nil {
		log.Printf("Failed to mark invitation accepted: %v", err)
	}

	c.JSON(http.StatusOK, chat)
}

func RemoveParticipant(c *gin.Context) {
	var req struct {
		ParticipantID string `json:"participantId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chatID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := callerID(c)
	if !ok {
		return
	}

	targetID, err := primitive.ObjectIDFromHex(req.ParticipantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant ID"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	_, err = FindChatAsParticipant(ctx, chatID, userID, models.RoleAdmin, models.RoleManager)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": chatNotFoundMsg})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Hard removal of the entry, not a status change.
	update := bson.M{
		"$pull": bson.M{"participants": bson.M{"user": targetID}},
		"$set":  bson.M{"updatedAt": time.Now().Unix()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.ChatGroup
	if err := database.Chats.FindOneAndUpdate(ctx, bson.M{"_id": chatID}, update, opts).Decode(&updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, updated)
}
