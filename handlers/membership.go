package handlers

import (
	"context"

	"chatgroup/database"
	"chatgroup/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// participantFilter builds the participants clause matching a single entry
// for userID with active status and, when roles are given, one of them.
// $elemMatch keeps all conditions on the same array entry.
func participantFilter(userID primitive.ObjectID, roles ...string) bson.M {
	elem := bson.M{
		"user":   userID,
		"status": models.StatusActive,
	}
	if len(roles) > 0 {
		elem["role"] = bson.M{"$in": roles}
	}
	return bson.M{"$elemMatch": elem}
}

// FindChatAsParticipant loads a chat only when userID is an active
// participant, optionally holding one of the given roles. A missing chat and
// a caller without access both come back as mongo.ErrNoDocuments, so callers
// cannot distinguish the two. No side effects.
func FindChatAsParticipant(ctx context.Context, chatID, userID primitive.ObjectID, roles ...string) (*models.ChatGroup, error) {
	filter := bson.M{
		"_id":          chatID,
		"participants": participantFilter(userID, roles...),
	}

	var chat models.ChatGroup
	if err := database.Chats.FindOne(ctx, filter).Decode(&chat); err != nil {
		return nil, err
	}
	return &chat, nil
}
