package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Chat        primitive.ObjectID   `bson:"chat" json:"chat"`
	Sender      primitive.ObjectID   `bson:"sender" json:"sender"`
	Content     string               `bson:"content" json:"content"`
	Attachments []string             `bson:"attachments,omitempty" json:"attachments,omitempty"`
	IsEdited    bool                 `bson:"isEdited" json:"isEdited"`
	Deleted     bool                 `bson:"deleted" json:"deleted"`
	DeletedAt   int64                `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	DeletedBy   *primitive.ObjectID  `bson:"deletedBy,omitempty" json:"deletedBy,omitempty"`
	ReadBy      []primitive.ObjectID `bson:"readBy" json:"readBy"`
	CreatedAt   int64                `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64                `bson:"updatedAt" json:"updatedAt"`
}

// NewMessage builds a message from the authenticated sender. The sender is
// not added to readBy.
func NewMessage(chat, sender primitive.ObjectID, content string, attachments []string) *Message {
	now := time.Now().Unix()
	return &Message{
		ID:          primitive.NewObjectID(),
		Chat:        chat,
		Sender:      sender,
		Content:     content,
		Attachments: attachments,
		ReadBy:      []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EditableBy reports whether userID may edit or delete this message.
func (m *Message) EditableBy(userID primitive.ObjectID) bool {
	return m.Sender == userID
}

// ApplyEdit replaces content when a non-empty value is given, marking the
// message edited. It returns whether anything changed.
func (m *Message) ApplyEdit(content string, now time.Time) bool {
	if content == "" {
		return false
	}
	m.Content = content
	m.IsEdited = true
	m.UpdatedAt = now.Unix()
	return true
}

// SoftDelete marks the message deleted by userID. The record stays in
// storage.
func (m *Message) SoftDelete(userID primitive.ObjectID, now time.Time) {
	m.Deleted = true
	m.DeletedAt = now.Unix()
	m.DeletedBy = &userID
	m.UpdatedAt = now.Unix()
}

// MarkReadBy adds userID to the readBy set. Repeated calls are no-ops; the
// return value reports whether the set changed.
func (m *Message) MarkReadBy(userID primitive.ObjectID) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return false
		}
	}
	m.ReadBy = append(m.ReadBy, userID)
	return true
}
