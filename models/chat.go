package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Participant roles within a chat group.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleMember  = "member"
)

// Participant statuses. Only active participants can read or write chat
// content.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusRemoved = "removed"
)

// InvitationLinkTTL is how long a freshly minted invitation link stays valid.
const InvitationLinkTTL = 7 * 24 * time.Hour

type Participant struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Role      string             `bson:"role" json:"role"`
	Status    string             `bson:"status" json:"status"`
	InvitedBy primitive.ObjectID `bson:"invitedBy,omitempty" json:"invitedBy,omitempty"`
	JoinedAt  int64              `bson:"joinedAt,omitempty" json:"joinedAt,omitempty"`
}

type ChatGroup struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Avatar       string              `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Description  string              `bson:"description,omitempty" json:"description,omitempty"`
	IsGroupChat  bool                `bson:"isGroupChat" json:"isGroupChat"`
	Project      *primitive.ObjectID `bson:"project,omitempty" json:"project,omitempty"`
	Organization *primitive.ObjectID `bson:"organization,omitempty" json:"organization,omitempty"`
	CreatedBy    primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	Participants []Participant       `bson:"participants" json:"participants"`
	LastMessage  *primitive.ObjectID `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`

	InvitationLink        string              `bson:"invitationLink,omitempty" json:"invitationLink,omitempty"`
	InvitationLinkExpires int64               `bson:"invitationLinkExpires,omitempty" json:"invitationLinkExpires,omitempty"`
	InvitationLinkCreator *primitive.ObjectID `bson:"invitationLinkCreator,omitempty" json:"invitationLinkCreator,omitempty"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt int64 `bson:"updatedAt" json:"updatedAt"`
}

// NewChatGroup builds a chat with the creator as its only participant, an
// active admin.
func NewChatGroup(name, avatar, description string, isGroupChat bool, project *primitive.ObjectID, createdBy primitive.ObjectID) *ChatGroup {
	now := time.Now().Unix()
	return &ChatGroup{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Avatar:      avatar,
		Description: description,
		IsGroupChat: isGroupChat,
		Project:     project,
		CreatedBy:   createdBy,
		Participants: []Participant{{
			User:     createdBy,
			Role:     RoleAdmin,
			Status:   StatusActive,
			JoinedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SeedParticipants appends the given users as pending members invited by the
// creator. Duplicates and users already present (the creator included) are
// skipped.
func (c *ChatGroup) SeedParticipants(userIDs []primitive.ObjectID) {
	for _, id := range userIDs {
		if c.FindParticipant(id) != nil {
			continue
		}
		c.Participants = append(c.Participants, Participant{
			User:      id,
			Role:      RoleMember,
			Status:    StatusPending,
			InvitedBy: c.CreatedBy,
		})
	}
}

// FindParticipant returns the participant entry for userID regardless of
// status, or nil.
func (c *ChatGroup) FindParticipant(userID primitive.ObjectID) *Participant {
	for i := range c.Participants {
		if c.Participants[i].User == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// ActiveParticipant reports whether userID is an active participant and, when
// roles are given, holds one of them. The matching entry is returned on
// success.
func (c *ChatGroup) ActiveParticipant(userID primitive.ObjectID, roles ...string) (*Participant, bool) {
	p := c.FindParticipant(userID)
	if p == nil || p.Status != StatusActive {
		return nil, false
	}
	if len(roles) == 0 {
		return p, true
	}
	for _, r := range roles {
		if p.Role == r {
			return p, true
		}
	}
	return nil, false
}

// AddParticipant appends userID as an active member joining now. It returns
// false when an entry for the user already exists, whatever its status.
func (c *ChatGroup) AddParticipant(userID primitive.ObjectID, now time.Time) bool {
	if c.FindParticipant(userID) != nil {
		return false
	}
	c.Participants = append(c.Participants, Participant{
		User:     userID,
		Role:     RoleMember,
		Status:   StatusActive,
		JoinedAt: now.Unix(),
	})
	c.UpdatedAt = now.Unix()
	return true
}

// RemoveParticipant drops the entry for userID entirely. It returns false
// when no entry existed.
func (c *ChatGroup) RemoveParticipant(userID primitive.ObjectID) bool {
	for i := range c.Participants {
		if c.Participants[i].User == userID {
			c.Participants = append(c.Participants[:i], c.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// ApplyMetadataUpdate overwrites name and description only when a non-empty
// replacement is supplied, and stamps updatedAt.
func (c *ChatGroup) ApplyMetadataUpdate(name, description string, now time.Time) {
	if name != "" {
		c.Name = name
	}
	if description != "" {
		c.Description = description
	}
	c.UpdatedAt = now.Unix()
}

// MintInvitationLink stores a fresh link token expiring in InvitationLinkTTL
// and returns it with its expiry.
func (c *ChatGroup) MintInvitationLink(creator primitive.ObjectID, now time.Time) (string, int64) {
	token := GenerateInviteToken()
	expires := now.Add(InvitationLinkTTL).Unix()
	c.InvitationLink = token
	c.InvitationLinkExpires = expires
	c.InvitationLinkCreator = &creator
	c.UpdatedAt = now.Unix()
	return token, expires
}

// InvitationValid reports whether the chat has an invitation link that is
// still valid at the given instant.
func (c *ChatGroup) InvitationValid(at time.Time) bool {
	return c.InvitationLink != "" && c.InvitationLinkExpires > at.Unix()
}

// GenerateInviteToken returns a 32-character hex token for invitation links.
func GenerateInviteToken() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
