package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
	InvitationExpired  = "expired"
)

// Invitation is the standalone invite record. Link-based rows are multi-use;
// invitee/email identify out-of-band invites.
type Invitation struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Chat        primitive.ObjectID  `bson:"chat" json:"chat"`
	Inviter     primitive.ObjectID  `bson:"inviter" json:"inviter"`
	Invitee     *primitive.ObjectID `bson:"invitee,omitempty" json:"invitee,omitempty"`
	Email       string              `bson:"email,omitempty" json:"email,omitempty"`
	Token       string              `bson:"token" json:"token"`
	ExpiresAt   int64               `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	Status      string              `bson:"status" json:"status"`
	IsLinkBased bool                `bson:"isLinkBased" json:"isLinkBased"`
	CreatedAt   int64               `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64               `bson:"updatedAt" json:"updatedAt"`
}
