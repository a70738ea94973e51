package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewChatGroup(t *testing.T) {
	creator := primitive.NewObjectID()
	chat := NewChatGroup("standup", "", "daily sync", true, nil, creator)

	require.Len(t, chat.Participants, 1)
	p := chat.Participants[0]
	assert.Equal(t, creator, p.User)
	assert.Equal(t, RoleAdmin, p.Role)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, creator, chat.CreatedBy)
	assert.True(t, chat.IsGroupChat)
	assert.False(t, chat.ID.IsZero())
}

func TestSeedParticipants(t *testing.T) {
	creator := primitive.NewObjectID()
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	chat := NewChatGroup("team", "", "", true, nil, creator)
	chat.SeedParticipants([]primitive.ObjectID{a, b, a, creator})

	require.Len(t, chat.Participants, 3, "duplicates and the creator must be skipped")

	for _, id := range []primitive.ObjectID{a, b} {
		p := chat.FindParticipant(id)
		require.NotNil(t, p)
		assert.Equal(t, RoleMember, p.Role)
		assert.Equal(t, StatusPending, p.Status)
		assert.Equal(t, creator, p.InvitedBy)
	}
}

func TestActiveParticipant(t *testing.T) {
	creator := primitive.NewObjectID()
	pending := primitive.NewObjectID()
	manager := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	chat := NewChatGroup("team", "", "", true, nil, creator)
	chat.SeedParticipants([]primitive.ObjectID{pending})
	chat.Participants = append(chat.Participants, Participant{
		User: manager, Role: RoleManager, Status: StatusActive,
	})

	t.Run("any role", func(t *testing.T) {
		p, ok := chat.ActiveParticipant(creator)
		require.True(t, ok)
		assert.Equal(t, RoleAdmin, p.Role)
	})

	t.Run("role set", func(t *testing.T) {
		_, ok := chat.ActiveParticipant(manager, RoleAdmin, RoleManager)
		assert.True(t, ok)

		_, ok = chat.ActiveParticipant(manager, RoleAdmin)
		assert.False(t, ok, "manager must not pass an admin-only check")
	})

	t.Run("pending has no rights", func(t *testing.T) {
		_, ok := chat.ActiveParticipant(pending)
		assert.False(t, ok)
	})

	t.Run("removed has no rights", func(t *testing.T) {
		chat.FindParticipant(manager).Status = StatusRemoved
		_, ok := chat.ActiveParticipant(manager)
		assert.False(t, ok)
	})

	t.Run("non-participant", func(t *testing.T) {
		_, ok := chat.ActiveParticipant(stranger)
		assert.False(t, ok)
	})
}

func TestAddParticipant(t *testing.T) {
	creator := primitive.NewObjectID()
	joiner := primitive.NewObjectID()
	now := time.Now()

	chat := NewChatGroup("team", "", "", true, nil, creator)

	require.True(t, chat.AddParticipant(joiner, now))
	p := chat.FindParticipant(joiner)
	require.NotNil(t, p)
	assert.Equal(t, RoleMember, p.Role)
	assert.Equal(t, StatusActive, p.Status)
	assert.Equal(t, now.Unix(), p.JoinedAt)

	assert.False(t, chat.AddParticipant(joiner, now), "second join must be rejected")

	// Any existing entry blocks a join, whatever its status.
	p.Status = StatusRemoved
	assert.False(t, chat.AddParticipant(joiner, now))
	assert.Len(t, chat.Participants, 2)
}

func TestRemoveParticipant(t *testing.T) {
	creator := primitive.NewObjectID()
	member := primitive.NewObjectID()

	chat := NewChatGroup("team", "", "", true, nil, creator)
	chat.AddParticipant(member, time.Now())

	assert.True(t, chat.RemoveParticipant(member))
	assert.Nil(t, chat.FindParticipant(member), "removal drops the entry entirely")
	assert.False(t, chat.RemoveParticipant(member))
}

func TestApplyMetadataUpdate(t *testing.T) {
	creator := primitive.NewObjectID()
	chat := NewChatGroup("old name", "", "old description", true, nil, creator)
	now := time.Now().Add(time.Hour)

	chat.ApplyMetadataUpdate("new name", "", now)

	assert.Equal(t, "new name", chat.Name)
	assert.Equal(t, "old description", chat.Description, "empty values must not overwrite")
	assert.Equal(t, now.Unix(), chat.UpdatedAt)
}

func TestMintInvitationLink(t *testing.T) {
	creator := primitive.NewObjectID()
	chat := NewChatGroup("team", "", "", true, nil, creator)
	now := time.Now()

	token, expires := chat.MintInvitationLink(creator, now)

	assert.Len(t, token, 32)
	assert.Equal(t, now.Add(InvitationLinkTTL).Unix(), expires)
	assert.Equal(t, token, chat.InvitationLink)
	require.NotNil(t, chat.InvitationLinkCreator)
	assert.Equal(t, creator, *chat.InvitationLinkCreator)

	other, _ := chat.MintInvitationLink(creator, now)
	assert.NotEqual(t, token, other, "tokens must be freshly minted")
}

func TestInvitationValid(t *testing.T) {
	creator := primitive.NewObjectID()
	chat := NewChatGroup("team", "", "", true, nil, creator)

	assert.False(t, chat.InvitationValid(time.Now()), "no link minted yet")

	now := time.Now()
	_, expires := chat.MintInvitationLink(creator, now)
	expiry := time.Unix(expires, 0)

	assert.True(t, chat.InvitationValid(expiry.Add(-time.Second)))
	assert.False(t, chat.InvitationValid(expiry))
	assert.False(t, chat.InvitationValid(expiry.Add(time.Second)))
}

func TestGenerateInviteToken(t *testing.T) {
	token := GenerateInviteToken()
	assert.Len(t, token, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", token)
	assert.NotEqual(t, token, GenerateInviteToken())
}
