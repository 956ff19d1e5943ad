package handler

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/yepcord/server-sub002/internal/event"
	"github.com/yepcord/server-sub002/internal/model"
	"github.com/yepcord/server-sub002/internal/service"
)

// mockAuthService is a mock type for the AuthService type
type mockAuthService struct {
	mock.Mock
}

// Register provides a mock function for Register
func (_m *mockAuthService) Register(ctx context.Context, req service.RegisterRequest) (string, error) {
	ret := _m.Called(ctx, req)

	var r0 string
	if v := ret.Get(0); v != nil {
		r0 = v.(string)
	}

	return r0, ret.Error(1)
}

// Login provides a mock function for Login
func (_m *mockAuthService) Login(ctx context.Context, req service.LoginRequest) (service.LoginResult, error) {
	ret := _m.Called(ctx, req)

	var r0 service.LoginResult
	if v := ret.Get(0); v != nil {
		r0 = v.(service.LoginResult)
	}

	return r0, ret.Error(1)
}

// VerifyMFA provides a mock function for VerifyMFA
func (_m *mockAuthService) VerifyMFA(ctx context.Context, ticket string, code string) (service.LoginResult, error) {
	ret := _m.Called(ctx, ticket, code)

	var r0 service.LoginResult
	if v := ret.Get(0); v != nil {
		r0 = v.(service.LoginResult)
	}

	return r0, ret.Error(1)
}

// Logout provides a mock function for Logout
func (_m *mockAuthService) Logout(ctx context.Context, session model.Session) error {
	ret := _m.Called(ctx, session)

	return ret.Error(0)
}

// ChangePassword provides a mock function for ChangePassword
func (_m *mockAuthService) ChangePassword(ctx context.Context, userID int64, current string, next string) (string, error) {
	ret := _m.Called(ctx, userID, current, next)

	var r0 string
	if v := ret.Get(0); v != nil {
		r0 = v.(string)
	}

	return r0, ret.Error(1)
}

// newMockAuthService creates a new instance of mockAuthService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func newMockAuthService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockAuthService {
	m := &mockAuthService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// mockUserService is a mock type for the UserService type
type mockUserService struct {
	mock.Mock
}

// Me provides a mock function for Me
func (_m *mockUserService) Me(ctx context.Context, userID int64) (event.PrivateUser, error) {
	ret := _m.Called(ctx, userID)

	var r0 event.PrivateUser
	if v := ret.Get(0); v != nil {
		r0 = v.(event.PrivateUser)
	}

	return r0, ret.Error(1)
}

// Get provides a mock function for Get
func (_m *mockUserService) Get(ctx context.Context, targetID int64) (event.User, error) {
	ret := _m.Called(ctx, targetID)

	var r0 event.User
	if v := ret.Get(0); v != nil {
		r0 = v.(event.User)
	}

	return r0, ret.Error(1)
}

// Profile provides a mock function for Profile
func (_m *mockUserService) Profile(ctx context.Context, userID int64, targetID int64) (event.Profile, error) {
	ret := _m.Called(ctx, userID, targetID)

	var r0 event.Profile
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Profile)
	}

	return r0, ret.Error(1)
}

// UpdateProfile provides a mock function for UpdateProfile
func (_m *mockUserService) UpdateProfile(ctx context.Context, userID int64, req service.UpdateProfileRequest) (event.PrivateUser, error) {
	ret := _m.Called(ctx, userID, req)

	var r0 event.PrivateUser
	if v := ret.Get(0); v != nil {
		r0 = v.(event.PrivateUser)
	}

	return r0, ret.Error(1)
}

// Settings provides a mock function for Settings
func (_m *mockUserService) Settings(ctx context.Context, userID int64) (event.UserSettings, error) {
	ret := _m.Called(ctx, userID)

	var r0 event.UserSettings
	if v := ret.Get(0); v != nil {
		r0 = v.(event.UserSettings)
	}

	return r0, ret.Error(1)
}

// UpdateSettings provides a mock function for UpdateSettings
func (_m *mockUserService) UpdateSettings(ctx context.Context, userID int64, patch model.SettingsPatch) (event.UserSettings, error) {
	ret := _m.Called(ctx, userID, patch)

	var r0 event.UserSettings
	if v := ret.Get(0); v != nil {
		r0 = v.(event.UserSettings)
	}

	return r0, ret.Error(1)
}

// UpdateSettingsProto provides a mock function for UpdateSettingsProto
func (_m *mockUserService) UpdateSettingsProto(ctx context.Context, userID int64, encoded string) (string, error) {
	ret := _m.Called(ctx, userID, encoded)

	var r0 string
	if v := ret.Get(0); v != nil {
		r0 = v.(string)
	}

	return r0, ret.Error(1)
}

// Note provides a mock function for Note
func (_m *mockUserService) Note(ctx context.Context, userID int64, targetID int64) (event.NotePayload, error) {
	ret := _m.Called(ctx, userID, targetID)

	var r0 event.NotePayload
	if v := ret.Get(0); v != nil {
		r0 = v.(event.NotePayload)
	}

	return r0, ret.Error(1)
}

// SetNote provides a mock function for SetNote
func (_m *mockUserService) SetNote(ctx context.Context, userID int64, targetID int64, note string) error {
	ret := _m.Called(ctx, userID, targetID, note)

	return ret.Error(0)
}

// Delete provides a mock function for Delete
func (_m *mockUserService) Delete(ctx context.Context, userID int64, password string) error {
	ret := _m.Called(ctx, userID, password)

	return ret.Error(0)
}

// newMockUserService creates a new instance of mockUserService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func newMockUserService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockUserService {
	m := &mockUserService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// mockRelationshipService is a mock type for the RelationshipService type
type mockRelationshipService struct {
	mock.Mock
}

// List provides a mock function for List
func (_m *mockRelationshipService) List(ctx context.Context, userID int64) ([]event.Relationship, error) {
	ret := _m.Called(ctx, userID)

	var r0 []event.Relationship
	if v := ret.Get(0); v != nil {
		r0 = v.([]event.Relationship)
	}

	return r0, ret.Error(1)
}

// RequestByTag provides a mock function for RequestByTag
func (_m *mockRelationshipService) RequestByTag(ctx context.Context, userID int64, username string, discriminator string) error {
	ret := _m.Called(ctx, userID, username, discriminator)

	return ret.Error(0)
}

// Request provides a mock function for Request
func (_m *mockRelationshipService) Request(ctx context.Context, userID int64, targetID int64) error {
	ret := _m.Called(ctx, userID, targetID)

	return ret.Error(0)
}

// Remove provides a mock function for Remove
func (_m *mockRelationshipService) Remove(ctx context.Context, userID int64, targetID int64) error {
	ret := _m.Called(ctx, userID, targetID)

	return ret.Error(0)
}

// Block provides a mock function for Block
func (_m *mockRelationshipService) Block(ctx context.Context, userID int64, targetID int64) error {
	ret := _m.Called(ctx, userID, targetID)

	return ret.Error(0)
}

// newMockRelationshipService creates a new instance of mockRelationshipService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func newMockRelationshipService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockRelationshipService {
	m := &mockRelationshipService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// mockChannelService is a mock type for the ChannelService type
type mockChannelService struct {
	mock.Mock
}

// Get provides a mock function for Get
func (_m *mockChannelService) Get(ctx context.Context, userID int64, channelID int64) (event.Channel, error) {
	ret := _m.Called(ctx, userID, channelID)

	var r0 event.Channel
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Channel)
	}

	return r0, ret.Error(1)
}

// PrivateChannels provides a mock function for PrivateChannels
func (_m *mockChannelService) PrivateChannels(ctx context.Context, userID int64) ([]event.Channel, error) {
	ret := _m.Called(ctx, userID)

	var r0 []event.Channel
	if v := ret.Get(0); v != nil {
		r0 = v.([]event.Channel)
	}

	return r0, ret.Error(1)
}

// OpenDM provides a mock function for OpenDM
func (_m *mockChannelService) OpenDM(ctx context.Context, userID int64, recipients []int64) (event.Channel, error) {
	ret := _m.Called(ctx, userID, recipients)

	var r0 event.Channel
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Channel)
	}

	return r0, ret.Error(1)
}

// Update provides a mock function for Update
func (_m *mockChannelService) Update(ctx context.Context, userID int64, channelID int64, patch model.ChannelPatch) (event.Channel, error) {
	ret := _m.Called(ctx, userID, channelID, patch)

	var r0 event.Channel
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Channel)
	}

	return r0, ret.Error(1)
}

// Delete provides a mock function for Delete
func (_m *mockChannelService) Delete(ctx context.Context, userID int64, channelID int64) (event.Channel, error) {
	ret := _m.Called(ctx, userID, channelID)

	var r0 event.Channel
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Channel)
	}

	return r0, ret.Error(1)
}

// AddRecipient provides a mock function for AddRecipient
func (_m *mockChannelService) AddRecipient(ctx context.Context, userID int64, channelID int64, targetID int64) error {
	ret := _m.Called(ctx, userID, channelID, targetID)

	return ret.Error(0)
}

// RemoveRecipient provides a mock function for RemoveRecipient
func (_m *mockChannelService) RemoveRecipient(ctx context.Context, userID int64, channelID int64, targetID int64) error {
	ret := _m.Called(ctx, userID, channelID, targetID)

	return ret.Error(0)
}

// CreateGuildChannel provides a mock function for CreateGuildChannel
func (_m *mockChannelService) CreateGuildChannel(ctx context.Context, userID int64, guildID int64, req service.CreateChannelRequest) (event.Channel, error) {
	ret := _m.Called(ctx, userID, guildID, req)

	var r0 event.Channel
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Channel)
	}

	return r0, ret.Error(1)
}

// GuildChannels provides a mock function for GuildChannels
func (_m *mockChannelService) GuildChannels(ctx context.Context, userID int64, guildID int64) ([]event.Channel, error) {
	ret := _m.Called(ctx, userID, guildID)

	var r0 []event.Channel
	if v := ret.Get(0); v != nil {
		r0 = v.([]event.Channel)
	}

	return r0, ret.Error(1)
}

// newMockChannelService creates a new instance of mockChannelService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func newMockChannelService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockChannelService {
	m := &mockChannelService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// mockMessageService is a mock type for the MessageService type
type mockMessageService struct {
	mock.Mock
}

// Send provides a mock function for Send
func (_m *mockMessageService) Send(ctx context.Context, userID int64, channelID int64, req service.SendMessageRequest) (event.Message, error) {
	ret := _m.Called(ctx, userID, channelID, req)

	var r0 event.Message
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Message)
	}

	return r0, ret.Error(1)
}

// Get provides a mock function for Get
func (_m *mockMessageService) Get(ctx context.Context, userID int64, channelID int64, messageID int64) (event.Message, error) {
	ret := _m.Called(ctx, userID, channelID, messageID)

	var r0 event.Message
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Message)
	}

	return r0, ret.Error(1)
}

// List provides a mock function for List
func (_m *mockMessageService) List(ctx context.Context, userID int64, channelID int64, limit int, before int64, after int64) ([]event.Message, error) {
	ret := _m.Called(ctx, userID, channelID, limit, before, after)

	var r0 []event.Message
	if v := ret.Get(0); v != nil {
		r0 = v.([]event.Message)
	}

	return r0, ret.Error(1)
}

// Edit provides a mock function for Edit
func (_m *mockMessageService) Edit(ctx context.Context, userID int64, channelID int64, messageID int64, req service.EditMessageRequest) (event.Message, error) {
	ret := _m.Called(ctx, userID, channelID, messageID, req)

	var r0 event.Message
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Message)
	}

	return r0, ret.Error(1)
}

// Delete provides a mock function for Delete
func (_m *mockMessageService) Delete(ctx context.Context, userID int64, channelID int64, messageID int64) error {
	ret := _m.Called(ctx, userID, channelID, messageID)

	return ret.Error(0)
}

// BulkDelete provides a mock function for BulkDelete
func (_m *mockMessageService) BulkDelete(ctx context.Context, userID int64, channelID int64, ids []int64) error {
	ret := _m.Called(ctx, userID, channelID, ids)

	return ret.Error(0)
}

// Ack provides a mock function for Ack
func (_m *mockMessageService) Ack(ctx context.Context, userID int64, channelID int64, messageID int64) error {
	ret := _m.Called(ctx, userID, channelID, messageID)

	return ret.Error(0)
}

// Typing provides a mock function for Typing
func (_m *mockMessageService) Typing(ctx context.Context, userID int64, channelID int64) error {
	ret := _m.Called(ctx, userID, channelID)

	return ret.Error(0)
}

// Pin provides a mock function for Pin
func (_m *mockMessageService) Pin(ctx context.Context, userID int64, channelID int64, messageID int64) error {
	ret := _m.Called(ctx, userID, channelID, messageID)

	return ret.Error(0)
}

// Unpin provides a mock function for Unpin
func (_m *mockMessageService) Unpin(ctx context.Context, userID int64, channelID int64, messageID int64) error {
	ret := _m.Called(ctx, userID, channelID, messageID)

	return ret.Error(0)
}

// Pins provides a mock function for Pins
func (_m *mockMessageService) Pins(ctx context.Context, userID int64, channelID int64) ([]event.Message, error) {
	ret := _m.Called(ctx, userID, channelID)

	var r0 []event.Message
	if v := ret.Get(0); v != nil {
		r0 = v.([]event.Message)
	}

	return r0, ret.Error(1)
}

// AddReaction provides a mock function for AddReaction
func (_m *mockMessageService) AddReaction(ctx context.Context, userID int64, channelID int64, messageID int64, emoji string) error {
	ret := _m.Called(ctx, userID, channelID, messageID, emoji)

	return ret.Error(0)
}

// RemoveReaction provides a mock function for RemoveReaction
func (_m *mockMessageService) RemoveReaction(ctx context.Context, userID int64, channelID int64, messageID int64, emoji string) error {
	ret := _m.Called(ctx, userID, channelID, messageID, emoji)

	return ret.Error(0)
}

// Search provides a mock function for Search
func (_m *mockMessageService) Search(ctx context.Context, userID int64, guildID int64, query string, authorID *int64, channelID *int64, offset int) (service.SearchResult, error) {
	ret := _m.Called(ctx, userID, guildID, query, authorID, channelID, offset)

	var r0 service.SearchResult
	if v := ret.Get(0); v != nil {
		r0 = v.(service.SearchResult)
	}

	return r0, ret.Error(1)
}

// newMockMessageService creates a new instance of mockMessageService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func newMockMessageService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockMessageService {
	m := &mockMessageService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// mockGuildService is a mock type for the GuildService type
type mockGuildService struct {
	mock.Mock
}

// Create provides a mock function for Create
func (_m *mockGuildService) Create(ctx context.Context, userID int64, req service.CreateGuildRequest) (event.Guild, error) {
	ret := _m.Called(ctx, userID, req)

	var r0 event.Guild
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Guild)
	}

	return r0, ret.Error(1)
}

// Get provides a mock function for Get
func (_m *mockGuildService) Get(ctx context.Context, userID int64, guildID int64) (event.Guild, error) {
	ret := _m.Called(ctx, userID, guildID)

	var r0 event.Guild
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Guild)
	}

	return r0, ret.Error(1)
}

// Update provides a mock function for Update
func (_m *mockGuildService) Update(ctx context.Context, userID int64, guildID int64, patch model.GuildPatch) (event.Guild, error) {
	ret := _m.Called(ctx, userID, guildID, patch)

	var r0 event.Guild
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Guild)
	}

	return r0, ret.Error(1)
}

// Delete provides a mock function for Delete
func (_m *mockGuildService) Delete(ctx context.Context, userID int64, guildID int64) error {
	ret := _m.Called(ctx, userID, guildID)

	return ret.Error(0)
}

// Leave provides a mock function for Leave
func (_m *mockGuildService) Leave(ctx context.Context, userID int64, guildID int64) error {
	ret := _m.Called(ctx, userID, guildID)

	return ret.Error(0)
}

// Kick provides a mock function for Kick
func (_m *mockGuildService) Kick(ctx context.Context, userID int64, guildID int64, targetID int64) error {
	ret := _m.Called(ctx, userID, guildID, targetID)

	return ret.Error(0)
}

// Ban provides a mock function for Ban
func (_m *mockGuildService) Ban(ctx context.Context, userID int64, guildID int64, targetID int64, reason string) error {
	ret := _m.Called(ctx, userID, guildID, targetID, reason)

	return ret.Error(0)
}

// Unban provides a mock function for Unban
func (_m *mockGuildService) Unban(ctx context.Context, userID int64, guildID int64, targetID int64) error {
	ret := _m.Called(ctx, userID, guildID, targetID)

	return ret.Error(0)
}

// Members provides a mock function for Members
func (_m *mockGuildService) Members(ctx context.Context, userID int64, guildID int64, limit int) ([]event.Member, error) {
	ret := _m.Called(ctx, userID, guildID, limit)

	var r0 []event.Member
	if v := ret.Get(0); v != nil {
		r0 = v.([]event.Member)
	}

	return r0, ret.Error(1)
}

// Member provides a mock function for Member
func (_m *mockGuildService) Member(ctx context.Context, userID int64, guildID int64, targetID int64) (event.Member, error) {
	ret := _m.Called(ctx, userID, guildID, targetID)

	var r0 event.Member
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Member)
	}

	return r0, ret.Error(1)
}

// UpdateMember provides a mock function for UpdateMember
func (_m *mockGuildService) UpdateMember(ctx context.Context, userID int64, guildID int64, targetID int64, patch model.MemberPatch) (event.Member, error) {
	ret := _m.Called(ctx, userID, guildID, targetID, patch)

	var r0 event.Member
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Member)
	}

	return r0, ret.Error(1)
}

// Roles provides a mock function for Roles
func (_m *mockGuildService) Roles(ctx context.Context, userID int64, guildID int64) ([]event.Role, error) {
	ret := _m.Called(ctx, userID, guildID)

	var r0 []event.Role
	if v := ret.Get(0); v != nil {
		r0 = v.([]event.Role)
	}

	return r0, ret.Error(1)
}

// CreateRole provides a mock function for CreateRole
func (_m *mockGuildService) CreateRole(ctx context.Context, userID int64, guildID int64, patch model.RolePatch) (event.Role, error) {
	ret := _m.Called(ctx, userID, guildID, patch)

	var r0 event.Role
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Role)
	}

	return r0, ret.Error(1)
}

// UpdateRole provides a mock function for UpdateRole
func (_m *mockGuildService) UpdateRole(ctx context.Context, userID int64, guildID int64, roleID int64, patch model.RolePatch) (event.Role, error) {
	ret := _m.Called(ctx, userID, guildID, roleID, patch)

	var r0 event.Role
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Role)
	}

	return r0, ret.Error(1)
}

// DeleteRole provides a mock function for DeleteRole
func (_m *mockGuildService) DeleteRole(ctx context.Context, userID int64, guildID int64, roleID int64) error {
	ret := _m.Called(ctx, userID, guildID, roleID)

	return ret.Error(0)
}

// Emojis provides a mock function for Emojis
func (_m *mockGuildService) Emojis(ctx context.Context, userID int64, guildID int64) ([]event.Emoji, error) {
	ret := _m.Called(ctx, userID, guildID)

	var r0 []event.Emoji
	if v := ret.Get(0); v != nil {
		r0 = v.([]event.Emoji)
	}

	return r0, ret.Error(1)
}

// CreateEmoji provides a mock function for CreateEmoji
func (_m *mockGuildService) CreateEmoji(ctx context.Context, userID int64, guildID int64, req service.CreateEmojiRequest) (event.Emoji, error) {
	ret := _m.Called(ctx, userID, guildID, req)

	var r0 event.Emoji
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Emoji)
	}

	return r0, ret.Error(1)
}

// DeleteEmoji provides a mock function for DeleteEmoji
func (_m *mockGuildService) DeleteEmoji(ctx context.Context, userID int64, guildID int64, emojiID int64) error {
	ret := _m.Called(ctx, userID, guildID, emojiID)

	return ret.Error(0)
}

// newMockGuildService creates a new instance of mockGuildService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func newMockGuildService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockGuildService {
	m := &mockGuildService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// mockInviteService is a mock type for the InviteService type
type mockInviteService struct {
	mock.Mock
}

// Create provides a mock function for Create
func (_m *mockInviteService) Create(ctx context.Context, userID int64, channelID int64, req service.CreateInviteRequest) (event.Invite, error) {
	ret := _m.Called(ctx, userID, channelID, req)

	var r0 event.Invite
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Invite)
	}

	return r0, ret.Error(1)
}

// Get provides a mock function for Get
func (_m *mockInviteService) Get(ctx context.Context, code string) (event.Invite, error) {
	ret := _m.Called(ctx, code)

	var r0 event.Invite
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Invite)
	}

	return r0, ret.Error(1)
}

// ChannelInvites provides a mock function for ChannelInvites
func (_m *mockInviteService) ChannelInvites(ctx context.Context, userID int64, channelID int64) ([]event.Invite, error) {
	ret := _m.Called(ctx, userID, channelID)

	var r0 []event.Invite
	if v := ret.Get(0); v != nil {
		r0 = v.([]event.Invite)
	}

	return r0, ret.Error(1)
}

// Use provides a mock function for Use
func (_m *mockInviteService) Use(ctx context.Context, userID int64, code string) (event.Invite, error) {
	ret := _m.Called(ctx, userID, code)

	var r0 event.Invite
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Invite)
	}

	return r0, ret.Error(1)
}

// Delete provides a mock function for Delete
func (_m *mockInviteService) Delete(ctx context.Context, userID int64, code string) (event.Invite, error) {
	ret := _m.Called(ctx, userID, code)

	var r0 event.Invite
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Invite)
	}

	return r0, ret.Error(1)
}

// newMockInviteService creates a new instance of mockInviteService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func newMockInviteService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockInviteService {
	m := &mockInviteService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// mockInteractionService is a mock type for the InteractionService type
type mockInteractionService struct {
	mock.Mock
}

// Create provides a mock function for Create
func (_m *mockInteractionService) Create(ctx context.Context, userID int64, req service.CreateInteractionRequest) error {
	ret := _m.Called(ctx, userID, req)

	return ret.Error(0)
}

// Callback provides a mock function for Callback
func (_m *mockInteractionService) Callback(ctx context.Context, interactionID int64, token string, cb service.InteractionCallback) (event.Message, error) {
	ret := _m.Called(ctx, interactionID, token, cb)

	var r0 event.Message
	if v := ret.Get(0); v != nil {
		r0 = v.(event.Message)
	}

	return r0, ret.Error(1)
}

// newMockInteractionService creates a new instance of mockInteractionService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func newMockInteractionService(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockInteractionService {
	m := &mockInteractionService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
