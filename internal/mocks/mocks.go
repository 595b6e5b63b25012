package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-store/internal/models"
	"chat-store/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, in models.NewUser) (models.User, error) {
	args := m.Called(ctx, in)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type ContactGroupRepositoryMock struct {
	mock.Mock
}

func (m *ContactGroupRepositoryMock) CreateContactGroup(ctx context.Context, name string, description *string) (models.ContactGroup, error) {
	args := m.Called(ctx, name, description)
	var group models.ContactGroup
	if val := args.Get(0); val != nil {
		group = val.(models.ContactGroup)
	}
	return group, args.Error(1)
}

func (m *ContactGroupRepositoryMock) GetContactGroup(ctx context.Context, groupID string) (models.ContactGroup, error) {
	args := m.Called(ctx, groupID)
	var group models.ContactGroup
	if val := args.Get(0); val != nil {
		group = val.(models.ContactGroup)
	}
	return group, args.Error(1)
}

type AgentRepositoryMock struct {
	mock.Mock
}

func (m *AgentRepositoryMock) GetAgent(ctx context.Context, agentID string) (models.Agent, error) {
	args := m.Called(ctx, agentID)
	var agent models.Agent
	if val := args.Get(0); val != nil {
		agent = val.(models.Agent)
	}
	return agent, args.Error(1)
}

func (m *AgentRepositoryMock) GetAgentByUserID(ctx context.Context, userID string) (models.Agent, error) {
	args := m.Called(ctx, userID)
	var agent models.Agent
	if val := args.Get(0); val != nil {
		agent = val.(models.Agent)
	}
	return agent, args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, title string, chatType models.ChatType) (models.Chat, error) {
	args := m.Called(ctx, title, chatType)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) CreateIndividualChat(ctx context.Context, in models.NewIndividualChat) (models.Chat, error) {
	args := m.Called(ctx, in)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) UpdateChat(ctx context.Context, chatID string, title string, chatType models.ChatType) (models.Chat, error) {
	args := m.Called(ctx, chatID, title, chatType)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) DeleteChat(ctx context.Context, chatID string) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) AddParticipant(ctx context.Context, chatID string, userID string, role models.ParticipantRole) (models.ChatParticipant, error) {
	args := m.Called(ctx, chatID, userID, role)
	var participant models.ChatParticipant
	if val := args.Get(0); val != nil {
		participant = val.(models.ChatParticipant)
	}
	return participant, args.Error(1)
}

func (m *ChatRepositoryMock) RemoveParticipant(ctx context.Context, chatID string, userID string) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) GetParticipant(ctx context.Context, chatID string, userID string) (models.ChatParticipant, error) {
	args := m.Called(ctx, chatID, userID)
	var participant models.ChatParticipant
	if val := args.Get(0); val != nil {
		participant = val.(models.ChatParticipant)
	}
	return participant, args.Error(1)
}

func (m *ChatRepositoryMock) ListParticipants(ctx context.Context, chatID string) ([]models.ChatParticipant, error) {
	args := m.Called(ctx, chatID)
	var list []models.ChatParticipant
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatParticipant)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) FindUserChats(ctx context.Context, userID string, opts models.ChatListOptions) ([]models.ChatWithDetails, error) {
	args := m.Called(ctx, userID, opts)
	var list []models.ChatWithDetails
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatWithDetails)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) SendMessage(ctx context.Context, in models.NewMessage) (models.Message, error) {
	args := m.Called(ctx, in)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListReceipts(ctx context.Context, messageID string) ([]models.MessageReceipt, error) {
	args := m.Called(ctx, messageID)
	var list []models.MessageReceipt
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageReceipt)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) ListChatMessages(ctx context.Context, chatID string, viewerID string, limit int, before *string) (models.MessagePage, error) {
	args := m.Called(ctx, chatID, viewerID, limit, before)
	var page models.MessagePage
	if val := args.Get(0); val != nil {
		page = val.(models.MessagePage)
	}
	return page, args.Error(1)
}

type ReadStateRepositoryMock struct {
	mock.Mock
}

func (m *ReadStateRepositoryMock) MarkAsRead(ctx context.Context, chatID string, userID string, messageID string) (models.ChatParticipant, error) {
	args := m.Called(ctx, chatID, userID, messageID)
	var participant models.ChatParticipant
	if val := args.Get(0); val != nil {
		participant = val.(models.ChatParticipant)
	}
	return participant, args.Error(1)
}

func (m *ReadStateRepositoryMock) ResetUnreadCount(ctx context.Context, chatID string, userID string) (models.ChatParticipant, error) {
	args := m.Called(ctx, chatID, userID)
	var participant models.ChatParticipant
	if val := args.Get(0); val != nil {
		participant = val.(models.ChatParticipant)
	}
	return participant, args.Error(1)
}

func (m *ReadStateRepositoryMock) UpdateMessageReceiptStatus(ctx context.Context, messageID string, receiverID string, status models.ReceiptStatus) (models.MessageReceipt, error) {
	args := m.Called(ctx, messageID, receiverID, status)
	var receipt models.MessageReceipt
	if val := args.Get(0); val != nil {
		receipt = val.(models.MessageReceipt)
	}
	return receipt, args.Error(1)
}

type ContactRepositoryMock struct {
	mock.Mock
}

func (m *ContactRepositoryMock) CreateAIContact(ctx context.Context, in models.NewAIContact) (models.ProvisionedContact, error) {
	args := m.Called(ctx, in)
	var provisioned models.ProvisionedContact
	if val := args.Get(0); val != nil {
		provisioned = val.(models.ProvisionedContact)
	}
	return provisioned, args.Error(1)
}

func (m *ContactRepositoryMock) CreateContact(ctx context.Context, in models.NewContact) (models.Contact, error) {
	args := m.Called(ctx, in)
	var contact models.Contact
	if val := args.Get(0); val != nil {
		contact = val.(models.Contact)
	}
	return contact, args.Error(1)
}

func (m *ContactRepositoryMock) DeleteContactWithRelatedData(ctx context.Context, contactID string, ownerID string) (models.ContactTeardown, error) {
	args := m.Called(ctx, contactID, ownerID)
	var teardown models.ContactTeardown
	if val := args.Get(0); val != nil {
		teardown = val.(models.ContactTeardown)
	}
	return teardown, args.Error(1)
}

func (m *ContactRepositoryMock) GetContact(ctx context.Context, contactID string) (models.Contact, error) {
	args := m.Called(ctx, contactID)
	var contact models.Contact
	if val := args.Get(0); val != nil {
		contact = val.(models.Contact)
	}
	return contact, args.Error(1)
}

func (m *ContactRepositoryMock) ListContactsByOwner(ctx context.Context, ownerID string) ([]models.ContactWithGroup, error) {
	args := m.Called(ctx, ownerID)
	var list []models.ContactWithGroup
	if val := args.Get(0); val != nil {
		list = val.([]models.ContactWithGroup)
	}
	return list, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.ContactGroupRepository = (*ContactGroupRepositoryMock)(nil)
var _ repositories.AgentRepository = (*AgentRepositoryMock)(nil)
var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReadStateRepository = (*ReadStateRepositoryMock)(nil)
var _ repositories.ContactRepository = (*ContactRepositoryMock)(nil)
