package handlers

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers served by the store.
type Handlers struct {
	Chats    *ChatHandler
	Messages *MessageHandler
	Contacts *ContactHandler
	Users    *UserHandler
}

// RegisterRoutes wires the API. currentUser guards every route that acts on behalf of a user.
func RegisterRoutes(router gin.IRouter, h Handlers, currentUser gin.HandlerFunc) {
	router.POST("/users", h.Users.CreateUser)

	api := router.Group("/", currentUser)

	api.GET("/users/:user_id", h.Users.GetUser)
	api.GET("/agents/by-user/:user_id", h.Users.GetAgentByUser)

	api.POST("/chats", h.Chats.CreateChat)
	api.POST("/chats/individual", h.Chats.CreateIndividualChat)
	api.GET("/chats", h.Chats.ListChats)
	api.GET("/chats/:chat_id", h.Chats.GetChat)
	api.PATCH("/chats/:chat_id", h.Chats.UpdateChat)
	api.DELETE("/chats/:chat_id", h.Chats.DeleteChat)
	api.POST("/chats/:chat_id/participants", h.Chats.AddParticipant)
	api.GET("/chats/:chat_id/participants", h.Chats.ListParticipants)
	api.DELETE("/chats/:chat_id/participants/:user_id", h.Chats.RemoveParticipant)

	api.POST("/chats/:chat_id/messages", h.Messages.PostChatMessage)
	api.GET("/chats/:chat_id/messages", h.Messages.GetChatMessages)
	api.POST("/chats/:chat_id/read", h.Messages.MarkAsRead)
	api.POST("/chats/:chat_id/unread/reset", h.Messages.ResetUnread)
	api.PUT("/messages/:message_id/receipts/:receiver_id", h.Messages.UpdateReceipt)
	api.GET("/messages/:message_id/receipts", h.Messages.ListReceipts)

	api.POST("/contact-groups", h.Contacts.CreateContactGroup)
	api.POST("/contacts/ai", h.Contacts.CreateAIContact)
	api.POST("/contacts", h.Contacts.CreateContact)
	api.GET("/contacts", h.Contacts.ListContacts)
	api.DELETE("/contacts/:contact_id", h.Contacts.DeleteContact)
}
