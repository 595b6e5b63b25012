package models

import "time"

// Agent is the AI configuration behind a synthetic user.
type Agent struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	ModelName    string    `db:"model_name" json:"model_name"`
	SystemPrompt string    `db:"system_prompt" json:"system_prompt"`
	Temperature  float64   `db:"temperature" json:"temperature"`
	MaxTokens    *int      `db:"max_tokens" json:"max_tokens,omitempty"`
	TopP         *float64  `db:"top_p" json:"top_p,omitempty"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Description  *string   `db:"description" json:"description,omitempty"`
	IsStreaming  bool      `db:"is_streaming" json:"is_streaming"`
	UserID       *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type ContactGroup struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
}

// ContactUserLink wraps a user so that several owners can point contacts at it.
type ContactUserLink struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Contact struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	GroupID     string    `db:"group_id" json:"group_id"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	UserLinkID  string    `db:"user_link_id" json:"user_link_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ContactWithGroup joins a contact with its group and the user behind its link.
type ContactWithGroup struct {
	Contact Contact      `json:"contact"`
	Group   ContactGroup `json:"group"`
	User    UserDetails  `json:"user"`
}

// NewAIContact holds the agent and contact parameters for provisioning.
type NewAIContact struct {
	OwnerID      string   `json:"owner_id"`
	GroupID      string   `json:"group_id" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Description  *string  `json:"description"`
	ModelName    string   `json:"model_name" binding:"required"`
	SystemPrompt string   `json:"system_prompt"`
	Temperature  float64  `json:"temperature"`
	MaxTokens    *int     `json:"max_tokens"`
	TopP         *float64 `json:"top_p"`
	AvatarURL    *string  `json:"avatar_url"`
	IsStreaming  bool     `json:"is_streaming"`
}

// NewContact points an owner's contact at an existing user.
type NewContact struct {
	OwnerID     string  `json:"owner_id"`
	UserID      string  `json:"user_id" binding:"required"`
	GroupID     string  `json:"group_id" binding:"required"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// ProvisionedContact is the result of a completed AI contact provisioning.
type ProvisionedContact struct {
	Contact Contact         `json:"contact"`
	Agent   Agent           `json:"agent"`
	User    User            `json:"user"`
	Link    ContactUserLink `json:"link"`
}

// ContactTeardown reports what a contact deletion removed.
type ContactTeardown struct {
	ContactID      string   `json:"contact_id"`
	DeletedChatIDs []string `json:"deleted_chat_ids"`
	GroupDeleted   bool     `json:"group_deleted"`
	LinkDeleted    bool     `json:"link_deleted"`
	UserDeleted    bool     `json:"user_deleted"`
	AgentDeleted   bool     `json:"agent_deleted"`
}
