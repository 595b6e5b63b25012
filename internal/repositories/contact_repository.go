package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-store/internal/db"
	"chat-store/internal/logger"
	"chat-store/internal/models"
)

// ContactRepository provisions and tears down contacts with their dependent rows.
type ContactRepository interface {
	CreateAIContact(ctx context.Context, in models.NewAIContact) (models.ProvisionedContact, error)
	CreateContact(ctx context.Context, in models.NewContact) (models.Contact, error)
	DeleteContactWithRelatedData(ctx context.Context, contactID string, ownerID string) (models.ContactTeardown, error)
	GetContact(ctx context.Context, contactID string) (models.Contact, error)
	ListContactsByOwner(ctx context.Context, ownerID string) ([]models.ContactWithGroup, error)
}

// ProvisionStep names a completed step of AI contact provisioning.
type ProvisionStep string

const (
	StepAgentInserted   ProvisionStep = "agent_inserted"
	StepUserInserted    ProvisionStep = "user_inserted"
	StepAgentLinked     ProvisionStep = "agent_linked"
	StepLinkInserted    ProvisionStep = "link_inserted"
	StepContactInserted ProvisionStep = "contact_inserted"
)

// ProvisionHook runs after each provisioning step inside the transaction.
// A non-nil error aborts provisioning.
type ProvisionHook func(ctx context.Context, step ProvisionStep) error

type ContactRepo struct {
	store
	hook ProvisionHook
}

func NewContactRepo(db *sqlx.DB, log *logger.Logger, clock Clock) *ContactRepo {
	return &ContactRepo{store: newStore(db, log, clock, "ContactRepo")}
}

// SetProvisionHook installs a hook called between provisioning steps.
func (r *ContactRepo) SetProvisionHook(hook ProvisionHook) {
	r.hook = hook
}

func (r *ContactRepo) step(ctx context.Context, s ProvisionStep) error {
	if r.hook == nil {
		return nil
	}
	return r.hook(ctx, s)
}

func validateAIContact(in models.NewAIContact) error {
	switch {
	case in.OwnerID == "" || in.GroupID == "":
		return invalidArgument("owner and group are required")
	case strings.TrimSpace(in.Name) == "":
		return invalidArgument("agent name is required")
	case strings.TrimSpace(in.ModelName) == "":
		return invalidArgument("model name is required")
	case in.Temperature < 0 || in.Temperature > 2:
		return invalidArgument("temperature must be within [0, 2]")
	case in.TopP != nil && (*in.TopP <= 0 || *in.TopP > 1):
		return invalidArgument("top_p must be within (0, 1]")
	case in.MaxTokens != nil && *in.MaxTokens <= 0:
		return invalidArgument("max_tokens must be positive")
	}
	return nil
}

// CreateAIContact creates an agent, its synthetic user, the user link and the
// owner's contact in one transaction. Either all of them exist afterwards or none.
func (r *ContactRepo) CreateAIContact(ctx context.Context, in models.NewAIContact) (models.ProvisionedContact, error) {
	if err := validateAIContact(in); err != nil {
		return models.ProvisionedContact{}, err
	}

	var out models.ProvisionedContact
	err := r.withTx(ctx, "create_ai_contact", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := userExists(ctx, tx, in.OwnerID); err != nil {
			return err
		}
		if err := contactGroupExists(ctx, tx, in.GroupID); err != nil {
			return err
		}
		now := r.now()

		agent := models.Agent{
			ID:           newID(),
			Name:         in.Name,
			ModelName:    in.ModelName,
			SystemPrompt: in.SystemPrompt,
			Temperature:  in.Temperature,
			MaxTokens:    in.MaxTokens,
			TopP:         in.TopP,
			AvatarURL:    in.AvatarURL,
			Description:  in.Description,
			IsStreaming:  in.IsStreaming,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := exec(ctx, tx, `INSERT INTO agents
            (id, name, model_name, system_prompt, temperature, max_tokens, top_p, avatar_url, description, is_streaming, user_id, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
			agent.ID, agent.Name, agent.ModelName, agent.SystemPrompt, agent.Temperature, agent.MaxTokens, agent.TopP,
			agent.AvatarURL, agent.Description, agent.IsStreaming, agent.CreatedAt, agent.UpdatedAt); err != nil {
			return classify("insert agent", err)
		}
		if err := r.step(ctx, StepAgentInserted); err != nil {
			return err
		}

		user := models.User{
			ID:          newID(),
			Name:        in.Name,
			AvatarURL:   in.AvatarURL,
			Description: in.Description,
			IsAI:        true,
			Theme:       defaultTheme,
			Language:    defaultLanguage,
			FontSize:    defaultFontSize,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		if err := r.step(ctx, StepUserInserted); err != nil {
			return err
		}

		if _, err := exec(ctx, tx, `UPDATE agents SET user_id=?, updated_at=? WHERE id=?`, user.ID, now, agent.ID); err != nil {
			return classify("link agent", err)
		}
		agent.UserID = &user.ID
		if err := r.step(ctx, StepAgentLinked); err != nil {
			return err
		}

		link, err := insertLink(ctx, tx, user.ID, now)
		if err != nil {
			return err
		}
		if err := r.step(ctx, StepLinkInserted); err != nil {
			return err
		}

		contact := models.Contact{
			ID:          newID(),
			Name:        in.Name,
			Description: in.Description,
			GroupID:     in.GroupID,
			OwnerID:     in.OwnerID,
			UserLinkID:  link.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := insertContact(ctx, tx, contact); err != nil {
			return err
		}
		if err := r.step(ctx, StepContactInserted); err != nil {
			return err
		}

		out = models.ProvisionedContact{Contact: contact, Agent: agent, User: user, Link: link}
		return nil
	})
	if err != nil {
		return models.ProvisionedContact{}, err
	}
	r.log.Info("provisioned ai contact",
		"contact_id", out.Contact.ID, "agent_id", out.Agent.ID, "user_id", out.User.ID, "owner_id", in.OwnerID)
	return out, nil
}

// CreateContact adds a contact for an existing user, reusing the user's link when
// another owner already has one.
func (r *ContactRepo) CreateContact(ctx context.Context, in models.NewContact) (models.Contact, error) {
	if in.OwnerID == "" || in.UserID == "" || in.GroupID == "" {
		return models.Contact{}, invalidArgument("owner, user and group are required")
	}
	if in.OwnerID == in.UserID {
		return models.Contact{}, invalidArgument("cannot add self as contact")
	}

	var contact models.Contact
	err := r.withTx(ctx, "create_contact", nil, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := userExists(ctx, tx, in.OwnerID); err != nil {
			return err
		}
		var user models.User
		if err := getUser(ctx, tx, in.UserID, &user); err != nil {
			return err
		}
		if err := contactGroupExists(ctx, tx, in.GroupID); err != nil {
			return err
		}
		now := r.now()

		var link models.ContactUserLink
		err := get(ctx, tx, &link, `SELECT id, user_id, created_at FROM contact_user_links WHERE user_id=?`, in.UserID)
		switch {
		case err == nil:
			n, err := count(ctx, tx, `SELECT COUNT(*) FROM contacts WHERE owner_id=? AND user_link_id=?`, in.OwnerID, link.ID)
			if err != nil {
				return classify("check duplicate contact", err)
			}
			if n > 0 {
				return fmt.Errorf("contact for user %s %w", in.UserID, ErrAlreadyExists)
			}
		case errors.Is(err, sql.ErrNoRows):
			if link, err = insertLink(ctx, tx, in.UserID, now); err != nil {
				return err
			}
		default:
			return classify("get user link", err)
		}

		name := in.Name
		if strings.TrimSpace(name) == "" {
			name = user.Name
		}
		contact = models.Contact{
			ID:          newID(),
			Name:        name,
			Description: in.Description,
			GroupID:     in.GroupID,
			OwnerID:     in.OwnerID,
			UserLinkID:  link.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return insertContact(ctx, tx, contact)
	})
	if err != nil {
		return models.Contact{}, err
	}
	r.log.Debug("created contact", "contact_id", contact.ID, "owner_id", in.OwnerID, "user_id", in.UserID)
	return contact, nil
}

// DeleteContactWithRelatedData deletes an owner's contact and the individual chats
// the owner shares with the contact's user, then garbage-collects the group, the
// user link and finally the user (and its agent) once nothing references them.
// Reference counts are read inside the same transaction as the deletes they gate.
func (r *ContactRepo) DeleteContactWithRelatedData(ctx context.Context, contactID string, ownerID string) (models.ContactTeardown, error) {
	result := models.ContactTeardown{ContactID: contactID, DeletedChatIDs: []string{}}
	err := r.withTx(ctx, "delete_contact", db.TxOptions(r.db, true), func(ctx context.Context, tx *sqlx.Tx) error {
		var contact models.Contact
		if err := getContact(ctx, tx, contactID, &contact); err != nil {
			return err
		}
		if contact.OwnerID != ownerID {
			return ErrContactNotFound
		}
		var link models.ContactUserLink
		if err := get(ctx, tx, &link, `SELECT id, user_id, created_at FROM contact_user_links WHERE id=?`, contact.UserLinkID); err != nil {
			return classify("get user link", err)
		}

		if link.UserID != ownerID {
			var chatIDs []string
			if err := selectRows(ctx, tx, &chatIDs, `SELECT c.id FROM chats c
                WHERE c.type = ?
                  AND EXISTS (SELECT 1 FROM chat_participants p WHERE p.chat_id = c.id AND p.user_id = ?)
                  AND EXISTS (SELECT 1 FROM chat_participants p WHERE p.chat_id = c.id AND p.user_id = ?)
                ORDER BY c.id`, string(models.ChatTypeIndividual), ownerID, link.UserID); err != nil {
				return classify("find shared chats", err)
			}
			for _, chatID := range chatIDs {
				if err := deleteChatGraph(ctx, tx, chatID); err != nil {
					return err
				}
			}
			result.DeletedChatIDs = append(result.DeletedChatIDs, chatIDs...)
		}

		if _, err := exec(ctx, tx, `DELETE FROM contacts WHERE id=?`, contactID); err != nil {
			return classify("delete contact", err)
		}

		n, err := count(ctx, tx, `SELECT COUNT(*) FROM contacts WHERE group_id=?`, contact.GroupID)
		if err != nil {
			return classify("count group contacts", err)
		}
		if n == 0 {
			if _, err := exec(ctx, tx, `DELETE FROM contact_groups WHERE id=?`, contact.GroupID); err != nil {
				return classify("delete contact group", err)
			}
			result.GroupDeleted = true
		}

		if n, err = count(ctx, tx, `SELECT COUNT(*) FROM contacts WHERE user_link_id=?`, link.ID); err != nil {
			return classify("count link contacts", err)
		}
		if n > 0 {
			return nil
		}
		if _, err := exec(ctx, tx, `DELETE FROM contact_user_links WHERE id=?`, link.ID); err != nil {
			return classify("delete user link", err)
		}
		result.LinkDeleted = true

		orphaned, err := userIsOrphaned(ctx, tx, link.UserID)
		if err != nil || !orphaned {
			return err
		}
		res, err := exec(ctx, tx, `DELETE FROM agents WHERE user_id=?`, link.UserID)
		if err != nil {
			return classify("delete agent", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			result.AgentDeleted = true
		}
		if _, err := exec(ctx, tx, `DELETE FROM users WHERE id=?`, link.UserID); err != nil {
			return classify("delete user", err)
		}
		result.UserDeleted = true
		return nil
	})
	if err != nil {
		return models.ContactTeardown{}, err
	}
	r.log.Info("deleted contact",
		"contact_id", contactID, "owner_id", ownerID, "chats", len(result.DeletedChatIDs),
		"group_deleted", result.GroupDeleted, "link_deleted", result.LinkDeleted, "user_deleted", result.UserDeleted)
	return result, nil
}

// userIsOrphaned reports whether nothing references the user any more: no chat
// memberships, no owned contacts, no surviving messages or receipts.
func userIsOrphaned(ctx context.Context, tx *sqlx.Tx, userID string) (bool, error) {
	checks := []struct {
		op    string
		query string
	}{
		{"count memberships", `SELECT COUNT(*) FROM chat_participants WHERE user_id=?`},
		{"count owned contacts", `SELECT COUNT(*) FROM contacts WHERE owner_id=?`},
		{"count sent messages", `SELECT COUNT(*) FROM messages WHERE sender_id=?`},
		{"count receipts", `SELECT COUNT(*) FROM message_receipts WHERE receiver_id=?`},
	}
	for _, c := range checks {
		n, err := count(ctx, tx, c.query, userID)
		if err != nil {
			return false, classify(c.op, err)
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (r *ContactRepo) GetContact(ctx context.Context, contactID string) (models.Contact, error) {
	var contact models.Contact
	err := r.run(ctx, "get_contact", func(ctx context.Context) error {
		return getContact(ctx, r.db, contactID, &contact)
	})
	return contact, err
}

type contactRow struct {
	models.Contact
	GroupName        string  `db:"group_name"`
	GroupDescription *string `db:"group_description"`
	UserID           string  `db:"user_id"`
	UserName         string  `db:"user_name"`
	UserDescription  *string `db:"user_description"`
	UserIsAI         bool    `db:"user_is_ai"`
}

// ListContactsByOwner returns the owner's contacts with their group and user.
func (r *ContactRepo) ListContactsByOwner(ctx context.Context, ownerID string) ([]models.ContactWithGroup, error) {
	var rows []contactRow
	err := r.run(ctx, "list_contacts", func(ctx context.Context) error {
		err := selectRows(ctx, r.db, &rows, `SELECT ct.id, ct.name, ct.description, ct.group_id, ct.owner_id, ct.user_link_id,
                ct.created_at, ct.updated_at,
                g.name AS group_name, g.description AS group_description,
                u.id AS user_id, u.name AS user_name, u.description AS user_description, u.is_ai AS user_is_ai
            FROM contacts ct
            JOIN contact_groups g ON g.id = ct.group_id
            JOIN contact_user_links l ON l.id = ct.user_link_id
            JOIN users u ON u.id = l.user_id
            WHERE ct.owner_id = ?
            ORDER BY g.name, ct.name, ct.id`, ownerID)
		return classify("list contacts", err)
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.ContactWithGroup, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.ContactWithGroup{
			Contact: row.Contact,
			Group:   models.ContactGroup{ID: row.GroupID, Name: row.GroupName, Description: row.GroupDescription},
			User:    models.UserDetails{ID: row.UserID, Name: row.UserName, Description: row.UserDescription, IsAI: row.UserIsAI},
		})
	}
	return out, nil
}

func insertLink(ctx context.Context, tx *sqlx.Tx, userID string, now time.Time) (models.ContactUserLink, error) {
	link := models.ContactUserLink{ID: newID(), UserID: userID, CreatedAt: now}
	_, err := exec(ctx, tx, `INSERT INTO contact_user_links (id, user_id, created_at) VALUES (?, ?, ?)`,
		link.ID, link.UserID, link.CreatedAt)
	if err != nil {
		return models.ContactUserLink{}, classify("insert user link", err)
	}
	return link, nil
}

func insertContact(ctx context.Context, tx *sqlx.Tx, c models.Contact) error {
	_, err := exec(ctx, tx, `INSERT INTO contacts (id, name, description, group_id, owner_id, user_link_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.GroupID, c.OwnerID, c.UserLinkID, c.CreatedAt, c.UpdatedAt)
	return classify("insert contact", err)
}

func getContact(ctx context.Context, q sqlx.ExtContext, contactID string, dest *models.Contact) error {
	err := get(ctx, q, dest, `SELECT id, name, description, group_id, owner_id, user_link_id, created_at, updated_at
        FROM contacts WHERE id=?`, contactID)
	return lookup("get contact", err, ErrContactNotFound)
}

func contactGroupExists(ctx context.Context, q sqlx.ExtContext, groupID string) error {
	n, err := count(ctx, q, `SELECT COUNT(*) FROM contact_groups WHERE id=?`, groupID)
	if err != nil {
		return classify("check contact group", err)
	}
	if n == 0 {
		return ErrContactGroupNotFound
	}
	return nil
}
