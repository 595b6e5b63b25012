package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"chat-store/internal/logger"
	"chat-store/internal/models"
)

// ContactGroupRepository abstracts contact group persistence.
type ContactGroupRepository interface {
	CreateContactGroup(ctx context.Context, name string, description *string) (models.ContactGroup, error)
	GetContactGroup(ctx context.Context, groupID string) (models.ContactGroup, error)
}

type ContactGroupRepo struct {
	store
}

func NewContactGroupRepo(db *sqlx.DB, log *logger.Logger) *ContactGroupRepo {
	return &ContactGroupRepo{store: newStore(db, log, nil, "ContactGroupRepo")}
}

func (r *ContactGroupRepo) CreateContactGroup(ctx context.Context, name string, description *string) (models.ContactGroup, error) {
	if strings.TrimSpace(name) == "" {
		return models.ContactGroup{}, invalidArgument("group name is required")
	}
	group := models.ContactGroup{ID: newID(), Name: name, Description: description}
	err := r.run(ctx, "create_contact_group", func(ctx context.Context) error {
		_, err := exec(ctx, r.db, `INSERT INTO contact_groups (id, name, description) VALUES (?, ?, ?)`,
			group.ID, group.Name, group.Description)
		return classify("insert contact group", err)
	})
	if err != nil {
		return models.ContactGroup{}, err
	}
	return group, nil
}

func (r *ContactGroupRepo) GetContactGroup(ctx context.Context, groupID string) (models.ContactGroup, error) {
	var group models.ContactGroup
	err := r.run(ctx, "get_contact_group", func(ctx context.Context) error {
		err := get(ctx, r.db, &group, `SELECT id, name, description FROM contact_groups WHERE id=?`, groupID)
		return lookup("get contact group", err, ErrContactGroupNotFound)
	})
	return group, err
}
