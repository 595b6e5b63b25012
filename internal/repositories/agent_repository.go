package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"chat-store/internal/logger"
	"chat-store/internal/models"
)

// AgentRepository abstracts agent lookups. Agents are created only by contact provisioning.
type AgentRepository interface {
	GetAgent(ctx context.Context, agentID string) (models.Agent, error)
	GetAgentByUserID(ctx context.Context, userID string) (models.Agent, error)
}

type AgentRepo struct {
	store
}

func NewAgentRepo(db *sqlx.DB, log *logger.Logger) *AgentRepo {
	return &AgentRepo{store: newStore(db, log, nil, "AgentRepo")}
}

const agentColumns = `id, name, model_name, system_prompt, temperature, max_tokens, top_p,
        avatar_url, description, is_streaming, user_id, created_at, updated_at`

func (r *AgentRepo) GetAgent(ctx context.Context, agentID string) (models.Agent, error) {
	var agent models.Agent
	err := r.run(ctx, "get_agent", func(ctx context.Context) error {
		err := get(ctx, r.db, &agent, `SELECT `+agentColumns+` FROM agents WHERE id=?`, agentID)
		return lookup("get agent", err, ErrAgentNotFound)
	})
	return agent, err
}

func (r *AgentRepo) GetAgentByUserID(ctx context.Context, userID string) (models.Agent, error) {
	var agent models.Agent
	err := r.run(ctx, "get_agent_by_user", func(ctx context.Context) error {
		err := get(ctx, r.db, &agent, `SELECT `+agentColumns+` FROM agents WHERE user_id=?`, userID)
		return lookup("get agent by user", err, ErrAgentNotFound)
	})
	return agent, err
}
