package ports

import (
	"context"

	"github.com/farmassist-bd/farmassist/internal/domain"
)

type ConversationRepository interface {
	Save(ctx context.Context, conv *domain.Conversation) error
	ListNewestFirst(ctx context.Context, limit int) ([]domain.Conversation, error)
}

type UserRepository interface {
	FindOrCreateByExternalID(ctx context.Context, externalID string) (*domain.User, error)
}
