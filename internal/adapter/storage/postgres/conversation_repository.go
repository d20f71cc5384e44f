package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/ports"
)

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository creates a GORM-backed conversation repository
func NewConversationRepository(db *gorm.DB) ports.ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Save(ctx context.Context, conv *domain.Conversation) error {
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) ListNewestFirst(ctx context.Context, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}

	var conversations []domain.Conversation
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}
