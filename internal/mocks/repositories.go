package mocks

import (
	"context"

	"github.com/farmassist-bd/farmassist/internal/domain"
)

// MockConversationRepository is a mock implementation of ports.ConversationRepository
type MockConversationRepository struct {
	SaveFunc            func(ctx context.Context, conv *domain.Conversation) error
	ListNewestFirstFunc func(ctx context.Context, limit int) ([]domain.Conversation, error)
	Saved               []*domain.Conversation
}

func (m *MockConversationRepository) Save(ctx context.Context, conv *domain.Conversation) error {
	m.Saved = append(m.Saved, conv)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, conv)
	}
	return nil
}

func (m *MockConversationRepository) ListNewestFirst(ctx context.Context, limit int) ([]domain.Conversation, error) {
	if m.ListNewestFirstFunc != nil {
		return m.ListNewestFirstFunc(ctx, limit)
	}
	return nil, nil
}

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	FindOrCreateByExternalIDFunc func(ctx context.Context, externalID string) (*domain.User, error)
	Calls                        int
}

func (m *MockUserRepository) FindOrCreateByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	m.Calls++
	if m.FindOrCreateByExternalIDFunc != nil {
		return m.FindOrCreateByExternalIDFunc(ctx, externalID)
	}
	return &domain.User{ID: "user-1", ExternalID: externalID}, nil
}
