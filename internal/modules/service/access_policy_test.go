package service

import (
	"context"
	"errors"
	"testing"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/repo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAccessPolicy_IsOwner(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	groupID := uuid.New()

	tests := []struct {
		name      string
		userID    uuid.UUID
		setup     func(*MockCommunityRepo)
		wantOwner bool
		wantKind  Kind
	}{
		{
			name:   "owner",
			userID: ownerID,
			setup: func(m *MockCommunityRepo) {
				m.On("GetGroup", mock.Anything, groupID).Return(&model.Group{ID: groupID, OwnerUserID: ownerID}, nil)
			},
			wantOwner: true,
		},
		{
			name:   "someone else",
			userID: uuid.New(),
			setup: func(m *MockCommunityRepo) {
				m.On("GetGroup", mock.Anything, groupID).Return(&model.Group{ID: groupID, OwnerUserID: ownerID}, nil)
			},
		},
		{
			name:   "anonymous never owns",
			userID: uuid.Nil,
			setup: func(m *MockCommunityRepo) {
				m.On("GetGroup", mock.Anything, groupID).Return(&model.Group{ID: groupID}, nil)
			},
		},
		{
			name:   "unknown group",
			userID: ownerID,
			setup: func(m *MockCommunityRepo) {
				m.On("GetGroup", mock.Anything, groupID).Return(nil, repo.ErrGroupNotFound)
			},
			wantKind: KindNotFound,
		},
		{
			name:   "store failure",
			userID: ownerID,
			setup: func(m *MockCommunityRepo) {
				m.On("GetGroup", mock.Anything, groupID).Return(nil, errors.New("connection reset"))
			},
			wantKind: KindDependencyFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			community := &MockCommunityRepo{}
			tt.setup(community)

			owner, err := NewAccessPolicy(community).IsOwner(ctx, tt.userID, groupID)
			if tt.wantKind != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantOwner, owner)
			community.AssertExpectations(t)
		})
	}
}

func TestAccessPolicy_ReadsOwnershipEveryCall(t *testing.T) {
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()
	groupID := uuid.New()

	community := &MockCommunityRepo{}
	community.On("GetGroup", mock.Anything, groupID).Return(&model.Group{ID: groupID, OwnerUserID: first}, nil).Once()
	community.On("GetGroup", mock.Anything, groupID).Return(&model.Group{ID: groupID, OwnerUserID: second}, nil).Once()

	p := NewAccessPolicy(community)

	owner, err := p.IsOwner(ctx, first, groupID)
	assert.NoError(t, err)
	assert.True(t, owner)

	// Ownership moved between calls.
	owner, err = p.IsOwner(ctx, first, groupID)
	assert.NoError(t, err)
	assert.False(t, owner)

	community.AssertNumberOfCalls(t, "GetGroup", 2)
}

func TestAccessPolicy_IsMember(t *testing.T) {
	ctx := context.Background()
	userID, groupID := uuid.New(), uuid.New()

	community := &MockCommunityRepo{}
	community.On("IsMember", mock.Anything, groupID, userID).Return(true, nil).Once()
	community.On("IsMember", mock.Anything, groupID, userID).Return(false, errors.New("timeout")).Once()

	p := NewAccessPolicy(community)

	ok, err := p.IsMember(ctx, userID, groupID)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.IsMember(ctx, userID, groupID)
	assert.False(t, ok)
	assert.Equal(t, KindDependencyFailure, KindOf(err))
}
