package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validRequest() settings.CreateSettingsRequest {
	return settings.CreateSettingsRequest{
		RequiredTimeIn:       "09:00:00",
		RequiredTimeOut:      "18:00:00",
		BreakDurationMinutes: 60,
		BreakIsCounted:       false,
	}
}

func TestCreateSettings_RecomputesInSameTransaction(t *testing.T) {
	repo := new(mockSettingsRepository)
	recomputer := new(mockRecomputer)
	tx := &fakeTx{}

	created := stored("s-9", "09:00:00", "18:00:00")
	created.BreakDurationMinutes = 60

	repo.On("LockExclusive", mock.MatchedBy(inTx)).Return(nil).Once()
	repo.On("Create", mock.MatchedBy(inTx), mock.MatchedBy(func(s settings.AttendanceSettings) bool {
		return s.RequiredTimeIn.String() == "09:00:00" && s.BreakDurationMinutes == 60
	})).Return(created, nil).Once()
	recomputer.On("RecomputeWith", mock.MatchedBy(inTx), created).Return(7, nil).Once()

	provider := NewCachedProvider(repo, time.Hour)
	svc := NewSettingsService(tx, repo, provider, recomputer)

	resp, err := svc.CreateSettings(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 7, resp.RecomputedRecords)
	assert.Equal(t, "09:00:00", resp.Settings.RequiredTimeIn)
	assert.False(t, resp.Settings.IsDefault)
	require.NotNil(t, resp.Settings.ID)
	assert.Equal(t, "s-9", *resp.Settings.ID)
	assert.Equal(t, 1, tx.calls)

	// the provider now serves the new row without touching the store
	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s-9", current.ID)

	repo.AssertExpectations(t)
	recomputer.AssertExpectations(t)
}

func TestCreateSettings_ValidationFailsBeforeStore(t *testing.T) {
	repo := new(mockSettingsRepository)
	recomputer := new(mockRecomputer)
	svc := NewSettingsService(&fakeTx{}, repo, NewCachedProvider(repo, time.Hour), recomputer)

	req := validRequest()
	req.RequiredTimeOut = "08:00:00"
	_, err := svc.CreateSettings(context.Background(), req)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "required_time_out")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	recomputer.AssertNotCalled(t, "RecomputeWith", mock.Anything, mock.Anything)
}

func TestCreateSettings_RecomputeFailureKeepsOldSettings(t *testing.T) {
	repo := new(mockSettingsRepository)
	recomputer := new(mockRecomputer)

	created := stored("s-9", "09:00:00", "18:00:00")
	repo.On("LockExclusive", mock.Anything).Return(nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(created, nil).Once()
	recomputer.On("RecomputeWith", mock.Anything, created).Return(0, errors.New("lock timeout")).Once()

	provider := NewCachedProvider(repo, time.Hour)
	provider.Set(stored("s-old", "08:00:00", "17:00:00"))
	svc := NewSettingsService(&fakeTx{}, repo, provider, recomputer)

	_, err := svc.CreateSettings(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to recompute attendance")

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s-old", current.ID)
}

func TestCreateSettings_LockTimeoutStoresNothing(t *testing.T) {
	repo := new(mockSettingsRepository)
	recomputer := new(mockRecomputer)
	repo.On("LockExclusive", mock.Anything).Return(errors.New("canceling statement due to lock timeout")).Once()

	svc := NewSettingsService(&fakeTx{}, repo, NewCachedProvider(repo, time.Hour), recomputer)
	_, err := svc.CreateSettings(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock timeout")

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	recomputer.AssertNotCalled(t, "RecomputeWith", mock.Anything, mock.Anything)
}

func TestGetSettings_DefaultWhenNoneStored(t *testing.T) {
	repo := new(mockSettingsRepository)
	repo.On("GetLatest", mock.Anything).Return(settings.AttendanceSettings{}, settings.ErrSettingsNotFound)
	svc := NewSettingsService(&fakeTx{}, repo, NewCachedProvider(repo, time.Hour), new(mockRecomputer))

	resp, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.IsDefault)
	assert.Nil(t, resp.ID)
	assert.Equal(t, "22:00:00", resp.RequiredTimeOut)
}
