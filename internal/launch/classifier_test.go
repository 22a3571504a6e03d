package launch

import (
	"testing"

	"github.com/LMSJTK/training-delivery/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func testScenario() *domain.TrainingScenario {
	return &domain.TrainingScenario{
		ID:             "7a0e8d12-3b4c-4d5e-9f60-718293a4b5c6",
		LandingPageID:  strptr("11111111-1111-4111-8111-111111111111"),
		TrainingPageID: strptr("22222222-2222-4222-8222-222222222222"),
		FollowOnPageID: strptr("33333333-3333-4333-8333-333333333333"),
		EmailID:        strptr("44444444-4444-4444-8444-444444444444"),
	}
}

func TestClassifyRoles(t *testing.T) {
	s := testScenario()

	cases := []struct {
		contentID string
		role      domain.ContentRole
	}{
		{*s.LandingPageID, domain.RoleLanding},
		{*s.TrainingPageID, domain.RoleTraining},
		{*s.FollowOnPageID, domain.RoleFollowOn},
		{*s.EmailID, domain.RoleEmail},
	}

	for _, tc := range cases {
		c, ok := Classify(s, tc.contentID, trackingID, "https://aware.example.com")
		require.True(t, ok, "content %s", tc.contentID)
		assert.Equal(t, tc.role, c.Role)
	}
}

func TestClassifyUnknownContent(t *testing.T) {
	_, ok := Classify(testScenario(), "99999999-9999-4999-8999-999999999999", trackingID, "https://aware.example.com")
	assert.False(t, ok)
}

func TestClassifyLandingNextStep(t *testing.T) {
	s := testScenario()

	c, ok := Classify(s, *s.LandingPageID, trackingID, "https://aware.example.com/")
	require.True(t, ok)
	assert.Equal(t,
		"https://aware.example.com/t/"+StripUUID(*s.TrainingPageID)+"/"+StripUUID(trackingID),
		c.NextStepURL)

	// The generated link must resolve back to the same pair.
	restored, err := RestoreUUID(StripUUID(*s.TrainingPageID))
	require.NoError(t, err)
	assert.Equal(t, *s.TrainingPageID, restored)
}

func TestClassifyTrainingHasNoNextStep(t *testing.T) {
	s := testScenario()

	c, ok := Classify(s, *s.TrainingPageID, trackingID, "https://aware.example.com")
	require.True(t, ok)
	assert.Empty(t, c.NextStepURL)
}

func TestClassifyLandingWithoutTrainingPage(t *testing.T) {
	s := testScenario()
	s.TrainingPageID = nil

	c, ok := Classify(s, *s.LandingPageID, trackingID, "https://aware.example.com")
	require.True(t, ok)
	assert.Empty(t, c.NextStepURL)
}
