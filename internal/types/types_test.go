package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationRetained(t *testing.T) {
	tests := []struct {
		name string
		c    Classification
		want bool
	}{
		{"on topic above threshold", Classification{IsOnTopic: true, Confidence: 0.9}, true},
		{"on topic at threshold", Classification{IsOnTopic: true, Confidence: 0.7}, true},
		{"on topic below threshold", Classification{IsOnTopic: true, Confidence: 0.69}, false},
		{"off topic high confidence", Classification{IsOnTopic: false, Confidence: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Retained())
		})
	}
}

func TestClassificationValidate(t *testing.T) {
	t.Run("rejects confidence out of range", func(t *testing.T) {
		c := Classification{IsOnTopic: true, Confidence: 1.2}
		err := c.Validate()

		var malformed *MalformedOutputError
		require.True(t, errors.As(err, &malformed))
		assert.Equal(t, "confidence", malformed.Field)
	})

	t.Run("dedupes categories in order", func(t *testing.T) {
		c := Classification{Confidence: 0.8, Categories: []string{"AI", " startups", "AI", ""}}
		require.NoError(t, c.Validate())
		assert.Equal(t, []string{"AI", "startups"}, c.Categories)
	})
}

func TestEngagementScoreValidate(t *testing.T) {
	assert.NoError(t, (&EngagementScore{Potential: 0}).Validate())
	assert.NoError(t, (&EngagementScore{Potential: 10}).Validate())
	assert.Error(t, (&EngagementScore{Potential: 10.5}).Validate())
	assert.Error(t, (&EngagementScore{Potential: -1}).Validate())
}

func TestGeneratedReplyValidate(t *testing.T) {
	r := GeneratedReply{Text: "  shipping beats planning  "}
	require.NoError(t, r.Validate())
	assert.Equal(t, "shipping beats planning", r.Text)

	assert.Error(t, (&GeneratedReply{Text: "   "}).Validate())
}

func TestEmptyInputErrorMessage(t *testing.T) {
	assert.Equal(t, "no items to select from", (&EmptyInputError{}).Error())
	assert.Equal(t, "select: no items to select from", (&EmptyInputError{Stage: "select"}).Error())
}
