package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/vanity-bot/internal/models"
)

func TestEvaluateTagAllSignalsAbsent(t *testing.T) {
	for _, tag := range []string{"/vanir", "x", "  /VANIR "} {
		assert.False(t, EvaluateTag(models.Signals{}, tag), tag)
	}
}

func TestEvaluateTagMatchesAnyField(t *testing.T) {
	cases := []struct {
		name    string
		signals models.Signals
	}{
		{"status", models.Signals{Status: models.StringPtr("I love /vanir")}},
		{"bio only", models.Signals{Bio: models.StringPtr("find me at /VANIR")}},
		{"pronouns", models.Signals{Pronouns: models.StringPtr("she/her /Vanir")}},
		{"status unknown bio matches", models.Signals{Status: nil, Bio: models.StringPtr("/vanir")}},
		{"other fields unrelated", models.Signals{Status: models.StringPtr("busy"), Bio: models.StringPtr("nothing"), Pronouns: models.StringPtr("/vanir")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, EvaluateTag(tc.signals, "/vanir"))
		})
	}
}

func TestEvaluateTagNoMatch(t *testing.T) {
	signals := models.Signals{
		Status:   models.StringPtr("/vani r"),
		Bio:      models.StringPtr(""),
		Pronouns: models.StringPtr("they/them"),
	}
	assert.False(t, EvaluateTag(signals, "/vanir"))
}

func TestEvaluateTagEmptyTagNeverMatches(t *testing.T) {
	assert.False(t, EvaluateTag(models.Signals{Status: models.StringPtr("anything")}, "   "))
}
