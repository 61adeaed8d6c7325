package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invitation struct {
	Title           string
	Description     string
	StartTime       string
	EndTime         string
	DurationMinutes int
	Link            string
}

func TestEmailMessage_RenderTemplate(t *testing.T) {
	msg := &EmailMessage{
		TemplateName: "remedial_invitation",
		TemplateData: invitation{
			Title:           "Pointers recap",
			Description:     "Bring your questions",
			StartTime:       "2024-03-01T09:00:00Z",
			EndTime:         "2024-03-01T10:30:00Z",
			DurationMinutes: 90,
			Link:            "https://meet.example.com/abc",
		},
	}

	require.NoError(t, msg.Render("https://academia.example.com"))
	assert.Equal(t,
		"You have been invited to a remedial session. Title: Pointers recap, Description: Bring your questions, "+
			"Start Time: 2024-03-01T09:00:00Z, End Time: 2024-03-01T10:30:00Z, Duration: 90 minutes, "+
			"Link: https://meet.example.com/abc",
		msg.TextContent,
	)
	assert.Contains(t, msg.HTMLContent, "<li>Duration: 90 minutes</li>")
	assert.Contains(t, msg.HTMLContent, `<a href="https://meet.example.com/abc">`)
	assert.Contains(t, msg.HTMLContent, `<a href="https://academia.example.com">`)
	assert.True(t, msg.HasContent())
}

func TestEmailMessage_RenderErrors(t *testing.T) {
	tests := []struct {
		name string
		msg  *EmailMessage
	}{
		{name: "unknown template", msg: &EmailMessage{TemplateName: "nope"}},
		{name: "missing data", msg: &EmailMessage{TemplateName: "remedial_invitation", TemplateData: map[string]interface{}{}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.msg.Render(""))
		})
	}
}

func TestEmailMessage_RenderBodyStr(t *testing.T) {
	msg := &EmailMessage{BodyStr: "plain body"}
	require.NoError(t, msg.Render(""))
	assert.Equal(t, "plain body", msg.TextContent)
	assert.Empty(t, msg.HTMLContent)
}
