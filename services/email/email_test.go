package emailsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
)

type invitation struct {
	Title           string
	Description     string
	StartTime       string
	EndTime         string
	DurationMinutes int
	Link            string
}

func newInvitationMessage(to string) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Address: to}},
		Subject:      "Remedial Session Notification",
		TemplateName: "remedial_invitation",
		TemplateData: invitation{
			Title:           "Algebra",
			Description:     "Review",
			StartTime:       "2024-01-10T10:00:00Z",
			EndTime:         "2024-01-10T11:00:00Z",
			DurationMinutes: 60,
			Link:            "https://meet.example.com/x",
		},
	}
}

func testConfig() *core.Config {
	return &core.Config{AppName: "Academia", SendgridAPIKey: "key"}
}

func TestConsoleService_Send(t *testing.T) {
	var buf bytes.Buffer
	svc := NewConsoleService(log.New(&buf, "", 0), testConfig())

	err := svc.Send(context.Background(), newInvitationMessage("ada@example.com"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Subject: [Academia] Remedial Session Notification")
	assert.Contains(t, out, "To: <ada@example.com>")
	assert.Contains(t, out,
		"You have been invited to a remedial session. Title: Algebra, Description: Review, "+
			"Start Time: 2024-01-10T10:00:00Z, End Time: 2024-01-10T11:00:00Z, Duration: 60 minutes, "+
			"Link: https://meet.example.com/x")
}

func TestConsoleService_SendWithoutRecipient(t *testing.T) {
	svc := NewConsoleService(log.New(new(bytes.Buffer), "", 0), testConfig())

	err := svc.Send(context.Background(), &core.EmailMessage{BodyStr: "hello"})
	var dErr *core.DeliveryError
	assert.True(t, errors.As(err, &dErr))
}

func TestSendgridService_Send(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpoint, r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	svc := NewSendgridService(testConfig())
	svc.host = srv.URL

	require.NoError(t, svc.Send(context.Background(), newInvitationMessage("ada@example.com")))
	personalizations, ok := payload["personalizations"].([]interface{})
	require.True(t, ok)
	require.Len(t, personalizations, 1)
	assert.Equal(t, "[Academia] Remedial Session Notification", personalizations[0].(map[string]interface{})["subject"])
}

func TestSendgridService_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad"}]}`))
	}))
	defer srv.Close()

	svc := NewSendgridService(testConfig())
	svc.host = srv.URL

	err := svc.Send(context.Background(), newInvitationMessage("ada@example.com"))
	var dErr *core.DeliveryError
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, "ada@example.com", dErr.Recipient)
}

func TestMock(t *testing.T) {
	m := NewMock("bad@example.com")

	assert.NoError(t, m.Send(context.Background(), newInvitationMessage("ok@example.com")))
	err := m.Send(context.Background(), newInvitationMessage("bad@example.com"))
	assert.ErrorIs(t, err, ErrMockDelivery)

	assert.Equal(t, 2, m.Calls())
	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ok@example.com", sent[0].To[0].Address)
	assert.Contains(t, sent[0].HTMLContent, "https://meet.example.com/x")
	assert.Equal(t,
		"You have been invited to a remedial session. Title: Algebra, Description: Review, "+
			"Start Time: 2024-01-10T10:00:00Z, End Time: 2024-01-10T11:00:00Z, Duration: 60 minutes, "+
			"Link: https://meet.example.com/x",
		sent[0].TextContent,
	)
}

func TestMock_RenderFailureIsDeliveryError(t *testing.T) {
	m := NewMock()
	msg := newInvitationMessage("ada@example.com")
	msg.TemplateName = "missing_template"

	err := m.Send(context.Background(), msg)
	var dErr *core.DeliveryError
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, "ada@example.com", dErr.Recipient)
	assert.Empty(t, m.Sent())
}
