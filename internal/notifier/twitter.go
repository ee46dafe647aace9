package notifier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"
)

// maxDirectMessage is the Twitter direct message length limit in characters
const maxDirectMessage = 10000

// TwitterConfig holds the OAuth1 credentials and the recipient of direct messages
type TwitterConfig struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
	RecipientID  string
}

// TwitterNotifier sends notifications as Twitter direct messages
type TwitterNotifier struct {
	client      *twitter.Client
	recipientID string
}

// NewTwitterNotifier creates a new Twitter notifier
func NewTwitterNotifier(cfg TwitterConfig) (*TwitterNotifier, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" || cfg.AccessToken == "" || cfg.AccessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}
	if cfg.RecipientID == "" {
		return nil, fmt.Errorf("twitter recipient ID is required")
	}

	config := oauth1.NewConfig(cfg.APIKey, cfg.APISecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)

	return newTwitterNotifier(httpClient, cfg.RecipientID), nil
}

func newTwitterNotifier(httpClient *http.Client, recipientID string) *TwitterNotifier {
	return &TwitterNotifier{
		client:      twitter.NewClient(httpClient),
		recipientID: recipientID,
	}
}

// Notify sends the subject and plain text body as one direct message
func (n *TwitterNotifier) Notify(_ context.Context, msg Message) error {
	_, _, err := n.client.DirectMessages.EventsNew(&twitter.DirectMessageEventsNewParams{
		Event: &twitter.DirectMessageEvent{
			Type: "message_create",
			Message: &twitter.DirectMessageEventMessage{
				Target: &twitter.DirectMessageTarget{RecipientID: n.recipientID},
				Data:   &twitter.DirectMessageData{Text: formatDirectMessage(msg)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send direct message: %w", err)
	}
	return nil
}

func formatDirectMessage(msg Message) string {
	text := msg.Subject + "\n\n" + msg.Text

	runes := []rune(text)
	if len(runes) > maxDirectMessage {
		text = string(runes[:maxDirectMessage-3]) + "..."
	}
	return text
}
