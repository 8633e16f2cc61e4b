package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrNoToken = errors.New("device token not registered")

// TokenStore maps a user's email to their push device token.
type TokenStore interface {
	Token(ctx context.Context, email string) (string, error)
	SetToken(ctx context.Context, email, token string) error
}

// FirestoreTokens keeps tokens on the usersLogin/{email} documents.
type FirestoreTokens struct {
	client *firestore.Client
}

func NewFirestoreTokens(client *firestore.Client) *FirestoreTokens {
	return &FirestoreTokens{client: client}
}

func (f *FirestoreTokens) Token(ctx context.Context, email string) (string, error) {
	doc, err := f.client.Collection("usersLogin").Doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to get document: %w", err)
	}

	token, ok := doc.Data()["FMCToken"].(string)
	if !ok || token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (f *FirestoreTokens) SetToken(ctx context.Context, email, token string) error {
	_, err := f.client.Collection("usersLogin").Doc(email).Set(ctx, map[string]interface{}{
		"email":      email,
		"FMCToken":   token,
		"updated_at": time.Now(),
	}, firestore.MergeAll)
	return err
}

// Multicaster is satisfied by *messaging.Client.
type Multicaster interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCM accepts at most 500 tokens per multicast request.
const pushBatchSize = 500

// PushSender delivers through Firebase Cloud Messaging.
type PushSender struct {
	client Multicaster
	tokens TokenStore
}

func NewPushSender(client Multicaster, tokens TokenStore) *PushSender {
	return &PushSender{client: client, tokens: tokens}
}

func (p *PushSender) Send(ctx context.Context, msg Message) error {
	var tokens []string
	for _, user := range msg.To {
		if user.Email == "" {
			continue
		}
		token, err := p.tokens.Token(ctx, user.Email)
		if errors.Is(err, ErrNoToken) {
			continue
		}
		if err != nil {
			return err
		}
		tokens = append(tokens, token)
	}

	var failed int
	for i := 0; i < len(tokens); i += pushBatchSize {
		end := min(i+pushBatchSize, len(tokens))
		batch := tokens[i:end]
		response, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Data: msg.Data,
			Notification: &messaging.Notification{
				Title: msg.Subject,
				Body:  msg.Text,
			},
			Tokens: batch,
		})
		if err != nil {
			return fmt.Errorf("send batch %d-%d: %w", i, end-1, err)
		}
		failed += response.FailureCount
	}
	if failed > 0 {
		return fmt.Errorf("push failed for %d of %d devices", failed, len(tokens))
	}
	return nil
}
