package messagesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fanhub-app/fanhub/internal/domain"
	context_ "github.com/fanhub-app/fanhub/internal/infra/context"
	"github.com/fanhub-app/fanhub/internal/infra/logging"
)

const (
	TraceIDHeader       = "X-Request-ID"
	AuthorizationHeader = "Authorization"
)

// MessageConfig holds configuration for the message list client.
type MessageConfig struct {
	// BaseURL is the base URL of the external backend
	BaseURL string `env:"BASE_URL" default:"http://localhost:8000"`

	// MessagesPath is the message list endpoint
	MessagesPath string `env:"MESSAGES_PATH" default:"/api/messages"`
}

// MessageService fetches the club message feed from the backend. The bearer
// token is forwarded when present; whether an anonymous request is allowed is
// the backend's call, not this client's.
type MessageService struct {
	Config MessageConfig
	Log    logging.Logger

	httpClient *http.Client
}

// NewMessageService creates a new MessageService with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewMessageService(cfg MessageConfig, httpClient *http.Client) *MessageService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &MessageService{
		Config:     cfg,
		Log:        logging.GetLogger("svc.messagesvc.message_service"),
		httpClient: httpClient,
	}
}

// List retrieves the message feed. token may be empty.
func (s *MessageService) List(ctx context.Context, token string) (_ []domain.Message, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "list messages failed", "error", err)
		} else {
			log.DebugContext(ctx, "messages listed")
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Config.BaseURL+s.Config.MessagesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	if token != "" {
		req.Header.Set(AuthorizationHeader, "Bearer "+token)
	}

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var messages []domain.Message

	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	return messages, nil
}
