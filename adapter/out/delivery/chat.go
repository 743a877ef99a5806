package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"newsroom/pkg/apperr"
	"newsroom/pkg/logger"
)

// ChatConfig holds the chat transport's settings, sourced from CHAT_* env
// vars (§6). Grounded on feishu_deliver.py's app-id/app-secret tenant
// token exchange.
type ChatConfig struct {
	APIBase       string
	AppID         string
	AppSecret     string
	DefaultChatID string
}

// ChatAdapter sends interactive markdown cards to a chat backend, caching
// the tenant access token between calls.
type ChatAdapter struct {
	cfg    ChatConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	log    *logger.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewChatAdapter builds a ChatAdapter.
func NewChatAdapter(cfg ChatConfig) *ChatAdapter {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://open.feishu.cn"
	}
	cbSettings := gobreaker.Settings{
		Name:        "chat-transport",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithField("breaker", name).WithField("from", from.String()).
				WithField("to", to.String()).Warn("circuit breaker state change")
		},
	}
	return &ChatAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		log:    logger.WithField("component", "chat-adapter"),
	}
}

type tokenResponse struct {
	Code              int    `json:"code"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

func (a *ChatAdapter) accessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" && time.Now().Before(a.expiresAt) {
		return a.token, nil
	}

	body, _ := json.Marshal(map[string]string{"app_id": a.cfg.AppID, "app_secret": a.cfg.AppSecret})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.APIBase+"/open-apis/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch tenant token: %w", err)
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.Code != 0 || tok.TenantAccessToken == "" {
		return "", fmt.Errorf("tenant token request failed: code=%d", tok.Code)
	}

	a.token = tok.TenantAccessToken
	a.expiresAt = time.Now().Add(time.Duration(tok.Expire-60) * time.Second)
	return a.token, nil
}

type cardHeader struct {
	Template string          `json:"template"`
	Title    cardHeaderTitle `json:"title"`
}

type cardHeaderTitle struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type cardElement struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type interactiveCard struct {
	Config   map[string]bool `json:"config"`
	Header   cardHeader      `json:"header"`
	Elements []cardElement   `json:"elements"`
}

type sendMessageRequest struct {
	ReceiveID string `json:"receive_id"`
	MsgType   string `json:"msg_type"`
	Content   string `json:"content"`
}

type sendMessageResponse struct {
	Code int `json:"code"`
	Data struct {
		MessageID string `json:"message_id"`
	} `json:"data"`
}

// SendCard posts an interactive markdown card to one chat (§4.4 "chat
// markdown digest" as the card body).
func (a *ChatAdapter) SendCard(ctx context.Context, chatID, title, markdown string) error {
	token, err := a.accessToken(ctx)
	if err != nil {
		return apperr.Delivery("chat", err)
	}

	card := interactiveCard{
		Config: map[string]bool{"wide_screen_mode": true},
		Header: cardHeader{Template: "blue", Title: cardHeaderTitle{Tag: "plain_text", Content: truncate(title, 80)}},
		Elements: []cardElement{
			{Tag: "markdown", Content: truncate(markdown, 18000)},
		},
	}
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return apperr.Delivery("chat", fmt.Errorf("encode card: %w", err))
	}
	payload := sendMessageRequest{ReceiveID: chatID, MsgType: "interactive", Content: string(cardJSON)}
	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.Delivery("chat", fmt.Errorf("encode request: %w", err))
	}

	result, err := a.cb.Execute(func() (interface{}, error) {
		return a.sendMessage(ctx, token, body)
	})
	if err != nil {
		a.log.WithField("chat_id", chatID).WithError(err).WithField("state", a.cb.State().String()).
			Error("chat send failed")
		return apperr.Delivery("chat", err)
	}

	resp := result.(sendMessageResponse)
	a.log.WithField("chat_id", chatID).WithField("message_id", resp.Data.MessageID).Info("chat card sent")
	return nil
}

func (a *ChatAdapter) sendMessage(ctx context.Context, token string, body []byte) (sendMessageResponse, error) {
	url := a.cfg.APIBase + "/open-apis/im/v1/messages?receive_id_type=chat_id"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return sendMessageResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := a.client.Do(req)
	if err != nil {
		return sendMessageResponse{}, fmt.Errorf("call chat api: %w", err)
	}
	defer resp.Body.Close()

	var out sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return sendMessageResponse{}, fmt.Errorf("decode send response: %w", err)
	}
	if out.Code != 0 {
		return sendMessageResponse{}, fmt.Errorf("send message failed: code=%d", out.Code)
	}
	return out, nil
}

type chatListResponse struct {
	Code int `json:"code"`
	Data struct {
		Items []struct {
			ChatID string `json:"chat_id"`
			Name   string `json:"name"`
		} `json:"items"`
		PageToken string `json:"page_token"`
	} `json:"data"`
}

// ResolveAllChats lists every chat the bound app has joined, paging
// through up to 200 results (§4.5, used when PipelineDeliveryChat.ToAllChat
// is set).
func (a *ChatAdapter) ResolveAllChats(ctx context.Context) ([]string, error) {
	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, apperr.Delivery("chat", err)
	}

	var ids []string
	pageToken := ""
	for len(ids) < 200 {
		url := fmt.Sprintf("%s/open-apis/im/v1/chats?page_size=50", a.cfg.APIBase)
		if pageToken != "" {
			url += "&page_token=" + pageToken
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, apperr.Delivery("chat", fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+token)

		result, err := a.cb.Execute(func() (interface{}, error) {
			resp, err := a.client.Do(req)
			if err != nil {
				return chatListResponse{}, fmt.Errorf("list chats: %w", err)
			}
			defer resp.Body.Close()
			var out chatListResponse
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return chatListResponse{}, fmt.Errorf("decode chat list: %w", err)
			}
			if out.Code != 0 {
				return chatListResponse{}, fmt.Errorf("list chats failed: code=%d", out.Code)
			}
			return out, nil
		})
		if err != nil {
			return nil, apperr.Delivery("chat", err)
		}

		page := result.(chatListResponse)
		for _, item := range page.Data.Items {
			if item.ChatID != "" {
				ids = append(ids, item.ChatID)
			}
		}
		if page.Data.PageToken == "" {
			break
		}
		pageToken = page.Data.PageToken
	}
	return ids, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
