// Package notify delivers run notifications to the accounting chat.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkIm "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"
)

// Config holds Lark messaging configuration.
type Config struct {
	AppID     string
	AppSecret string
	ChatID    string
}

// LarkNotifier implements port.Notifier by sending text messages to a chat.
type LarkNotifier struct {
	client *lark.Client
	chatID string
	logger *zap.Logger
}

// NewLarkNotifier creates a notifier for the configured chat.
func NewLarkNotifier(cfg Config, logger *zap.Logger) *LarkNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &LarkNotifier{
		client: client,
		chatID: cfg.ChatID,
		logger: logger,
	}
}

// NotifyBatchIssued announces a freshly issued invoice batch.
func (n *LarkNotifier) NotifyBatchIssued(ctx context.Context, invoiceNumber string, payees, items int, grandTotal float64) error {
	text := fmt.Sprintf("Invoice batch %s issued: %d payees, %d tasks, total %.2f",
		invoiceNumber, payees, items, grandTotal)
	return n.sendText(ctx, text)
}

// NotifyPartialFailure flags items whose ledger write-back still needs a
// retry.
func (n *LarkNotifier) NotifyPartialFailure(ctx context.Context, invoiceNumber string, retryIDs []string) error {
	text := fmt.Sprintf("Batch %s issued but %d ledger writes failed, retry needed for: %s",
		invoiceNumber, len(retryIDs), strings.Join(retryIDs, ", "))
	return n.sendText(ctx, text)
}

func (n *LarkNotifier) sendText(ctx context.Context, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req := larkIm.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkIm.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("chat_id", n.chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send notification: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("Notification API returned failure",
			zap.String("chat_id", n.chatID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("notification API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	n.logger.Info("Notification sent", zap.String("chat_id", n.chatID))
	return nil
}

// NopNotifier drops every notification. Used when no chat is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyBatchIssued(ctx context.Context, invoiceNumber string, payees, items int, grandTotal float64) error {
	return nil
}

func (NopNotifier) NotifyPartialFailure(ctx context.Context, invoiceNumber string, retryIDs []string) error {
	return nil
}
