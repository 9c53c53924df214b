// Package notify bridges domain events to the notification/email
// collaborator. The collaborator formats and delivers human-facing
// messages; this core only hands events over.
package notify

import (
	"context"

	"vendra/pkg/logger"
)

type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, userID, kind string, payload map[string]interface{}) {
	logger.Info("notification emitted: user=%s kind=%s payload=%v", userID, kind, payload)
}
