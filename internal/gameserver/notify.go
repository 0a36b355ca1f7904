package gameserver

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/skillcast/internal/game/skill"
)

// LogNotifier writes feed events to the logger at debug level. It stands in
// for a client connection registry when none is attached.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(to skill.EntityRef, payload []byte) {
	n.logger.Debug("feed event", zap.String("to", string(to)), zap.ByteString("payload", payload))
}
