package events

import (
	"github.com/vsinha/zevledger/pkg/infrastructure/logging"
)

// LogHandler writes every audit event it receives to a logger at debug level
type LogHandler struct {
	logger *logging.Logger
}

func NewLogHandler(logger *logging.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

var _ EventHandler = (*LogHandler)(nil)

func (h *LogHandler) CanHandle(string) bool {
	return true
}

func (h *LogHandler) Handle(event Event) error {
	h.logger.Debug("audit event",
		"event_id", event.ID().String(),
		"event_type", event.Type(),
		"stream", event.StreamID(),
		"version", event.Version(),
		"data", event.Data())
	return nil
}
