package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/pkg/apperrors"
	"github.com/yigit/careportal/internal/pkg/email"
)

const defaultNotifyTimeout = 10 * time.Second

// notifier dispatches notifications after a write has committed. A failure
// is logged and returned as a warning for the caller, never as an error.
type notifier struct {
	dispatcher Notifier
	timeout    time.Duration
	logger     zerolog.Logger
}

func newNotifier(dispatcher Notifier, timeout time.Duration, logger zerolog.Logger) notifier {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return notifier{dispatcher: dispatcher, timeout: timeout, logger: logger}
}

// send runs detached from the request context so an abandoned request does
// not cut off a notification for a transition that already happened.
func (n notifier) send(ctx context.Context, kind email.Kind, payload email.Payload) []string {
	if n.dispatcher == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := n.dispatcher.Send(ctx, kind, payload); err != nil {
		wrapped := fmt.Errorf("%w: %s: %v", apperrors.ErrDownstreamNotification, kind, err)
		n.logger.Warn().Err(wrapped).Str("kind", string(kind)).Str("toEmail", payload.ToEmail).Msg("Notification failed")
		return []string{fmt.Sprintf("%s notification could not be delivered", kind)}
	}
	return nil
}
