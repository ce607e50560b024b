package auth

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// OTPSender delivers a freshly issued code to the user.
type OTPSender interface {
	Send(ctx context.Context, username, code string) error
}

// LogSender writes issued codes to the structured log. The code itself is only
// included when logCodes is set, which is meant for local development.
type LogSender struct {
	logg     *logger.Logger
	logCodes bool
}

func NewLogSender(logg *logger.Logger, logCodes bool) *LogSender {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogSender{logg: logg, logCodes: logCodes}
}

func (s *LogSender) Send(ctx context.Context, username, code string) error {
	fields := map[string]any{"username": username}
	if s.logCodes {
		fields["otp"] = code
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), "auth.otp.issued")
	return nil
}
