package calls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vpbx-platform/internal/audit"
	"vpbx-platform/internal/telephony"
	"vpbx-platform/internal/vpbx"
)

// Service validates operator call commands, sends them through the provider
// and journals every command the PBX answered.
type Service struct {
	provider telephony.CallControl
	audit    *audit.Service
	log      *slog.Logger
}

func NewService(provider telephony.CallControl, auditSvc *audit.Service, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{provider: provider, audit: auditSvc, log: log}
}

func (s *Service) Place(ctx context.Context, actor audit.Actor, req telephony.PlaceCallRequest) (telephony.CommandResult, error) {
	if s.provider == nil {
		return telephony.CommandResult{}, errors.New("calls: provider not configured")
	}
	from := NormalizeExtension(req.FromExtension)
	if from == "" {
		return telephony.CommandResult{}, fmt.Errorf("%w: from_extension must be an internal extension", ErrInvalidArgument)
	}
	to := NormalizeNumber(req.ToNumber)
	if to == "" {
		return telephony.CommandResult{}, fmt.Errorf("%w: to_number must be a phone number, extension or SIP URI", ErrInvalidArgument)
	}
	req.FromExtension, req.ToNumber = from, to
	if req.CallerNumber != "" {
		if req.CallerNumber = NormalizeNumber(req.CallerNumber); req.CallerNumber == "" {
			return telephony.CommandResult{}, fmt.Errorf("%w: caller_number must be a phone number or SIP URI", ErrInvalidArgument)
		}
	}

	res, err := s.provider.PlaceCall(ctx, req)
	s.journal(ctx, actor, vpbx.EndpointCallback, res, err)
	return res, err
}

func (s *Service) Hangup(ctx context.Context, actor audit.Actor, req telephony.HangupRequest) (telephony.CommandResult, error) {
	if s.provider == nil {
		return telephony.CommandResult{}, errors.New("calls: provider not configured")
	}
	if req.CallID == "" {
		return telephony.CommandResult{}, fmt.Errorf("%w: call_id required", ErrInvalidArgument)
	}

	res, err := s.provider.Hangup(ctx, req)
	s.journal(ctx, actor, vpbx.EndpointCallHangup, res, err)
	return res, err
}

// journal is best-effort. Commands that never reached the PBX are not recorded.
func (s *Service) journal(ctx context.Context, actor audit.Actor, endpoint string, res telephony.CommandResult, cmdErr error) {
	if s.audit == nil {
		return
	}
	var pe *vpbx.ProviderError
	if cmdErr != nil && !errors.As(cmdErr, &pe) {
		return
	}
	if err := s.audit.LogCommand(ctx, actor, endpoint, res.CommandID, res.ResultCode); err != nil {
		s.log.WarnContext(ctx, "command audit failed", "endpoint", endpoint, "command_id", res.CommandID, "err", err)
	}
}
