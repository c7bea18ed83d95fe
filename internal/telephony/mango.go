package telephony

import (
	"context"
	"errors"

	"vpbx-platform/internal/vpbx"
)

// MangoProvider adapts the signed VPBX client to CallControl.
type MangoProvider struct {
	client *vpbx.Client
}

func NewMangoProvider(client *vpbx.Client) *MangoProvider {
	return &MangoProvider{client: client}
}

func (p *MangoProvider) Name() string { return "mango" }

func (p *MangoProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (CommandResult, error) {
	if p.client == nil {
		return CommandResult{}, errors.New("telephony: mango client is nil")
	}
	resp, err := p.client.SendCall(ctx, vpbx.CallRequest{
		FromExtension: req.FromExtension,
		ToNumber:      req.ToNumber,
		CallerNumber:  req.CallerNumber,
		CommandID:     vpbx.ExplicitCommandID(req.CommandID),
	})
	if err != nil {
		return CommandResult{}, err
	}
	return commandResult(vpbx.EndpointCallback, resp)
}

func (p *MangoProvider) Hangup(ctx context.Context, req HangupRequest) (CommandResult, error) {
	if p.client == nil {
		return CommandResult{}, errors.New("telephony: mango client is nil")
	}
	resp, err := p.client.SendCallHangup(ctx, vpbx.ExplicitCommandID(req.CommandID), req.CallID)
	if err != nil {
		return CommandResult{}, err
	}
	return commandResult(vpbx.EndpointCallHangup, resp)
}

func (p *MangoProvider) FetchStats(ctx context.Context, req StatsRequest) ([]vpbx.StatsRecord, error) {
	if p.client == nil {
		return nil, errors.New("telephony: mango client is nil")
	}
	return p.client.Stats(ctx, vpbx.StatsQuery{
		From:          req.From,
		To:            req.To,
		FromExtension: req.FromExtension,
		FromNumber:    req.FromNumber,
		ToExtension:   req.ToExtension,
		ToNumber:      req.ToNumber,
		Fields:        req.Fields,
		RequestID:     req.RequestID,
	})
}

// commandResult maps the provider answer. A result code outside the 1xxx
// range is returned as *vpbx.ProviderError alongside the filled result.
func commandResult(endpoint string, resp *vpbx.Response) (CommandResult, error) {
	res := CommandResult{Endpoint: endpoint, CommandID: resp.CommandID}
	if !resp.IsJSON() {
		res.Raw = string(resp.Body)
		return res, nil
	}
	code, ok := resp.Code("result")
	if !ok {
		return res, nil
	}
	res.ResultCode = int(code)
	res.Message = code.Message()
	if !code.Success() {
		return res, vpbx.NewProviderError(code)
	}
	return res, nil
}
