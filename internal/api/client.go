package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"naval-combat/internal/constants"
)

// Error is a failed call as reported by the server.
type Error struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (HTTP %d)", e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client calls the match procedures over HTTP with a bearer token.
type Client struct {
	baseURL string
	token   string
	client  *fasthttp.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.ClientTimeout,
			WriteTimeout:        constants.ClientTimeout,
			MaxIdleConnDuration: constants.ClientTimeout,
		},
	}
}

func (c *Client) StartMatch(ctx context.Context, req StartMatchRequest) (*StartMatchResponse, error) {
	return call[StartMatchRequest, StartMatchResponse](ctx, c, ProcedureStartMatch, req)
}

func (c *Client) SetupFleet(ctx context.Context, req SetupFleetRequest) (*SetupFleetResponse, error) {
	return call[SetupFleetRequest, SetupFleetResponse](ctx, c, ProcedureSetupFleet, req)
}

func (c *Client) Shoot(ctx context.Context, req ShootRequest) (*TurnResponse, error) {
	return call[ShootRequest, TurnResponse](ctx, c, ProcedureShoot, req)
}

func (c *Client) MoveShip(ctx context.Context, req MoveShipRequest) (*TurnResponse, error) {
	return call[MoveShipRequest, TurnResponse](ctx, c, ProcedureMoveShip, req)
}

func (c *Client) CancelMatch(ctx context.Context, matchID string) error {
	_, err := call[MatchRequest, Empty](ctx, c, ProcedureCancelMatch, MatchRequest{MatchID: matchID})
	return err
}

func (c *Client) GetMatchState(ctx context.Context, matchID string) (*MatchState, error) {
	return call[MatchRequest, MatchState](ctx, c, ProcedureGetMatchState, MatchRequest{MatchID: matchID})
}

func (c *Client) GetRanking(ctx context.Context, limit int) (*RankingResponse, error) {
	return call[RankingRequest, RankingResponse](ctx, c, ProcedureGetRanking, RankingRequest{Limit: limit})
}

func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	return call[Empty, Profile](ctx, c, ProcedureGetProfile, Empty{})
}

func call[Req, Res any](ctx context.Context, c *Client, procedure string, in Req) (*Res, error) {
	body, err := Codec{}.Marshal(in)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + procedure)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Connect-Protocol-Version", "1")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("failed to call %s: %w", procedure, err)
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, fmt.Errorf("failed to call %s: %w", procedure, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		apiErr := &Error{Status: resp.StatusCode(), Code: "unknown"}
		_ = json.Unmarshal(resp.Body(), apiErr)
		return nil, apiErr
	}

	var out Res
	if err := (Codec{}).Unmarshal(resp.Body(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
