package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"naval-combat/internal/api"
	"naval-combat/internal/domain"
	"naval-combat/internal/middleware"
	"naval-combat/internal/service"
)

// MatchServer exposes the match use cases as connect unary procedures.
type MatchServer struct {
	svc    *service.MatchService
	logger zerolog.Logger
}

func NewMatchServer(svc *service.MatchService, logger zerolog.Logger) *MatchServer {
	return &MatchServer{svc: svc, logger: logger}
}

// Handler returns the mount path and the handler serving every procedure.
func (s *MatchServer) Handler() (string, http.Handler) {
	opts := []connect.HandlerOption{
		connect.WithCodec(api.Codec{}),
		connect.WithInterceptors(s.timing()),
	}

	mux := http.NewServeMux()
	mux.Handle(api.ProcedureStartMatch, connect.NewUnaryHandler(api.ProcedureStartMatch, s.StartMatch, opts...))
	mux.Handle(api.ProcedureSetupFleet, connect.NewUnaryHandler(api.ProcedureSetupFleet, s.SetupFleet, opts...))
	mux.Handle(api.ProcedureShoot, connect.NewUnaryHandler(api.ProcedureShoot, s.Shoot, opts...))
	mux.Handle(api.ProcedureMoveShip, connect.NewUnaryHandler(api.ProcedureMoveShip, s.MoveShip, opts...))
	mux.Handle(api.ProcedureCancelMatch, connect.NewUnaryHandler(api.ProcedureCancelMatch, s.CancelMatch, opts...))
	mux.Handle(api.ProcedureGetMatchState, connect.NewUnaryHandler(api.ProcedureGetMatchState, s.GetMatchState, opts...))
	mux.Handle(api.ProcedureGetRanking, connect.NewUnaryHandler(api.ProcedureGetRanking, s.GetRanking, opts...))
	mux.Handle(api.ProcedureGetProfile, connect.NewUnaryHandler(api.ProcedureGetProfile, s.GetProfile, opts...))
	return api.ServicePath, mux
}

func (s *MatchServer) timing() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)
			ev := s.logger.Debug()
			if err != nil {
				ev = s.logger.Info().Err(err).Str("code", connect.CodeOf(err).String())
			}
			ev.Str("procedure", req.Spec().Procedure).
				Str("request_id", middleware.GetRequestID(ctx)).
				Dur("duration", time.Since(start)).
				Msg("rpc handled")
			return res, err
		}
	}
}

func (s *MatchServer) StartMatch(ctx context.Context, req *connect.Request[api.StartMatchRequest]) (*connect.Response[api.StartMatchResponse], error) {
	player, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := service.StartMatchInput{
		Mode:         domain.GameMode(req.Msg.Mode),
		AIDifficulty: domain.Difficulty(req.Msg.AIDifficulty),
	}
	if req.Msg.OpponentID != "" {
		opponent, err := parseID("opponentId", req.Msg.OpponentID)
		if err != nil {
			return nil, err
		}
		in.OpponentID = uuid.NullUUID{UUID: opponent, Valid: true}
	}

	id, err := s.svc.StartMatch(ctx, player, in)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&api.StartMatchResponse{MatchID: id.String()}), nil
}

func (s *MatchServer) SetupFleet(ctx context.Context, req *connect.Request[api.SetupFleetRequest]) (*connect.Response[api.SetupFleetResponse], error) {
	player, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	matchID, err := parseID("matchId", req.Msg.MatchID)
	if err != nil {
		return nil, err
	}

	fleet := make([]domain.ShipPlacement, len(req.Msg.Ships))
	for i, p := range req.Msg.Ships {
		fleet[i] = domain.ShipPlacement{
			Name:        p.Name,
			Size:        p.Size,
			StartX:      p.StartX,
			StartY:      p.StartY,
			Orientation: domain.Orientation(p.Orientation),
		}
	}

	status, err := s.svc.SetupFleet(ctx, player, matchID, fleet)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&api.SetupFleetResponse{Status: string(status)}), nil
}

func (s *MatchServer) Shoot(ctx context.Context, req *connect.Request[api.ShootRequest]) (*connect.Response[api.TurnResponse], error) {
	player, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	matchID, err := parseID("matchId", req.Msg.MatchID)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Shoot(ctx, player, matchID, req.Msg.X, req.Msg.Y)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(toTurnResponse(res)), nil
}

func (s *MatchServer) MoveShip(ctx context.Context, req *connect.Request[api.MoveShipRequest]) (*connect.Response[api.TurnResponse], error) {
	player, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	matchID, err := parseID("matchId", req.Msg.MatchID)
	if err != nil {
		return nil, err
	}
	shipID, err := parseID("shipId", req.Msg.ShipID)
	if err != nil {
		return nil, err
	}

	res, err := s.svc.MoveShip(ctx, player, matchID, shipID, domain.Direction(req.Msg.Direction))
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(toTurnResponse(res)), nil
}

func (s *MatchServer) CancelMatch(ctx context.Context, req *connect.Request[api.MatchRequest]) (*connect.Response[api.Empty], error) {
	player, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	matchID, err := parseID("matchId", req.Msg.MatchID)
	if err != nil {
		return nil, err
	}

	if err := s.svc.CancelMatch(ctx, player, matchID); err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(&api.Empty{}), nil
}

func (s *MatchServer) GetMatchState(ctx context.Context, req *connect.Request[api.MatchRequest]) (*connect.Response[api.MatchState], error) {
	player, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	matchID, err := parseID("matchId", req.Msg.MatchID)
	if err != nil {
		return nil, err
	}

	view, err := s.svc.GetMatchState(ctx, player, matchID)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	return connect.NewResponse(toMatchState(view)), nil
}

func (s *MatchServer) GetRanking(ctx context.Context, req *connect.Request[api.RankingRequest]) (*connect.Response[api.RankingResponse], error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}

	profiles, err := s.svc.GetRanking(ctx, req.Msg.Limit)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	out := &api.RankingResponse{Players: make([]api.Profile, len(profiles))}
	for i := range profiles {
		out.Players[i] = toProfile(&profiles[i])
	}
	return connect.NewResponse(out), nil
}

func (s *MatchServer) GetProfile(ctx context.Context, _ *connect.Request[api.Empty]) (*connect.Response[api.Profile], error) {
	player, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.svc.GetProfile(ctx, player)
	if err != nil {
		return nil, s.toConnectError(err)
	}
	profile := toProfile(p)
	return connect.NewResponse(&profile), nil
}

func caller(ctx context.Context) (uuid.UUID, error) {
	id, ok := middleware.PlayerIDFromContext(ctx)
	if !ok {
		return uuid.Nil, connect.NewError(connect.CodeUnauthenticated, errors.New("no authenticated player"))
	}
	return id, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%s: %w", field, err))
	}
	return id, nil
}

// toConnectError maps the engine's error categories onto connect codes.
// Anything uncategorised is logged and reported without its details.
func (s *MatchServer) toConnectError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, domain.ErrTurnTimeout):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, domain.ErrTurnViolation):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, domain.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, domain.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}
	s.logger.Error().Err(err).Msg("internal error")
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
