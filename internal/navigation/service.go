package navigation

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Router is the external directions provider.
type Router interface {
	Route(ctx context.Context, origin, dest Point, opts RouteOptions) (RoutePlan, error)
}

// Service owns the active route plan for one navigation attempt. Reported
// positions are checked against the plan; crossing the deviation threshold
// triggers a reroute from the current position to the original destination.
// When the reroute fetch fails, navigation continues on the last known route.
type Service struct {
	router  Router
	monitor *DeviationMonitor
	logger  *zap.SugaredLogger

	mu   sync.Mutex
	plan *RoutePlan
	opts RouteOptions
}

func NewService(router Router, monitor *DeviationMonitor, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		router:  router,
		monitor: monitor,
		logger:  logger,
	}
}

// Plan requests a route and makes it the active plan.
func (s *Service) Plan(ctx context.Context, origin, dest Point, opts RouteOptions) (RoutePlan, error) {
	if opts.Mode == "" {
		opts = DefaultOptions()
	}
	plan, err := s.router.Route(ctx, origin, dest, opts)
	if err != nil {
		return RoutePlan{}, err
	}

	s.mu.Lock()
	s.plan = &plan
	s.opts = opts
	s.mu.Unlock()

	s.logger.Infow("route planned", "distance_km", plan.DistanceKm, "points", len(plan.Points))
	return plan, nil
}

// Current returns the active plan, if any.
func (s *Service) Current() (RoutePlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return RoutePlan{}, false
	}
	return *s.plan, true
}

// Clear drops the active plan.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = nil
}

// ReportPosition checks the position against the active plan and returns
// guidance. A deviated position triggers one reroute attempt; its failure is
// logged and the previous plan stays in effect.
func (s *Service) ReportPosition(ctx context.Context, pos Point) (Guidance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.plan == nil {
		return Guidance{}, ErrNoRoute
	}

	var g Guidance
	offRoute, deviated := s.monitor.Check(s.plan.Points, pos)
	g.OffRouteM = offRoute
	g.Deviated = deviated

	if deviated {
		fresh, err := s.router.Route(ctx, pos, s.plan.Destination, s.opts)
		if err != nil {
			s.logger.Warnw("reroute failed, keeping last known route", "error", err)
		} else {
			s.plan = &fresh
			g.Rerouted = true
		}
	}

	inst, err := NextInstruction(s.plan.Points, pos)
	if err != nil {
		return Guidance{}, err
	}
	g.Arrived = inst.Arrived
	g.Instruction = inst.Direction

	return g, nil
}
