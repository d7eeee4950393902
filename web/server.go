// Package web serves the navigator's HTTP API and its websocket transit feed.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/talaria-robotics/navigator/floorplan"
	"github.com/talaria-robotics/navigator/logging"
	"github.com/talaria-robotics/navigator/robot"
	"github.com/talaria-robotics/navigator/services/navigation"
	rutils "github.com/talaria-robotics/navigator/utils"
)

// DefaultConfirmWait is how long a confirmation waits for the route to be ready for it.
const DefaultConfirmWait = 2 * time.Second

var errNotAwaiting = errors.New("no delivery is awaiting confirmation")

// A Navigator is what the API drives.
type Navigator interface {
	FloorPlan() *floorplan.Graph
	Bins() navigation.Bins
	StartRoute(route navigation.Route) (string, error)
	RouteStatus() robot.RouteStatus
	ConfirmDelivery(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Server routes API requests to a Navigator.
type Server struct {
	nav         Navigator
	feed        *Feed
	confirmWait time.Duration
	logger      logging.Logger
}

// NewServer returns a server for nav that streams feed on /transitFeed.
func NewServer(nav Navigator, feed *Feed, logger logging.Logger) *Server {
	return &Server{nav: nav, feed: feed, confirmWait: DefaultConfirmWait, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/possibleRoute", s.possibleRoute)
	r.Post("/route", s.startRoute)
	r.Get("/routeStatus", s.routeStatus)
	r.Post("/confirmDelivery", s.confirmDelivery)
	r.Post("/stop", s.stop)
	r.Method(http.MethodGet, "/transitFeed", s.feed)
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	goutils.PanicCapturingGo(func() {
		errCh <- srv.ListenAndServe()
	})
	s.logger.Infow("serving", "address", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debugw("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "OK")
}

// PossibleRoute describes what a route may be made of.
type PossibleRoute struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Rooms []floorplan.Room `json:"rooms"`
	Bins  navigation.Bins  `json:"bins"`
}

func (s *Server) possibleRoute(w http.ResponseWriter, r *http.Request) {
	g := s.nav.FloorPlan()
	render.JSON(w, r, PossibleRoute{
		ID:    g.ID(),
		Name:  g.Name(),
		Rooms: g.Rooms(),
		Bins:  s.nav.Bins(),
	})
}

// RouteRequest is the body of POST /route. Stops may be a list of {binNumber, roomId} or an
// object mapping bin numbers to room ids; the latter is taken in bin number order.
type RouteRequest struct {
	ID    string     `json:"id,omitempty"`
	Stops routeStops `json:"stops"`
}

// Bind implements render.Binder.
func (req *RouteRequest) Bind(r *http.Request) error {
	if len(req.Stops) == 0 {
		return errors.New("a route needs at least one stop")
	}
	return nil
}

type routeStops []navigation.BinStop

func (rs *routeStops) UnmarshalJSON(data []byte) error {
	var list []navigation.BinStop
	if err := json.Unmarshal(data, &list); err == nil {
		*rs = list
		return nil
	}
	var byBin map[string]string
	if err := json.Unmarshal(data, &byBin); err != nil {
		var got interface{}
		if err := json.Unmarshal(data, &got); err != nil {
			return err
		}
		return errors.Wrap(rutils.NewUnexpectedTypeError([]navigation.BinStop{}, got),
			"stops must be a list of {binNumber, roomId} or an object of bin number to room id")
	}
	stops := make([]navigation.BinStop, 0, len(byBin))
	for key, room := range byBin {
		bin, err := strconv.Atoi(key)
		if err != nil {
			return errors.Errorf("bin number %q is not a number", key)
		}
		stops = append(stops, navigation.BinStop{Bin: bin, Room: room})
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].Bin < stops[j].Bin })
	*rs = stops
	return nil
}

// RouteStarted is the response to POST /route.
type RouteStarted struct {
	ID string `json:"id"`
}

func (s *Server) startRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := render.Bind(r, &req); err != nil {
		renderErr(w, r, ErrInvalidRequest(err))
		return
	}
	route := navigation.Route{ID: req.ID, Stops: req.Stops}
	if err := route.Check(s.nav.FloorPlan(), s.nav.Bins()); err != nil {
		renderErr(w, r, ErrInvalidRequest(err))
		return
	}
	id, err := s.nav.StartRoute(route)
	switch {
	case errors.Is(err, robot.ErrRouteRunning):
		renderErr(w, r, ErrConflict(err))
		return
	case err != nil:
		renderErr(w, r, ErrInternal(err))
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, RouteStarted{ID: id})
}

func (s *Server) routeStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.nav.RouteStatus())
}

func (s *Server) confirmDelivery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.confirmWait)
	defer cancel()
	if err := s.nav.ConfirmDelivery(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errNotAwaiting
		}
		renderErr(w, r, ErrConflict(err))
		return
	}
	render.JSON(w, r, map[string]string{"status": "confirmed"})
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	if err := s.nav.Stop(r.Context()); err != nil {
		renderErr(w, r, ErrInternal(err))
		return
	}
	render.JSON(w, r, map[string]string{"status": "stopped"})
}

func renderErr(w http.ResponseWriter, r *http.Request, renderer render.Renderer) {
	if err := render.Render(w, r, renderer); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
