package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
	"github.com/amelendez141/Golf-App-sub001/internal/jobs"
	"github.com/amelendez141/Golf-App-sub001/internal/matching"
	"github.com/amelendez141/Golf-App-sub001/internal/realtime"
)

type publishEventRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`

	// Exactly one of these selects the audience.
	Room      string      `json:"room,omitempty"`
	GolferIDs []uuid.UUID `json:"golferIds,omitempty"`
	All       bool        `json:"all,omitempty"`
}

// handlePublishEvent fans a domain event out to connected sessions.
func (s *Server) handlePublishEvent(c echo.Context) error {
	var req publishEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Type == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "type is required")
	}

	var target realtime.Target
	switch {
	case req.All:
		target = realtime.ToAll()
	case req.Room != "":
		target = realtime.ToRoom(req.Room)
	case len(req.GolferIDs) > 0:
		target = realtime.ToActors(req.GolferIDs...)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "one of room, golferIds or all is required")
	}

	var payload any
	if len(req.Payload) > 0 {
		payload = req.Payload
	}

	delivery := s.deps.Broadcaster.Publish(c.Request().Context(), target, realtime.Event{
		Type:    req.Type,
		Payload: payload,
	})

	return c.JSON(http.StatusOK, map[string]int{
		"delivered": delivery.Delivered,
		"dropped":   delivery.Dropped,
	})
}

type enqueueJobRequest struct {
	Class          string          `json:"class"`
	Type           string          `json:"type"`
	Payload        json.RawMessage `json:"payload"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty"`
	IdempotencyTTL time.Duration   `json:"idempotencyTtl,omitempty"`
}

// handleEnqueueJob pushes a background job. 503 while the queue backend is
// degraded.
func (s *Server) handleEnqueueJob(c echo.Context) error {
	if s.deps.Queue == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, domain.ErrJobsUnavailable.Error())
	}

	var req enqueueJobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Class != jobs.ClassNotifications && req.Class != jobs.ClassReminders {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown job class")
	}
	if req.Type == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "type is required")
	}

	ctx := c.Request().Context()

	if req.IdempotencyKey != "" {
		ttl := req.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		enqueued, err := s.deps.Queue.EnqueueUnique(ctx, req.Class, req.Type, req.Payload, req.IdempotencyKey, ttl)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "enqueue failed")
		}
		return c.JSON(http.StatusAccepted, map[string]bool{"enqueued": enqueued})
	}

	jobID, err := s.deps.Queue.Enqueue(ctx, req.Class, req.Type, req.Payload)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "enqueue failed")
	}
	return c.JSON(http.StatusAccepted, map[string]any{"enqueued": true, "jobId": jobID})
}

// limitParam parses the optional limit query parameter; zero means the
// engine default.
func limitParam(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return limit, nil
}

// handleMatchesForGolfer returns the top recommended open tee times for a
// golfer, excluding rounds they already joined.
func (s *Server) handleMatchesForGolfer(c echo.Context) error {
	golferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid golfer id")
	}

	limit, err := limitParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	now := s.deps.Clock.Now()

	golfer, err := s.deps.Golfers.GetByID(ctx, golferID)
	if errors.Is(err, domain.ErrGolferNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "golfer not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}

	pool, err := s.deps.TeeTimes.ListUpcomingOpen(ctx, now, matching.MaxPoolSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}

	joined, err := s.deps.TeeTimes.ListUpcomingForGolfer(ctx, golferID, now)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}

	results := s.deps.Engine.ScoreTeeTimesForGolfer(golfer, pool, matching.Options{
		Limit:      limit,
		ExcludeIDs: lo.Map(joined, func(t domain.TeeTime, _ int) uuid.UUID { return t.ID }),
	})

	return c.JSON(http.StatusOK, map[string]any{
		"golferId": golferID,
		"matches":  results,
	})
}

// handleMatchesForTeeTime returns the top candidate golfers for a tee time,
// excluding current participants. The host is never a candidate.
func (s *Server) handleMatchesForTeeTime(c echo.Context) error {
	teeTimeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tee time id")
	}

	limit, err := limitParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()

	teeTime, err := s.deps.TeeTimes.GetByID(ctx, teeTimeID)
	if errors.Is(err, domain.ErrTeeTimeNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "tee time not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}

	participants, err := s.deps.TeeTimes.ListParticipants(ctx, teeTimeID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}
	exclude := lo.FilterMap(participants, func(p domain.Participant, _ int) (uuid.UUID, bool) {
		return p.GolferID, p.Status == domain.ParticipantActive
	})

	pool, err := s.deps.Golfers.ListCandidates(ctx, matching.MaxPoolSize, exclude)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}

	results := s.deps.Engine.ScoreGolfersForTeeTime(teeTime, pool, matching.Options{Limit: limit})

	return c.JSON(http.StatusOK, map[string]any{
		"teeTimeId": teeTimeID,
		"matches":   results,
	})
}
