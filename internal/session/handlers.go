package session

import (
	"context"
	"errors"

	"backend-mapty/internal/shared/geo"
	"backend-mapty/internal/workout"

	"github.com/gofiber/fiber/v2"
)

// TokenIssuer signs the token a browser uses for its session's routes.
type TokenIssuer interface {
	IssueSessionToken(sessionID string) (string, error)
}

func RegisterRoutes(r fiber.Router, m *Manager, tokens TokenIssuer, sessionAuth fiber.Handler) {
	r.Post("/", func(c *fiber.Ctx) error {
		s, err := m.Create()
		if errors.Is(err, ErrTooManySessions) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		token, err := tokens.IssueSessionToken(s.ID)
		if err != nil {
			_ = m.Close(s.ID)
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"session_id": s.ID,
			"token":      token,
		})
	})

	r.Get("/:id", sessionAuth, func(c *fiber.Ctx) error {
		var snap Snapshot
		if err := run(c, m, func(ctrl *Controller) { snap = ctrl.Snapshot() }); err != nil {
			return err
		}
		return c.JSON(snap)
	})

	r.Delete("/:id", sessionAuth, func(c *fiber.Ctx) error {
		if err := m.Close(c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/position", sessionAuth, func(c *fiber.Ctx) error {
		var body struct {
			Lat   *float64 `json:"lat"`
			Lng   *float64 `json:"lng"`
			Error string   `json:"error"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.Error == "" && (body.Lat == nil || body.Lng == nil) {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng or error required")
		}
		s, err := lookup(m, c.Params("id"))
		if err != nil {
			return err
		}

		var accepted bool
		if body.Error != "" {
			accepted = s.Position().Fail(body.Error)
		} else {
			accepted = s.Position().Report(geo.Point{Lat: *body.Lat, Lng: *body.Lng})
		}
		if !accepted {
			return fiber.NewError(fiber.StatusConflict, "position already reported")
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Post("/:id/clicks", sessionAuth, func(c *fiber.Ctx) error {
		var at geo.Point
		if err := c.BodyParser(&at); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !at.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid coordinates")
		}
		var snap Snapshot
		if err := run(c, m, func(ctrl *Controller) {
			ctrl.OnMapClicked(at)
			snap = ctrl.Snapshot()
		}); err != nil {
			return err
		}
		if snap.State != StateAwaitingInput {
			return fiber.NewError(fiber.StatusConflict, "map is not ready")
		}
		return c.JSON(snap)
	})

	r.Delete("/:id/pending", sessionAuth, func(c *fiber.Ctx) error {
		var snap Snapshot
		if err := run(c, m, func(ctrl *Controller) {
			ctrl.OnFormCancelled()
			snap = ctrl.Snapshot()
		}); err != nil {
			return err
		}
		return c.JSON(snap)
	})

	r.Put("/:id/form/type", sessionAuth, func(c *fiber.Ctx) error {
		var body struct {
			Type string `json:"type"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		kind, ok := workout.ParseKind(body.Type)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "type must be running or cycling")
		}
		var snap Snapshot
		if err := run(c, m, func(ctrl *Controller) {
			ctrl.OnTypeChanged(kind)
			snap = ctrl.Snapshot()
		}); err != nil {
			return err
		}
		return c.JSON(snap)
	})

	r.Post("/:id/workouts", sessionAuth, func(c *fiber.Ctx) error {
		var fields FormFields
		if err := c.BodyParser(&fields); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		var (
			rec       workout.Record
			submitErr error
		)
		if err := run(c, m, func(ctrl *Controller) {
			rec, submitErr = ctrl.OnFormSubmitted(fields)
		}); err != nil {
			return err
		}

		var verr *workout.ValidationError
		switch {
		case submitErr == nil:
			return c.Status(fiber.StatusCreated).JSON(rec)
		case errors.As(submitErr, &verr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":    verr.UserMessage(),
				"problems": verr.Problems,
			})
		case errors.Is(submitErr, ErrNoPendingClick):
			return fiber.NewError(fiber.StatusConflict, submitErr.Error())
		default:
			return fiber.NewError(fiber.StatusInternalServerError, submitErr.Error())
		}
	})

	r.Get("/:id/workouts", sessionAuth, func(c *fiber.Ctx) error {
		var records []workout.Record
		if err := run(c, m, func(ctrl *Controller) { records = ctrl.Workouts() }); err != nil {
			return err
		}
		return c.JSON(records)
	})

	r.Post("/:id/workouts/:workoutID/activate", sessionAuth, func(c *fiber.Ctx) error {
		workoutID := c.Params("workoutID")
		var (
			rec   workout.Record
			found bool
		)
		if err := run(c, m, func(ctrl *Controller) {
			rec, found = ctrl.OnListEntryActivated(workoutID)
		}); err != nil {
			return err
		}
		if !found {
			return fiber.NewError(fiber.StatusNotFound, "workout not found")
		}
		return c.JSON(rec)
	})
}

func lookup(m *Manager, id string) (*Session, error) {
	s, err := m.Get(id)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrSessionClosed):
		return nil, fiber.NewError(fiber.StatusGone, err.Error())
	case err != nil:
		return nil, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return s, nil
}

// run executes fn on the session goroutine of the :id route parameter.
func run(c *fiber.Ctx, m *Manager, fn func(*Controller)) error {
	s, err := lookup(m, c.Params("id"))
	if err != nil {
		return err
	}
	err = s.Do(c.Context(), fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSessionClosed):
		return fiber.NewError(fiber.StatusGone, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
