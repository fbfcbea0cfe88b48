// Package http exposes the dispatch operations to operators: registering
// deliveries, assigning them to units, recording status changes, and the
// dashboard read models. The layer is a thin translation; every rule lives in
// the application core.
package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/application/messaging"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	createDeliveryHandler commands.CreateDeliveryCommandHandler
	assignDeliveryHandler commands.AssignDeliveryCommandHandler
	updateStatusHandler   commands.UpdateDeliveryStatusCommandHandler

	getAllDeliveriesHandler queries.GetAllDeliveriesQueryHandler
	getAllUnitsHandler      queries.GetAllUnitsQueryHandler
}

// NewServer creates an HTTP server with the required command and query handlers.
func NewServer(
	createDeliveryHandler commands.CreateDeliveryCommandHandler,
	assignDeliveryHandler commands.AssignDeliveryCommandHandler,
	updateStatusHandler commands.UpdateDeliveryStatusCommandHandler,
	getAllDeliveriesHandler queries.GetAllDeliveriesQueryHandler,
	getAllUnitsHandler queries.GetAllUnitsQueryHandler,
) *Server {
	return &Server{
		createDeliveryHandler:   createDeliveryHandler,
		assignDeliveryHandler:   assignDeliveryHandler,
		updateStatusHandler:     updateStatusHandler,
		getAllDeliveriesHandler: getAllDeliveriesHandler,
		getAllUnitsHandler:      getAllUnitsHandler,
	}
}

// RegisterRoutes attaches the API surface to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/deliveries", s.CreateDelivery)
	e.POST("/api/v1/deliveries/:id/assign", s.AssignDelivery)
	e.POST("/api/v1/deliveries/:id/status", s.UpdateDeliveryStatus)
	e.GET("/api/v1/deliveries", s.GetDeliveries)
	e.GET("/api/v1/units", s.GetUnits)
	e.GET("/health", s.Health)
}

// CreateDelivery handles POST /api/v1/deliveries.
func (s *Server) CreateDelivery(ctx echo.Context) error {
	var body NewDelivery
	if err := ctx.Bind(&body); err != nil {
		return s.errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}

	deliveryID := kernel.NewUUID()
	cmd, err := s.buildCreateCommand(deliveryID, body)
	if err != nil {
		return s.mapError(ctx, err)
	}

	if err := s.createDeliveryHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, Result{
		DeliveryID: deliveryID.String(),
		Status:     delivery.Pending.String(),
	})
}

// buildCreateCommand picks the constructor by whether the caller supplied
// coordinates. A single coordinate without its pair is rejected.
func (s *Server) buildCreateCommand(deliveryID kernel.UUID, body NewDelivery) (commands.CreateDeliveryCommand, error) {
	if body.Latitude == nil && body.Longitude == nil {
		return commands.NewCreateDeliveryCommand(deliveryID, body.Address)
	}

	if body.Latitude == nil || body.Longitude == nil {
		return commands.CreateDeliveryCommand{}, errs.NewValueIsRequiredError("latitude and longitude")
	}

	destination, err := kernel.NewGeoPoint(*body.Latitude, *body.Longitude)
	if err != nil {
		return commands.CreateDeliveryCommand{}, err
	}

	return commands.NewCreateDeliveryCommandWithDestination(deliveryID, body.Address, destination)
}

// AssignDelivery handles POST /api/v1/deliveries/:id/assign. An empty unit_id
// asks the dispatcher to pick the nearest idle unit.
func (s *Server) AssignDelivery(ctx echo.Context) error {
	deliveryID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return s.errorJSON(ctx, http.StatusBadRequest, "invalid delivery id")
	}

	var body AssignRequest
	if err := ctx.Bind(&body); err != nil {
		return s.errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}

	cmd, err := commands.NewAssignDeliveryCommand(deliveryID, body.UnitID)
	if err != nil {
		return s.mapError(ctx, err)
	}

	if err := s.assignDeliveryHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, Result{
		DeliveryID: deliveryID.String(),
		Status:     delivery.Assigned.String(),
	})
}

// UpdateDeliveryStatus handles POST /api/v1/deliveries/:id/status.
func (s *Server) UpdateDeliveryStatus(ctx echo.Context) error {
	deliveryID, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return s.errorJSON(ctx, http.StatusBadRequest, "invalid delivery id")
	}

	var body StatusRequest
	if err := ctx.Bind(&body); err != nil {
		return s.errorJSON(ctx, http.StatusBadRequest, "invalid request body")
	}

	target, err := delivery.StatusFromString(body.Status)
	if err != nil {
		return s.errorJSON(ctx, http.StatusBadRequest, "unknown status: "+body.Status)
	}

	cmd, err := commands.NewUpdateDeliveryStatusCommand(deliveryID, target, body.Reason)
	if err != nil {
		return s.mapError(ctx, err)
	}

	if err := s.updateStatusHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, Result{
		DeliveryID: deliveryID.String(),
		Status:     target.String(),
	})
}

// GetDeliveries handles GET /api/v1/deliveries with an optional ?status filter.
func (s *Server) GetDeliveries(ctx echo.Context) error {
	query := queries.NewGetAllDeliveriesQuery(ctx.QueryParam("status"))

	deliveries, err := s.getAllDeliveriesHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.mapError(ctx, err)
	}

	response := make([]Delivery, len(deliveries))
	for i, d := range deliveries {
		response[i] = Delivery{
			ID:             d.ID.String(),
			Address:        d.Address,
			Latitude:       d.Destination.Latitude(),
			Longitude:      d.Destination.Longitude(),
			Status:         d.Status,
			AssignedUnitID: d.AssignedUnitID,
			FailureReason:  d.FailureReason,
			CreatedAt:      d.CreatedAt,
			UpdatedAt:      d.UpdatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetUnits handles GET /api/v1/units.
func (s *Server) GetUnits(ctx echo.Context) error {
	query := queries.NewGetAllUnitsQuery()

	units, err := s.getAllUnitsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.mapError(ctx, err)
	}

	response := make([]Unit, len(units))
	for i, u := range units {
		item := Unit{
			ID:         u.ID,
			Status:     u.Status,
			PositionAt: u.PositionAt,
			UpdatedAt:  u.UpdatedAt,
		}
		if u.Position != nil {
			lat := u.Position.Latitude()
			lon := u.Position.Longitude()
			item.Latitude = &lat
			item.Longitude = &lon
		}
		if u.AssignedDeliveryID != nil {
			id := u.AssignedDeliveryID.String()
			item.AssignedDeliveryID = &id
		}
		response[i] = item
	}

	return ctx.JSON(http.StatusOK, response)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// mapError translates core errors to HTTP statuses: unknown entities to 404,
// lost races to 409, a dead radio link to 502, rule violations to 400, and
// everything else to 500.
func (s *Server) mapError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return s.errorJSON(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return s.errorJSON(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, messaging.ErrTransmitFailed):
		return s.errorJSON(ctx, http.StatusBadGateway, err.Error())
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, services.ErrUnitNotFound),
		errors.Is(err, commands.ErrManualAssignNotAllowed),
		errors.Is(err, commands.ErrAddressIsRequired):
		return s.errorJSON(ctx, http.StatusBadRequest, err.Error())
	default:
		return s.errorJSON(ctx, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) errorJSON(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, Error{Code: code, Message: message})
}
