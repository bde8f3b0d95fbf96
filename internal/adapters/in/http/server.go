package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"mfps/internal/core/application/assemblyflow"
	"mfps/internal/core/application/transportflow"
	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server exposes the assembly and transport services over HTTP.
// It coordinates between HTTP handlers and the application services.
type Server struct {
	assemblySvc  *assemblyflow.Service
	transportSvc *transportflow.Service
	logger       *slog.Logger
}

// NewServer creates a new HTTP server over the two subsystem services.
func NewServer(assemblySvc *assemblyflow.Service, transportSvc *transportflow.Service, logger *slog.Logger) *Server {
	return &Server{
		assemblySvc:  assemblySvc,
		transportSvc: transportSvc,
		logger:       logger.With("component", "http_server"),
	}
}

// RegisterRoutes attaches all handlers to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	e.POST("/assembly/transport-order", s.CreateTransportOrder)
	e.POST("/assembly/transport-order/bulk", s.CreateTransportOrdersBulk)
	e.GET("/assembly/queue-size", s.GetQueueSize)
	e.GET("/assembly/system-state", s.GetSystemState)
	e.GET("/assembly/orders/:orderId", s.GetOrderState)
	e.PUT("/assembly/confirm-order", s.ConfirmOrder)
	e.PUT("/assembly/signal-transport-arrived", s.SignalTransportArrived)
	e.PUT("/assembly/validate-assembly", s.ValidateAssembly)
	e.GET("/assembly/events", s.StreamEvents)

	e.GET("/transport/vehicles", s.GetVehicles)
	e.GET("/transport/vehicles/available", s.GetAvailableVehicles)
	e.PUT("/transport/confirm-order", s.ConfirmTransportOrder)
}

// Error is the common error response body.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewOrderRequest selects or describes the blueprint to build.
type NewOrderRequest struct {
	BlueprintID  string   `json:"blueprintId"`
	Name         string   `json:"name"`
	ComponentIDs []string `json:"componentIds"`
}

// OrderResponse is the created-order body.
type OrderResponse struct {
	OrderID          string               `json:"orderId"`
	Components       []assembly.Component `json:"components"`
	DeliveryLocation string               `json:"deliveryLocation"`
}

func toOrderResponse(order *assembly.Order) OrderResponse {
	return OrderResponse{
		OrderID:          order.ID(),
		Components:       order.Components(),
		DeliveryLocation: order.DeliveryLocation().String(),
	}
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// CreateTransportOrder handles POST /assembly/transport-order - submits one
// order for fulfillment.
func (s *Server) CreateTransportOrder(ctx echo.Context) error {
	var request NewOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	blueprint := blueprintFromRequest(request, 0)

	order, err := s.assemblySvc.SubmitOrder(ctx.Request().Context(), blueprint)
	if err != nil {
		return s.submitError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, toOrderResponse(order))
}

// CreateTransportOrdersBulk handles POST /assembly/transport-order/bulk -
// submits n orders in one call, for load runs.
func (s *Server) CreateTransportOrdersBulk(ctx echo.Context) error {
	n, err := strconv.Atoi(ctx.QueryParam("n"))
	if err != nil || n <= 0 {
		n = 10
	}

	submitted := 0
	for i := 0; i < n; i++ {
		blueprint := blueprintFromRequest(NewOrderRequest{}, i)
		if _, err := s.assemblySvc.SubmitOrder(ctx.Request().Context(), blueprint); err != nil {
			if errors.Is(err, assemblyflow.ErrQueueFull) {
				break
			}
			return s.submitError(ctx, err)
		}
		submitted++
	}

	return ctx.JSON(http.StatusOK, map[string]int{"submitted": submitted})
}

// GetQueueSize handles GET /assembly/queue-size.
func (s *Server) GetQueueSize(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]int{"queueSize": s.assemblySvc.QueueDepth()})
}

// GetSystemState handles GET /assembly/system-state.
func (s *Server) GetSystemState(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{
		"systemState": s.assemblySvc.SystemState().String(),
	})
}

// GetOrderState handles GET /assembly/orders/:orderId.
func (s *Server) GetOrderState(ctx echo.Context) error {
	orderID := ctx.Param("orderId")

	state, err := s.assemblySvc.OrderState(orderID)
	if err != nil {
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: "Order not found: " + orderID,
		})
	}

	return ctx.JSON(http.StatusOK, map[string]string{
		"orderId": orderID,
		"state":   state.String(),
	})
}

// ConfirmOrder handles PUT /assembly/confirm-order - resolves an in-flight
// order's confirmation wait by hand.
func (s *Server) ConfirmOrder(ctx echo.Context) error {
	orderID := ctx.QueryParam("orderId")
	accepted := boolParam(ctx, "accepted", true)

	if err := s.assemblySvc.Confirm(orderID, accepted); err != nil {
		return s.signalError(ctx, orderID, err)
	}
	return ctx.NoContent(http.StatusOK)
}

// SignalTransportArrived handles PUT /assembly/signal-transport-arrived.
func (s *Server) SignalTransportArrived(ctx echo.Context) error {
	orderID := ctx.QueryParam("orderId")

	if err := s.assemblySvc.SignalArrival(orderID); err != nil {
		return s.signalError(ctx, orderID, err)
	}
	return ctx.NoContent(http.StatusOK)
}

// ValidateAssembly handles PUT /assembly/validate-assembly.
func (s *Server) ValidateAssembly(ctx echo.Context) error {
	orderID := ctx.QueryParam("orderId")
	valid := boolParam(ctx, "valid", true)

	if err := s.assemblySvc.Validate(orderID, valid); err != nil {
		return s.signalError(ctx, orderID, err)
	}
	return ctx.NoContent(http.StatusOK)
}

// StreamEvents handles GET /assembly/events - a server-sent event stream of
// state, status and log events.
func (s *Server) StreamEvents(ctx echo.Context) error {
	response := ctx.Response()
	response.Header().Set(echo.HeaderContentType, "text/event-stream")
	response.Header().Set("Cache-Control", "no-cache")
	response.Header().Set("Connection", "keep-alive")
	response.WriteHeader(http.StatusOK)
	response.Flush()

	stream, unsubscribe := s.assemblySvc.Events()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Request().Context().Done():
			return nil
		case event, ok := <-stream:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				s.logger.Error("failed to marshal event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(response, "event: %s\ndata: %s\n\n", event.Kind, data); err != nil {
				return nil
			}
			response.Flush()
		}
	}
}

// GetVehicles handles GET /transport/vehicles - the whole fleet snapshot.
func (s *Server) GetVehicles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.transportSvc.Vehicles())
}

// GetAvailableVehicles handles GET /transport/vehicles/available.
func (s *Server) GetAvailableVehicles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.transportSvc.AvailableVehicles())
}

// ConfirmTransportOrder handles PUT /transport/confirm-order - resolves the
// transport side confirmation wait.
func (s *Server) ConfirmTransportOrder(ctx echo.Context) error {
	orderID := ctx.QueryParam("orderId")
	accepted := boolParam(ctx, "accepted", true)

	if err := s.transportSvc.Confirm(orderID, accepted); err != nil {
		return s.signalError(ctx, orderID, err)
	}
	return ctx.NoContent(http.StatusOK)
}

func (s *Server) submitError(ctx echo.Context, err error) error {
	if errors.Is(err, assemblyflow.ErrQueueFull) {
		return ctx.JSON(http.StatusTooManyRequests, Error{
			Code:    http.StatusTooManyRequests,
			Message: "Order queue is full",
		})
	}
	if errors.Is(err, errs.ErrValueIsRequired) || errors.Is(err, errs.ErrValueIsInvalid) {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order data: " + err.Error(),
		})
	}

	s.logger.Error("failed to submit order", "error", err)
	return ctx.JSON(http.StatusInternalServerError, Error{
		Code:    http.StatusInternalServerError,
		Message: "Failed to submit order",
	})
}

func (s *Server) signalError(ctx echo.Context, orderID string, err error) error {
	if errors.Is(err, errs.ErrObjectNotFound) {
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: "Order not found: " + orderID,
		})
	}

	s.logger.Error("failed to signal order", "orderId", orderID, "error", err)
	return ctx.JSON(http.StatusInternalServerError, Error{
		Code:    http.StatusInternalServerError,
		Message: "Failed to signal order",
	})
}

// blueprintFromRequest resolves the request into a buildable blueprint,
// falling back to a small sample when the body is empty.
func blueprintFromRequest(request NewOrderRequest, seq int) assembly.Blueprint {
	catalog := assembly.Catalog()

	if request.BlueprintID == "" {
		return assembly.Blueprint{
			ID:         fmt.Sprintf("bp-sample-%d", seq),
			Name:       "Sample Blueprint",
			Components: catalog[:2],
		}
	}

	components := catalog
	if len(request.ComponentIDs) > 0 {
		byID := make(map[string]assembly.Component, len(catalog))
		for _, component := range catalog {
			byID[component.ID] = component
		}
		components = make([]assembly.Component, 0, len(request.ComponentIDs))
		for _, id := range request.ComponentIDs {
			if component, ok := byID[id]; ok {
				components = append(components, component)
			}
		}
	}

	name := request.Name
	if name == "" {
		name = request.BlueprintID
	}

	return assembly.Blueprint{
		ID:         request.BlueprintID,
		Name:       name,
		Components: components,
	}
}

func boolParam(ctx echo.Context, name string, fallback bool) bool {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
