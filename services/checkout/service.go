package checkout

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/prayerwatchman/paygate"
	"github.com/prayerwatchman/paygate/httputils"
	"github.com/prayerwatchman/paygate/provider/paypal"
)

// Server exposes the donation payment endpoints. All state is per-request,
// the only shared piece is the provider client with its read-only config.
func NewServer(pp *paypal.Provider) *Server {
	return &Server{
		pp: pp,
		l:  zap.L().Named("checkout"),
	}
}

type Server struct {
	pp *paypal.Provider
	l  *zap.Logger
}

type createOrderRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Intent   string `json:"intent"`
}

// CreateOrderHandler handles POST /payments/order. Local validation runs
// before any network activity. Unusable credentials degrade to a demo
// order instead of failing the request.
func (s *Server) CreateOrderHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createOrderRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body."})
		}
		if msg := validateOrderRequest(&req); msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}

		base := c.Scheme() + "://" + c.Request().Host
		ord, err := s.pp.CreateOrder(
			c.Request().Context(),
			req.Amount,
			req.Currency,
			req.Intent,
			base+"/donate/success",
			base+"/donate/cancel",
		)
		if err != nil {
			if paypal.IsCredentialError(err) {
				s.l.Info(
					"Credentials not usable, falling back to demo order.",
					zap.String("amount", req.Amount),
					zap.String("currency", req.Currency),
				)
				demo := paypal.DemoOrder(req.Amount)
				s.pp.RecordDemoOrder(demo, req.Amount, req.Currency)
				ordersCreated.WithLabelValues("demo").Inc()
				return c.JSON(http.StatusOK, demo)
			}
			s.l.Warn(
				"Failed create order.",
				zap.String("amount", req.Amount),
				zap.String("currency", req.Currency),
				zap.String("request_id", httputils.GetRequestInfo(c.Request().Context()).RequestID),
				zap.Error(err),
			)
			providerErrors.WithLabelValues("create_order").Inc()
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":   "Failed to create order.",
				"details": err.Error(),
			})
		}
		ordersCreated.WithLabelValues("live").Inc()
		return c.JSON(http.StatusOK, ord)
	}
}

// CaptureOrderHandler handles POST /payments/order/:orderId/capture. No
// compensating action on failure, the error is reported for operator
// follow-up.
func (s *Server) CaptureOrderHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		orderID := c.Param("orderId")
		if orderID == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Order id is required."})
		}
		cpt, err := s.pp.CaptureOrder(c.Request().Context(), orderID)
		if err != nil {
			s.l.Warn(
				"Failed capture order.",
				zap.String("order_id", orderID),
				zap.String("request_id", httputils.GetRequestInfo(c.Request().Context()).RequestID),
				zap.Error(err),
			)
			providerErrors.WithLabelValues("capture_order").Inc()
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":   "Failed to capture order.",
				"details": err.Error(),
			})
		}
		ordersCaptured.Inc()
		return c.JSON(http.StatusOK, cpt)
	}
}

// ClientTokenHandler handles GET /payments/client-token.
func (s *Server) ClientTokenHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := s.pp.GenerateClientToken(c.Request().Context())
		if err != nil {
			s.l.Warn("Failed generate client token.", zap.Error(err))
			providerErrors.WithLabelValues("client_token").Inc()
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":   "Failed to generate client token.",
				"details": err.Error(),
			})
		}
		return c.JSON(http.StatusOK, echo.Map{"clientToken": token})
	}
}

// GetOrderHandler handles GET /payments/order/:orderId, a lookup of the
// locally stored order record.
func (s *Server) GetOrderHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		orderID := c.Param("orderId")
		rec, err := s.pp.GetByPayPalID(orderID)
		if err != nil {
			if err == paygate.ErrNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found."})
			}
			s.l.Warn("Failed get order.", zap.String("order_id", orderID), zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":   "Failed to get order.",
				"details": err.Error(),
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"id":       orderID,
			"status":   rec.RawOrderStatus,
			"amount":   rec.Amount,
			"currency": rec.Currency,
			"demo":     rec.Demo,
		})
	}
}

// validateOrderRequest returns a human message for the first failed check,
// or "" if the request is valid.
func validateOrderRequest(req *createOrderRequest) string {
	if req.Amount == "" {
		return "Invalid amount. Amount is required."
	}
	d, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return "Invalid amount. Amount must be a decimal number."
	}
	if !d.IsPositive() {
		return "Invalid amount. Amount must be a positive number."
	}
	if req.Currency == "" {
		return "Currency is required."
	}
	if req.Intent == "" {
		return "Intent is required."
	}
	return ""
}
