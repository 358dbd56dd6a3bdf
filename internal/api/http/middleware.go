package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tripflow/console/internal/observability"
	"github.com/tripflow/console/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger wraps error handling so it logs the rendered status.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(noStoreMiddleware)
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// noStoreMiddleware keeps per-client session answers out of shared caches.
func noStoreMiddleware(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Next()
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = errorutil.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			domainErr := errorutil.ToDomainError(err)
			requestID := string(c.Response().Header.Peek(observability.RequestIDHeader))
			metrics.RecordError(c.Path(), c.Method(), domainErr.Code)

			body := fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}
			if len(domainErr.Details) > 0 {
				body["details"] = domainErr.Details
			}
			if requestID != "" {
				body["request_id"] = requestID
			}

			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("path", c.Path()),
				zap.String("code", domainErr.Code),
			}
			switch {
			case domainErr.HTTPStatus >= fiber.StatusInternalServerError:
				logger.Error("request failed", append(fields, zap.Error(domainErr))...)
			case domainErr.Code == "AUTHENTICATION_FAILED":
				// The user facing message may echo the backend; only the cause is logged.
				logger.Info("sign in rejected", append(fields, zap.NamedError("cause", domainErr.Unwrap()))...)
			}

			c.Status(domainErr.HTTPStatus)
			_ = c.JSON(fiber.Map{"error": body})
			err = nil
		}()
		return c.Next()
	}
}
