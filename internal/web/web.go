// Package web holds the HTTP plumbing shared by the form and JSON
// front-ends.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"askgemini/internal/llm"
)

const shutdownTimeout = 10 * time.Second

// NewApp returns a Fiber app with panic recovery, request logging and a
// liveness endpoint at /healthz.
func NewApp(name string, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestLogger(log))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	return app
}

// CallerContext returns the request context tagged with the remote address
// so model calls can be spaced out per client.
func CallerContext(c *fiber.Ctx) context.Context {
	return llm.WithCaller(c.UserContext(), c.IP())
}

// Serve listens on addr until ctx is done, then shuts the app down.
func Serve(ctx context.Context, app *fiber.App, addr string, log *slog.Logger) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(addr)
	}()

	log.InfoContext(ctx, "HTTP server is listening",
		"addr", addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "HTTP server is shutting down",
		"timeout", shutdownTimeout.String())

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return <-errCh
}

func requestLogger(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		log.InfoContext(c.UserContext(), "Request is handled",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"ip", c.IP(),
			"durationMs", time.Since(start).Milliseconds())

		return err
	}
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		} else {
			log.ErrorContext(c.UserContext(), "Unhandled request error",
				"error", err,
				"method", c.Method(),
				"path", c.Path())
		}

		return c.Status(code).JSON(fiber.Map{"error": message})
	}
}
