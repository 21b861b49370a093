package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/Junni007/Devconnector/devconnector"
	constant "github.com/Junni007/Devconnector/devconnector/constants"
	"github.com/Junni007/Devconnector/devconnector/log"
	"github.com/Junni007/Devconnector/devconnector/opentelemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// RequestInfo holds the access log data of one request.
type RequestInfo struct {
	Method        string
	URI           string
	Referer       string
	RemoteAddress string
	Status        int
	Date          time.Time
	Duration      time.Duration
	UserAgent     string
	RequestID     string
	Protocol      string
	Size          int
}

// NewRequestInfo captures the request half of RequestInfo.
func NewRequestInfo(c *fiber.Ctx) *RequestInfo {
	referer := "-"
	if r := c.Get(fiber.HeaderReferer); r != "" {
		referer = r
	}

	return &RequestInfo{
		RequestID:     c.Get(constant.HeaderRequestID),
		Method:        c.Method(),
		URI:           c.OriginalURL(),
		Referer:       referer,
		UserAgent:     c.Get(fiber.HeaderUserAgent),
		RemoteAddress: c.IP(),
		Protocol:      c.Protocol(),
		Date:          time.Now().UTC(),
	}
}

// CLFString produces a log entry format similar to Common Log Format (CLF)
// Ref: https://httpd.apache.org/docs/trunk/logs.html#common
func (r *RequestInfo) CLFString() string {
	return strings.Join([]string{
		r.RemoteAddress,
		"-",
		"-",
		r.Protocol,
		r.Date.Format("[02/Jan/2006:15:04:05 -0700]"),
		`"` + r.Method + " " + r.URI + `"`,
		strconv.Itoa(r.Status),
		strconv.Itoa(r.Size),
		r.Referer,
		r.UserAgent,
	}, " ")
}

func (r *RequestInfo) String() string {
	return r.CLFString()
}

// finish records the response half of RequestInfo.
func (r *RequestInfo) finish(c *fiber.Ctx) {
	r.Duration = time.Now().UTC().Sub(r.Date)
	r.Status = c.Response().StatusCode()
	r.Size = len(c.Response().Body())
}

// WithRequestID makes sure every request carries an X-Request-Id, generating
// a UUID when the client did not send one, and echoes it on the response.
func WithRequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := strings.TrimSpace(c.Get(constant.HeaderRequestID))

		if requestID == "" {
			requestID = uuid.New().String()
			c.Request().Header.Set(constant.HeaderRequestID, requestID)
		}

		c.Set(constant.HeaderRequestID, requestID)
		c.SetUserContext(devconnector.ContextWithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}

// WithHTTPLogging writes one access log line per request and stores a
// request-scoped logger in the user context. /health is not logged.
func WithHTTPLogging(logger log.Logger) fiber.Handler {
	if logger == nil {
		logger = log.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		info := NewRequestInfo(c)

		fields := []log.Field{log.String("request_id", info.RequestID)}
		if traceID := opentelemetry.GetTraceIDFromContext(c.UserContext()); traceID != "" {
			fields = append(fields, log.String("trace_id", traceID))
		}

		reqLogger := logger.With(fields...)
		c.SetUserContext(devconnector.ContextWithLogger(c.UserContext(), reqLogger))

		err := c.Next()
		if err != nil {
			// Render now so the logged status is the one the client sees.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		info.finish(c)

		reqLogger.Log(c.UserContext(), log.LevelInfo, info.CLFString(),
			log.String("method", info.Method),
			log.String("uri", info.URI),
			log.Int("status", info.Status),
			log.Duration("duration", info.Duration),
		)

		return nil
	}
}
