package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"vnpay-acquirer/internal/shared/response"
	"vnpay-acquirer/internal/shared/utils"
)

// ErrCodeInternal is the envelope code of an unexpected failure
const ErrCodeInternal = "SYS_001"

// Recovery turns a handler panic into a 500 envelope and logs it with the
// request and stack. A client that hung up gets nothing written back.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			brokenPipe := isBrokenConnection(recovered)

			event := log.Error()
			if brokenPipe {
				event = log.Warn()
			} else {
				event = event.Bytes("stack", debug.Stack())
			}
			event.
				Str("request_id", c.GetString("request_id")).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("client_ip", utils.ClientIP(c)).
				Bool("broken_pipe", brokenPipe).
				Interface("error", recovered).
				Msg("Panic recovered")

			if brokenPipe || c.Writer.Written() {
				c.Abort()
				return
			}
			response.Error(c, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
			c.Abort()
		}()

		c.Next()
	}
}

// isBrokenConnection reports a write to a client that closed the connection
func isBrokenConnection(recovered interface{}) bool {
	err, ok := recovered.(error)
	if !ok {
		return false
	}

	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var syscallErr *os.SyscallError
	if !errors.As(opErr, &syscallErr) {
		return false
	}

	msg := strings.ToLower(syscallErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
