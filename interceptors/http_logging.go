package interceptors

import (
	"net"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// HTTPLoggingFilter logs every request routed by the go-restful container
// once it has been handled.
func HTTPLoggingFilter(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("client_ip", clientIP(req)),
			zap.String("method", req.Request.Method),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
			zap.String("path", req.Request.URL.Path),
		)
	}
}

func clientIP(req *restful.Request) string {
	if forwarded := req.HeaderParameter("X-Real-IP"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(req.Request.RemoteAddr)
	if err != nil {
		return req.Request.RemoteAddr
	}
	return host
}
