package http

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ersin/stackd/internal/core/ports"
)

// ProxyHandler routes subdomain requests (e.g. shop.localhost) to the edge
// container of the stack with that name. Only the edge is ever dialed: the
// application server and the database stay on their internal networks.
type ProxyHandler struct {
	service ports.StackService
}

// NewProxyHandler creates a new proxy handler.
func NewProxyHandler(service ports.StackService) *ProxyHandler {
	return &ProxyHandler{service: service}
}

// ProxyRequest intercepts requests to subdomains and forwards them to the
// matching stack's reverse proxy.
func (h *ProxyHandler) ProxyRequest(c *fiber.Ctx) error {
	host := c.Hostname()

	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return c.Next()
	}
	subdomain := parts[0]
	if subdomain == "www" || subdomain == "" {
		return c.Next()
	}

	edge, err := h.service.Edge(c.Context(), subdomain)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString(fmt.Sprintf("Stack '%s' not found or not running", subdomain))
	}

	targetURL := fmt.Sprintf("http://%s", edge.IPAddress)
	remote, err := url.Parse(targetURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Invalid target URL")
	}

	proxy := httputil.NewSingleHostReverseProxy(remote)

	// Rewrite the Host header so the edge receives a request with a Host it
	// expects, avoiding "Host not recognized" errors from the app behind it.
	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = remote.Host
		req.URL.Host = remote.Host
		req.URL.Scheme = remote.Scheme
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(fmt.Sprintf("Proxy Info: target=%s error=%v", edge.IPAddress, err)))
	}

	return adaptor.HTTPHandler(proxy)(c)
}
