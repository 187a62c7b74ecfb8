package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/clmusic/internal/shared"
)

const (
	// SourcePath is the only path the proxy serves.
	SourcePath = "/api"
	// TargetPath replaces SourcePath on the upstream request.
	TargetPath = "/api.php"

	allowMethods        = "GET, POST, PUT, DELETE, HEAD, OPTIONS"
	defaultAllowHeaders = "Content-Type, Authorization, Accept, X-Requested-With"
	preflightMaxAge     = "86400"
)

// Request headers that identify the client and are not forwarded.
var strippedRequestHeaders = []string{
	"Cf-Connecting-Ip",
	"Cf-Ipcountry",
	"Cf-Ray",
	"Cf-Visitor",
	"X-Forwarded-Proto",
	"X-Real-Ip",
}

// Response headers that reveal upstream software.
var strippedResponseHeaders = []string{"X-Powered-By", "Server"}

// ProxyOpts configures a [Proxy].
type ProxyOpts struct {
	Target    string // scheme://host of the aggregator
	Transport http.RoundTripper
	Logger    *log.Logger
}

// Proxy forwards /api to the aggregator's /api.php and makes the response readable cross-origin.
type Proxy struct {
	target *url.URL
	rp     *httputil.ReverseProxy
	logger *log.Logger
}

// NewProxy creates a proxy for opts.Target.
func NewProxy(opts ProxyOpts) (*Proxy, error) {
	target, err := url.Parse(opts.Target)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%w: proxy target %q", shared.ErrInvalidConfig, opts.Target)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	p := &Proxy{target: target, logger: opts.Logger}
	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.errorHandler,
		Transport:      opts.Transport,
	}
	return p, nil
}

// Routes implements [Handler].
func (p *Proxy) Routes() []string { return []string{SourcePath} }

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		preflight(w, r)
		return
	}
	p.rp.ServeHTTP(w, r)
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.target)
	pr.Out.URL.Path = strings.TrimSuffix(p.target.Path, "/") + TargetPath
	pr.Out.URL.RawPath = ""
	for _, h := range strippedRequestHeaders {
		pr.Out.Header.Del(h)
	}
	p.logger.Debug("forwarding", "url", pr.Out.URL.String())
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	resp.Header.Set("Access-Control-Allow-Origin", "*")
	resp.Header.Add("Vary", "Origin")
	for _, h := range strippedResponseHeaders {
		resp.Header.Del(h)
	}
	return nil
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("upstream fetch failed", "path", r.URL.Path, "err", err)
	http.Error(w, "Proxy failed to fetch target API", http.StatusBadGateway)
}

// preflight answers a CORS preflight request, echoing requested headers when present.
func preflight(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", allowMethods)
	if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
		h.Set("Access-Control-Allow-Headers", requested)
	} else {
		h.Set("Access-Control-Allow-Headers", defaultAllowHeaders)
	}
	h.Set("Access-Control-Max-Age", preflightMaxAge)
	w.WriteHeader(http.StatusNoContent)
}
