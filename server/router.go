package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RIZZZIOM/TinyFlaw/dataset"
	"github.com/RIZZZIOM/TinyFlaw/logger"
	"github.com/RIZZZIOM/TinyFlaw/metrics"
	"github.com/RIZZZIOM/TinyFlaw/modules"
)

// Handler names reported for requests not served by a module
const (
	HandlerIndex          = "index"
	HandlerNotFound       = "not_found"
	HandlerNotImplemented = "not_implemented"
)

// RouterConfig holds everything the router hands to modules
type RouterConfig struct {
	Routes   *modules.Routes
	Paths    map[string]modules.Module
	Composer *Composer
	Page     *modules.Page
	Dataset  *dataset.Dataset
	Sinks    *modules.SinkContext
	Options  modules.Options
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

// Router dispatches requests to modules and writes composed responses
type Router struct {
	routes   *modules.Routes
	paths    map[string]modules.Module
	composer *Composer
	page     *modules.Page
	dataset  *dataset.Dataset
	sinks    *modules.SinkContext
	options  modules.Options
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewRouter creates a router from its configuration
func NewRouter(cfg RouterConfig) *Router {
	r := &Router{
		routes:   cfg.Routes,
		paths:    cfg.Paths,
		composer: cfg.Composer,
		page:     cfg.Page,
		dataset:  cfg.Dataset,
		sinks:    cfg.Sinks,
		options:  cfg.Options,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}

	if r.routes == nil {
		r.routes = &modules.Routes{}
	}
	if r.paths == nil {
		r.paths = make(map[string]modules.Module)
	}
	if r.page == nil {
		r.page = modules.NewPage("", "")
	}
	if r.composer == nil {
		r.composer = NewComposer(r.page, nil, r.options.XML)
	}
	if r.sinks == nil {
		r.sinks = &modules.SinkContext{}
	}
	if r.logger == nil {
		r.logger = logger.NewNop()
	}

	return r
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	requestID := uuid.New().String()

	if r.metrics != nil {
		r.metrics.IncInFlight()
		defer r.metrics.DecInFlight()
	}

	params := ParseQuery(req.URL.RawQuery)
	handler, input, resp := r.dispatch(req, params, requestID)

	size, err := WriteResponse(w, resp)
	if err != nil {
		r.logger.Debug("failed to write response", zap.String("request_id", requestID), zap.Error(err))
	}

	duration := time.Since(start)
	r.logger.LogRequest(req, logger.Request{
		ID:            requestID,
		Handler:       handler,
		StatusCode:    resp.StatusCode,
		Duration:      duration,
		ContentLength: size,
		Params:        params,
	})

	if r.metrics != nil {
		r.metrics.RecordRequest(handler, resp.StatusCode, duration)
		if handler == "xss_stored" && input != "" && resp.StatusCode == http.StatusOK {
			r.metrics.RecordComment()
		}
	}
}

// dispatch selects the module for a request and composes its response
func (r *Router) dispatch(req *http.Request, params modules.Params, requestID string) (string, string, *Response) {
	if req.Method != http.MethodGet {
		return HandlerNotImplemented, "", r.composer.Status(params, http.StatusNotImplemented)
	}

	var module modules.Module
	var input string

	if req.URL.Path == "/" {
		m, in, ok := r.routes.Match(params)
		if !ok {
			index := &modules.Result{Content: r.page.Prefix(), Index: true}
			return HandlerIndex, "", r.composer.Compose(params, index, nil)
		}
		module, input = m, in
	} else {
		m, ok := r.paths[req.URL.Path]
		if !ok {
			return HandlerNotFound, "", r.composer.Status(params, http.StatusNotFound)
		}
		module = m
	}

	name := module.Info().Name
	ctx := &modules.HandlerContext{
		Request: req,
		Params:  params,
		Input:   input,
		Page:    r.page,
		Dataset: r.dataset,
		Sinks:   r.sinks,
		Options: r.options,
	}

	result, failure := invoke(name, module, ctx)
	if failure != nil {
		r.logger.Warn("handler failed",
			zap.String("request_id", requestID),
			zap.String("handler", name),
			zap.Error(failure.Err),
		)
	}

	return name, input, r.composer.Compose(params, result, failure)
}

// invoke runs a module, turning errors and panics into a Failure
func invoke(name string, module modules.Module, ctx *modules.HandlerContext) (result *modules.Result, failure *Failure) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			failure = &Failure{Handler: name, Err: fmt.Errorf("panic: %v", rec), Stack: debug.Stack()}
		}
	}()

	result, err := module.Handle(ctx)
	if err != nil {
		return nil, &Failure{Handler: name, Err: err, Stack: debug.Stack()}
	}
	if result == nil {
		result = modules.NewResult("")
	}
	return result, nil
}
