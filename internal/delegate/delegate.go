// Package delegate implements the request delegate (C6): the per-request
// algorithm in §4.6 that binds parameters, invokes a route's compiled
// script artifact, and applies its effect to the outgoing response.
package delegate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/kestrun/kestrun/internal/apperror"
	"github.com/kestrun/kestrun/internal/binder"
	"github.com/kestrun/kestrun/internal/contenttype"
	"github.com/kestrun/kestrun/internal/errorresponse"
	"github.com/kestrun/kestrun/internal/logging"
	"github.com/kestrun/kestrun/internal/negotiate"
	"github.com/kestrun/kestrun/internal/pool"
	"github.com/kestrun/kestrun/internal/response"
	"github.com/kestrun/kestrun/internal/script"
	"github.com/kestrun/kestrun/internal/sharedstate"
	"github.com/kestrun/kestrun/schema"
)

// InterpreterKey is the gin item-bag key upstream middleware stores the
// leased pool.Context under before the delegate runs, per §4.6 step 1.
const InterpreterKey = "kestrun.interpreter"

// multipartSpoolThreshold bounds how much of a multipart part is held in
// memory before it is spooled to a temp file, mirroring §4.3 step 7.
const multipartSpoolThreshold = 1 << 20

// CompiledRoute pairs a route's immutable descriptor with its compiled
// script artifact, assembled once at registration time.
type CompiledRoute struct {
	Descriptor schema.RouteDescriptor
	Artifact   script.Artifact
}

// RequestMetrics is the narrow surface Handle reports each request's
// handling duration to, per §10.2's per-route request-duration histogram.
type RequestMetrics interface {
	ObserveRequestDuration(ctx context.Context, route string, seconds float64)
}

// Delegate executes one route's compiled artifact per request, per the
// eleven steps of §4.6.
type Delegate struct {
	Shared           *sharedstate.Map
	Decoders         binder.Registry
	MultipartDecoder *contenttype.MultipartFormDecoder
	Tracer           oteltrace.Tracer
	Logger           binder.Logger
	Metrics          RequestMetrics
	Errors           *errorresponse.Writer
}

// Handle implements §4.6. c's item-bag must already carry the leased
// pool.Context under InterpreterKey.
func (d *Delegate) Handle(c *gin.Context, route CompiledRoute) {
	ctx := c.Request.Context()
	start := time.Now()
	routeLabel := route.Descriptor.Method + " " + route.Descriptor.Pattern

	if d.Metrics != nil {
		defer func() {
			d.Metrics.ObserveRequestDuration(ctx, routeLabel, time.Since(start).Seconds())
		}()
	}

	if d.Logger != nil {
		masked := logging.MaskHeaders(c.Request.Header)
		d.Logger.Debug("request_received", "route", routeLabel, "headers", masked)
	}

	leased, exists := c.Get(InterpreterKey)
	if !exists {
		d.fail(ctx, c, apperror.New(apperror.KindScriptRuntimeFailure, "no leased interpreter found in request context", nil))

		return
	}

	runtime, ok := leased.(pool.Context)
	if !ok {
		d.fail(ctx, c, apperror.New(apperror.KindScriptRuntimeFailure, fmt.Sprintf("leased interpreter has unexpected type %T", leased), nil))

		return
	}

	// Step 2: seed session variables from route-time arguments, plus the
	// request culture for step 4. The goja and Lua runtimes add these on
	// top of the shared-state snapshot the pool applied at lease time; the
	// expr runtime's Reset replaces its environment with them, and the
	// snapshot reaches it again through invokeGlobals below.
	seed := mergeStringAnyMaps(route.Descriptor.Arguments, nil)
	if route.Descriptor.RequestCulture != "" {
		seed["requestCulture"] = route.Descriptor.RequestCulture
	}

	ctx, span := d.startSpan(ctx, "seed_session_variables")
	if err := runtime.Reset(seed); err != nil {
		endSpanError(span, "failed to seed session variables", err)
		d.fail(ctx, c, apperror.New(apperror.KindScriptRuntimeFailure, "failed to seed session variables", nil).WithCause(err))

		return
	}
	span.End()

	// Step 3: media type negotiation against the route's allowed types.
	ctx, span = d.startSpan(ctx, "negotiate_content_type")

	contentType := c.ContentType()
	hasBody := c.Request.ContentLength > 0 || c.Request.TransferEncoding != nil

	negotiated := negotiate.Check(contentType, hasBody, route.Descriptor.AllowedRequestTypes)
	if err := negotiationError(negotiated); err != nil {
		endSpanError(span, "content type rejected", err)
		d.fail(ctx, c, err)

		return
	}

	span.End()

	// Step 5: bind parameters.
	ctx, span = d.startSpan(ctx, "bind_parameters")

	rawRequest, err := buildRawRequest(c, negotiated.Canonical, hasBody)
	if err != nil {
		endSpanError(span, "failed to read request body", err)
		d.fail(ctx, c, apperror.New(apperror.KindParameterBindingFailure, "failed to read request body", nil).WithCause(err))

		return
	}

	bound, err := binder.Bind(rawRequest, route.Descriptor.Parameters, d.Decoders, d.MultipartDecoder, d.Logger)
	if err != nil {
		endSpanError(span, "parameter binding failed", err)
		d.fail(ctx, c, err)

		return
	}

	span.End()

	invokeGlobals := mergeStringAnyMaps(d.sharedSnapshot(), route.Descriptor.Locals)
	invokeGlobals = mergeStringAnyMaps(invokeGlobals, route.Descriptor.Arguments)
	invokeGlobals = mergeStringAnyMaps(invokeGlobals, bound)

	// Step 6: invoke the compiled artifact, respecting cancellation.
	ctx, span = d.startSpan(ctx, "invoke_script")

	scriptResult, invokeErr := route.Artifact.Invoke(ctx, runtime, invokeGlobals)
	if invokeErr != nil {
		if ctx.Err() != nil {
			span.End()
			d.fail(ctx, c, apperror.RequestCancelled())

			return
		}

		endSpanError(span, "script invocation failed", invokeErr)
		d.fail(ctx, c, apperror.ScriptRuntimeFailure("script invocation failed", invokeErr))

		return
	}

	span.End()

	// Steps 8-11: interpret the script's return value as the response
	// model's effects and apply it.
	model := buildResponseModel(scriptResult)

	ctx, span = d.startSpan(ctx, "apply_response")
	defer span.End()

	if err := response.Apply(c.Writer, model); err != nil {
		endSpanError(span, "failed to apply response", err)
		d.fail(ctx, c, apperror.New(apperror.KindPostponedWriteError, "failed to apply response", nil).WithCause(err))

		return
	}
}

func (d *Delegate) fail(ctx context.Context, c *gin.Context, err error) {
	if d.Errors == nil {
		d.Errors = errorresponse.New(errorresponse.Config{})
	}

	if rethrown := d.Errors.Write(ctx, c.Writer, err); rethrown != nil {
		_ = c.Error(rethrown)
	}
}

func (d *Delegate) startSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	if d.Tracer == nil {
		return ctx, oteltrace.SpanFromContext(ctx)
	}

	return d.Tracer.Start(ctx, name)
}

func endSpanError(span oteltrace.Span, message string, err error) {
	span.SetStatus(codes.Error, message)
	span.RecordError(err)
	span.End()
}

func (d *Delegate) sharedSnapshot() map[string]any {
	if d.Shared == nil {
		return map[string]any{}
	}

	return d.Shared.Snapshot()
}

func negotiationError(result negotiate.Result) error {
	switch result.Outcome {
	case negotiate.OK:
		return nil
	case negotiate.Missing:
		return apperror.MissingContentType(result.Allowed)
	case negotiate.Malformed:
		return apperror.MalformedContentType(result.Raw)
	case negotiate.Unsupported:
		return apperror.UnsupportedContentType(result.Raw, result.Allowed)
	default:
		return nil
	}
}

// buildRawRequest adapts a *gin.Context into the transport-agnostic
// binder.RawRequest, parsing a multipart body into contenttype.RawPart
// list when the negotiated content type is multipart.
func buildRawRequest(c *gin.Context, canonicalContentType string, hasBody bool) (*binder.RawRequest, error) {
	req := &binder.RawRequest{
		PathValues:  make(map[string]string, len(c.Params)),
		Query:       map[string][]string(c.Request.URL.Query()),
		Headers:     map[string][]string(c.Request.Header),
		Cookies:     make(map[string]string),
		ContentType: canonicalContentType,
		HasBody:     hasBody,
	}

	for _, p := range c.Params {
		req.PathValues[p.Key] = p.Value
	}

	for _, cookie := range c.Request.Cookies() {
		req.Cookies[cookie.Name] = cookie.Value
	}

	if !hasBody {
		return req, nil
	}

	if strings.HasPrefix(canonicalContentType, "multipart/") {
		req.HasFormContentType = true

		mr, err := c.Request.MultipartReader()
		if err != nil {
			return nil, err
		}

		parts, err := contenttype.ParseParts(mr, multipartSpoolThreshold)
		if err != nil {
			return nil, err
		}

		req.MultipartParts = parts

		return req, nil
	}

	req.Body = c.Request.Body

	return req, nil
}

// BuildResponseModel exports buildResponseModel for callers outside this
// package that need the same script-return-value convention applied to a
// value that never passed through Handle, e.g. the errorResponseScript
// hook's own artifact invocation.
func BuildResponseModel(value any) *response.Model {
	return buildResponseModel(value)
}

// buildResponseModel interprets the script's return value per the
// convention the three guest-language Invoke contracts share: a single
// returned value with no side channel back to a live response object.
// A map carrying the well-known keys below models the mutable fields of
// §3's response model; any other return value becomes the JSON body.
func buildResponseModel(value any) *response.Model {
	model := response.NewModel()

	asMap, ok := value.(map[string]any)
	if !ok {
		if value != nil {
			body, err := contenttype.EncodeArbitraryJSON(value)
			if err == nil {
				model.Body = body
				model.ContentType = "application/json"
			}
		}

		return model
	}

	if status, ok := asMap["statusCode"]; ok {
		if n, ok := toInt(status); ok {
			model.Status = n
		}
	}

	if redirectURL, ok := asMap["redirectUrl"].(string); ok && redirectURL != "" {
		model.RedirectURL = redirectURL

		return model
	}

	if headers, ok := asMap["headers"].(map[string]any); ok {
		for name, v := range headers {
			if s, ok := v.(string); ok {
				model.AddHeader(name, s)
			}
		}
	}

	if postponed, ok := asMap["postponedWrite"].(map[string]any); ok {
		model.HasPostponedWrite = true
		write := &response.PostponedWrite{}

		if code, ok := toInt(postponed["errorCode"]); ok {
			write.ErrorCode = code
		}

		write.Payload = postponed["payload"]

		if mediaType, ok := postponed["mediaType"].(string); ok {
			write.MediaType = mediaType
		}

		model.PostponedWrite = write

		return model
	}

	if body, ok := asMap["body"]; ok {
		if contentType, ok := asMap["contentType"].(string); ok {
			model.ContentType = contentType
		} else {
			model.ContentType = "application/json"
		}

		switch b := body.(type) {
		case string:
			model.Body = []byte(b)
		case []byte:
			model.Body = b
		default:
			encoded, err := contenttype.EncodeArbitraryJSON(b)
			if err == nil {
				model.Body = encoded
				model.ContentType = "application/json"
			}
		}

		return model
	}

	encoded, err := contenttype.EncodeArbitraryJSON(asMap)
	if err == nil {
		model.Body = encoded
		model.ContentType = "application/json"
	}

	return model
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func mergeStringAnyMaps(maps ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}

	return result
}
