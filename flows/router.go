package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jrsteele09/go-oauth-flows/correlation"
	"github.com/jrsteele09/go-oauth-flows/internal/metrics"
	"github.com/jrsteele09/go-oauth-flows/oauth2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// clearTimeout bounds the slot cleanup in Complete, which outlives the caller's context.
const clearTimeout = 5 * time.Second

var (
	ErrNoFlows       = errors.New("at least one flow is required")
	ErrDuplicateFlow = errors.New("flow registered twice")
	ErrUnknownFlow   = errors.New("no flow registered with that id")
)

// Router owns the ordered list of registered flows and the correlation slot they share.
// It assumes a single flow is in flight per store; a second Init silently replaces the
// first flow's record.
type Router struct {
	flows   []Descriptor
	store   correlation.Store
	logger  zerolog.Logger
	metrics *metrics.Manager
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the logger used for flow lifecycle events.
func WithLogger(logger zerolog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics records init and redirect outcomes.
func WithMetrics(m *metrics.Manager) RouterOption {
	return func(r *Router) {
		r.metrics = m
	}
}

// NewRouter registers flows in order. FlowIDs must be non-empty and unique.
func NewRouter(store correlation.Store, flows []Descriptor, options ...RouterOption) (*Router, error) {
	if store == nil {
		return nil, errors.New("[flows NewRouter] correlation store is required")
	}
	if len(flows) == 0 {
		return nil, fmt.Errorf("[flows NewRouter] %w", ErrNoFlows)
	}
	seen := make(map[FlowID]struct{}, len(flows))
	for _, flow := range flows {
		if flow == nil || flow.FlowID() == "" {
			return nil, errors.New("[flows NewRouter] flow with empty id")
		}
		if _, ok := seen[flow.FlowID()]; ok {
			return nil, fmt.Errorf("[flows NewRouter] %w: %s", ErrDuplicateFlow, flow.FlowID())
		}
		seen[flow.FlowID()] = struct{}{}
	}

	r := &Router{
		flows:  append([]Descriptor(nil), flows...),
		store:  store,
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Flow returns the registered flow with id.
func (r *Router) Flow(id FlowID) (Descriptor, bool) {
	for _, flow := range r.flows {
		if flow.FlowID() == id {
			return flow, true
		}
	}
	return nil, false
}

// FlowIDs lists the registered flows in registration order.
func (r *Router) FlowIDs() []FlowID {
	ids := make([]FlowID, len(r.flows))
	for i, flow := range r.flows {
		ids[i] = flow.FlowID()
	}
	return ids
}

// SetSource tags the slot with the caller about to start a flow. The next Init keeps the
// tag in its record and it is logged when the redirect is routed.
func (r *Router) SetSource(ctx context.Context, source string) error {
	if err := correlation.SetSource(ctx, r.store, source); err != nil {
		return Fail(KindStorageFailed, err)
	}
	return nil
}

// Init starts the flow registered under id.
func (r *Router) Init(ctx context.Context, id FlowID, params json.RawMessage, nav Navigator) (*InitResult, error) {
	flow, ok := r.Flow(id)
	if !ok {
		return nil, Failf(KindInvalidParams, "%w: %q", ErrUnknownFlow, id)
	}

	result, err := flow.Init(ctx, params, nav)
	r.metrics.RecordFlowInit(string(id), string(KindOf(err)))
	if err != nil {
		r.logger.Warn().Err(err).Str("flow", string(id)).Msg("Flow init failed")
		return nil, err
	}
	r.logger.Info().Str("flow", string(id)).Bool("redirect", result != nil && result.AuthorizeURL != nil).Msg("Flow initiated")
	return result, nil
}

// RouteRedirect reads the correlation slot, finds the flow that wrote it and delegates to
// that flow with the raw payload. It does not clear the slot; see Complete.
func (r *Router) RouteRedirect(ctx context.Context, query url.Values) (*oauth2.TokenResponse, error) {
	payload, found, err := r.store.Get(ctx, correlation.Key)
	if err != nil {
		return nil, Fail(KindStorageFailed, err)
	}
	if !found {
		return nil, Failf(KindInvalidState, "no flow in progress")
	}

	header, err := correlation.DecodeHeader(payload)
	if err != nil {
		return nil, Fail(KindInvalidState, err)
	}

	flow, ok := r.Flow(FlowID(header.FlowID))
	if !ok {
		return nil, Failf(KindInvalidState, "%w: %q", ErrUnknownFlow, header.FlowID)
	}

	token, err := flow.OnRedirectReceived(ctx, payload, query)
	r.metrics.RecordRedirect(header.FlowID, string(KindOf(err)))
	if err != nil {
		event := r.logger.Warn()
		if KindOf(err).SecurityRelevant() {
			event = r.logger.Error()
		}
		event.Err(err).Str("flow", header.FlowID).Str("source", header.Source).Msg("Flow redirect rejected")
		return nil, err
	}
	r.logger.Info().Str("flow", header.FlowID).Str("source", header.Source).Msg("Flow completed")
	return token, nil
}

// Complete routes the redirect and then clears the correlation slot whatever the outcome,
// so a resolved record can never be replayed. The clear still runs when ctx has been
// cancelled, for example by a browser dropping the callback request.
func (r *Router) Complete(ctx context.Context, query url.Values) (*oauth2.TokenResponse, error) {
	defer func() {
		clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clearTimeout)
		defer cancel()
		if err := r.store.Delete(clearCtx, correlation.Key); err != nil {
			r.logger.Err(err).Msg("Failed to clear correlation record")
		}
	}()
	return r.RouteRedirect(ctx, query)
}
