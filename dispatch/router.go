// Package dispatch routes outbound messages: a live client handle is tried
// first and the external gateway process is used when the handle is absent
// or fails.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"xmppctl/internal/address"
	"xmppctl/internal/audit"
	"xmppctl/internal/metrics"
	"xmppctl/launcher"
	"xmppctl/stanza"
)

var (
	// ErrEmptyAddress is returned when no destination is given.
	ErrEmptyAddress = errors.New("dispatch: empty address")
	// ErrEmptyBody is returned when the message has no text.
	ErrEmptyBody = errors.New("dispatch: empty message body")
	// ErrDeliveryFailed wraps the reason of a failed dispatch.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// Route names the path a dispatch took.
type Route string

const (
	RouteDirect  Route = "direct"
	RouteGateway Route = "gateway"
)

// Result is the outcome of one Dispatch call.
type Result struct {
	RequestID string
	Delivered bool
	Route     Route
	// Reason holds the diagnostic text when Delivered is false.
	Reason string
}

// Err converts a failed result into an error wrapping ErrDeliveryFailed.
func (r Result) Err() error {
	if r.Delivered {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDeliveryFailed, r.Reason)
}

// Router chooses between direct and gateway delivery.
type Router struct {
	clients Accessor
	gateway Sender
	out     io.Writer
	log     zerolog.Logger
}

// NewRouter returns a Router that prints one status line per attempt to out.
func NewRouter(clients Accessor, gateway Sender, out io.Writer, log zerolog.Logger) *Router {
	return &Router{
		clients: clients,
		gateway: gateway,
		out:     out,
		log:     log.With().Str("component", "dispatch").Logger(),
	}
}

// Dispatch delivers body to addr. The only errors returned are argument
// errors detected before any attempt; delivery failures are reported in
// the Result.
func (r *Router) Dispatch(ctx context.Context, addr, body string) (Result, error) {
	addr, err := address.Parse(addr)
	if err != nil {
		return Result{}, ErrEmptyAddress
	}
	if strings.TrimSpace(body) == "" {
		return Result{}, ErrEmptyBody
	}

	res := Result{RequestID: uuid.NewString()}
	log := r.log.With().Str("request_id", res.RequestID).Str("to", addr).Logger()

	if client := r.directHandle(); client != nil {
		chat := stanza.Chat(addr, body)
		if audit.Enabled() {
			if raw, err := stanza.Marshal(chat); err == nil {
				audit.Log("direct send %s: %s", res.RequestID, raw)
			}
		}
		err := sendDirect(ctx, client, chat)
		if err == nil {
			res.Delivered, res.Route = true, RouteDirect
			metrics.RecordDispatch(string(RouteDirect), true)
			log.Info().Str("route", string(RouteDirect)).Msg("message delivered")
			fmt.Fprintf(r.out, "Message sent to %s\n", addr)
			return res, nil
		}
		metrics.DirectSendFailures.Inc()
		metrics.RecordDispatch(string(RouteDirect), false)
		log.Info().Err(err).Msg("direct send failed, falling back to gateway")
		fmt.Fprintln(r.out, "Direct send failed, trying via gateway...")
	}

	res.Route = RouteGateway
	ext := r.gateway.SendViaExternal(ctx, addr, body)
	if ext.OK() {
		res.Delivered = true
		metrics.RecordDispatch(string(RouteGateway), true)
		log.Info().Str("route", string(RouteGateway)).Msg("message delivered")
		fmt.Fprintf(r.out, "Message sent to %s\n", addr)
		return res, nil
	}

	res.Reason = failureReason(ext)
	metrics.RecordDispatch(string(RouteGateway), false)
	log.Warn().Int("code", ext.Code).Err(ext.Err).Str("reason", res.Reason).Msg("gateway delivery failed")
	fmt.Fprintf(r.out, "Failed to send message: %s\n", res.Reason)
	return res, nil
}

func (r *Router) directHandle() Client {
	if r.clients == nil {
		return nil
	}
	return r.clients.DirectHandle()
}

// sendDirect transmits s, converting a panicking client into an error.
func sendDirect(ctx context.Context, client Client, s stanza.Stanza) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("direct client panic: %v", p)
		}
	}()
	return client.Send(ctx, s)
}

// failureReason prefers stderr, then stdout, then the spawn error.
func failureReason(res launcher.ExternalResult) string {
	if s := strings.TrimSpace(res.Stderr); s != "" {
		return s
	}
	if s := strings.TrimSpace(res.Stdout); s != "" {
		return s
	}
	if res.Err != nil {
		return res.Err.Error()
	}
	return fmt.Sprintf("exit status %d", res.Code)
}
