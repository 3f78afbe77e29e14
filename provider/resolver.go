package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/convodesk/convodesk/domains/channel"
)

// Resolver discovers which endpoint shape the provider actually speaks for
// one credential set. It is a shape-discovery mechanism, not a retry
// mechanism: every hypothesis is tried at most once per Resolve call, in
// order, with no backoff between attempts.
//
// The winning hypothesis is cached for the lifetime of the resolver (one
// resolver per channel). Concurrent Resolve calls may race on that cache;
// last writer wins, which self-corrects on the next failing call. That
// relaxation is deliberate.
type Resolver struct {
	baseURL    string
	cred       channel.Credential
	hypotheses []EndpointHypothesis
	httpClient *http.Client

	mu       sync.Mutex
	lastGood *EndpointHypothesis
}

// NewResolver builds a resolver over the given hypothesis list. The list
// must be non-empty; that is a configuration error, not a provider error.
func NewResolver(baseURL string, cred channel.Credential, hypotheses []EndpointHypothesis, httpClient *http.Client) (*Resolver, error) {
	if len(hypotheses) == 0 {
		return nil, fmt.Errorf("resolver: empty hypothesis list")
	}
	for _, h := range hypotheses {
		if h.BaseURLTemplate == "" {
			return nil, fmt.Errorf("resolver: hypothesis %q has no URL template", h.Description)
		}
	}
	if httpClient == nil {
		return nil, fmt.Errorf("resolver: nil http client")
	}
	return &Resolver{
		baseURL:    baseURL,
		cred:       cred,
		hypotheses: hypotheses,
		httpClient: httpClient,
	}, nil
}

// LastGood returns the cached winning hypothesis, if any.
func (r *Resolver) LastGood() *EndpointHypothesis {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastGood
}

// Resolve issues one logical request against the provider, probing endpoint
// shapes until one answers without an error marker. Classifiable provider
// failures come back inside the Response; the error return is reserved for
// programming errors (unmarshalable body argument).
func (r *Resolver) Resolve(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("resolver: marshal request body: %w", err)
		}
	}

	// Fast path: a previously winning hypothesis is tried alone first.
	if cached := r.LastGood(); cached != nil {
		if resp, kind, _ := r.attempt(ctx, *cached, method, endpoint, payload); kind == attemptOK {
			return &Response{Succeeded: true, Body: resp, Hypothesis: cached}, nil
		}
		// The known-good shape stopped working; fall through to a full
		// re-probe from the top of the list.
		logrus.WithFields(logrus.Fields{
			"instance_id": r.cred.InstanceID,
			"hypothesis":  cached.Description,
			"endpoint":    endpoint,
		}).Warn("[RESOLVER] Cached hypothesis failed, re-probing full list")
		r.mu.Lock()
		r.lastGood = nil
		r.mu.Unlock()
	}

	var attempts []Attempt
	for i := range r.hypotheses {
		hyp := r.hypotheses[i]
		respBody, kind, detail := r.attempt(ctx, hyp, method, endpoint, payload)
		if kind == attemptOK {
			r.mu.Lock()
			r.lastGood = &r.hypotheses[i]
			r.mu.Unlock()
			logrus.WithFields(logrus.Fields{
				"instance_id": r.cred.InstanceID,
				"hypothesis":  hyp.Description,
			}).Debug("[RESOLVER] Hypothesis won")
			return &Response{Succeeded: true, Body: respBody, Hypothesis: &r.hypotheses[i]}, nil
		}
		attempts = append(attempts, Attempt{
			Hypothesis: hyp.Description,
			Endpoint:   endpoint,
			ErrorKind:  kind,
			Detail:     detail,
		})
	}

	failure := &Failure{Kind: classifyAggregate(attempts), Attempts: attempts}
	logrus.WithFields(logrus.Fields{
		"instance_id": r.cred.InstanceID,
		"endpoint":    endpoint,
		"kind":        failure.Kind,
		"attempts":    len(attempts),
	}).Warn("[RESOLVER] Every hypothesis failed")
	return &Response{Succeeded: false, Failure: failure}, nil
}

// attempt performs one HTTP call for one hypothesis. A timed-out or
// otherwise failed transport counts the same as any transport failure.
func (r *Resolver) attempt(ctx context.Context, hyp EndpointHypothesis, method, endpoint string, payload []byte) (map[string]any, attemptErrorKind, string) {
	url := hyp.expand(r.baseURL, r.cred) + endpoint

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, attemptTransport, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if hyp.AuthMode == channel.AuthTokenInHeader {
		req.Header.Set("Client-Token", r.cred.SecretToken)
	}
	// An account-level client token, when configured, takes precedence in
	// the Client-Token header regardless of auth mode.
	if r.cred.ClientToken != "" {
		req.Header.Set("Client-Token", r.cred.ClientToken)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, attemptTransport, err.Error()
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, attemptTransport, err.Error()
	}

	body := decodeBody(raw)
	kind, detail := classifyBody(resp.StatusCode, body)
	if kind != attemptOK {
		return nil, kind, detail
	}
	return body, attemptOK, ""
}

// classifyAggregate reduces the per-attempt failures to one actionable kind:
// every shape complaining about the instance means the credentials are bad;
// every shape answering a generic not-found means the provider moved its
// API; anything mixed is treated as transient.
func classifyAggregate(attempts []Attempt) FailureKind {
	allInstance := true
	allNotFound := true
	allAuth := true
	for _, a := range attempts {
		if a.ErrorKind != attemptInstanceNotFound {
			allInstance = false
		}
		if a.ErrorKind != attemptNotFound {
			allNotFound = false
		}
		if a.ErrorKind != attemptAuthRejected {
			allAuth = false
		}
	}
	switch {
	case allInstance:
		return FailureInvalidCredentials
	case allNotFound:
		return FailureAPIIncompatible
	case allAuth:
		return FailureAuthenticationFailed
	default:
		return FailureTransient
	}
}
