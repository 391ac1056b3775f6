package utils

import (
	"net/http"
	"net/http/httputil"

	"github.com/rs/zerolog/log"
)

var redactedHeaders = []string{"Authorization"}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return fn(r)
}

func DebugRoundTripper() http.RoundTripper {
	return DebugRoundTripperWithUnderlying(http.DefaultTransport)
}

// DebugRoundTripperWithUnderlying dumps requests and responses to the debug
// log. Bearer tokens are masked; form bodies carrying client secrets are not
// dumped.
func DebugRoundTripperWithUnderlying(u http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		dumpReq := r.Clone(r.Context())
		for _, h := range redactedHeaders {
			if v := dumpReq.Header.Get(h); v != "" {
				dumpReq.Header.Set(h, MaskSecret(v))
			}
		}
		dumpBody := false
		if r.Header.Get("Content-Type") != "application/x-www-form-urlencoded" && r.GetBody != nil {
			// the clone shares r.Body, dump a fresh copy instead
			if body, err := r.GetBody(); err == nil {
				dumpReq.Body = body
				dumpBody = true
			}
		}
		if d, err := httputil.DumpRequestOut(dumpReq, dumpBody); err == nil {
			log.Debug().Str("method", r.Method).Str("url", r.URL.String()).Msg(string(d))
		}

		res, err := u.RoundTrip(r)
		if err == nil {
			if d, err := httputil.DumpResponse(res, true); err == nil {
				log.Debug().Int("status", res.StatusCode).Str("url", r.URL.String()).Msg(string(d))
			}
		}
		return res, err
	})
}
