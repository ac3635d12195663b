package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cloudfoundry-community/mockbroker"
)

// recordSnapshots refreshes the broker's diagnostic last request/response
// pair on every call passing through it. The request body is re-buffered so
// the handlers still read it.
func recordSnapshots(introspector mockbroker.Introspector) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
				req.Body = io.NopCloser(bytes.NewReader(body))
			}

			introspector.RecordRequest(mockbroker.RequestSnapshot{
				Method:  req.Method,
				Path:    req.URL.Path,
				Headers: req.Header.Clone(),
				Body:    string(body),
			})

			recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, req)

			introspector.RecordResponse(mockbroker.ResponseSnapshot{
				Status: recorder.status,
				Body:   recorder.body.String(),
			})
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
