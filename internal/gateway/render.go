package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/flemzord/tgapi/internal/document"
	"github.com/flemzord/tgapi/internal/security"
	"github.com/flemzord/tgapi/pkg/botapi"
	"github.com/go-chi/chi/v5/middleware"
)

// RenderResponse is the body returned by POST /v1/render.
type RenderResponse struct {
	Method string          `json:"method"`
	JSON   json.RawMessage `json:"json"`
	Form   url.Values      `json:"form"`
}

// ErrorResponse is the body of every non-2xx reply from /v1.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// handleRender builds the single document in the request body. With
// validateOnly the payload is discarded and 204 is returned on success.
func (g *Gateway) handleRender(validateOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, g.config.MaxBodyBytes))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				g.metrics.RecordError(kindDocument)
				writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: security.ErrBodyTooLarge.Error()})
				return
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "reading body: " + err.Error()})
			return
		}

		if security.LooksLikeJSON(body) {
			if err := security.ValidateJSONDepth(body, security.DefaultMaxJSONDepth); err != nil {
				g.fail(w, r, "", err)
				return
			}
		}

		docs, err := document.Parse(body, "request")
		if err != nil {
			g.fail(w, r, "", err)
			return
		}
		if len(docs) != 1 {
			g.fail(w, r, "", fmt.Errorf("%w: expected one document, found %d", document.ErrMalformed, len(docs)))
			return
		}
		doc := docs[0]

		g.logger.Debug("rendering document",
			"method", doc.Method,
			"fields", g.redactedFields(doc.Fields),
			"request_id", middleware.GetReqID(r.Context()),
		)

		payload, err := document.Build(doc, g.Defaults())
		if err != nil {
			g.fail(w, r, doc.Method, err)
			return
		}

		data, err := botapi.Marshal(payload)
		if err != nil {
			g.fail(w, r, doc.Method, err)
			return
		}
		form, err := botapi.FormValues(payload)
		if err != nil {
			g.fail(w, r, doc.Method, err)
			return
		}

		g.metrics.RecordRendered(payload.Method())
		if validateOnly {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, RenderResponse{
			Method: payload.Method(),
			JSON:   data,
			Form:   form,
		})
	}
}

// fail maps a build error to a status code and error body. method is empty
// when the document was not parsed far enough to know it.
func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, method string, err error) {
	status, kind := classify(err)
	g.metrics.RecordError(kind)

	resp := ErrorResponse{Error: g.redactor.Redact(err.Error())}
	var invalid *botapi.InvalidPayloadError
	if errors.As(err, &invalid) {
		resp.Field = invalid.Field
	}

	reqID := middleware.GetReqID(r.Context())
	g.logger.Info("document rejected",
		"status", status,
		"error", resp.Error,
		"request_id", reqID,
	)
	g.audit.Log(security.AuditEvent{
		Type:       security.EventPayloadRejected,
		RemoteAddr: clientKey(r),
		RequestID:  reqID,
		Method:     method,
		Detail:     resp.Error,
		Metadata:   map[string]string{"kind": kind, "field": resp.Field},
	})
	writeJSON(w, status, resp)
}

// classify returns the HTTP status and metric kind for err.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, botapi.ErrInvalidPayload):
		return http.StatusUnprocessableEntity, kindInvalid
	case errors.Is(err, botapi.ErrSerialization):
		return http.StatusInternalServerError, kindSerialization
	default:
		return http.StatusBadRequest, kindDocument
	}
}

// redactedFields returns a deep copy of fields with secrets masked, for
// logging. The document itself is left untouched.
func (g *Gateway) redactedFields(fields map[string]any) map[string]any {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	g.redactor.RedactMap(out)
	return out
}
