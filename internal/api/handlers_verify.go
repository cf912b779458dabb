package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/xrpl-farmer-api/internal/errors"
	"github.com/xrpl-farmer-api/internal/service"
)

var errNotObjectOrArray = errors.New("request body must be a JSON object or array")

// DefaultMaxBodyBytes bounds the request body when the server config leaves it unset.
const DefaultMaxBodyBytes int64 = 100 << 10

// handlePing handles GET /ping.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleVerify handles GET /verify?xrpl_address=...
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()["xrpl_address"]
	if len(values) > 1 {
		respondError(w, r, apperrors.NewInvalidAddressError(strings.Join(values, ",")))
		return
	}

	var address string
	if len(values) == 1 {
		address = values[0]
	}

	result, err := s.lookupService.Verify(r.Context(), address)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleVerifyBulk handles POST /verify-bulk.
func (s *Server) handleVerifyBulk(w http.ResponseWriter, r *http.Request) {
	limit := s.config.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	addresses, err := decodeBulkRequest(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.lookupService.VerifyBulk(r.Context(), addresses)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// decodeBulkRequest extracts the xrpl_addresses array from a bulk request body.
//
// Unparseable JSON, oversized bodies and top-level scalars (strings, numbers,
// booleans, null) are 400 errors. An empty body, a top-level array, or an
// object without the property are treated as a missing property. Every element
// must be a JSON string; the empty array is returned as is and rejected by the
// lookup service.
func decodeBulkRequest(body io.Reader) ([]string, error) {
	var doc json.RawMessage
	if err := json.NewDecoder(body).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewMalformedBodyError(err)
	}

	var payload map[string]json.RawMessage
	if doc = bytes.TrimSpace(doc); len(doc) > 0 {
		switch doc[0] {
		case '{':
			if err := json.Unmarshal(doc, &payload); err != nil {
				return nil, apperrors.NewMalformedBodyError(err)
			}
		case '[':
		default:
			return nil, apperrors.NewMalformedBodyError(errNotObjectOrArray)
		}
	}

	raw, ok := payload["xrpl_addresses"]
	if !ok || isJSONNull(raw) {
		return nil, apperrors.NewInvalidPayloadError("xrpl_addresses", service.MsgMissingAddresses)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, apperrors.NewInvalidPayloadError("xrpl_addresses", service.MsgNotAnArray)
	}

	addresses := make([]string, 0, len(elems))
	for _, elem := range elems {
		if isJSONNull(elem) {
			return nil, apperrors.NewInvalidPayloadError("xrpl_addresses", service.MsgNotAnArray)
		}
		var addr string
		if err := json.Unmarshal(elem, &addr); err != nil {
			return nil, apperrors.NewInvalidPayloadError("xrpl_addresses", service.MsgNotAnArray)
		}
		addresses = append(addresses, addr)
	}

	return addresses, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
