package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/carlosrabelo/cscc/domain/entities"
)

// Error codes carried in error replies
const (
	CodeUnsupportedQuery = "unsupported_query"
	CodeUnknownSwitch    = "unknown_switch"
	CodeMalformedRequest = "malformed_request"
	CodeInternal         = "internal"
)

var codeKinds = map[string]error{
	CodeUnsupportedQuery: ErrUnsupportedQuery,
	CodeUnknownSwitch:    ErrUnknownSwitch,
	CodeMalformedRequest: ErrMalformedRequest,
	CodeInternal:         ErrProviderInternal,
}

// Reply is the envelope answered for every query: exactly one of Result or Error is set
type Reply struct {
	Result *string     `json:"result,omitempty"`
	Error  *ReplyError `json:"error,omitempty"`
}

// ReplyError is the defined error answer of the provider
type ReplyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Kind returns the sentinel matching the error code
func (e *ReplyError) Kind() error {
	if kind, ok := codeKinds[e.Code]; ok {
		return kind
	}
	return ErrProviderInternal
}

// ResultReply wraps an encoded document
func ResultReply(result string) Reply {
	return Reply{Result: &result}
}

// ErrorReply builds an error answer
func ErrorReply(code, format string, args ...interface{}) Reply {
	return Reply{Error: &ReplyError{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// EncodeReply marshals a reply envelope
func EncodeReply(r Reply) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode reply")
	}
	return data, nil
}

// strictDecode decodes exactly one JSON value, rejecting unknown fields and trailing data
func strictDecode(data []byte, v interface{}) error {
	return decodeSingle(data, v, true)
}

func decodeSingle(data []byte, v interface{}, strict bool) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// DecodeReply parses a reply envelope
func DecodeReply(data []byte) (Reply, error) {
	var r Reply
	if err := strictDecode(data, &r); err != nil {
		return Reply{}, errors.Wrap(err, "invalid reply envelope")
	}
	if (r.Result == nil) == (r.Error == nil) {
		return Reply{}, errors.New("reply must carry exactly one of result or error")
	}
	return r, nil
}

// EncodeQuery marshals a request
func EncodeQuery(q entities.Query) ([]byte, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode query")
	}
	return data, nil
}

// DecodeQuery parses a request; the type field is mandatory.
// Fields other than type and switch_ip are ignored so that newer query kinds
// reach the handler and get unsupported_query.
func DecodeQuery(data []byte) (entities.Query, error) {
	var q entities.Query
	if err := decodeSingle(data, &q, false); err != nil {
		return entities.Query{}, errors.Wrap(err, "invalid request")
	}
	if q.Type == "" {
		return entities.Query{}, errors.New("request type is required")
	}
	return q, nil
}

// EncodeDocument marshals the per-switch dumps into a result string
func EncodeDocument(doc entities.RawDocument) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode document")
	}
	return string(data), nil
}

// EncodeSwitchDump marshals a single switch dump into a result string
func EncodeSwitchDump(dump entities.RawSwitchDump) (string, error) {
	data, err := json.Marshal(dump)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode switch dump")
	}
	return string(data), nil
}

// DecodeDocument parses a result string into per-switch dumps. Switches without
// port or acl keys get empty maps.
func DecodeDocument(result string) (entities.RawDocument, error) {
	var doc entities.RawDocument
	if err := strictDecode([]byte(result), &doc); err != nil {
		return nil, errors.Wrap(err, "invalid configuration document")
	}
	if doc == nil {
		return nil, errors.New("configuration document is null")
	}
	for ip, dump := range doc {
		doc[ip] = fillDump(dump)
	}
	return doc, nil
}

// DecodeSwitchDump parses a single-switch result string
func DecodeSwitchDump(result string) (entities.RawSwitchDump, error) {
	var dump entities.RawSwitchDump
	if err := strictDecode([]byte(result), &dump); err != nil {
		return entities.RawSwitchDump{}, errors.Wrap(err, "invalid switch document")
	}
	return fillDump(dump), nil
}

func fillDump(dump entities.RawSwitchDump) entities.RawSwitchDump {
	if dump.Ports == nil {
		dump.Ports = make(map[string]string)
	}
	if dump.ACLs == nil {
		dump.ACLs = make(map[string]string)
	}
	if dump.PortACLs == nil {
		dump.PortACLs = make(map[string]string)
	}
	return dump
}
