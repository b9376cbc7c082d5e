package provider

import (
	"context"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

// Handler answers decoded queries on the provider side
type Handler interface {
	Handle(ctx context.Context, q entities.Query) Reply
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, q entities.Query) Reply

// Handle calls f
func (f HandlerFunc) Handle(ctx context.Context, q entities.Query) Reply {
	return f(ctx, q)
}

// Respond decodes a raw request, dispatches it and encodes the reply
func Respond(ctx context.Context, handler Handler, body []byte) []byte {
	var reply Reply
	q, err := DecodeQuery(body)
	if err != nil {
		logger.Warn("Rejecting request: %v", err)
		reply = ErrorReply(CodeMalformedRequest, "%v", err)
	} else {
		reply = handler.Handle(ctx, q)
	}
	data, err := EncodeReply(reply)
	if err != nil {
		logger.Error("Encoding reply failed: %v", err)
		data, _ = EncodeReply(ErrorReply(CodeInternal, "failed to encode reply"))
	}
	return data
}
