package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"innovation-backend/internal/exports"
	"innovation-backend/internal/queue"
)

// Processor renders one queued export.
type Processor interface {
	ProcessExport(ctx context.Context, exportID string) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingExportID indicates a message without an export id.
type ErrMissingExportID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingExportID) Error() string { return "missing export id" }

// ErrProcess indicates processing failed after successful parsing. Permanent
// failures will not succeed on redelivery.
type ErrProcess struct {
	ExportID  string
	RequestID string
	Permanent bool
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process export"
	}
	return "process export: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.ExportID) == "" {
		return msg, meta, ErrMissingExportID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, proc Processor, body string) error {
	if proc == nil {
		return errors.New("export processor not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(msg.ExportID) == "" {
		return ErrMissingExportID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	if err := proc.ProcessExport(ctx, msg.ExportID); err != nil {
		return ErrProcess{
			ExportID:  msg.ExportID,
			RequestID: msg.RequestID,
			Permanent: errors.Is(err, exports.ErrNotFound) || errors.Is(err, exports.ErrPlanNotFound),
			Err:       err,
		}
	}
	return nil
}
