// internal/logging/redact.go
package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/taskflow/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	redacted        = "[REDACTED]"
	redactedPattern = "[REDACTED:pattern]"
	maxPatternLen   = 200
)

// secretMarshaler wraps config.Secret for Zap object marshaling.
type secretMarshaler struct {
	val config.Secret
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s secretMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddBool("set", s.val.IsSet())
	enc.AddInt("len", len(s.val.Value()))
	return nil
}

// Secret creates a Zap field for config.Secret that records only whether it
// is set and its length.
func Secret(key string, val config.Secret) zap.Field {
	return zap.Object(key, secretMarshaler{val: val})
}

// RedactedString creates a Zap field with redacted value and length.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// RedactingEncoder wraps a zapcore.Encoder to redact sensitive fields.
//
// Fields attached with Logger.With pass through the Add* methods; fields
// passed per call reach EncodeEntry directly, so both paths redact.
type RedactingEncoder struct {
	zapcore.Encoder
	redactFields map[string]bool
	redactRegex  []*regexp.Regexp
}

// NewRedactingEncoder wraps an encoder with redaction rules.
// Returns error if any redaction pattern fails to compile.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	if !cfg.Enabled {
		return &RedactingEncoder{Encoder: base}, nil
	}

	fields := make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		fields[strings.ToLower(f)] = true
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		if len(p) > maxPatternLen {
			return nil, fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, p)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	return &RedactingEncoder{
		Encoder:      base,
		redactFields: fields,
		redactRegex:  patterns,
	}, nil
}

func (e *RedactingEncoder) shouldRedactKey(key string) bool {
	return e.redactFields[strings.ToLower(key)]
}

func (e *RedactingEncoder) matchesPattern(val string) bool {
	for _, re := range e.redactRegex {
		if re.MatchString(val) {
			return true
		}
	}
	return false
}

// EncodeEntry redacts the message and per-call fields before encoding.
func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if e.matchesPattern(ent.Message) {
		for _, re := range e.redactRegex {
			ent.Message = re.ReplaceAllString(ent.Message, redacted)
		}
	}

	clean := fields
	copied := false
	for i, f := range fields {
		r, changed := e.redactField(f)
		if !changed {
			continue
		}
		if !copied {
			clean = append([]zapcore.Field(nil), fields...)
			copied = true
		}
		clean[i] = r
	}
	return e.Encoder.EncodeEntry(ent, clean)
}

func (e *RedactingEncoder) redactField(f zapcore.Field) (zapcore.Field, bool) {
	if f.Type == zapcore.SkipType {
		return f, false
	}
	if e.shouldRedactKey(f.Key) {
		return zap.String(f.Key, redacted), true
	}
	if f.Type == zapcore.StringType && e.matchesPattern(f.String) {
		return zap.String(f.Key, redactedPattern), true
	}
	return f, false
}

// AddString redacts sensitive field names and value patterns.
func (e *RedactingEncoder) AddString(key, val string) {
	if e.shouldRedactKey(key) {
		e.Encoder.AddString(key, redacted)
		return
	}
	if e.matchesPattern(val) {
		e.Encoder.AddString(key, redactedPattern)
		return
	}
	e.Encoder.AddString(key, val)
}

// AddByteString redacts sensitive field names.
func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	if e.shouldRedactKey(key) {
		e.Encoder.AddByteString(key, []byte(redacted))
		return
	}
	e.Encoder.AddByteString(key, val)
}

// AddReflected redacts the entire reflected value if the key is sensitive.
func (e *RedactingEncoder) AddReflected(key string, val interface{}) error {
	if e.shouldRedactKey(key) {
		e.Encoder.AddString(key, redacted)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

// AddObject redacts sensitive field names.
func (e *RedactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.shouldRedactKey(key) {
		e.Encoder.AddString(key, redacted)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

// Clone creates a copy of the encoder.
func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{
		Encoder:      e.Encoder.Clone(),
		redactFields: e.redactFields,
		redactRegex:  e.redactRegex,
	}
}
