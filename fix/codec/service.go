// Package codec is the ambient-stack facade over fix: it wraps
// Parse/Encode with configuration (fix/config) and structured logging
// (fix/internal/telemetry) so callers get one entry point instead of
// wiring the pure fix package's free functions by hand.
package codec

import (
	"context"
	"fmt"

	"github.com/wyfcoding/fixcodec/fix"
	"github.com/wyfcoding/fixcodec/fix/config"
	"github.com/wyfcoding/fixcodec/fix/internal/telemetry"
)

// Service decodes and encodes FIX messages under a fixed policy.
type Service struct {
	cfg    *config.Config
	logger *telemetry.Logger
}

// New builds a Service from cfg. A nil cfg uses defaults (tolerant
// parsing, auto-detected delimiter, info-level stdout logging).
func New(cfg *config.Config) *Service {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Service{
		cfg:    cfg,
		logger: telemetry.New(telemetry.Config{Service: "fixcodec", Level: cfg.Logging.Level}),
	}
}

// Decode parses raw into a Message, logging a structured warning on
// failure (the error is still returned; logging never swallows it). It
// applies the service's configured MaxNestingDepth (falling back to the
// core's own default when unset) and, if DefaultDelimiter is configured,
// parses with that fixed delimiter instead of auto-detecting.
func (s *Service) Decode(ctx context.Context, raw []byte) (*fix.Message, error) {
	depth := s.cfg.Depth(fix.DefaultMaxGroupDepth)

	var msg *fix.Message
	var err error
	if delim, ok := s.cfg.Delimiter(); ok {
		msg, err = fix.ParseDelimitedWithDepth(raw, delim, depth)
	} else {
		msg, err = fix.ParseWithDepth(raw, depth)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "fix decode failed", "error", err, "bytes", len(raw))
		return nil, fmt.Errorf("decode: %w", err)
	}
	if s.cfg.StrictMode {
		if err := checkStrict(msg); err != nil {
			s.logger.WarnContext(ctx, "fix decode rejected by strict mode", "error", err)
			return nil, err
		}
	}
	s.logger.DebugContext(ctx, "fix message decoded", "msg_type", msgTypeOf(msg))
	return msg, nil
}

// Encode serializes msg to wire format.
func (s *Service) Encode(ctx context.Context, msg *fix.Message) []byte {
	out := fix.Encode(msg)
	s.logger.DebugContext(ctx, "fix message encoded", "bytes", len(out))
	return out
}

func msgTypeOf(msg *fix.Message) string {
	v, _ := msg.GetField(fix.TagMsgType)
	return v
}

// checkStrict enforces the caller-level policy documented on
// config.Config.StrictMode: every declared group count must match its
// actual entry count exactly (no short groups).
func checkStrict(msg *fix.Message) error {
	return walkGroupsStrict(msg)
}

func walkGroupsStrict(msg *fix.Message) error {
	var checkEntries func(ids []fix.EntryID) error
	checkEntries = func(ids []fix.EntryID) error {
		for _, id := range ids {
			entry, ok := msg.GetEntry(id)
			if !ok {
				continue
			}
			for nestedTag, nestedIDs := range entry.NestedGroups {
				if declaredNested, ok := entry.Fields[nestedTag]; ok {
					if err := compareCount(nestedTag, declaredNested, len(nestedIDs)); err != nil {
						return err
					}
				}
				if err := checkEntries(nestedIDs); err != nil {
					return err
				}
			}
		}
		return nil
	}

	for countTag, ids := range allTopLevelGroups(msg) {
		if declared, ok := msg.GetField(countTag); ok {
			if err := compareCount(countTag, declared, len(ids)); err != nil {
				return err
			}
		}
		if err := checkEntries(ids); err != nil {
			return err
		}
	}
	return nil
}

func allTopLevelGroups(msg *fix.Message) map[fix.Tag][]fix.EntryID {
	groups := make(map[fix.Tag][]fix.EntryID)
	for _, countTag := range msg.GroupCountTags() {
		if ids, ok := msg.GetGroup(countTag); ok {
			groups[countTag] = ids
		}
	}
	return groups
}

func compareCount(tag fix.Tag, declared string, actual int) error {
	want := fmt.Sprintf("%d", actual)
	if declared != want {
		return fmt.Errorf("strict mode: group %d declared count %q, found %d entries", tag, declared, actual)
	}
	return nil
}
