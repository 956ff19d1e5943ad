package event

import (
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yepcord/server-sub002/internal/model"
)

// Field numbers of the preloaded user settings message.
const (
	protoTextAndImages protowire.Number = 6
	protoStatus        protowire.Number = 11
	protoLocalization  protowire.Number = 12
	protoAppearance    protowire.Number = 13

	protoInlineEmbedMedia protowire.Number = 2
	protoRenderEmbeds     protowire.Number = 4
	protoCompact          protowire.Number = 15

	protoStatusValue  protowire.Number = 1
	protoCustomStatus protowire.Number = 2

	protoCustomText      protowire.Number = 1
	protoCustomEmojiID   protowire.Number = 2
	protoCustomEmojiName protowire.Number = 3

	protoLocale protowire.Number = 1

	protoTheme         protowire.Number = 1
	protoDeveloperMode protowire.Number = 2
)

const (
	themeDark  = 1
	themeLight = 2
)

// ErrMalformedProto is returned for settings protos that fail to parse.
var ErrMalformedProto = errors.New("malformed settings proto")

// EncodeSettingsProto renders s as a base64 preloaded settings message.
func EncodeSettingsProto(s model.UserSettings) string {
	var text []byte
	text = appendMessage(text, protoInlineEmbedMedia, boolValue(s.InlineEmbedMedia))
	text = appendMessage(text, protoRenderEmbeds, boolValue(s.RenderEmbeds))
	text = appendMessage(text, protoCompact, boolValue(s.MessageDisplayCompact))

	var status []byte
	status = appendMessage(status, protoStatusValue, stringValue(s.Status))
	if cs := s.CustomStatus; cs != nil {
		var custom []byte
		custom = protowire.AppendTag(custom, protoCustomText, protowire.BytesType)
		custom = protowire.AppendString(custom, cs.Text)
		if cs.EmojiID != nil {
			custom = protowire.AppendTag(custom, protoCustomEmojiID, protowire.Fixed64Type)
			custom = protowire.AppendFixed64(custom, uint64(*cs.EmojiID))
		}
		if cs.EmojiName != nil {
			custom = protowire.AppendTag(custom, protoCustomEmojiName, protowire.BytesType)
			custom = protowire.AppendString(custom, *cs.EmojiName)
		}
		status = appendMessage(status, protoCustomStatus, custom)
	}

	locale := appendMessage(nil, protoLocale, stringValue(s.Locale))

	theme := uint64(themeDark)
	if s.Theme == "light" {
		theme = themeLight
	}
	var appearance []byte
	appearance = protowire.AppendTag(appearance, protoTheme, protowire.VarintType)
	appearance = protowire.AppendVarint(appearance, theme)
	appearance = protowire.AppendTag(appearance, protoDeveloperMode, protowire.VarintType)
	appearance = protowire.AppendVarint(appearance, protowire.EncodeBool(s.DeveloperMode))

	var out []byte
	out = appendMessage(out, protoTextAndImages, text)
	out = appendMessage(out, protoStatus, status)
	out = appendMessage(out, protoLocalization, locale)
	out = appendMessage(out, protoAppearance, appearance)
	return base64.StdEncoding.EncodeToString(out)
}

// ApplySettingsProto decodes a base64 settings message and overlays the
// fields it carries onto s. Unknown fields are ignored.
func ApplySettingsProto(s model.UserSettings, encoded string) (model.UserSettings, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrMalformedProto, err)
	}

	err = walk(raw, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if typ != protowire.BytesType {
			return nil
		}
		switch num {
		case protoTextAndImages:
			return walk(v, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
				if typ != protowire.BytesType {
					return nil
				}
				b, err := readBoolValue(v)
				if err != nil {
					return err
				}
				switch num {
				case protoInlineEmbedMedia:
					s.InlineEmbedMedia = b
				case protoRenderEmbeds:
					s.RenderEmbeds = b
				case protoCompact:
					s.MessageDisplayCompact = b
				}
				return nil
			})
		case protoStatus:
			return walk(v, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
				switch {
				case num == protoStatusValue && typ == protowire.BytesType:
					status, err := readStringValue(v)
					if err != nil {
						return err
					}
					if model.ValidStatus(status) {
						s.Status = status
					}
				case num == protoCustomStatus && typ == protowire.BytesType:
					cs, err := readCustomStatus(v)
					if err != nil {
						return err
					}
					s.CustomStatus = cs
				}
				return nil
			})
		case protoLocalization:
			return walk(v, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
				if num != protoLocale || typ != protowire.BytesType {
					return nil
				}
				locale, err := readStringValue(v)
				if err != nil {
					return err
				}
				s.Locale = locale
				return nil
			})
		case protoAppearance:
			return walk(v, func(num protowire.Number, typ protowire.Type, _ []byte, n uint64) error {
				if typ != protowire.VarintType {
					return nil
				}
				switch num {
				case protoTheme:
					if n == themeLight {
						s.Theme = "light"
					} else {
						s.Theme = "dark"
					}
				case protoDeveloperMode:
					s.DeveloperMode = protowire.DecodeBool(n)
				}
				return nil
			})
		}
		return nil
	})
	return s, err
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func boolValue(v bool) []byte {
	b := protowire.AppendTag(nil, 1, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func stringValue(v string) []byte {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// walk calls fn for every field of msg. Length-delimited values are passed
// as bytes, varints as n; other wire types are skipped.
func walk(msg []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error) error {
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedProto, protowire.ParseError(n))
		}
		msg = msg[n:]

		var (
			bytes  []byte
			varint uint64
		)
		switch typ {
		case protowire.BytesType:
			bytes, n = protowire.ConsumeBytes(msg)
		case protowire.VarintType:
			varint, n = protowire.ConsumeVarint(msg)
		case protowire.Fixed64Type:
			varint, n = protowire.ConsumeFixed64(msg)
		default:
			n = protowire.ConsumeFieldValue(num, typ, msg)
		}
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedProto, protowire.ParseError(n))
		}
		msg = msg[n:]

		if err := fn(num, typ, bytes, varint); err != nil {
			return err
		}
	}
	return nil
}

func readBoolValue(msg []byte) (bool, error) {
	var out bool
	err := walk(msg, func(num protowire.Number, typ protowire.Type, _ []byte, n uint64) error {
		if num == 1 && typ == protowire.VarintType {
			out = protowire.DecodeBool(n)
		}
		return nil
	})
	return out, err
}

func readStringValue(msg []byte) (string, error) {
	var out string
	err := walk(msg, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num == 1 && typ == protowire.BytesType {
			out = string(v)
		}
		return nil
	})
	return out, err
}

func readCustomStatus(msg []byte) (*model.CustomStatus, error) {
	cs := &model.CustomStatus{}
	err := walk(msg, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch {
		case num == protoCustomText && typ == protowire.BytesType:
			cs.Text = string(v)
		case num == protoCustomEmojiID && typ == protowire.Fixed64Type:
			id := int64(n)
			cs.EmojiID = &id
		case num == protoCustomEmojiName && typ == protowire.BytesType:
			name := string(v)
			cs.EmojiName = &name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if cs.Text == "" && cs.EmojiID == nil && cs.EmojiName == nil {
		return nil, nil
	}
	return cs, nil
}
