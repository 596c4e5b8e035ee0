// Package postcodec implements the stable binary encoding of a Post's data
// variant (spec §3, §9 "Data variant"). The Queue.data column stores the
// output of Encode; Decode must round-trip it exactly.
//
// No protoc toolchain is available in this environment, so the encoding is
// built directly on google.golang.org/protobuf/encoding/protowire's
// low-level varint/length-delimited primitives instead of going through
// generated message types. The field numbers below are the wire schema —
// treat them as append-only: a future field gets the next unused number,
// and old fields are never renumbered or reused. Unknown fields inside a
// variant's payload are skipped on decode rather than rejected, so old
// binaries reading rows with added sub-fields degrade gracefully. Decode reads
// only the first outer field, and an outer field number naming a variant this
// build does not know is rejected with an error.
package postcodec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jeanlucthumm/reddit-scheduler/internal/model"
)

// Field numbers for the outer Data oneof. Exactly one is present per blob.
const (
	fieldText  = 1
	fieldPoll  = 2
	fieldImage = 3
	fieldURL   = 4
)

// Field numbers within TextPost.
const textFieldBody = 1

// Field numbers within PollPost.
const (
	pollFieldSelftext = 1
	pollFieldDuration = 2
	pollFieldOption   = 3 // repeated
)

// Field numbers within ImagePost.
const (
	imageFieldBytes = 1
	imageFieldExt   = 2
	imageFieldNSFW  = 3
)

// Field numbers within URLPost.
const urlFieldURL = 1

// Encode serializes d into the stable binary form stored in Queue.data.
// Exactly one variant must be set; callers should validate with
// model.Post.Validate before calling Encode.
func Encode(d model.Data) ([]byte, error) {
	var out []byte

	switch d.Tag {
	case model.VariantText:
		if d.Text == nil {
			return nil, fmt.Errorf("postcodec: text variant missing payload")
		}
		sub := encodeText(*d.Text)
		out = protowire.AppendTag(out, fieldText, protowire.BytesType)
		out = protowire.AppendBytes(out, sub)
	case model.VariantPoll:
		if d.Poll == nil {
			return nil, fmt.Errorf("postcodec: poll variant missing payload")
		}
		sub := encodePoll(*d.Poll)
		out = protowire.AppendTag(out, fieldPoll, protowire.BytesType)
		out = protowire.AppendBytes(out, sub)
	case model.VariantImage:
		if d.Image == nil {
			return nil, fmt.Errorf("postcodec: image variant missing payload")
		}
		sub := encodeImage(*d.Image)
		out = protowire.AppendTag(out, fieldImage, protowire.BytesType)
		out = protowire.AppendBytes(out, sub)
	case model.VariantURL:
		if d.URL == nil {
			return nil, fmt.Errorf("postcodec: url variant missing payload")
		}
		sub := encodeURL(*d.URL)
		out = protowire.AppendTag(out, fieldURL, protowire.BytesType)
		out = protowire.AppendBytes(out, sub)
	default:
		return nil, fmt.Errorf("postcodec: no data variant set")
	}

	return out, nil
}

// Decode parses a blob produced by Encode back into a model.Data. The tag
// column (denormalized in Queue.type) is not consulted here — the blob is
// self-describing.
func Decode(blob []byte) (model.Data, error) {
	num, typ, n := protowire.ConsumeTag(blob)
	if n < 0 {
		return model.Data{}, fmt.Errorf("postcodec: consume outer tag: %w", protowire.ParseError(n))
	}
	if typ != protowire.BytesType {
		return model.Data{}, fmt.Errorf("postcodec: unexpected wire type %v for outer field %d", typ, num)
	}
	sub, m := protowire.ConsumeBytes(blob[n:])
	if m < 0 {
		return model.Data{}, fmt.Errorf("postcodec: consume outer payload: %w", protowire.ParseError(m))
	}

	switch num {
	case fieldText:
		t, err := decodeText(sub)
		if err != nil {
			return model.Data{}, err
		}
		return model.Data{Tag: model.VariantText, Text: &t}, nil
	case fieldPoll:
		p, err := decodePoll(sub)
		if err != nil {
			return model.Data{}, err
		}
		return model.Data{Tag: model.VariantPoll, Poll: &p}, nil
	case fieldImage:
		img, err := decodeImage(sub)
		if err != nil {
			return model.Data{}, err
		}
		return model.Data{Tag: model.VariantImage, Image: &img}, nil
	case fieldURL:
		u, err := decodeURL(sub)
		if err != nil {
			return model.Data{}, err
		}
		return model.Data{Tag: model.VariantURL, URL: &u}, nil
	default:
		return model.Data{}, fmt.Errorf("postcodec: unknown outer field number %d", num)
	}
}

func encodeText(t model.TextPost) []byte {
	var out []byte
	out = protowire.AppendTag(out, textFieldBody, protowire.BytesType)
	out = protowire.AppendString(out, t.Body)
	return out
}

func decodeText(b []byte) (model.TextPost, error) {
	var t model.TextPost
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return t, fmt.Errorf("postcodec: text: consume tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == textFieldBody && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return t, fmt.Errorf("postcodec: text: consume body: %w", protowire.ParseError(m))
			}
			t.Body = v
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return t, fmt.Errorf("postcodec: text: skip unknown field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return t, nil
}

func encodePoll(p model.PollPost) []byte {
	var out []byte
	out = protowire.AppendTag(out, pollFieldSelftext, protowire.BytesType)
	out = protowire.AppendString(out, p.Selftext)
	out = protowire.AppendTag(out, pollFieldDuration, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(int64(p.DurationDays)))
	for _, opt := range p.Options {
		out = protowire.AppendTag(out, pollFieldOption, protowire.BytesType)
		out = protowire.AppendString(out, opt)
	}
	return out
}

func decodePoll(b []byte) (model.PollPost, error) {
	var p model.PollPost
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return p, fmt.Errorf("postcodec: poll: consume tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == pollFieldSelftext && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return p, fmt.Errorf("postcodec: poll: consume selftext: %w", protowire.ParseError(m))
			}
			p.Selftext = v
			b = b[m:]
		case num == pollFieldDuration && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return p, fmt.Errorf("postcodec: poll: consume duration: %w", protowire.ParseError(m))
			}
			p.DurationDays = int32(int64(v))
			b = b[m:]
		case num == pollFieldOption && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return p, fmt.Errorf("postcodec: poll: consume option: %w", protowire.ParseError(m))
			}
			p.Options = append(p.Options, v)
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return p, fmt.Errorf("postcodec: poll: skip unknown field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return p, nil
}

func encodeImage(img model.ImagePost) []byte {
	var out []byte
	out = protowire.AppendTag(out, imageFieldBytes, protowire.BytesType)
	out = protowire.AppendBytes(out, img.ImageBytes)
	out = protowire.AppendTag(out, imageFieldExt, protowire.BytesType)
	out = protowire.AppendString(out, img.Extension)
	out = protowire.AppendTag(out, imageFieldNSFW, protowire.VarintType)
	out = protowire.AppendVarint(out, protowire.EncodeBool(img.NSFW))
	return out
}

func decodeImage(b []byte) (model.ImagePost, error) {
	var img model.ImagePost
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return img, fmt.Errorf("postcodec: image: consume tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == imageFieldBytes && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return img, fmt.Errorf("postcodec: image: consume bytes: %w", protowire.ParseError(m))
			}
			img.ImageBytes = append([]byte(nil), v...)
			b = b[m:]
		case num == imageFieldExt && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return img, fmt.Errorf("postcodec: image: consume extension: %w", protowire.ParseError(m))
			}
			img.Extension = v
			b = b[m:]
		case num == imageFieldNSFW && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return img, fmt.Errorf("postcodec: image: consume nsfw: %w", protowire.ParseError(m))
			}
			img.NSFW = protowire.DecodeBool(v)
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return img, fmt.Errorf("postcodec: image: skip unknown field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return img, nil
}

func encodeURL(u model.URLPost) []byte {
	var out []byte
	out = protowire.AppendTag(out, urlFieldURL, protowire.BytesType)
	out = protowire.AppendString(out, u.URL)
	return out
}

func decodeURL(b []byte) (model.URLPost, error) {
	var u model.URLPost
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return u, fmt.Errorf("postcodec: url: consume tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == urlFieldURL && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return u, fmt.Errorf("postcodec: url: consume url: %w", protowire.ParseError(m))
			}
			u.URL = v
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return u, fmt.Errorf("postcodec: url: skip unknown field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return u, nil
}
