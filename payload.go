// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogslack

import "unicode/utf8"

const (
	// DefaultMessageLimit is the number of characters of a message kept
	// before it is truncated.
	DefaultMessageLimit = 2500

	// shortFieldLimit is the value length below which a field is rendered
	// side by side with its neighbours.
	shortFieldLimit = 500

	truncationMarker = "..."
	codeFence        = "```"
)

// Payload is the JSON body posted to the webhook. Text is nil unless the
// record message is a string, so an empty message still posts "text":"".
type Payload struct {
	Blocks      []Block      `json:"blocks"`
	Channel     any          `json:"channel,omitempty"`
	Text        *string      `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Block is a display block. Section blocks carry Text, context blocks carry
// Elements.
type Block struct {
	Type     string `json:"type"`
	Text     *Text  `json:"text,omitempty"`
	Elements []Text `json:"elements,omitempty"`
}

// Text is a formatted text object.
type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Attachment carries the color bar, the binding fields and an optional image.
// ImageURL is set whenever the image binding holds a string, even an empty one.
type Attachment struct {
	Color    string  `json:"color,omitempty"`
	Fields   []Field `json:"fields"`
	ImageURL *string `json:"image_url,omitempty"`
}

// Field is one flattened binding.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// BuildPayload renders rec using the forwarder's configuration without
// sending it.
func (f *Forwarder) BuildPayload(rec Record) Payload {
	return buildPayload(rec, f.cfg)
}

// buildPayload maps one record onto the webhook message.
func buildPayload(rec Record, cfg *config) Payload {
	payload := Payload{Blocks: make([]Block, 0, 2)}

	if cfg.channelKey != "" {
		if channel, ok := rec.Bindings.Get(cfg.channelKey); ok {
			payload.Channel = channel
		}
	}

	if msg, ok := rec.Message.(string); ok {
		text := truncate(msg, cfg.messageLimit)
		payload.Text = &text
		payload.Blocks = append(payload.Blocks, Block{
			Type: "section",
			Text: &Text{Type: "mrkdwn", Text: codeFence + text + codeFence},
		})
	}

	when, valid := parseTime(rec.Time, cfg.location)
	payload.Blocks = append(payload.Blocks, Block{
		Type:     "context",
		Elements: []Text{{Type: "mrkdwn", Text: dateText(when, valid, cfg.location)}},
	})

	flat := flatten(rec.Bindings.Without(cfg.excludedKeys), cfg.maxDepth)
	fields := make([]Field, len(flat))
	for i, ff := range flat {
		fields[i] = Field{
			Title: ff.Path,
			Value: ff.Value,
			Short: utf8.RuneCountInString(ff.Value) < shortFieldLimit,
		}
	}

	var imageURL *string
	if cfg.imageURLKey != "" {
		if v, ok := rec.Bindings.Get(cfg.imageURLKey); ok {
			if s, isString := v.(string); isString {
				imageURL = &s
			}
		}
	}

	if len(fields) > 0 || imageURL != nil {
		attachment := Attachment{Fields: fields, ImageURL: imageURL}
		if level, ok := levelOf(rec.Level); ok {
			attachment.Color = cfg.colors[level]
		}
		payload.Attachments = []Attachment{attachment}
	}
	return payload
}

// truncate keeps the first limit characters of msg and appends an ellipsis
// when anything was cut. limit <= 0 keeps msg intact.
func truncate(msg string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(msg) <= limit {
		return msg
	}
	n := 0
	for i := range msg {
		if n == limit {
			return msg[:i] + truncationMarker
		}
		n++
	}
	return msg
}
