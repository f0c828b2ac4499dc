package firecrawl

import (
	"bytes"
	"encoding/json"
)

// UnmarshalJSON decodes a scrape response without failing on field types.
// Success is set only for a JSON true, Data only for a JSON object and
// Error only for a JSON string. A body that is valid JSON but not an object
// yields a zero response, which callers treat as a provider failure.
func (r *ScrapeResponse) UnmarshalJSON(b []byte) error {
	*r = ScrapeResponse{}

	fields, err := rawObject(b)
	if err != nil || fields == nil {
		return err
	}

	r.Success = bytes.Equal(bytes.TrimSpace(fields["success"]), []byte("true"))
	r.Error, _ = rawString(fields["error"])

	data, _ := rawObject(fields["data"])
	if data == nil {
		return nil
	}
	r.Data = &PageData{}
	r.Data.Markdown, _ = rawString(data["markdown"])

	meta, _ := rawObject(data["metadata"])
	if meta == nil {
		return nil
	}
	r.Data.Metadata = &Metadata{}
	r.Data.Metadata.Title, _ = rawString(meta["title"])
	r.Data.Metadata.SourceURL, _ = rawString(meta["sourceURL"])
	if code, ok := rawInt(meta["statusCode"]); ok {
		r.Data.Metadata.StatusCode = code
	}
	return nil
}

// rawObject returns the members of a JSON object, or nil when raw holds any
// other JSON value. Only malformed JSON is an error.
func rawObject(raw json.RawMessage) (map[string]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] != '{' {
		var v any
		return nil, json.Unmarshal(raw, &v)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func rawString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func rawInt(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(bytes.TrimSpace(raw), &n); err != nil {
		return 0, false
	}
	return n, true
}
