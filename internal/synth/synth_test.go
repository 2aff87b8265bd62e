package synth

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"netmock/pkg/traffic"
)

func TestStaticContent(t *testing.T) {
	tt := []struct {
		name     string
		status   int
		content  any
		wantCode int
		wantBody string
		wantType string
	}{
		{"DefaultStatus", 0, "baz", 200, "baz", "text/plain"},
		{"Text", 404, "not found", 404, "not found", "text/plain"},
		{"Bytes", 200, []byte("eldr\xc3\xa4v"), 200, "eldräv", "text/plain"},
		{"Empty", 204, nil, 204, "", "text/plain"},
		{"Structured", 200, map[string]string{"foo": "bar"}, 200, `{"foo":"bar"}`, "application/json"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := NewSpec(tc.status, tc.content, "", nil)
			if err != nil {
				t.Fatalf("NewSpec: %v", err)
			}
			res, err := Synthesize(context.Background(), spec, traffic.NewRequest(), nil)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if res.StatusCode != tc.wantCode {
				t.Errorf("StatusCode = %d, want %d", res.StatusCode, tc.wantCode)
			}
			if res.Text() != tc.wantBody {
				t.Errorf("Body = %q, want %q", res.Text(), tc.wantBody)
			}
			if got := res.Headers.Get("Content-Type"); got != tc.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tc.wantType)
			}
		})
	}
}

func TestHeaderMerge(t *testing.T) {
	tt := []struct {
		name        string
		headers     map[string]string
		contentType string
		want        map[string]string
	}{
		{
			"DefaultPlusCustom",
			map[string]string{"X-Foo": "bar"},
			"",
			map[string]string{"content-type": "text/plain", "x-foo": "bar"},
		},
		{
			"HeadersOverrideDefault",
			map[string]string{"Content-Type": "foo/bar", "X-Foo": "bar"},
			"",
			map[string]string{"content-type": "foo/bar", "x-foo": "bar"},
		},
		{
			"ContentTypeOverridesAll",
			map[string]string{"Content-Type": "foo/bar", "X-Foo": "bar"},
			"ham/spam",
			map[string]string{"content-type": "ham/spam", "x-foo": "bar"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := NewSpec(0, nil, tc.contentType, tc.headers)
			if err != nil {
				t.Fatalf("NewSpec: %v", err)
			}
			res, err := Synthesize(context.Background(), spec, traffic.NewRequest(), nil)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}
			if !reflect.DeepEqual(map[string]string(res.Headers), tc.want) {
				t.Errorf("Headers = %v, want %v", res.Headers, tc.want)
			}
		})
	}
}

func TestStructuredRoundTrip(t *testing.T) {
	content := map[string]any{"spam": "lots", "ham": "no, only spam"}
	spec, err := NewSpec(0, content, "", nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	res, err := Synthesize(context.Background(), spec, traffic.NewRequest(), nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	var got map[string]any
	if err := res.JSON(&got); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !reflect.DeepEqual(got, content) {
		t.Errorf("round trip = %v, want %v", got, content)
	}
}

func TestErrorContent(t *testing.T) {
	boom := errors.New("connection timeout")
	spec, err := NewSpec(0, boom, "", nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	if !spec.IsError() {
		t.Error("IsError should report true")
	}
	res, err := Synthesize(context.Background(), spec, traffic.NewRequest(), nil)
	if res != nil {
		t.Error("no response expected for error content")
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want the configured error verbatim", err)
	}
}

func TestInvalidContent(t *testing.T) {
	if _, err := NewSpec(0, make(chan int), "", nil); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("err = %v, want ErrInvalidContent", err)
	}
}

func TestComputedContent(t *testing.T) {
	spec, err := NewSpec(0, func(_ context.Context, _ *traffic.Request, captures map[string]string) (any, error) {
		return "hello " + captures["slug"], nil
	}, "", nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	res, err := Synthesize(context.Background(), spec, traffic.NewRequest(), map[string]string{"slug": "world"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Text() != "hello world" {
		t.Errorf("Body = %q, want %q", res.Text(), "hello world")
	}
}

func TestComputedFullResponse(t *testing.T) {
	spec, err := NewSpec(202, func(_ context.Context, req *traffic.Request, _ map[string]string) (any, error) {
		out := traffic.NewResponse()
		out.StatusCode = 0 // 跟随规格状态码
		out.Headers.Set("X-Foo", "bar")
		out.Body = []byte("hello lundberg")
		return out, nil
	}, "", map[string]string{"X-Ham": "spam"})
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	res, err := Synthesize(context.Background(), spec, traffic.NewRequest(), nil)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.StatusCode != 202 {
		t.Errorf("StatusCode = %d, want 202", res.StatusCode)
	}
	if res.Text() != "hello lundberg" {
		t.Errorf("Body = %q", res.Text())
	}
	for k, want := range map[string]string{"Content-Type": "text/plain", "X-Ham": "spam", "X-Foo": "bar"} {
		if got := res.Headers.Get(k); got != want {
			t.Errorf("Headers[%s] = %q, want %q", k, got, want)
		}
	}
}

func TestComputedError(t *testing.T) {
	boom := errors.New("simulated failure")
	spec, err := NewSpec(0, func(context.Context, *traffic.Request, map[string]string) (any, error) {
		return nil, boom
	}, "", nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	if _, err := Synthesize(context.Background(), spec, traffic.NewRequest(), nil); !errors.Is(err, boom) {
		t.Errorf("err = %v, want the callback error verbatim", err)
	}
}

func TestPatchJSON(t *testing.T) {
	out, err := PatchJSON([]byte(`{"greeting":""}`), map[string]any{"greeting": "hello world", "extra.n": 2})
	if err != nil {
		t.Fatalf("PatchJSON: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["greeting"] != "hello world" {
		t.Errorf("greeting = %v", got["greeting"])
	}
	extra, ok := got["extra"].(map[string]any)
	if !ok || extra["n"] != float64(2) {
		t.Errorf("extra = %v", got["extra"])
	}
}
