package showdown

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNewComparisonRequest(t *testing.T) {
	ids := []string{"sd", "dalle"}
	req, err := NewComparisonRequest("a cat", ids)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if req.ID() == "" {
		t.Error("expected request id")
	}
	if req.Prompt() != "a cat" {
		t.Errorf("unexpected prompt %q", req.Prompt())
	}
	if req.CreatedAt().IsZero() {
		t.Error("expected creation time")
	}

	ids[0] = "mutated"
	got := req.ProviderIDs()
	if !reflect.DeepEqual(got, []string{"sd", "dalle"}) {
		t.Errorf("request should own its ids, got %v", got)
	}
	got[1] = "mutated"
	if req.ProviderIDs()[1] != "dalle" {
		t.Error("ProviderIDs should return a copy")
	}

	other, _ := NewComparisonRequest("a cat", []string{"sd", "dalle"})
	if other.ID() == req.ID() {
		t.Error("request ids should be unique")
	}
}

func TestNewComparisonRequest_Invalid(t *testing.T) {
	if _, err := NewComparisonRequest("", []string{"sd", "mj"}); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("expected ErrEmptyPrompt, got %v", err)
	}
	if _, err := NewComparisonRequest("cat", []string{"sd"}); !errors.Is(err, ErrTooFewProviders) {
		t.Errorf("expected ErrTooFewProviders, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   Status
		wantOK bool
	}{
		{"pending", StatusPending, true},
		{"success", StatusSuccess, true},
		{"error", StatusError, true},
		{"done", StatusError, false},
		{"", StatusError, false},
		{"SUCCESS", StatusError, false},
	}
	for _, tt := range tests {
		got, ok := ParseStatus(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseStatus(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestProviderResult_Display(t *testing.T) {
	tests := []struct {
		result ProviderResult
		want   Display
	}{
		{PendingResult("sd"), DisplayLoading},
		{SuccessResult("sd", "u1"), DisplayImage},
		{FailureResult("sd", "boom"), DisplayError},
		{ProviderResult{ProviderID: "sd", Status: "weird"}, DisplayError},
	}
	for _, tt := range tests {
		if got := tt.result.Display(); got != tt.want {
			t.Errorf("%+v.Display() = %v, want %v", tt.result, got, tt.want)
		}
	}
}

func TestCatalog(t *testing.T) {
	c, err := NewCatalog(
		Provider{ID: " sd ", Name: "Stable Diffusion"},
		Provider{ID: "fal"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, ok := c.Lookup("sd")
	if !ok || p.Name != "Stable Diffusion" {
		t.Errorf("expected trimmed id lookup, got %+v %v", p, ok)
	}
	if p, _ := c.Lookup("fal"); p.Name != "fal" {
		t.Errorf("unnamed provider should be labelled with its id, got %q", p.Name)
	}
	if _, ok := c.Lookup("mj"); ok {
		t.Error("unexpected provider")
	}

	providers := c.Providers()
	providers[0].ID = "changed"
	if c.Providers()[0].ID != "sd" {
		t.Error("Providers should return a copy")
	}
}

func TestCatalog_Invalid(t *testing.T) {
	if _, err := NewCatalog(Provider{ID: "sd"}, Provider{ID: "sd"}); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("expected ErrInvalidCatalog for duplicates, got %v", err)
	}
	if _, err := NewCatalog(Provider{ID: "  "}); !errors.Is(err, ErrInvalidCatalog) {
		t.Errorf("expected ErrInvalidCatalog for empty id, got %v", err)
	}
}

func TestGeneratedImage_ImageURL(t *testing.T) {
	tests := []struct {
		name string
		img  GeneratedImage
		want string
	}{
		{"hosted", GeneratedImage{URL: "https://x/y.png", Data: []byte{1}}, "https://x/y.png"},
		{"inline default mime", GeneratedImage{Data: []byte("hi")}, "data:image/png;base64,aGk="},
		{"inline jpeg", GeneratedImage{Data: []byte("hi"), MIMEType: "image/jpeg"}, "data:image/jpeg;base64,aGk="},
		{"empty", GeneratedImage{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.img.ImageURL(); got != tt.want {
				t.Errorf("ImageURL() = %q, want %q", got, tt.want)
			}
		})
	}

	result := &GenerateResult{Images: []GeneratedImage{{}, {URL: "second"}}}
	if got := result.FirstImageURL(); got != "second" {
		t.Errorf("FirstImageURL() = %q, want second", got)
	}
	var none *GenerateResult
	if none.FirstImageURL() != "" {
		t.Error("nil result should have no image")
	}
}

func TestMIMETypeFromPath(t *testing.T) {
	for path, want := range map[string]string{
		"a.JPG":  "image/jpeg",
		"a.jpeg": "image/jpeg",
		"a.webp": "image/webp",
		"a.gif":  "image/gif",
		"a.png":  "image/png",
		"a":      "image/png",
	} {
		if got := MIMETypeFromPath(path); got != want {
			t.Errorf("MIMETypeFromPath(%q) = %q, want %q", path, got, want)
		}
	}
	if !strings.HasPrefix(MIMETypeFromPath("x.png"), "image/") {
		t.Error("expected image mime type")
	}
}
