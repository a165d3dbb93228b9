package pipeline

import (
	"strings"
	"testing"
)

func TestSetImageSources(t *testing.T) {
	t.Parallel()

	const dataURL = "data:image/png;base64,iVBORw0KGgo="

	tests := []struct {
		name         string
		html         string
		sources      map[string]string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "fragment image gets src",
			html:         `<figure class="feishu-image"><img data-feishu-token="boxA" data-feishu-block-id="b1" alt="" /></figure>`,
			sources:      map[string]string{"boxA": dataURL},
			wantContains: []string{`src="` + dataURL + `"`, `data-feishu-token="boxA"`, `<figure class="feishu-image">`},
			wantExcludes: []string{"<html", "<body"},
		},
		{
			name:         "existing src replaced",
			html:         `<img data-feishu-token="boxA" src="old.png">`,
			sources:      map[string]string{"boxA": dataURL},
			wantContains: []string{`src="` + dataURL + `"`},
			wantExcludes: []string{"old.png"},
		},
		{
			name:         "unknown token untouched",
			html:         `<img data-feishu-token="boxB" alt="x">`,
			sources:      map[string]string{"boxA": dataURL},
			wantExcludes: []string{"src="},
		},
		{
			name:         "empty source ignored",
			html:         `<img data-feishu-token="boxA">`,
			sources:      map[string]string{"boxA": ""},
			wantExcludes: []string{"src="},
		},
		{
			name:         "image without token untouched",
			html:         `<img src="https://cdn/x.png">`,
			sources:      map[string]string{"": dataURL},
			wantContains: []string{`src="https://cdn/x.png"`},
			wantExcludes: []string{dataURL},
		},
		{
			name:         "empty token attribute untouched",
			html:         `<img data-feishu-token="" src="keep.png">`,
			sources:      map[string]string{"": dataURL},
			wantContains: []string{`src="keep.png"`},
			wantExcludes: []string{dataURL},
		},
		{
			name:         "full document keeps its shell",
			html:         `<!DOCTYPE html><html><head><title>t</title></head><body><p><img data-feishu-token="boxA"></p></body></html>`,
			sources:      map[string]string{"boxA": dataURL},
			wantContains: []string{"<!DOCTYPE html>", "<title>t</title>", `src="` + dataURL + `"`},
		},
		{
			name:         "nested in table",
			html:         `<table><tbody><tr><td><img data-feishu-token="boxA"></td></tr></tbody></table>`,
			sources:      map[string]string{"boxA": dataURL},
			wantContains: []string{`<td><img data-feishu-token="boxA" src="` + dataURL + `"/></td>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := SetImageSources(tt.html, tt.sources)
			if err != nil {
				t.Fatalf("SetImageSources() error: %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("result missing %q\n%s", want, got)
				}
			}
			for _, bad := range tt.wantExcludes {
				if strings.Contains(got, bad) {
					t.Errorf("result should not contain %q\n%s", bad, got)
				}
			}
		})
	}
}

func TestSetImageSources_NoSourcesIsIdentity(t *testing.T) {
	t.Parallel()

	in := `<p>a<br />b</p><img data-feishu-token="x" alt="" />`
	got, err := SetImageSources(in, nil)
	if err != nil || got != in {
		t.Errorf("SetImageSources(nil) = %q, %v; want input unchanged", got, err)
	}
}
