package lark2html

import (
	"context"
	"encoding/base64"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestInlineImages(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addDoc(testDocToken, "t",
		page(testDocToken, "i1", "p", "i2", "i3"),
		image("i1", "boxA"),
		block("p", 2, "text", "between"),
		image("i2", "boxB"),
		image("i3", "boxA"),
	)
	api.media["boxA"] = "AAA"
	api.media["boxB"] = "BBBB"

	e := newTestExtractor(t, api, WithImageWorkers(2))
	doc, err := e.Extract(context.Background(), testDocURL)
	if err != nil {
		t.Fatal(err)
	}

	if err := e.InlineImages(context.Background(), doc); err != nil {
		t.Fatalf("InlineImages() error: %v", err)
	}

	dataA := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("AAA"))
	dataB := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("BBBB"))

	gotSrc := []string{doc.Images[0].Src, doc.Images[1].Src, doc.Images[2].Src}
	if want := []string{dataA, dataB, dataA}; !reflect.DeepEqual(gotSrc, want) {
		t.Errorf("Src = %q, want %q", gotSrc, want)
	}
	if got := strings.Count(doc.ContentHTML, `src="`+dataA+`"`); got != 2 {
		t.Errorf("boxA src count = %d, want 2\n%s", got, doc.ContentHTML)
	}
	if !strings.Contains(doc.ContentHTML, `src="`+dataB+`"`) {
		t.Errorf("boxB src missing\n%s", doc.ContentHTML)
	}
	if got := api.mediaCalls.Load(); got != 2 {
		t.Errorf("media downloads = %d, want 2 (one per distinct token)", got)
	}
}

func TestInlineImages_FailureLeavesDocumentUnchanged(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.addDoc(testDocToken, "t",
		page(testDocToken, "i1", "i2"),
		image("i1", "boxA"),
		image("i2", "boxMissing"),
	)
	api.media["boxA"] = "AAA"

	e := newTestExtractor(t, api)
	doc, err := e.Extract(context.Background(), testDocURL)
	if err != nil {
		t.Fatal(err)
	}
	before := *doc
	beforeImages := append([]Image(nil), doc.Images...)

	err = e.InlineImages(context.Background(), doc)
	if !errors.Is(err, ErrMediaDownload) {
		t.Fatalf("InlineImages() error = %v, want ErrMediaDownload", err)
	}
	if doc.ContentHTML != before.ContentHTML || !reflect.DeepEqual(doc.Images, beforeImages) {
		t.Error("document was modified by a failed InlineImages")
	}
}

func TestInlineImages_NoImages(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(t, newFakeAPI())
	doc := &ExtractedDocument{ContentHTML: "<p>x</p>", Images: []Image{}}
	if err := e.InlineImages(context.Background(), doc); err != nil {
		t.Errorf("InlineImages() error: %v", err)
	}
	if err := e.InlineImages(context.Background(), nil); !errors.Is(err, ErrNilDocument) {
		t.Errorf("nil document error = %v", err)
	}
}

func TestDownloadMedia(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.media["boxA"] = "AAA"
	e := newTestExtractor(t, api)

	media, err := e.DownloadMedia(context.Background(), "boxA")
	if err != nil {
		t.Fatalf("DownloadMedia() error: %v", err)
	}
	if media.MIMEType != "image/png" || media.Size != 3 {
		t.Errorf("media = %+v", media)
	}

	if _, err := e.DownloadMedia(context.Background(), "nope"); !errors.Is(err, ErrMediaDownload) {
		t.Errorf("missing media error = %v", err)
	}
}

func TestCheckCredentials(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	if err := newTestExtractor(t, api).CheckCredentials(context.Background()); err != nil {
		t.Errorf("CheckCredentials() error: %v", err)
	}
	if api.tokenCalls.Load() != 1 {
		t.Errorf("token calls = %d", api.tokenCalls.Load())
	}
}
