package assets

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestEmbedded - Built-in Assets
// ---------------------------------------------------------------------------

func TestLoadStyle_Embedded(t *testing.T) {
	t.Parallel()

	for _, name := range []string{DefaultStyleName, MinimalStyleName} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			css, err := LoadStyle(name)
			if err != nil {
				t.Fatalf("LoadStyle(%q) error: %v", name, err)
			}
			if !strings.Contains(css, ".feishu-") {
				t.Errorf("style %q does not target the feishu-* vocabulary", name)
			}
		})
	}
}

func TestLoadStyle_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"unknown", "nonexistent", ErrStyleNotFound},
		{"empty", "", ErrInvalidAssetName},
		{"traversal", "../default", ErrInvalidAssetName},
		{"extension", "default.css", ErrInvalidAssetName},
		{"backslash", `a\b`, ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := LoadStyle(tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadStyle(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestLoadTemplate_Document(t *testing.T) {
	t.Parallel()

	tmpl, err := LoadTemplate(DocumentTemplate)
	if err != nil {
		t.Fatalf("LoadTemplate() error: %v", err)
	}
	for _, want := range []string{"<!DOCTYPE html>", "{{.Title}}", "{{.Body}}", "</head>"} {
		if !strings.Contains(tmpl, want) {
			t.Errorf("document template missing %q", want)
		}
	}

	if _, err := LoadTemplate("cover"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadTemplate(cover) error = %v, want ErrTemplateNotFound", err)
	}
}

func TestStyleNames(t *testing.T) {
	t.Parallel()

	got := StyleNames()
	if !slices.Equal(got, []string{"default", "minimal"}) {
		t.Errorf("StyleNames() = %v", got)
	}
}

// ---------------------------------------------------------------------------
// TestDirLoader - Custom Directory
// ---------------------------------------------------------------------------

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewDirLoader(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "file.txt")
	writeFile(t, filePath, "x")

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid directory", tmpDir, false},
		{"empty path", "", true},
		{"missing directory", filepath.Join(tmpDir, "nope"), true},
		{"file instead of directory", filePath, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewDirLoader(tt.path)
			if tt.wantErr && !errors.Is(err, ErrInvalidBasePath) {
				t.Errorf("error = %v, want ErrInvalidBasePath", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDirLoader_Load(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, filepath.Join(base, "styles", "brand.css"), ".feishu-doc{color:red}")
	writeFile(t, filepath.Join(base, "templates", "page.html"), "<html>{{.Body}}</html>")

	loader, err := NewDirLoader(base)
	if err != nil {
		t.Fatal(err)
	}

	if css, err := loader.LoadStyle("brand"); err != nil || !strings.Contains(css, "color:red") {
		t.Errorf("LoadStyle(brand) = %q, %v", css, err)
	}
	if tmpl, err := loader.LoadTemplate("page"); err != nil || !strings.Contains(tmpl, "{{.Body}}") {
		t.Errorf("LoadTemplate(page) = %q, %v", tmpl, err)
	}
	if _, err := loader.LoadStyle("missing"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadStyle(missing) error = %v", err)
	}
	if _, err := loader.LoadTemplate("missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadTemplate(missing) error = %v", err)
	}
	if got := loader.StyleNames(); !slices.Equal(got, []string{"brand"}) {
		t.Errorf("StyleNames() = %v", got)
	}
}

func TestDirLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}

	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.css"), "secret")

	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "styles"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.css"), filepath.Join(base, "styles", "evil.css")); err != nil {
		t.Fatal(err)
	}

	loader, err := NewDirLoader(base)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loader.LoadStyle("evil"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadStyle(evil) error = %v, want ErrPathTraversal", err)
	}
}

// ---------------------------------------------------------------------------
// TestOverlay - Custom First, Embedded Fallback
// ---------------------------------------------------------------------------

func TestOverlay(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	writeFile(t, filepath.Join(base, "styles", "default.css"), "/* override */")

	overlay, err := NewOverlay(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(overlay.layers) != 2 {
		t.Fatalf("layers = %d, want custom and embedded", len(overlay.layers))
	}

	if css, _ := overlay.LoadStyle("default"); css != "/* override */" {
		t.Errorf("custom style should win, got %.40q", css)
	}
	if css, err := overlay.LoadStyle("minimal"); err != nil || !strings.Contains(css, "feishu") {
		t.Errorf("missing custom style should fall back to embedded: %v", err)
	}
	if _, err := overlay.LoadTemplate(DocumentTemplate); err != nil {
		t.Errorf("LoadTemplate fallback error: %v", err)
	}
	if _, err := overlay.LoadStyle("../x"); !errors.Is(err, ErrInvalidAssetName) {
		t.Errorf("validation errors must not fall back, got %v", err)
	}
	if _, err := overlay.LoadStyle("nowhere"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("absent everywhere should report ErrStyleNotFound, got %v", err)
	}
}

func TestNewOverlay_EmbeddedOnly(t *testing.T) {
	t.Parallel()

	overlay, err := NewOverlay("")
	if err != nil {
		t.Fatal(err)
	}
	if len(overlay.layers) != 1 {
		t.Errorf("empty path should leave only the embedded layer, got %d", len(overlay.layers))
	}
	if _, err := NewOverlay(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrInvalidBasePath) {
		t.Errorf("error = %v, want ErrInvalidBasePath", err)
	}
}
