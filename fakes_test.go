package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// fakePortal scripts the order portal behind the Page interface. Each order
// (counted on "Order your robot!" clicks) is rejected failures[i] times before
// being accepted.
type fakePortal struct {
	t   *testing.T
	sel SelectorConfig

	failures   []int
	missing    map[string]bool
	numberFunc func(order int) string

	loggedIn    bool
	order       int
	rejectsLeft int
	outcome     string

	clicks      map[string]int
	calls       []string
	fills       map[string]string
	selected    map[string]string
	checked     map[string]bool
	pageShots   []string
	renderCount int
}

func newFakePortal(t *testing.T, sel SelectorConfig) *fakePortal {
	return &fakePortal{
		t:        t,
		sel:      sel,
		missing:  map[string]bool{},
		clicks:   map[string]int{},
		fills:    map[string]string{},
		selected: map[string]string{},
		checked:  map[string]bool{},
		numberFunc: func(order int) string {
			return fmt.Sprintf("RSB-ROBO-ORDER-%03d", order)
		},
	}
}

func (f *fakePortal) timeout(xpath string) error {
	return fmt.Errorf("%w: %s", ErrElementTimeout, xpath)
}

func (f *fakePortal) Navigate(url string) error {
	f.calls = append(f.calls, "navigate "+url)
	return nil
}

func (f *fakePortal) Click(xpath string, timeout time.Duration) error {
	if f.missing[xpath] {
		return f.timeout(xpath)
	}
	f.calls = append(f.calls, "click "+xpath)
	f.clicks[xpath]++

	switch xpath {
	case f.sel.LoginButton:
		f.loggedIn = true
	case f.sel.HomeLink:
		f.outcome = ""
	case f.sel.OrderLink:
		f.order++
		f.rejectsLeft = 0
		if f.order-1 < len(f.failures) {
			f.rejectsLeft = f.failures[f.order-1]
		}
	case f.sel.SubmitButton:
		if f.rejectsLeft > 0 {
			f.rejectsLeft--
			f.outcome = "failure"
		} else {
			f.outcome = "success"
		}
	}
	return nil
}

func (f *fakePortal) Fill(xpath, value string, timeout time.Duration) error {
	if f.missing[xpath] {
		return f.timeout(xpath)
	}
	f.calls = append(f.calls, "fill "+xpath)
	f.fills[xpath] = value
	return nil
}

func (f *fakePortal) SelectValue(xpath, value string, timeout time.Duration) error {
	if f.missing[xpath] {
		return f.timeout(xpath)
	}
	f.calls = append(f.calls, "select "+xpath)
	f.selected[xpath] = value
	return nil
}

func (f *fakePortal) Check(xpath string, timeout time.Duration) error {
	if f.missing[xpath] {
		return f.timeout(xpath)
	}
	f.calls = append(f.calls, "check "+xpath)
	f.checked[xpath] = true
	return nil
}

func (f *fakePortal) WaitFor(xpath string, timeout time.Duration) error {
	if f.missing[xpath] {
		return f.timeout(xpath)
	}
	switch xpath {
	case f.sel.PostLogin:
		if !f.loggedIn {
			return f.timeout(xpath)
		}
	case f.sel.SuccessMarker + "|" + f.sel.FailureMarker:
		if timeout != 0 {
			f.t.Errorf("submit outcome wait must be unbounded, got %v", timeout)
		}
		if f.outcome == "" {
			f.t.Fatalf("outcome wait would block forever: nothing submitted")
		}
	}
	return nil
}

func (f *fakePortal) IsVisible(xpath string, timeout time.Duration) (bool, error) {
	if xpath == f.sel.SuccessMarker {
		return f.outcome == "success", nil
	}
	return false, nil
}

func (f *fakePortal) InnerHTML(xpath string, timeout time.Duration) (string, error) {
	if f.missing[xpath] {
		return "", f.timeout(xpath)
	}
	if xpath != f.sel.Receipt {
		return "", nil
	}
	return fmt.Sprintf(`<h3>Receipt</h3><div>2026-10-19</div><p class="badge badge-success">%s</p><p>Address 123</p>`,
		f.numberFunc(f.order)), nil
}

func (f *fakePortal) ScrollToOrigin() error {
	f.calls = append(f.calls, "scroll")
	return nil
}

func (f *fakePortal) ScreenshotElement(xpath, path string, timeout time.Duration) error {
	if f.missing[xpath] {
		return f.timeout(xpath)
	}
	writeTestPNG(f.t, path)
	return nil
}

func (f *fakePortal) ScreenshotPage(path string) error {
	writeTestPNG(f.t, path)
	f.pageShots = append(f.pageShots, path)
	return nil
}

// RenderPDF writes a real one-page PDF so the merge step can run on it.
func (f *fakePortal) RenderPDF(html, path string) error {
	f.renderCount++
	img := filepath.Join(f.t.TempDir(), "render.png")
	writeTestPNG(f.t, img)
	return api.ImportImagesFile([]string{img}, path, pdfcpu.DefaultImportConfig(), nil)
}

type fakeSession struct {
	page     Page
	setupErr error
	closed   bool
}

func (s *fakeSession) Setup() error { return s.setupErr }
func (s *fakeSession) Page() Page   { return s.page }
func (s *fakeSession) Close()       { s.closed = true }

func writeTestPNG(t *testing.T, path string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: 80, B: uint8(y * 16), A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func quietLogger() *Logger {
	l := NewLogger(true)
	l.out = io.Discard
	return l
}

// testConfig points every output path into a temp dir.
func testConfig(t *testing.T) *Config {
	t.Helper()

	dir := t.TempDir()
	config := DefaultConfig()
	config.BrowserProfilePath = ""
	config.DownloadDir = filepath.Join(dir, "downloads")
	config.OutputDir = filepath.Join(dir, "output")
	config.ReceiptsDir = filepath.Join(dir, "output", "receipts")
	config.ArchivePath = filepath.Join(dir, "output", "receipts.zip")
	config.FailuresDir = filepath.Join(dir, "output", "failures")
	return config
}
