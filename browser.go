package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Page is the single browser tab shared by every pipeline stage.
// Selectors are XPath expressions. A zero timeout waits without bound.
type Page interface {
	Navigate(url string) error
	Click(xpath string, timeout time.Duration) error
	Fill(xpath, value string, timeout time.Duration) error
	SelectValue(xpath, value string, timeout time.Duration) error
	Check(xpath string, timeout time.Duration) error
	WaitFor(xpath string, timeout time.Duration) error
	IsVisible(xpath string, timeout time.Duration) (bool, error)
	InnerHTML(xpath string, timeout time.Duration) (string, error)
	ScrollToOrigin() error
	ScreenshotElement(xpath, path string, timeout time.Duration) error
	ScreenshotPage(path string) error
	RenderPDF(html, path string) error
}

// BrowserSession owns the browser process for one run.
type BrowserSession interface {
	Setup() error
	Page() Page
	Close()
}

type Browser struct {
	config   *Config
	log      *Logger
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
}

func NewBrowser(config *Config, log *Logger) *Browser {
	return &Browser{
		config: config,
		log:    log,
	}
}

func (b *Browser) Setup() error {
	b.log.Info(T("browser_launching"))

	// Leakless deadlocks on Windows, see https://github.com/go-rod/rod/issues/853
	useLeakless := runtime.GOOS != "windows"

	chromePath, chromeExists := launcher.LookPath()

	b.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(b.config.Headless)

	// Must be set before Bin()
	if b.config.BrowserProfilePath != "" {
		b.launcher = b.launcher.UserDataDir(b.config.BrowserProfilePath)
		b.log.Debugf("Browser profile: %s", b.config.BrowserProfilePath)
	}

	if chromeExists {
		b.launcher = b.launcher.Bin(chromePath)
		b.log.Info(T("browser_using_system_chrome"))
		b.log.Debugf("Chrome path: %s", chromePath)
	} else {
		b.log.Info(T("browser_chrome_not_found"))
	}

	if !useLeakless {
		b.log.Info(T("browser_windows_leakless_disabled"))
	}

	url, err := b.launcher.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	b.browser = rod.New().
		ControlURL(url).
		SlowMotion(b.config.SlowMotion()).
		Trace(b.config.DebugMode)
	if err := b.browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	b.page, err = stealth.Page(b.browser)
	if err != nil {
		return fmt.Errorf("failed to create stealth page: %w", err)
	}

	b.log.Info(T("browser_launched"))
	return nil
}

func (b *Browser) Page() Page {
	return &rodPage{browser: b.browser, page: b.page}
}

func (b *Browser) Close() {
	b.log.Info(T("cleaning_up"))

	if b.page != nil {
		b.page.Close()
	}

	if b.browser != nil {
		b.browser.Close()
	}

	if b.launcher != nil {
		b.launcher.Cleanup()
	}

	b.log.Info(T("browser_destroyed"))
}

type rodPage struct {
	browser *rod.Browser
	page    *rod.Page
}

// scoped returns the page bound to timeout and the func that releases the
// timer. Elements found through the scoped page share its deadline, so done
// must run only after the element work is finished.
func (p *rodPage) scoped(timeout time.Duration) (page *rod.Page, done func()) {
	if timeout <= 0 {
		return p.page, func() {}
	}
	page = p.page.Timeout(timeout)
	return page, func() { page.CancelTimeout() }
}

func (p *rodPage) elementX(xpath string, timeout time.Duration) (*rod.Element, func(), error) {
	page, done := p.scoped(timeout)
	el, err := page.ElementX(xpath)
	if err != nil {
		done()
		return nil, nil, asElementTimeout(xpath, err)
	}
	return el, done, nil
}

func (p *rodPage) Navigate(url string) error {
	if err := p.page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.page.WaitLoad(); err != nil {
		return fmt.Errorf("page failed to load: %w", err)
	}
	return nil
}

func (p *rodPage) Click(xpath string, timeout time.Duration) error {
	el, done, err := p.elementX(xpath, timeout)
	if err != nil {
		return err
	}
	defer done()
	return asElementTimeout(xpath, el.Click(proto.InputMouseButtonLeft, 1))
}

func (p *rodPage) Fill(xpath, value string, timeout time.Duration) error {
	el, done, err := p.elementX(xpath, timeout)
	if err != nil {
		return err
	}
	defer done()
	if err := el.SelectAllText(); err != nil {
		return asElementTimeout(xpath, err)
	}
	return asElementTimeout(xpath, el.Input(value))
}

// SelectValue picks the <option> whose value attribute equals value.
// Callers must allow-list value first.
func (p *rodPage) SelectValue(xpath, value string, timeout time.Duration) error {
	el, done, err := p.elementX(xpath, timeout)
	if err != nil {
		return err
	}
	defer done()
	option := fmt.Sprintf(`[value="%s"]`, value)
	return asElementTimeout(xpath, el.Select([]string{option}, true, rod.SelectorTypeCSSSector))
}

func (p *rodPage) Check(xpath string, timeout time.Duration) error {
	el, done, err := p.elementX(xpath, timeout)
	if err != nil {
		return err
	}
	defer done()
	checked, err := el.Property("checked")
	if err != nil {
		return asElementTimeout(xpath, err)
	}
	if checked.Bool() {
		return nil
	}
	return asElementTimeout(xpath, el.Click(proto.InputMouseButtonLeft, 1))
}

func (p *rodPage) WaitFor(xpath string, timeout time.Duration) error {
	_, done, err := p.elementX(xpath, timeout)
	if err != nil {
		return err
	}
	done()
	return nil
}

func (p *rodPage) IsVisible(xpath string, timeout time.Duration) (bool, error) {
	page, done := p.scoped(timeout)
	defer done()

	has, el, err := page.HasX(xpath)
	if err != nil {
		return false, asElementTimeout(xpath, err)
	}
	if !has {
		return false, nil
	}
	return el.Visible()
}

func (p *rodPage) InnerHTML(xpath string, timeout time.Duration) (string, error) {
	el, done, err := p.elementX(xpath, timeout)
	if err != nil {
		return "", err
	}
	defer done()
	html, err := el.Property("innerHTML")
	if err != nil {
		return "", asElementTimeout(xpath, err)
	}
	return html.Str(), nil
}

func (p *rodPage) ScrollToOrigin() error {
	_, err := p.page.Eval(`() => window.scrollTo({top: 0, left: 0, behavior: "instant"})`)
	return err
}

// ScreenshotElement captures a PNG clipped to the element's bounding box.
func (p *rodPage) ScreenshotElement(xpath, path string, timeout time.Duration) error {
	el, done, err := p.elementX(xpath, timeout)
	if err != nil {
		return err
	}
	defer done()
	shape, err := el.Shape()
	if err != nil {
		return asElementTimeout(xpath, err)
	}
	box := shape.Box()
	if box == nil {
		return fmt.Errorf("%w: %s has no bounding box", ErrElementTimeout, xpath)
	}

	data, err := p.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  1,
		},
		CaptureBeyondViewport: true,
	})
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (p *rodPage) ScreenshotPage(path string) error {
	data, err := p.page.Screenshot(true, nil)
	if err != nil {
		return fmt.Errorf("failed to capture page: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// RenderPDF prints html to path using a scratch tab so the shared page
// keeps its navigation state.
func (p *rodPage) RenderPDF(html, path string) error {
	tab, err := p.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return fmt.Errorf("failed to open render tab: %w", err)
	}
	defer tab.Close()

	if err := tab.SetDocumentContent(html); err != nil {
		return fmt.Errorf("failed to load receipt markup: %w", err)
	}

	stream, err := tab.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return fmt.Errorf("failed to print pdf: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, stream)
	return err
}
