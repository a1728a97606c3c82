package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const screenshotSuffix = "_ss.png"

var orderNumberPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ExtractOrderNumber returns the text of the first <p> in the receipt markup.
// The result is used as a file name, so anything outside [A-Za-z0-9_-] is rejected.
func ExtractOrderNumber(receiptHTML string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(receiptHTML), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOrderNumber, err)
	}

	var first *html.Node
	for _, n := range nodes {
		if first = findFirst(n, atom.P); first != nil {
			break
		}
	}
	if first == nil {
		return "", fmt.Errorf("%w: receipt has no paragraph", ErrInvalidOrderNumber)
	}

	number := strings.TrimSpace(textContent(first))
	if number == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidOrderNumber)
	}
	if !orderNumberPattern.MatchString(number) {
		return "", fmt.Errorf("%w: %q is not a safe file name", ErrInvalidOrderNumber, number)
	}
	return number, nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// receiptDocument wraps the receipt block markup in a standalone page.
func receiptDocument(orderNumber, inner string) (string, error) {
	doc, err := html.Parse(strings.NewReader(
		`<!DOCTYPE html><html><head><meta charset="utf-8"><title></title></head><body></body></html>`))
	if err != nil {
		return "", err
	}

	title := findFirst(doc, atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: "Receipt " + orderNumber})

	body := findFirst(doc, atom.Body)
	receipt := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "id", Val: "receipt"}},
	}
	body.AppendChild(receipt)

	children, err := html.ParseFragment(strings.NewReader(inner), receipt)
	if err != nil {
		return "", err
	}
	for _, c := range children {
		receipt.AppendChild(c)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func receiptPDFPath(config *Config, orderNumber string) string {
	return filepath.Join(config.ReceiptsDir, orderNumber+".pdf")
}

func screenshotPath(config *Config, orderNumber string) string {
	return filepath.Join(config.ReceiptsDir, orderNumber+screenshotSuffix)
}

// storeReceiptAsPDF prints the receipt block to <receipts>/<order>.pdf.
// Page styles are not carried over.
func storeReceiptAsPDF(config *Config, page Page, orderNumber string) (string, error) {
	inner, err := page.InnerHTML(config.Selectors.Receipt, config.DefaultTimeout())
	if err != nil {
		return "", fmt.Errorf("read receipt: %w", err)
	}

	doc, err := receiptDocument(orderNumber, inner)
	if err != nil {
		return "", fmt.Errorf("build receipt document: %w", err)
	}

	path := receiptPDFPath(config, orderNumber)
	if err := page.RenderPDF(doc, path); err != nil {
		return "", fmt.Errorf("render receipt %s: %w", orderNumber, err)
	}
	return path, nil
}

// screenshotRobot captures the robot preview. The page is scrolled to the
// origin first so the bounding box is in document coordinates.
func screenshotRobot(config *Config, page Page, orderNumber string) (string, error) {
	if err := page.ScrollToOrigin(); err != nil {
		return "", fmt.Errorf("scroll to origin: %w", err)
	}

	path := screenshotPath(config, orderNumber)
	if err := page.ScreenshotElement(config.Selectors.RobotPreview, path, config.DefaultTimeout()); err != nil {
		return "", fmt.Errorf("screenshot robot %s: %w", orderNumber, err)
	}
	return path, nil
}

// embedScreenshotToReceipt appends the screenshot as the last page of the
// receipt PDF in place. A failure may leave the PDF partially written.
func embedScreenshotToReceipt(screenshot, pdfFile string) error {
	if _, err := os.Stat(pdfFile); err != nil {
		return fmt.Errorf("%w: receipt %s: %v", ErrFileSystem, pdfFile, err)
	}

	if err := api.ImportImagesFile([]string{screenshot}, pdfFile, pdfcpu.DefaultImportConfig(), nil); err != nil {
		return fmt.Errorf("embed %s into %s: %w", filepath.Base(screenshot), filepath.Base(pdfFile), err)
	}
	return nil
}
