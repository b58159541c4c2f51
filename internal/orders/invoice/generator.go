package invoice

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/orders/domain"
)

const controlPrefix = "Código de control: "

var ErrMissingSecret = errors.New("invoice secret is required")

// Generator renders orders into signed plain-text receipts.
type Generator struct {
	secret []byte
	dir    string
	clock  clock.Clock
}

// NewGenerator returns a generator signing with secret. Relative paths passed
// to Write are resolved under dir when dir is set.
func NewGenerator(secret, dir string, clk clock.Clock) (*Generator, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Generator{secret: []byte(secret), dir: dir, clock: clk}, nil
}

// Body renders everything above the control line.
func Body(order *domain.Order) []byte {
	var b bytes.Buffer
	b.WriteString("=== FACTURA ===\n")
	fmt.Fprintf(&b, "ID: %s\n", order.ID)
	fmt.Fprintf(&b, "Cliente: %s\n", order.Customer.Name)
	b.WriteString("Items:\n")
	for _, item := range order.Items() {
		fmt.Fprintf(&b, "- %s x%d = $%.2f\n", item.ProductName, item.Quantity, item.LineTotal())
	}
	fmt.Fprintf(&b, "Subtotal: $%.2f\n", order.Subtotal())
	fmt.Fprintf(&b, "Descuento: %s%%\n", strconv.FormatFloat(order.Discount(), 'f', -1, 64))
	fmt.Fprintf(&b, "Impuesto: %.2f%%\n", order.TaxRate()*100)
	fmt.Fprintf(&b, "Total: $%.2f\n", order.Total())
	fmt.Fprintf(&b, "Método de pago: %s\n", order.Payment().DisplayName())
	return b.Bytes()
}

// Sign returns the lowercase hex HMAC-SHA256 of body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Render returns the full document and its control code.
func (g *Generator) Render(order *domain.Order) ([]byte, string) {
	body := Body(order)
	code := Sign(g.secret, body)

	doc := make([]byte, 0, len(body)+len(controlPrefix)+len(code)+1)
	doc = append(doc, body...)
	doc = append(doc, controlPrefix...)
	doc = append(doc, code...)
	doc = append(doc, '\n')
	return doc, code
}

// Write renders order and replaces any file at path. path is resolved under
// the output directory and must stay inside it: absolute paths and paths
// climbing out with ".." are rejected, and the write goes through an os.Root
// so symlinks cannot lead outside either.
func (g *Generator) Write(_ context.Context, order *domain.Order, path string) (domain.Invoice, error) {
	rel, err := LocalPath(path)
	if err != nil {
		return domain.Invoice{}, err
	}

	base := g.dir
	if base == "" {
		base = "."
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return domain.Invoice{}, fmt.Errorf("%w: create %s: %w", domain.ErrIOFailure, base, err)
	}
	root, err := os.OpenRoot(base)
	if err != nil {
		return domain.Invoice{}, fmt.Errorf("%w: open %s: %w", domain.ErrIOFailure, base, err)
	}
	defer root.Close()

	doc, code := g.Render(order)

	if dir := filepath.Dir(rel); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return domain.Invoice{}, fmt.Errorf("%w: create %s: %w", domain.ErrIOFailure, dir, err)
		}
	}
	if err := root.WriteFile(rel, doc, 0o644); err != nil {
		return domain.Invoice{}, fmt.Errorf("%w: write %s: %w", domain.ErrIOFailure, rel, err)
	}

	return domain.Invoice{
		OrderID:     order.ID,
		Path:        filepath.Join(base, rel),
		ControlCode: code,
		Total:       order.Total(),
		IssuedAt:    g.clock.Now(),
	}, nil
}

// Discard removes a written invoice. A file that is already gone is not an error.
func (g *Generator) Discard(_ context.Context, invoice domain.Invoice) error {
	if err := os.Remove(invoice.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", domain.ErrIOFailure, invoice.Path, err)
	}
	return nil
}

// LocalPath cleans path and rejects anything that would not stay inside the
// invoice output directory.
func LocalPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: invoice path is required", domain.ErrInvalidArgument)
	}
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("%w: invoice path %q must be relative to the invoice directory", domain.ErrInvalidArgument, path)
	}
	return filepath.Clean(path), nil
}

// Verify reports whether the trailing control line of document matches the body.
func (g *Generator) Verify(document []byte) (bool, error) {
	return Verify(g.secret, document)
}

// Verify recomputes the control code of document under secret.
func Verify(secret, document []byte) (bool, error) {
	idx := bytes.LastIndex(document, []byte("\n"+controlPrefix))
	if idx < 0 {
		return false, fmt.Errorf("%w: control line not found", domain.ErrInvalidArgument)
	}

	body := document[:idx+1]
	stored := bytes.TrimRight(document[idx+1+len(controlPrefix):], "\r\n")

	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), stored), nil
}
