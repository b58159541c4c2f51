package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"

	catalog "github.com/dejobratic/puravida/internal/catalog/domain"
	catalogports "github.com/dejobratic/puravida/internal/catalog/ports"
	customers "github.com/dejobratic/puravida/internal/customers/domain"
	orders "github.com/dejobratic/puravida/internal/orders/domain"
	"golang.org/x/sync/errgroup"
)

const (
	topProductsLimit         = 5
	DefaultFrequentThreshold = 3
)

type ProductRevenue struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

type CustomerPurchases struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Purchases  int    `json:"purchases"`
}

// Report is the data behind the operations dashboard.
type Report struct {
	TopProducts       []ProductRevenue    `json:"top_products"`
	FrequentCustomers []CustomerPurchases `json:"frequent_customers"`
	CriticalStock     []catalog.Product   `json:"critical_stock"`
	CriticalThreshold int                 `json:"critical_threshold"`
}

type Dashboard struct {
	products          ProductLister
	customers         CustomerLister
	orders            OrderLister
	frequentThreshold int
	criticalThreshold int
}

// NewDashboard builds a dashboard. Non-positive thresholds use the defaults.
func NewDashboard(products ProductLister, customers CustomerLister, orders OrderLister, frequentThreshold, criticalThreshold int) *Dashboard {
	if frequentThreshold <= 0 {
		frequentThreshold = DefaultFrequentThreshold
	}
	if criticalThreshold <= 0 {
		criticalThreshold = catalog.DefaultCriticalThreshold
	}
	return &Dashboard{
		products:          products,
		customers:         customers,
		orders:            orders,
		frequentThreshold: frequentThreshold,
		criticalThreshold: criticalThreshold,
	}
}

// Build loads the three sources concurrently and aggregates them.
func (d *Dashboard) Build(ctx context.Context) (Report, error) {
	var (
		products []catalog.Product
		people   []customers.Customer
		invoiced []*orders.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = d.products.List(gctx, catalogports.ListFilter{Sort: catalogports.SortByCode})
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		people, err = d.customers.List(gctx)
		if err != nil {
			return fmt.Errorf("list customers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		invoiced, err = invoicedOrders(gctx, d.orders)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	return Report{
		TopProducts:       topProducts(invoiced, topProductsLimit),
		FrequentCustomers: frequentCustomers(invoiced, people, d.frequentThreshold),
		CriticalStock:     criticalStock(products, d.criticalThreshold),
		CriticalThreshold: d.criticalThreshold,
	}, nil
}

// Text renders the dashboard as the plain-text operations summary.
func (d *Dashboard) Text(ctx context.Context) (string, error) {
	report, err := d.Build(ctx)
	if err != nil {
		return "", err
	}
	return Render(report), nil
}

func Render(report Report) string {
	var b strings.Builder
	b.WriteString("=== DASHBOARD DE OPERACIONES ===\n\n")

	b.WriteString("TOP 5 PRODUCTOS POR INGRESOS\n")
	for _, p := range report.TopProducts {
		fmt.Fprintf(&b, "• %s: $%.2f\n", p.Name, p.Revenue)
	}

	b.WriteString("\nCLIENTES FRECUENTES\n")
	for _, c := range report.FrequentCustomers {
		fmt.Fprintf(&b, "• %s: %d compras\n", c.Name, c.Purchases)
	}

	fmt.Fprintf(&b, "\nEXISTENCIAS CRÍTICAS (stock < %d)\n", report.CriticalThreshold)
	for _, p := range report.CriticalStock {
		fmt.Fprintf(&b, "• %s (%s): %d\n", p.Name, p.Code, p.Stock)
	}
	return b.String()
}

func topProducts(invoiced []*orders.Order, limit int) []ProductRevenue {
	byCode := make(map[string]*ProductRevenue)
	for _, order := range invoiced {
		for _, item := range order.Items() {
			entry, ok := byCode[item.ProductCode]
			if !ok {
				entry = &ProductRevenue{Code: item.ProductCode, Name: item.ProductName}
				byCode[item.ProductCode] = entry
			}
			entry.Revenue += item.LineTotal()
		}
	}

	ranked := make([]ProductRevenue, 0, len(byCode))
	for _, entry := range byCode {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue == ranked[j].Revenue {
			return ranked[i].Code < ranked[j].Code
		}
		return ranked[i].Revenue > ranked[j].Revenue
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// purchaseCounts tallies invoiced orders per customer id, remembering the
// name printed on the most recent one.
func purchaseCounts(invoiced []*orders.Order) (map[string]int, map[string]string) {
	counts := make(map[string]int)
	names := make(map[string]string)
	for _, order := range invoiced {
		key := customerKey(order.Customer)
		counts[key]++
		if _, ok := names[key]; !ok {
			names[key] = order.Customer.Name
		}
	}
	return counts, names
}

func customerKey(ref orders.CustomerRef) string {
	if ref.ID != "" {
		return ref.ID
	}
	return ref.Name
}

func frequentCustomers(invoiced []*orders.Order, people []customers.Customer, threshold int) []CustomerPurchases {
	counts, names := purchaseCounts(invoiced)
	for _, c := range people {
		if _, ok := names[c.ID]; ok {
			names[c.ID] = c.Name
		}
	}

	result := make([]CustomerPurchases, 0)
	for key, n := range counts {
		if n < threshold {
			continue
		}
		result = append(result, CustomerPurchases{CustomerID: key, Name: names[key], Purchases: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Purchases == result[j].Purchases {
			return result[i].Name < result[j].Name
		}
		return result[i].Purchases > result[j].Purchases
	})
	return result
}

func criticalStock(products []catalog.Product, threshold int) []catalog.Product {
	result := make([]catalog.Product, 0)
	for _, p := range products {
		if p.IsCritical(threshold) {
			result = append(result, p)
		}
	}
	return result
}
