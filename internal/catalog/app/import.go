package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dejobratic/puravida/internal/catalog/domain"
	"github.com/dejobratic/puravida/internal/catalog/ports"
)

var importHeader = []string{"codigo", "nombre", "categoria", "precio", "stock_minimo", "stock_actual"}

// ImportReport summarizes a CSV import. Errors name the offending line.
type ImportReport struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

// ImportCSV creates or updates one product per row. Bad rows are reported and
// skipped; only an unreadable header or stream aborts the import.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportReport, error) {
	report := ImportReport{Errors: []string{}}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return report, fmt.Errorf("%w: empty csv", ErrInvalidProduct)
		}
		return report, fmt.Errorf("read csv header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return report, err
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", parseErr.Line, parseErr.Err))
				continue
			}
			return report, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		product, err := parseRow(record)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		created, err := s.upsert(ctx, product)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	return report, nil
}

func (s *Service) upsert(ctx context.Context, product domain.Product) (bool, error) {
	_, err := s.repo.FindByCode(ctx, product.Code)
	switch {
	case err == nil:
		_, err = s.Update(ctx, product)
		return false, err
	case errors.Is(err, ports.ErrNotFound):
		_, err = s.Add(ctx, product)
		return true, err
	default:
		return false, err
	}
}

func checkHeader(header []string) error {
	if len(header) != len(importHeader) {
		return fmt.Errorf("%w: header must be %s", ErrInvalidProduct, strings.Join(importHeader, ","))
	}
	for i, name := range header {
		name = strings.TrimPrefix(name, "\uFEFF")
		if !strings.EqualFold(strings.TrimSpace(name), importHeader[i]) {
			return fmt.Errorf("%w: header must be %s", ErrInvalidProduct, strings.Join(importHeader, ","))
		}
	}
	return nil
}

func parseRow(record []string) (domain.Product, error) {
	if len(record) != len(importHeader) {
		return domain.Product{}, fmt.Errorf("expected %d fields, got %d", len(importHeader), len(record))
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid precio %q", record[3])
	}
	minStock, err := strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid stock_minimo %q", record[4])
	}
	stock, err := strconv.Atoi(strings.TrimSpace(record[5]))
	if err != nil {
		return domain.Product{}, fmt.Errorf("invalid stock_actual %q", record[5])
	}

	return domain.Product{
		Code:     record[0],
		Name:     record[1],
		Category: record[2],
		Price:    price,
		MinStock: minStock,
		Stock:    stock,
	}, nil
}
