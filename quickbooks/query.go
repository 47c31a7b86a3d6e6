package quickbooks

import (
	"encoding/json"
	"fmt"
)

// QueryPageSize is QBO's hard cap on rows per query page.
const QueryPageSize = 1000

type QueryEndpoint struct {
	transport *Transport
}

type queryResponse struct {
	QueryResponse json.RawMessage `json:"QueryResponse"`
}

// Select runs one page of QBO's SQL-like query dialect and decodes the
// QueryResponse envelope into dest.
func (e *QueryEndpoint) Select(query string, dest any) error {
	resp, err := e.transport.Get("/query", map[string]string{"query": query})
	if err != nil {
		return err
	}

	var wrapper queryResponse
	if err := json.Unmarshal(resp.Data, &wrapper); err != nil {
		return fmt.Errorf("failed to decode query response: %w", err)
	}
	if wrapper.QueryResponse == nil {
		return nil
	}
	return json.Unmarshal(wrapper.QueryResponse, dest)
}

func (e *QueryEndpoint) Employees() ([]Employee, error) {
	var all []Employee
	err := e.paged("Employee", func(start int) (int, error) {
		var page struct {
			Employee []Employee `json:"Employee"`
		}
		if err := e.Select(pageQuery("Employee", start), &page); err != nil {
			return 0, err
		}
		all = append(all, page.Employee...)
		return len(page.Employee), nil
	})
	return all, err
}

func (e *QueryEndpoint) Customers() ([]Customer, error) {
	var all []Customer
	err := e.paged("Customer", func(start int) (int, error) {
		var page struct {
			Customer []Customer `json:"Customer"`
		}
		if err := e.Select(pageQuery("Customer", start), &page); err != nil {
			return 0, err
		}
		all = append(all, page.Customer...)
		return len(page.Customer), nil
	})
	return all, err
}

func (e *QueryEndpoint) Classes() ([]Class, error) {
	var all []Class
	err := e.paged("Class", func(start int) (int, error) {
		var page struct {
			Class []Class `json:"Class"`
		}
		if err := e.Select(pageQuery("Class", start), &page); err != nil {
			return 0, err
		}
		all = append(all, page.Class...)
		return len(page.Class), nil
	})
	return all, err
}

func pageQuery(entity string, start int) string {
	return fmt.Sprintf("SELECT * FROM %s STARTPOSITION %d MAXRESULTS %d", entity, start, QueryPageSize)
}

func (e *QueryEndpoint) paged(entity string, fetch func(start int) (int, error)) error {
	start := 1
	for {
		n, err := fetch(start)
		if err != nil {
			return fmt.Errorf("failed to list %s entities: %w", entity, err)
		}
		if n < QueryPageSize {
			return nil
		}
		start += n
	}
}
