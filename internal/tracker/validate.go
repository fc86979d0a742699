package tracker

import (
	"net/url"
	"sort"
	"strings"
)

// FieldErrors maps a form field to a human-readable problem. These checks
// are advisory: the backend remains the authority and may still reject.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, "; ")
}

const minNameLength = 3

// Validate applies the client-side form rules for adding a product.
// It returns nil when the input is acceptable.
func (in CreateProductInput) Validate() FieldErrors {
	errs := FieldErrors{}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs["name"] = "product name is required"
	case len(name) < minNameLength:
		errs["name"] = "product name must be at least 3 characters"
	}

	if strings.TrimSpace(in.URL) == "" {
		errs["url"] = "Amazon URL is required"
	} else if !hostContains(in.URL, "amazon") {
		errs["url"] = "please enter a valid Amazon product URL"
	}

	if ml := strings.TrimSpace(in.MercadoLibreURL); ml != "" && !hostContains(ml, "mercadolibre") {
		errs["mercadoLibreUrl"] = "please enter a valid Mercado Libre product URL"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func hostContains(raw, marketplace string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return strings.Contains(u.Hostname(), marketplace)
}

// Normalized returns a copy with surrounding whitespace stripped, ready to
// send to the backend.
func (in CreateProductInput) Normalized() CreateProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.URL = strings.TrimSpace(in.URL)
	in.MercadoLibreURL = strings.TrimSpace(in.MercadoLibreURL)
	return in
}
