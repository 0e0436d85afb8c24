// Package finance holds the finance-side records produced when progress payments are
// approved (sales invoices and retention receivables) and the exchange rates used to
// express payments in the tenant base currency.
package finance
