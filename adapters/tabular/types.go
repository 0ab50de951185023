package tabular

import "strings"

// RawRowData represents a row of raw cell text keyed by canonical column name
type RawRowData map[string]string

// TableData represents one parsed file
type TableData struct {
	Headers []string     // canonical column names, in file order
	Rows    []RawRowData // data rows
}

// Canonical column names
const (
	ColumnCustomerID = "customer_id"
	ColumnChurnProb  = "churn_probability"
	ColumnOrderValue = "average_order_value"
)

// columnAliases maps upstream header spellings onto canonical names
var columnAliases = map[string]string{
	"customer_id":         ColumnCustomerID,
	"cust_uid":            ColumnCustomerID,
	"churn_probability":   ColumnChurnProb,
	"churn_prob":          ColumnChurnProb,
	"average_order_value": ColumnOrderValue,
	"avg_order_value":     ColumnOrderValue,
}

// canonicalColumn returns the canonical name for a header, or the trimmed
// header itself when it is not a known spelling.
func canonicalColumn(header string) string {
	h := strings.TrimSpace(header)
	if c, ok := columnAliases[strings.ToLower(h)]; ok {
		return c
	}
	return h
}
