package models

// ReportDefinition is the server supplied description of one report:
// the fields it can filter on plus the initial query model
type ReportDefinition struct {
	Name                 string            `json:"name" yaml:"name"`
	From                 string            `json:"from" yaml:"from"`
	Fields               []DataSourceField `json:"fields" yaml:"fields"`
	Select               []DataExpression  `json:"select" yaml:"select"`
	Filters              []FilterField     `json:"filters" yaml:"filters"`
	OrderBy              []OrderByField    `json:"orderBy" yaml:"order_by"`
	SubtotalBy           []SubtotalField   `json:"subtotalBy" yaml:"subtotal_by"`
	AllowedGroupByFields []DataExpression  `json:"allowedGroupByFields,omitempty" yaml:"allowed_group_by_fields,omitempty"`
}

// FieldByName finds a data source field by its stable name
func (d ReportDefinition) FieldByName(name string) (DataSourceField, bool) {
	for _, f := range d.Fields {
		if f.DataSourceFieldName == name {
			return f, true
		}
	}
	return DataSourceField{}, false
}

// ReportMetadata accompanies a result set
type ReportMetadata struct {
	Query                 ReportDefinition `json:"query"`
	NumberOfColumns       int              `json:"numberOfColumns"`
	NumberOfLockedColumns int              `json:"numberOfLockedColumns"`
}

// ReportData is a flat result set plus the expression behind each column index
type ReportData struct {
	RawData            [][]any                `json:"rawData"`
	DataColumnIndexMap map[int]DataExpression `json:"dataColumnIndexMap"`
	Metadata           ReportMetadata         `json:"metadata"`
}

// GroupInfo labels one group of rows
type GroupInfo struct {
	DisplayName  string `json:"displayName"`
	DisplayValue any    `json:"displayValue"`
	GroupByValue any    `json:"groupByValue"`
}

// GroupedData is a node of the grouped report; a node without Info is the ungrouped root
type GroupedData struct {
	Info      *GroupInfo    `json:"info,omitempty"`
	Children  []GroupedData `json:"children,omitempty"`
	Data      [][]any       `json:"data"`
	Subtotals []any         `json:"subtotals"`
}

// Row is one line of the flattened grid. Exactly one of Data or Group is set.
type Row struct {
	Level         int
	Data          []any
	Group         *GroupedData
	IsGroupHeader bool
	// DataRowIndex is the position of a data row within its leaf bucket
	DataRowIndex int
}
