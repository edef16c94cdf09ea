package schema

// Data holds one observation per series and period. The series identifier is
// stored whole and decoded into its positional fields.
var Data = &Table{
	Name: "data",
	Columns: []Column{
		{Name: "series_id", Type: Text, NotNull: true},
		{Name: "prefix", Type: Text, NotNull: true},
		{Name: "seasonal", Type: Text, NotNull: true},
		{Name: "periodicity", Type: Text, NotNull: true},
		{Name: "area_code", Type: Text, NotNull: true},
		{Name: "base_code", Type: Text, NotNull: true},
		{Name: "item_code", Type: Text, NotNull: true},
		{Name: "year", Type: Integer, NotNull: true},
		{Name: "period", Type: Text, NotNull: true},
		{Name: "value", Type: Real},
		{Name: "footnote_codes", Type: Text},
	},
	Key: []string{"series_id", "year", "period"},
	Indexes: []Index{
		{Name: "data_area_code_idx", Expr: "area_code"},
		{Name: "data_item_code_idx", Expr: "item_code"},
		{Name: "data_full_item_code_idx", Expr: "(base_code || item_code)"},
		{Name: "data_period_idx", Expr: "year, period"},
	},
}

// Areas is the cu.area reference table.
var Areas = &Table{
	Name: "areas",
	Columns: []Column{
		{Name: "area_code", Type: Text, NotNull: true},
		{Name: "area_name", Type: Text},
		{Name: "display_level", Type: Integer},
		{Name: "selectable", Type: Text},
		{Name: "sort_sequence", Type: Integer},
	},
	Key: []string{"area_code"},
}

// Items is the cu.item reference table. item_code is the base code followed by
// the item code of a series identifier.
var Items = &Table{
	Name: "items",
	Columns: []Column{
		{Name: "item_code", Type: Text, NotNull: true},
		{Name: "item_name", Type: Text},
		{Name: "display_level", Type: Integer},
		{Name: "selectable", Type: Text},
		{Name: "sort_sequence", Type: Integer},
	},
	Key: []string{"item_code"},
}

// Periods is the cu.period reference table.
var Periods = &Table{
	Name: "periods",
	Columns: []Column{
		{Name: "period", Type: Text, NotNull: true},
		{Name: "period_abbr", Type: Text},
		{Name: "period_name", Type: Text},
	},
	Key: []string{"period"},
}

// Footnotes is the cu.footnote reference table.
var Footnotes = &Table{
	Name: "footnotes",
	Columns: []Column{
		{Name: "footnote_code", Type: Text, NotNull: true},
		{Name: "footnote_text", Type: Text},
	},
	Key: []string{"footnote_code"},
}

// Series is the cu.series catalog.
var Series = &Table{
	Name: "series",
	Columns: []Column{
		{Name: "series_id", Type: Text, NotNull: true},
		{Name: "prefix", Type: Text, NotNull: true},
		{Name: "seasonal", Type: Text, NotNull: true},
		{Name: "periodicity", Type: Text, NotNull: true},
		{Name: "area_code", Type: Text, NotNull: true},
		{Name: "base_code", Type: Text, NotNull: true},
		{Name: "item_code", Type: Text, NotNull: true},
		{Name: "base_period", Type: Text},
		{Name: "series_title", Type: Text},
		{Name: "footnote_codes", Type: Text},
		{Name: "begin_year", Type: Integer},
		{Name: "begin_period", Type: Text},
		{Name: "end_year", Type: Integer},
		{Name: "end_period", Type: Text},
	},
	Key: []string{"series_id"},
	Indexes: []Index{
		{Name: "series_area_code_idx", Expr: "area_code"},
		{Name: "series_full_item_code_idx", Expr: "(base_code || item_code)"},
	},
}

// LoadLog records every committed file load.
var LoadLog = &Table{
	Name: "load_log",
	Columns: []Column{
		{Name: "source", Type: Text, NotNull: true},
		{Name: "loaded_at", Type: Text, NotNull: true},
		{Name: "table_name", Type: Text, NotNull: true},
		{Name: "checksum", Type: Text},
		{Name: "inserted", Type: Integer, NotNull: true},
		{Name: "updated", Type: Integer, NotNull: true},
		{Name: "unchanged", Type: Integer, NotNull: true},
		{Name: "rejected", Type: Integer, NotNull: true},
	},
	Key: []string{"source", "loaded_at"},
}

// Tables is the full set of tables in creation order.
var Tables = []*Table{Areas, Items, Periods, Footnotes, Series, Data, LoadLog}

// DataView joins observations with their reference names.
const DataView = `CREATE VIEW data_view AS
	SELECT
		d.series_id, d.area_code, a.area_name,
		d.base_code || d.item_code AS item_code, i.item_name,
		d.year, d.period, p.period_name, d.value
	FROM data d
	LEFT JOIN areas a ON a.area_code = d.area_code
	LEFT JOIN items i ON i.item_code = d.base_code || d.item_code
	LEFT JOIN periods p ON p.period = d.period`

// Statements returns every DDL statement needed to bring a database up to the schema.
// Running them again on an existing database changes nothing but the view.
func Statements() []string {
	var stmts []string
	for _, t := range Tables {
		stmts = append(stmts, t.CreateStatements()...)
	}
	return append(stmts, "DROP VIEW IF EXISTS data_view", DataView)
}
